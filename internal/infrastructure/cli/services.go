package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/learnroad/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/learnroad/pkg/storage"
)

func loadServices(root string, warn io.Writer) (*wiring.AppServices, error) {
	services, loadErr := wiring.BuildAppServices(root)
	if services == nil {
		return nil, fmt.Errorf("failed to build services: %w", loadErr)
	}
	if loadErr != nil {
		fmt.Fprintf(warn, "Warning: %v\n", loadErr)
	}
	return services, nil
}

// getProjectRoot returns --project when given. Otherwise it walks up from the
// working directory to the nearest directory holding .learnroad/, falling
// back to the working directory itself.
func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid project path %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %q is not a directory", abs)
		}
		return abs, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findWorkspace(cwd), nil
}

func findWorkspace(start string) string {
	for dir := start; ; {
		if info, err := os.Stat(filepath.Join(dir, storage.LearnroadDir)); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

func loadServicesForCurrentDir() (*wiring.AppServices, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, err
	}
	return loadServices(root, os.Stderr)
}
