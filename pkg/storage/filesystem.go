package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

const LearnroadDir = ".learnroad"
const PlanFile = "plan.json"
const HistoryFile = "history.jsonl"
const AIConfigFile = "ai.yaml"
const QualityConfigFile = "quality.yaml"

// FilesystemRepository keeps the learner's plan under root/.learnroad.
type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// ResolvePath ensures the path is a direct child of .learnroad.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := filepath.Join(r.root, LearnroadDir)
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	path := filepath.Join(r.root, LearnroadDir)
	// G301: Use 0700 for directories
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", LearnroadDir, err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, LearnroadDir))
	return err == nil
}

// SavePlan writes plan.json through a temp file so readers never see a
// partial document.
func (r *FilesystemRepository) SavePlan(p *learning.Plan) error {
	if p == nil {
		return fmt.Errorf("cannot save a nil plan")
	}
	if err := r.Initialize(); err != nil {
		return err
	}
	path, err := r.ResolvePath(PlanFile)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	return writeAtomic(path, data)
}

// writeAtomic writes through a uniquely named temp file in the target dir
// and renames it into place. CreateTemp already uses mode 0600.
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadPlan returns nil, nil when no plan has been saved yet.
func (r *FilesystemRepository) LoadPlan() (*learning.Plan, error) {
	path, err := r.ResolvePath(PlanFile)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	retryer := retry.New[*learning.Plan](r.retryConfig)
	return retryer.Do(context.Background(), func(ctx context.Context) (*learning.Plan, error) {
		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read plan file: %w", err)
		}

		var p learning.Plan
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
		}
		return &p, nil
	})
}

// ReadConfig returns the raw bytes of a config file under .learnroad, or
// nil when it does not exist.
func (r *FilesystemRepository) ReadConfig(name string) ([]byte, error) {
	path, err := r.ResolvePath(name)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// WriteConfig stores a config file under .learnroad.
func (r *FilesystemRepository) WriteConfig(name string, data []byte) error {
	if err := r.Initialize(); err != nil {
		return err
	}
	path, err := r.ResolvePath(name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
