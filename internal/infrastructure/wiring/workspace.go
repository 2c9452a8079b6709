package wiring

import (
	"github.com/felixgeelhaar/learnroad/pkg/application"
	"github.com/felixgeelhaar/learnroad/pkg/storage"
)

// Workspace bundles core infrastructure dependencies.
type Workspace struct {
	Root  string
	Repo  *storage.FilesystemRepository
	Usage *application.UsageService
}

func NewWorkspace(root string) *Workspace {
	repo := storage.NewFilesystemRepository(root)
	return &Workspace{
		Root:  root,
		Repo:  repo,
		Usage: application.NewUsageService(repo),
	}
}
