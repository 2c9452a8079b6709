package wiring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/learnroad/internal/infrastructure/config"
	"github.com/felixgeelhaar/learnroad/pkg/ai"
	"github.com/felixgeelhaar/learnroad/pkg/application"
	domainai "github.com/felixgeelhaar/learnroad/pkg/domain/ai"
	"github.com/felixgeelhaar/learnroad/pkg/domain/doctrine"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
	"github.com/felixgeelhaar/learnroad/pkg/prompts"
	"github.com/felixgeelhaar/learnroad/pkg/resources"
)

// AppServices exposes the application layer services wired together with a workspace.
type AppServices struct {
	Workspace *Workspace
	Provider  domainai.Provider
	Doctrine  *doctrine.Doctrine
	Gateway   application.Executor
	Pipeline  *application.PipelineService
	Plan      *application.PlanService
	Lookup    learning.PlatformLookup
}

// BuildAppServices constructs the services for a workspace root. A bad AI
// config falls back to the default provider; the returned error then
// describes the fallback and the services are still usable.
func BuildAppServices(root string) (*AppServices, error) {
	return BuildAppServicesWithProvider(root, LoadAIProvider)
}

// BuildAppServicesWithProvider allows callers to supply a custom AI provider resolver.
func BuildAppServicesWithProvider(root string, resolver func(string) (domainai.Provider, error)) (*AppServices, error) {
	logger := slog.Default()
	workspace := NewWorkspace(root)

	var loadErr error
	provider, err := resolver(root)
	if err != nil {
		loadErr = fmt.Errorf("AI provider config fallback: %w", err)
		fallback, fallbackErr := ai.NewProvider(ai.ProviderConfig{Provider: config.DefaultProvider, Model: config.DefaultModel})
		if fallbackErr != nil {
			return nil, fmt.Errorf("fallback AI provider failed: %w", fallbackErr)
		}
		provider = ai.NewResilientProvider(fallback)
	}

	d, err := config.LoadDoctrine(root)
	if err != nil {
		loadErr = errors.Join(loadErr, fmt.Errorf("quality config fallback: %w", err))
		d = doctrine.Default()
	}

	gateway := application.NewMeteredExecutor(
		application.NewExecutionGateway(provider, prompts.Default(), logger),
		workspace.Usage,
		logger,
	)
	lookup := resources.Default(context.Background(), config.GitHubToken(), logger)

	services := &AppServices{
		Workspace: workspace,
		Provider:  provider,
		Doctrine:  d,
		Gateway:   gateway,
		Pipeline: application.NewPipelineService(gateway,
			application.WithDoctrine(d),
			application.WithPlatformLookup(lookup),
			application.WithLogger(logger),
		),
		Plan:   application.NewPlanService(workspace.Repo, gateway, d, logger),
		Lookup: lookup,
	}

	return services, loadErr
}
