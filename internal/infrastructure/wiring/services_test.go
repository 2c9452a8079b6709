package wiring

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/learnroad/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/learnroad/pkg/ai"
	"github.com/felixgeelhaar/learnroad/pkg/application"
	domainai "github.com/felixgeelhaar/learnroad/pkg/domain/ai"
	"github.com/felixgeelhaar/learnroad/pkg/resources"
	"github.com/felixgeelhaar/learnroad/pkg/storage"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LEARNROAD_AI_PROVIDER", "")
	t.Setenv("LEARNROAD_AI_MODEL", "")
	t.Setenv("GITHUB_TOKEN", "")
}

func TestLoadAIProviderDefaults(t *testing.T) {
	clearProviderEnv(t)
	provider, err := LoadAIProvider(t.TempDir())
	if err != nil {
		t.Fatalf("load provider: %v", err)
	}
	if provider.ID() != "ollama:llama3" {
		t.Fatalf("unexpected provider id: %s", provider.ID())
	}
	if _, ok := provider.(*infraai.ResilientProvider); !ok {
		t.Errorf("provider not wrapped: %T", provider)
	}
}

func TestLoadAIProviderFromConfig(t *testing.T) {
	clearProviderEnv(t)
	root := t.TempDir()
	if err := config.SaveAIConfig(root, &config.AIConfig{Provider: "mock", Model: "m1", MaxRetries: 3}); err != nil {
		t.Fatal(err)
	}
	provider, err := LoadAIProvider(root)
	if err != nil {
		t.Fatal(err)
	}
	if provider.ID() != "mock:m1" {
		t.Errorf("unexpected provider id: %s", provider.ID())
	}
	if rp := provider.(*infraai.ResilientProvider); rp.Config().MaxRetries != 3 {
		t.Errorf("retries not applied: %+v", rp.Config())
	}

	t.Setenv("LEARNROAD_AI_MODEL", "override")
	provider, err = LoadAIProvider(root)
	if err != nil || provider.ID() != "mock:override" {
		t.Errorf("env override ignored: %v %v", provider, err)
	}
}

func TestBuildAppServicesDefaults(t *testing.T) {
	clearProviderEnv(t)
	services, err := BuildAppServices(t.TempDir())
	if err != nil {
		t.Fatalf("build services failed: %v", err)
	}
	if services.Workspace == nil || services.Pipeline == nil || services.Plan == nil || services.Gateway == nil {
		t.Fatalf("expected non-nil services, got %+v", services)
	}
	if services.Doctrine.PassScore != 70 {
		t.Errorf("default doctrine not used")
	}
	if _, ok := services.Lookup.(*resources.Catalog); !ok {
		t.Errorf("expected the static catalog without a token, got %T", services.Lookup)
	}
}

func TestBuildAppServicesFallbackOnInvalidProvider(t *testing.T) {
	clearProviderEnv(t)
	root := t.TempDir()
	if err := config.SaveAIConfig(root, &config.AIConfig{Provider: "unknown", Model: "nope"}); err != nil {
		t.Fatalf("save config: %v", err)
	}

	services, err := BuildAppServices(root)
	if err == nil || !strings.Contains(err.Error(), "fallback") {
		t.Fatalf("expected a fallback error, got %v", err)
	}
	if services == nil || services.Provider.ID() != "ollama:llama3" {
		t.Fatal("expected services on the default provider")
	}
}

func TestBuildAppServicesBadQualityConfig(t *testing.T) {
	clearProviderEnv(t)
	root := t.TempDir()
	dir := filepath.Join(root, ".learnroad")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "quality.yaml"), []byte("pass_score: 10\nregenerate_score: 90\n"), 0600); err != nil {
		t.Fatal(err)
	}
	services, err := BuildAppServices(root)
	if err == nil || !strings.Contains(err.Error(), "quality config") {
		t.Fatalf("expected quality fallback error, got %v", err)
	}
	if services.Doctrine.PassScore != 70 {
		t.Error("bad quality config should fall back to the default doctrine")
	}
}

func TestBuildAppServicesWithProvider(t *testing.T) {
	clearProviderEnv(t)
	mock := &infraai.MockProvider{Model: "scripted", Err: errors.New("offline")}
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, storage.LearnroadDir), 0700); err != nil {
		t.Fatal(err)
	}
	services, err := BuildAppServicesWithProvider(root, func(string) (domainai.Provider, error) {
		return mock, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	out, err := services.Pipeline.Run(context.Background(), pipelineInput("learn go in 30 days"))
	if err != nil {
		t.Fatal(err)
	}
	if out.TotalSteps == 0 {
		t.Error("fallback plan expected")
	}
	if usage := services.Workspace.Usage.GetUsage(); usage.TotalCalls == 0 {
		t.Error("usage not metered through the workspace")
	}
}

func TestNewWorkspace(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	if ws.Repo == nil || ws.Usage == nil {
		t.Fatal("expected repository and usage service")
	}
	if err := ws.Repo.Initialize(); err != nil {
		t.Fatalf("failed to initialize repo: %v", err)
	}
	if !ws.Repo.IsInitialized() {
		t.Fatal("expected repository to be initialized")
	}
}

func pipelineInput(goal string) application.PipelineInput {
	return application.PipelineInput{Goal: goal}
}

func TestPlanWithoutWorkspaceLeavesDirUntouched(t *testing.T) {
	clearProviderEnv(t)
	root := t.TempDir()
	services, err := BuildAppServicesWithProvider(root, func(string) (domainai.Provider, error) {
		return &infraai.MockProvider{Err: errors.New("offline")}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := services.Pipeline.Run(context.Background(), pipelineInput("learn go")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, storage.LearnroadDir)); !os.IsNotExist(err) {
		t.Errorf("an unsaved run created %s: %v", storage.LearnroadDir, err)
	}
}
