package application_test

import (
	"context"
	"errors"
	"testing"

	infraAI "github.com/felixgeelhaar/learnroad/pkg/ai"
	"github.com/felixgeelhaar/learnroad/pkg/application"
	"github.com/felixgeelhaar/learnroad/pkg/domain/ai"
)

type memUsage struct {
	stats   *ai.UsageStats
	loadErr error
	saveErr error
}

func (m *memUsage) LoadUsage() (*ai.UsageStats, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.stats, nil
}

func (m *memUsage) UpdateUsage(s ai.UsageStats) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.stats = &s
	return nil
}

func TestUsageService_RecordCall(t *testing.T) {
	repo := &memUsage{}
	svc := application.NewUsageService(repo)

	if err := svc.RecordCall("diagnose", ai.TokenUsage{InputTokens: 10, OutputTokens: 5}, true); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordCall("diagnose", ai.TokenUsage{InputTokens: 3}, false); err != nil {
		t.Fatal(err)
	}
	got := svc.GetUsage()
	if got.TotalCalls != 2 || got.FailedCalls != 1 {
		t.Errorf("calls %d failed %d", got.TotalCalls, got.FailedCalls)
	}
	if got.Tokens["diagnose:input"] != 13 || got.Tokens["diagnose:output"] != 5 || got.TotalTokens() != 18 {
		t.Errorf("tokens %+v", got.Tokens)
	}
	if got.LastCallAt.IsZero() {
		t.Error("LastCallAt not set")
	}
}

func TestUsageService_UnreadableStartsEmpty(t *testing.T) {
	svc := application.NewUsageService(&memUsage{loadErr: errors.New("corrupt")})
	if got := svc.GetUsage(); got.TotalCalls != 0 || got.Tokens == nil {
		t.Errorf("expected empty stats, got %+v", got)
	}
}

func TestMeteredExecutor(t *testing.T) {
	r := newRouter(happyResponses())
	repo := &memUsage{}
	exec := application.NewMeteredExecutor(newGateway(&infraAI.MockProvider{Handler: r.handle}), application.NewUsageService(repo), nil)

	p := application.NewPipelineService(exec)
	if _, err := p.Run(context.Background(), application.PipelineInput{Goal: calculusGoal}); err != nil {
		t.Fatal(err)
	}
	if repo.stats == nil || repo.stats.TotalCalls != 3 {
		t.Fatalf("expected 3 metered calls, got %+v", repo.stats)
	}

	failing := application.NewMeteredExecutor(newGateway(&infraAI.MockProvider{Err: errors.New("down")}), application.NewUsageService(&memUsage{saveErr: errors.New("ro")}), nil)
	if _, err := application.NewPipelineService(failing).Run(context.Background(), application.PipelineInput{Goal: "learn go"}); err != nil {
		t.Errorf("usage save failure leaked into the run: %v", err)
	}
}
