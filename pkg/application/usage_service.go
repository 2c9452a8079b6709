package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/learnroad/pkg/domain/ai"
	"github.com/felixgeelhaar/learnroad/pkg/domain/roles"
)

// UsageService tracks generation calls and tokens per role.
type UsageService struct {
	mu   sync.Mutex
	repo ai.UsageRepository
}

func NewUsageService(repo ai.UsageRepository) *UsageService {
	return &UsageService{repo: repo}
}

// RecordCall adds one gateway call to the stored totals.
func (s *UsageService) RecordCall(action string, usage ai.TokenUsage, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.loadOrInitStats()
	stats.TotalCalls++
	if !success {
		stats.FailedCalls++
	}
	stats.LastCallAt = time.Now().UTC()
	if usage.InputTokens > 0 {
		stats.Tokens[action+":input"] += usage.InputTokens
	}
	if usage.OutputTokens > 0 {
		stats.Tokens[action+":output"] += usage.OutputTokens
	}
	return s.repo.UpdateUsage(*stats)
}

// GetUsage returns the current statistics; an unreadable file counts as empty.
func (s *UsageService) GetUsage() *ai.UsageStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadOrInitStats()
}

func (s *UsageService) loadOrInitStats() *ai.UsageStats {
	stats, err := s.repo.LoadUsage()
	if err != nil || stats == nil {
		stats = &ai.UsageStats{}
	}
	if stats.Tokens == nil {
		stats.Tokens = make(map[string]int)
	}
	return stats
}

// MeteredExecutor records every envelope of the wrapped executor.
type MeteredExecutor struct {
	inner  Executor
	usage  *UsageService
	logger *slog.Logger
}

func NewMeteredExecutor(inner Executor, usage *UsageService, logger *slog.Logger) *MeteredExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &MeteredExecutor{inner: inner, usage: usage, logger: logger}
}

func (m *MeteredExecutor) Execute(ctx context.Context, role roles.RoleConfig, pc PromptContext) ExecutionEnvelope {
	env := m.inner.Execute(ctx, role, pc)
	if m.usage != nil {
		if err := m.usage.RecordCall(role.Action, env.Usage, env.Success); err != nil {
			m.logger.Warn("usage record failed", "role", role.Action, "error", err)
		}
	}
	return env
}
