package resources

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

// Chain asks the primary lookup first and degrades to the fallback when it
// fails or finds nothing. The fallback's error is the only one returned.
type Chain struct {
	primary  learning.PlatformLookup
	fallback learning.PlatformLookup
	logger   *slog.Logger
}

func NewChain(primary, fallback learning.PlatformLookup, logger *slog.Logger) *Chain {
	if fallback == nil {
		fallback = NewCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{primary: primary, fallback: fallback, logger: logger}
}

func (c *Chain) Lookup(ctx context.Context, subject, query string) ([]learning.Platform, error) {
	if c.primary != nil {
		found, err := c.primary.Lookup(ctx, subject, query)
		if err == nil && len(found) > 0 {
			return found, nil
		}
		if err != nil {
			c.logger.Warn("platform lookup degraded to catalog", "error", err)
		}
	}
	return c.fallback.Lookup(ctx, subject, query)
}

// Default builds the lookup used by the CLI and servers: GitHub search when a
// token is set, the catalog otherwise.
func Default(ctx context.Context, githubToken string, logger *slog.Logger) learning.PlatformLookup {
	if githubToken == "" {
		return NewCatalog()
	}
	return NewChain(NewGitHubLookup(ctx, githubToken), NewCatalog(), logger)
}
