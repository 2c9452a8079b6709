package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

const (
	KindGitHub         = "github"
	defaultGitHubLimit = 3
)

// GitHubLookup finds curated "awesome" lists for a subject through the
// repository search API.
type GitHubLookup struct {
	client *github.Client
	limit  int
}

// NewGitHubLookup authenticates with a personal access token.
func NewGitHubLookup(ctx context.Context, token string) *GitHubLookup {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return NewGitHubLookupWithClient(github.NewClient(oauth2.NewClient(ctx, ts)), defaultGitHubLimit)
}

func NewGitHubLookupWithClient(client *github.Client, limit int) *GitHubLookup {
	if limit <= 0 {
		limit = defaultGitHubLimit
	}
	return &GitHubLookup{client: client, limit: limit}
}

func (g *GitHubLookup) Lookup(ctx context.Context, subject, query string) ([]learning.Platform, error) {
	topic := searchTopic(subject, query)
	if topic == "" {
		return nil, fmt.Errorf("github lookup: nothing to search for")
	}
	q := fmt.Sprintf("awesome %s in:name,description", topic)
	res, _, err := g.client.Search.Repositories(ctx, q, &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: g.limit},
	})
	if err != nil {
		return nil, fmt.Errorf("github search: %w", err)
	}

	out := make([]learning.Platform, 0, len(res.Repositories))
	for _, repo := range res.Repositories {
		if len(out) == g.limit {
			break
		}
		reason := repo.GetDescription()
		if n := repo.GetStargazersCount(); n > 0 {
			reason = strings.TrimSpace(fmt.Sprintf("%s (%d stars)", reason, n))
		}
		out = append(out, learning.Platform{
			Name:   repo.GetFullName(),
			URL:    repo.GetHTMLURL(),
			Kind:   KindGitHub,
			Reason: reason,
		})
	}
	return out, nil
}

// searchTopic prefers an explicit subject; goal type names say nothing to a
// search engine, so those fall back to the first words of the query.
func searchTopic(subject, query string) string {
	subject = strings.TrimSpace(subject)
	if subject != "" && !learning.GoalType(subject).IsValid() {
		return subject
	}
	words := strings.Fields(query)
	if len(words) > 4 {
		words = words[:4]
	}
	return strings.Join(words, " ")
}
