package resources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-github/v69/github"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

const searchBody = `{"total_count":4,"incomplete_results":false,"items":[
 {"full_name":"sindresorhus/awesome-calculus","html_url":"https://github.com/x/awesome-calculus","description":"Curated calculus resources","stargazers_count":1200},
 {"full_name":"b/awesome-limits","html_url":"https://github.com/b/awesome-limits","description":"","stargazers_count":0},
 {"full_name":"c/three","html_url":"https://github.com/c/three"},
 {"full_name":"d/four","html_url":"https://github.com/d/four"}
]}`

func newTestLookup(t *testing.T, h http.HandlerFunc) *GitHubLookup {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client := github.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	client.BaseURL = base
	return NewGitHubLookupWithClient(client, 3)
}

func TestGitHubLookup(t *testing.T) {
	var gotQuery, gotSort string
	g := newTestLookup(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/repositories" {
			http.NotFound(w, r)
			return
		}
		gotQuery, gotSort = r.URL.Query().Get("q"), r.URL.Query().Get("sort")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	})

	found, err := g.Lookup(context.Background(), "calculus", "pass calculus in 2 weeks")
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "awesome calculus in:name,description" || gotSort != "stars" {
		t.Errorf("query %q sort %q", gotQuery, gotSort)
	}
	if len(found) != 3 {
		t.Fatalf("expected the limit to cap results, got %d", len(found))
	}
	if found[0].Kind != KindGitHub || found[0].Reason != "Curated calculus resources (1200 stars)" {
		t.Errorf("first result %+v", found[0])
	}
	if found[1].Reason != "" {
		t.Errorf("empty description should stay empty, got %q", found[1].Reason)
	}
}

func TestGitHubLookup_Errors(t *testing.T) {
	g := newTestLookup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	})
	if _, err := g.Lookup(context.Background(), "go", ""); err == nil || !strings.Contains(err.Error(), "github search") {
		t.Errorf("expected a wrapped search error, got %v", err)
	}
	if _, err := g.Lookup(context.Background(), "", "  "); err == nil {
		t.Error("expected an error with nothing to search for")
	}
}

func TestSearchTopic(t *testing.T) {
	cases := []struct{ subject, query, want string }{
		{"rust", "anything", "rust"},
		{"programming", "learn rust for embedded work today", "learn rust for embedded"},
		{"", "spanish", "spanish"},
	}
	for _, c := range cases {
		if got := searchTopic(c.subject, c.query); got != c.want {
			t.Errorf("searchTopic(%q, %q) = %q, want %q", c.subject, c.query, got, c.want)
		}
	}
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	ctx := context.Background()

	byType, err := c.Lookup(ctx, "language", "")
	if err != nil || len(byType) == 0 {
		t.Fatalf("lookup by goal type: %v %v", byType, err)
	}
	if byType[0].Name != catalog[learning.GoalLanguage][0].Name {
		t.Errorf("goal type key ignored: %+v", byType[0])
	}

	general, _ := c.Lookup(ctx, "", "something unclassifiable")
	if len(general) != len(catalog[learning.GoalGeneral]) {
		t.Errorf("expected the general list, got %+v", general)
	}

	general[0].Name = "mutated"
	again, _ := c.Lookup(ctx, "", "something unclassifiable")
	if again[0].Name == "mutated" {
		t.Error("catalog entries are shared with callers")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := c.Lookup(cancelled, "go", ""); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type stubLookup struct {
	out []learning.Platform
	err error
	n   int
}

func (s *stubLookup) Lookup(context.Context, string, string) ([]learning.Platform, error) {
	s.n++
	return s.out, s.err
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	hit := &stubLookup{out: []learning.Platform{{Name: "primary"}}}
	fb := &stubLookup{out: []learning.Platform{{Name: "fallback"}}}

	got, err := NewChain(hit, fb, nil).Lookup(ctx, "s", "q")
	if err != nil || got[0].Name != "primary" || fb.n != 0 {
		t.Errorf("primary hit: %v %v (fallback calls %d)", got, err, fb.n)
	}

	for _, primary := range []*stubLookup{{err: errors.New("down")}, {}} {
		got, err = NewChain(primary, fb, nil).Lookup(ctx, "s", "q")
		if err != nil || got[0].Name != "fallback" {
			t.Errorf("expected fallback, got %v %v", got, err)
		}
	}

	got, err = NewChain(nil, nil, nil).Lookup(ctx, "language", "")
	if err != nil || len(got) == 0 {
		t.Errorf("nil primary should use the catalog: %v %v", got, err)
	}
}

func TestDefault(t *testing.T) {
	if _, ok := Default(context.Background(), "", nil).(*Catalog); !ok {
		t.Error("no token should give the bare catalog")
	}
	if _, ok := Default(context.Background(), "tok", nil).(*Chain); !ok {
		t.Error("token should give a chain")
	}
}
