// Package resources implements learning.PlatformLookup: a built-in catalog,
// a GitHub search backed lookup and a chain that degrades to the catalog.
package resources

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

const KindStatic = "catalog"

var catalog = map[learning.GoalType][]learning.Platform{
	learning.GoalTestPrep: {
		{Name: "Khan Academy", URL: "https://www.khanacademy.org", Kind: "course", Reason: "free drills with instant scoring"},
		{Name: "Anki", URL: "https://apps.ankiweb.net", Kind: "tool", Reason: "spaced repetition for formulas and definitions"},
		{Name: "Past papers from your exam board", URL: "https://www.google.com/search?q=past+papers", Kind: "practice", Reason: "timed practice on the real format"},
	},
	learning.GoalLanguage: {
		{Name: "Anki", URL: "https://apps.ankiweb.net", Kind: "tool", Reason: "vocabulary decks with spaced repetition"},
		{Name: "italki", URL: "https://www.italki.com", Kind: "tutor", Reason: "paid conversation practice with native speakers"},
		{Name: "Forvo", URL: "https://forvo.com", Kind: "reference", Reason: "native pronunciation audio for single words"},
	},
	learning.GoalProgramming: {
		{Name: "Exercism", URL: "https://exercism.org", Kind: "practice", Reason: "katas with tests and mentor feedback"},
		{Name: "Official language documentation", URL: "https://devdocs.io", Kind: "reference", Reason: "searchable docs for most languages"},
		{Name: "GitHub", URL: "https://github.com", Kind: "community", Reason: "publish projects and read real code"},
	},
	learning.GoalProject: {
		{Name: "GitHub", URL: "https://github.com", Kind: "community", Reason: "version control and public launch"},
		{Name: "Product Hunt", URL: "https://www.producthunt.com", Kind: "community", Reason: "launch and first users"},
	},
	learning.GoalCareer: {
		{Name: "LinkedIn Jobs", URL: "https://www.linkedin.com/jobs", Kind: "jobs", Reason: "collect postings for the target role"},
		{Name: "Pramp", URL: "https://www.pramp.com", Kind: "practice", Reason: "free peer mock interviews"},
	},
	learning.GoalGeneral: {
		{Name: "Coursera", URL: "https://www.coursera.org", Kind: "course", Reason: "structured courses with graded work"},
		{Name: "Anki", URL: "https://apps.ankiweb.net", Kind: "tool", Reason: "spaced repetition for anything you must recall"},
	},
}

// Catalog is the built-in platform list, keyed by goal type.
type Catalog struct{}

func NewCatalog() *Catalog { return &Catalog{} }

// Lookup classifies subject and query and returns that category's platforms.
// subject may be a goal type name.
func (c *Catalog) Lookup(ctx context.Context, subject, query string) ([]learning.Platform, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gt := learning.GoalType(strings.TrimSpace(subject))
	if !gt.IsValid() {
		gt = learning.CategorizeGoal(subject + " " + query).Type
	}
	out := append([]learning.Platform(nil), catalog[gt]...)
	if len(out) == 0 {
		out = append(out, catalog[learning.GoalGeneral]...)
	}
	for i := range out {
		if out[i].Kind == "" {
			out[i].Kind = KindStatic
		}
	}
	return out, nil
}
