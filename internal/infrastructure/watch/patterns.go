package watch

import (
	"path/filepath"
	"strings"
)

// OutputSuffix marks the plan written next to a processed goal file.
const OutputSuffix = ".plan.json"

// PatternFilter selects goal files by base-name globs.
type PatternFilter struct {
	Include []string
	Exclude []string
}

func NewPatternFilter(include, exclude []string) *PatternFilter {
	return &PatternFilter{Include: include, Exclude: exclude}
}

// DefaultGoalFilter accepts plain-text goal files and ignores hidden files,
// editor backups and the plans the inbox writes itself.
func DefaultGoalFilter() *PatternFilter {
	return NewPatternFilter(
		[]string{"*.goal", "*.txt", "*.md"},
		[]string{".*", "*~", "*.swp", "*" + OutputSuffix},
	)
}

// Matches reports whether path passes the filter. Excludes win over includes;
// an empty include list accepts everything not excluded.
func (f *PatternFilter) Matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, OutputSuffix) {
		return false
	}
	if matchAny(f.Exclude, base) {
		return false
	}
	return len(f.Include) == 0 || matchAny(f.Include, base)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// OutputPath returns where the plan for goalPath is written.
func OutputPath(goalPath string) string {
	return strings.TrimSuffix(goalPath, filepath.Ext(goalPath)) + OutputSuffix
}
