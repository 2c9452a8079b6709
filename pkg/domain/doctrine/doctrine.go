// Package doctrine holds the static content-quality rule set every generated
// learning plan is judged against. A Doctrine is built once and never mutated;
// it is safe to share across any number of concurrent pipeline runs.
package doctrine

import (
	"fmt"
	"regexp"
)

// Severity ranks how badly a violation hurts a piece of content.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Weight is the number of points a single violation of this severity costs.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 30
	case SeverityMajor:
		return 15
	case SeverityMinor:
		return 5
	default:
		return 0
	}
}

// OutputKind names a structured output produced by one generation role.
type OutputKind string

const (
	OutputDiagnostic OutputKind = "diagnostic"
	OutputStrategy   OutputKind = "strategy"
	OutputExecution  OutputKind = "execution"
	OutputMission    OutputKind = "mission"
	OutputHint       OutputKind = "hint"
)

// Rule is a forbidden phrase pattern.
type Rule struct {
	Name     string   `yaml:"name" json:"name"`
	Pattern  string   `yaml:"pattern" json:"pattern"`
	Severity Severity `yaml:"severity" json:"severity"`
	Fix      string   `yaml:"fix" json:"fix"`

	re *regexp.Regexp
}

// RewriteRule maps a vague sentence opener to a concrete replacement template.
// Templates may reference {goal} and {day}.
type RewriteRule struct {
	Opener   string `yaml:"opener" json:"opener"`
	Template string `yaml:"template" json:"template"`
}

// Doctrine is the complete rule set.
type Doctrine struct {
	Rules            []Rule
	RequiredFields   map[OutputKind][]string
	MinCounts        map[string]int
	PassScore        int
	RegenerateScore  int
	MaxRegenerations int
	VagueRewrites    []RewriteRule
}

// Options overrides parts of the default doctrine. Zero values keep the default.
type Options struct {
	PassScore        int
	RegenerateScore  int
	MaxRegenerations int
	VagueRewrites    []RewriteRule
}

const (
	DefaultPassScore        = 70
	DefaultRegenerateScore  = 50
	DefaultMaxRegenerations = 3
)

var defaultRules = []Rule{
	{
		Name:     "vague_learn_about",
		Pattern:  `(?i)\blearn about\b`,
		Severity: SeverityMajor,
		Fix:      "Name the exact chapter, section or problem set and what to produce from it.",
	},
	{
		Name:     "vague_understand",
		Pattern:  `(?i)\b(understand|grasp)\b`,
		Severity: SeverityMajor,
		Fix:      "Replace with an observable action: solve, write, explain aloud, build.",
	},
	{
		Name:     "vague_familiarity",
		Pattern:  `(?i)\b(get|become) (familiar|comfortable) with\b|\bfamiliari[sz]e yourself\b`,
		Severity: SeverityMajor,
		Fix:      "State the artifact that proves familiarity, e.g. a one-page summary.",
	},
	{
		Name:     "vague_explore",
		Pattern:  `(?i)\b(explore|look into|dive into|delve into)\b`,
		Severity: SeverityMajor,
		Fix:      "Give a destination and a stopping point.",
	},
	{
		Name:     "unmeasurable_mastery",
		Pattern:  `(?i)\b(master|become an expert|be an expert|fully comprehend)\b`,
		Severity: SeverityCritical,
		Fix:      "Replace with a measurable threshold, e.g. 8/10 correct under time.",
	},
	{
		Name:     "template_leak",
		Pattern:  `(?i)(\[insert|\bTBD\b|\blorem ipsum\b|\{\{)`,
		Severity: SeverityCritical,
		Fix:      "Fill in the placeholder with concrete content.",
	},
	{
		Name:     "open_ended_time",
		Pattern:  `(?i)\b(as needed|as much as possible|whenever you can|some time)\b`,
		Severity: SeverityMajor,
		Fix:      "Give a number of minutes or a deadline.",
	},
	{
		Name:     "hedging",
		Pattern:  `(?i)\b(try to|maybe|perhaps|if you have time|if you want)\b`,
		Severity: SeverityMinor,
		Fix:      "State the instruction directly.",
	},
	{
		Name:     "filler",
		Pattern:  `(?i)(\betc\.|\band so on\b|\band more\b)`,
		Severity: SeverityMinor,
		Fix:      "List the items explicitly.",
	},
}

var defaultRewrites = []RewriteRule{
	{Opener: "practice", Template: `Complete 10 timed problems on "{goal}" on a notebook page labeled {day}, then mark each answer right or wrong against the solution key.`},
	{Opener: "review", Template: `Rewrite your notes on "{goal}" from memory on 1 page labeled {day}, then compare with the source and circle 3 gaps.`},
	{Opener: "study", Template: `Read 1 named section on "{goal}", write a 5-line summary under {day}, and answer 3 questions on it without looking.`},
	{Opener: "learn", Template: `Pick 1 subtopic of "{goal}", write 3 example problems with answers under {day}, and check them against a reference solution.`},
	{Opener: "go over", Template: `Redo 5 problems on "{goal}" you got wrong before, logging each result under {day} with the fix you applied.`},
	{Opener: "work on", Template: `Produce 1 finished artifact for "{goal}" under {day} and list 3 checks it passes.`},
	{Opener: "read about", Template: `Read 1 chapter on "{goal}" and write 3 questions it answers under {day}, then answer them without the text.`},
	{Opener: "look at", Template: `Open 2 worked examples on "{goal}", copy their steps into your notebook under {day}, and redo both without looking.`},
	{Opener: "focus on", Template: `Spend 25 minutes on the single weakest part of "{goal}", recording 3 solved items under {day}.`},
	{Opener: "brush up on", Template: `Answer 10 recall questions on "{goal}" under {day} and score yourself out of 10.`},
	{Opener: "revise", Template: `Write a 1-page cheat sheet for "{goal}" under {day} and test it against 5 past questions.`},
}

var defaultMinCounts = map[string]int{
	"knowledge_gaps":  2,
	"prerequisites":   1,
	"common_risks":    2,
	"success_metrics": 2,
	"out_of_scope":    1,
	"milestones":      2,
	"micro_tasks":     3,
	"time_breakdown":  2,
	"common_mistakes": 2,
	"self_test":       2,
	"resources":       1,
	"mission_actions": 2,
	"mission_avoid":   1,
}

var defaultRequiredFields = map[OutputKind][]string{
	OutputDiagnostic: {"goal_type", "urgency", "scope", "user_level", "knowledge_gaps", "prerequisites", "root_cause"},
	OutputStrategy:   {"transformation", "critical_risk", "common_risks", "success_metrics", "out_of_scope", "milestones", "success_looks_like"},
	OutputExecution:  {"title", "overview", "vision", "target_user", "daily_minutes", "current_step", "locked_steps"},
	OutputMission:    {"actions", "avoid", "done_when"},
	OutputHint:       {"hint", "next_action"},
}

var compiledDefaults = mustCompile(defaultRules)

func mustCompile(rules []Rule) []Rule {
	out, err := compileRules(rules)
	if err != nil {
		panic(err)
	}
	return out
}

func compileRules(rules []Rule) ([]Rule, error) {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule %s: %w", r.Name, err)
		}
		r.re = re
		out[i] = r
	}
	return out, nil
}

// Default returns a fresh copy of the built-in doctrine.
func Default() *Doctrine {
	required := make(map[OutputKind][]string, len(defaultRequiredFields))
	for k, v := range defaultRequiredFields {
		required[k] = append([]string(nil), v...)
	}
	counts := make(map[string]int, len(defaultMinCounts))
	for k, v := range defaultMinCounts {
		counts[k] = v
	}
	return &Doctrine{
		Rules:            append([]Rule(nil), compiledDefaults...),
		RequiredFields:   required,
		MinCounts:        counts,
		PassScore:        DefaultPassScore,
		RegenerateScore:  DefaultRegenerateScore,
		MaxRegenerations: DefaultMaxRegenerations,
		VagueRewrites:    append([]RewriteRule(nil), defaultRewrites...),
	}
}

// New builds a doctrine from the defaults with the given overrides applied.
func New(opts Options) (*Doctrine, error) {
	d := Default()
	if opts.PassScore > 0 {
		d.PassScore = opts.PassScore
	}
	if opts.RegenerateScore > 0 {
		d.RegenerateScore = opts.RegenerateScore
	}
	if opts.MaxRegenerations > 0 {
		d.MaxRegenerations = opts.MaxRegenerations
	}
	if len(opts.VagueRewrites) > 0 {
		d.VagueRewrites = append([]RewriteRule(nil), opts.VagueRewrites...)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// MinCount returns the minimum item count for a list field, or 0.
func (d *Doctrine) MinCount(field string) int {
	if d == nil {
		return defaultMinCounts[field]
	}
	return d.MinCounts[field]
}

// RuleNames lists the names of all forbidden rules.
func (d *Doctrine) RuleNames() []string {
	names := make([]string, 0, len(d.Rules))
	for _, r := range d.Rules {
		names = append(names, r.Name)
	}
	return names
}

// Validate checks the thresholds and that every rewrite template is itself
// free of vague openers once rendered.
func (d *Doctrine) Validate() error {
	if d.PassScore <= 0 || d.PassScore > 100 {
		return fmt.Errorf("pass score %d out of range 1..100", d.PassScore)
	}
	if d.RegenerateScore <= 0 || d.RegenerateScore >= d.PassScore {
		return fmt.Errorf("regenerate score %d must be between 1 and pass score %d", d.RegenerateScore, d.PassScore)
	}
	if d.MaxRegenerations < 0 {
		return fmt.Errorf("max regenerations cannot be negative")
	}
	for _, r := range d.Rules {
		if r.re == nil {
			return fmt.Errorf("rule %s is not compiled", r.Name)
		}
	}
	for _, rw := range d.VagueRewrites {
		if rw.Opener == "" || rw.Template == "" {
			return fmt.Errorf("rewrite rule needs both opener and template")
		}
		for _, sample := range d.VagueRewrites {
			rendered := RenderRewrite(rw, sample.Opener, "Day 1")
			if _, _, vague := d.MatchVagueLine(rendered); vague {
				return fmt.Errorf("rewrite template for %q is itself vague: %s", rw.Opener, rendered)
			}
		}
	}
	return nil
}
