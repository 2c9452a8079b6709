package doctrine

import (
	"sort"
	"strings"
	"unicode"
)

// Violation is one rule hit inside a piece of text.
type Violation struct {
	Rule     string   `json:"rule"`
	Match    string   `json:"match"`
	Fix      string   `json:"fix"`
	Severity Severity `json:"severity"`
	Offset   int      `json:"offset"`
}

// Verdict is the action a score calls for.
type Verdict string

const (
	VerdictPass       Verdict = "pass"
	VerdictRegenerate Verdict = "regenerate"
	VerdictFallback   Verdict = "fallback"
)

// ListViolations returns every forbidden-pattern hit in text order.
func ListViolations(text string, d *Doctrine) []Violation {
	if d == nil {
		d = Default()
	}
	var out []Violation
	for _, r := range d.Rules {
		if r.re == nil {
			continue
		}
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			out = append(out, Violation{
				Rule:     r.Name,
				Match:    text[loc[0]:loc[1]],
				Fix:      r.Fix,
				Severity: r.Severity,
				Offset:   loc[0],
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// ScoreContent rates text from 0 to 100. Empty text scores 0.
func ScoreContent(text string, d *Doctrine) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	score := 100
	for _, v := range ListViolations(text, d) {
		score -= v.Severity.Weight()
	}
	if score < 0 {
		return 0
	}
	return score
}

// Decide maps a score onto the doctrine thresholds.
func Decide(score int, d *Doctrine) Verdict {
	if d == nil {
		d = Default()
	}
	switch {
	case score >= d.PassScore:
		return VerdictPass
	case score >= d.RegenerateScore:
		return VerdictRegenerate
	default:
		return VerdictFallback
	}
}

// MatchVagueLine reports whether line opens with a vague verb and carries no
// measure. prefix is any bullet or numbering in front of the instruction.
func (d *Doctrine) MatchVagueLine(line string) (prefix string, rule RewriteRule, vague bool) {
	prefix, body := splitListPrefix(line)
	if body == "" || strings.IndexFunc(body, unicode.IsDigit) >= 0 {
		return prefix, RewriteRule{}, false
	}
	lower := strings.ToLower(body)
	for _, rw := range d.VagueRewrites {
		opener := strings.ToLower(strings.TrimSpace(rw.Opener))
		if opener == "" || !strings.HasPrefix(lower, opener) {
			continue
		}
		rest := lower[len(opener):]
		if rest == "" || !isWordRune(firstRune(rest)) {
			return prefix, rw, true
		}
	}
	return prefix, RewriteRule{}, false
}

// RenderRewrite fills a rewrite template with the goal and day label.
func RenderRewrite(rw RewriteRule, goal, day string) string {
	goal = strings.Join(strings.Fields(goal), " ")
	day = strings.Join(strings.Fields(day), " ")
	return strings.NewReplacer("{goal}", goal, "{day}", day).Replace(rw.Template)
}

func splitListPrefix(line string) (string, string) {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	j := i
	switch {
	case j < len(line) && (line[j] == '-' || line[j] == '*'):
		j++
	case strings.HasPrefix(line[j:], "•"):
		j += len("•")
	default:
		k := j
		for k < len(line) && line[k] >= '0' && line[k] <= '9' {
			k++
		}
		if k > j && k < len(line) && (line[k] == '.' || line[k] == ')') {
			j = k + 1
		}
	}
	for j < len(line) && (line[j] == ' ' || line[j] == '\t') {
		j++
	}
	return line[:j], strings.TrimSpace(line[j:])
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '-'
}
