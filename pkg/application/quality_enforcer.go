package application

import (
	"strings"

	"github.com/felixgeelhaar/learnroad/pkg/domain/doctrine"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

// QualityEnforcer rewrites vague instruction lines into concrete ones after
// generation. Rewritten lines always carry a measure, so a second pass is a no-op.
type QualityEnforcer struct {
	d *doctrine.Doctrine
}

func NewQualityEnforcer(d *doctrine.Doctrine) *QualityEnforcer {
	if d == nil {
		d = doctrine.Default()
	}
	return &QualityEnforcer{d: d}
}

// RewriteText rewrites each vague line of text and reports how many changed.
func (q *QualityEnforcer) RewriteText(text, goal, day string) (string, int) {
	if text == "" {
		return text, 0
	}
	lines := strings.Split(text, "\n")
	changed := 0
	for i, line := range lines {
		prefix, rw, vague := q.d.MatchVagueLine(line)
		if !vague {
			continue
		}
		lines[i] = prefix + doctrine.RenderRewrite(rw, goal, day)
		changed++
	}
	return strings.Join(lines, "\n"), changed
}

// Enforce rewrites the method, micro-task descriptions and done-when of a step in place.
func (q *QualityEnforcer) Enforce(step *learning.CurrentStepOutput, goal, day string) int {
	if step == nil {
		return 0
	}
	total := 0
	var n int
	step.Method, n = q.RewriteText(step.Method, goal, day)
	total += n
	for i := range step.MicroTasks {
		step.MicroTasks[i].Description, n = q.RewriteText(step.MicroTasks[i].Description, goal, day)
		total += n
	}
	step.DoneWhen, n = q.RewriteText(step.DoneWhen, goal, day)
	return total + n
}

// EnforceMission applies the same rewrite to a mission's actions and done-when.
func (q *QualityEnforcer) EnforceMission(m *learning.Mission, goal, day string) int {
	if m == nil {
		return 0
	}
	total := 0
	var n int
	for i := range m.Actions {
		m.Actions[i].Description, n = q.RewriteText(m.Actions[i].Description, goal, day)
		total += n
	}
	m.DoneWhen, n = q.RewriteText(m.DoneWhen, goal, day)
	return total + n
}

// ScoreReport is the doctrine's judgement of a piece of text.
type ScoreReport struct {
	Score      int                  `json:"score"`
	Verdict    doctrine.Verdict     `json:"verdict"`
	Violations []doctrine.Violation `json:"violations"`
}

// Score rates text without changing it.
func (q *QualityEnforcer) Score(text string) ScoreReport {
	score := doctrine.ScoreContent(text, q.d)
	violations := doctrine.ListViolations(text, q.d)
	if violations == nil {
		violations = []doctrine.Violation{}
	}
	return ScoreReport{Score: score, Verdict: doctrine.Decide(score, q.d), Violations: violations}
}
