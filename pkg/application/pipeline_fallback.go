package application

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

const maxTitleGoal = 60

func scopeFor(tf learning.Timeframe) learning.Scope {
	switch {
	case !tf.Detected:
		return learning.ScopeModerate
	case tf.Days <= 14:
		return learning.ScopeNarrow
	case tf.Days <= 90:
		return learning.ScopeModerate
	default:
		return learning.ScopeBroad
	}
}

func fallbackDiagnosis(st *runState) DiagnosticResult {
	templates := st.category.Templates
	if len(templates) == 0 {
		templates = learning.TemplatesFor(st.category.Type)
	}
	d := DiagnosticResult{
		GoalType:  st.category.Type,
		Scope:     scopeFor(st.deadline),
		UserLevel: "beginner",
		RootCause: "no fixed daily slot and no measurable check for " + quoted(st.goal),
	}
	d.Urgency = learning.UrgencyFor(st.deadline.Days)

	if st.input != nil {
		for i, s := range st.input.Subtopics {
			d.KnowledgeGaps = append(d.KnowledgeGaps, KnowledgeGap{Gap: s, Priority: min(i+1, 5)})
		}
		d.Prerequisites = append(d.Prerequisites, st.input.Prerequisites...)
	}
	for i := 0; len(d.KnowledgeGaps) < 2 && i < len(templates); i++ {
		d.KnowledgeGaps = append(d.KnowledgeGaps, KnowledgeGap{Gap: templates[i].Focus, Priority: len(d.KnowledgeGaps) + 1})
	}
	if len(d.Prerequisites) == 0 {
		d.Prerequisites = []string{"a fixed daily time slot for " + quoted(st.goal)}
	}
	return d
}

func fallbackStrategy(st *runState) StrategyResult {
	templates := learning.TemplatesN(st.category.Type, st.steps)
	first, last := templates[0], templates[len(templates)-1]
	s := StrategyResult{
		Transformation: Transformation{
			From:      "no measured starting point for " + quoted(st.goal),
			To:        last.DoneWhen,
			Narrative: fmt.Sprintf("Run %d steps over %d days, each closed by a check you can score.", st.steps, st.days),
		},
		CriticalRisk: CriticalRisk{
			Mistake:     first.Pitfall,
			Consequence: "the first step produces no score, so every later step is planned blind",
		},
		SuccessLooksLike: last.DoneWhen,
		OutOfScope:       []string{"material that no step of this plan checks"},
	}
	for _, t := range templates[1:min(3, len(templates))] {
		s.CommonRisks = append(s.CommonRisks, Risk{Risk: t.Pitfall, Mitigation: t.DoneWhen})
	}
	for len(s.CommonRisks) < 2 {
		s.CommonRisks = append(s.CommonRisks, Risk{Risk: "missing 2 days in a row", Mitigation: "book the daily slot in your calendar"})
	}
	s.SuccessMetrics = []string{first.DoneWhen, last.DoneWhen}
	for i, w := range st.schedule {
		s.Milestones = append(s.Milestones, StrategyMilestone{Day: w.End, Label: templates[i].Title})
	}
	return s
}

func fallbackExecution(st *runState, diag DiagnosticResult) ExecutionResult {
	templates := learning.TemplatesN(st.category.Type, st.steps)
	t := templates[0]
	minutes := dailyMinutes(diag.Urgency)
	work := minutes - 20

	e := ExecutionResult{
		Title:        fmt.Sprintf("%d-day plan: %s", st.days, shorten(st.goal, maxTitleGoal)),
		Overview:     fmt.Sprintf("%d steps, %d minutes a day, each step closed by a check.", st.steps, minutes),
		Vision:       t.DoneWhen,
		TargetUser:   fmt.Sprintf("a %s learner working toward %s", diag.UserLevel, quoted(st.goal)),
		DailyMinutes: minutes,
		CurrentStep: learning.CurrentStepOutput{
			Title:       t.Title,
			Description: capitalize(t.Focus) + ".",
			Method:      fmt.Sprintf("Each session: 10 minutes planning, %d minutes to %s, 10 minutes checking.", work, t.Focus),
			TimeBreakdown: []learning.TimeBlock{
				{Activity: "plan the session", Minutes: 10},
				{Activity: t.Focus, Minutes: work},
				{Activity: "check against the done condition", Minutes: 10},
			},
			CommonMistakes: []string{t.Pitfall, "ending the session without the 10-minute check"},
			DoneWhen:       capitalize(t.DoneWhen) + ".",
			SelfTest: []string{
				"Can you show written evidence that " + t.DoneWhen + "?",
				"Which 1 task took longest, and what would cut its time in half?",
			},
			Resources: []learning.Resource{
				{Title: t.Title + " reference", Type: "search", Query: st.goal + " " + strings.ToLower(t.Title)},
			},
			MicroTasks: []learning.MicroTask{
				{Order: 1, Description: fmt.Sprintf("Write 3 outcomes this step must produce for %s", quoted(st.goal)), Minutes: 10, Type: learning.ActionCreate},
				{Order: 2, Description: fmt.Sprintf("Spend %d minutes to %s", work, t.Focus), Minutes: work, Type: t.Action},
				{Order: 3, Description: fmt.Sprintf("Check 1 result against: %s", t.DoneWhen), Minutes: 10, Type: learning.ActionReview},
			},
		},
	}
	for _, lt := range templates[1:] {
		e.LockedSteps = append(e.LockedSteps, learning.LockedStepOutput{Title: lt.Title, Preview: capitalize(lt.Focus)})
	}
	return e
}

// MinimalPlan is the static plan returned when assembly itself fails.
func MinimalPlan(goal string) *learning.PlanOutput {
	goal = strings.Join(strings.Fields(goal), " ")
	if goal == "" {
		goal = PlaceholderGoal
	}
	const days = 14
	templates := learning.TemplatesN(learning.GoalGeneral, learning.MinSteps)
	schedule := learning.BuildSchedule(days, learning.MinSteps)
	first, second := templates[0], templates[1]
	return &learning.PlanOutput{
		Title:            fmt.Sprintf("%d-day plan: %s", days, shorten(goal, maxTitleGoal)),
		Overview:         "2 steps over 14 days, 60 minutes a day.",
		Vision:           first.DoneWhen,
		TargetUser:       "a learner working toward " + quoted(goal),
		GoalType:         learning.GoalGeneral,
		TotalSteps:       learning.MinSteps,
		EstimatedDays:    days,
		DailyCommitment:  "60 minutes per day",
		TotalMinutes:     60 * days,
		SuccessLooksLike: second.DoneWhen,
		SuccessMetrics:   []string{first.DoneWhen, second.DoneWhen},
		OutOfScope:       []string{"material that no step of this plan checks"},
		CurrentStep: learning.CurrentStepOutput{
			Title:          first.Title,
			Description:    capitalize(first.Focus) + ".",
			Timeframe:      schedule[0].Label(),
			Method:         "Each session: 10 minutes planning, 40 minutes working, 10 minutes checking.",
			TimeBreakdown:  []learning.TimeBlock{{Activity: "plan", Minutes: 10}, {Activity: "work", Minutes: 40}, {Activity: "check", Minutes: 10}},
			CommonMistakes: []string{first.Pitfall, "ending the session without the 10-minute check"},
			DoneWhen:       capitalize(first.DoneWhen) + ".",
			SelfTest:       []string{"Can you show written evidence that " + first.DoneWhen + "?"},
			Resources:      []learning.Resource{{Title: "Search", Type: "search", Query: goal}},
			MicroTasks: []learning.MicroTask{
				{Order: 1, Description: "Write your current level in 3 sentences", Minutes: 10, Type: learning.ActionCreate},
				{Order: 2, Description: "Write 1 measurable target with a date", Minutes: 10, Type: learning.ActionCreate},
				{Order: 3, Description: "Book 14 daily 60-minute slots in your calendar", Minutes: 10, Type: learning.ActionCreate},
			},
			AllowedContent:     learning.DefaultAllowedContent(),
			CompletionCriteria: learning.CompletionCriteria{Type: learning.CriteriaTasksCompleted, Threshold: 3},
		},
		LockedSteps: []learning.LockedStepOutput{
			{Title: second.Title, Timeframe: schedule[1].Label(), Preview: capitalize(second.Focus)},
		},
		CriticalWarning: learning.CriticalWarning{
			Warning:     first.Pitfall,
			Consequence: "the plan has no target to check progress against",
			Severity:    learning.SeverityCritical,
		},
		Pitfalls:             []string{first.Pitfall, second.Pitfall},
		Milestones:           []learning.Milestone{{Day: schedule[0].End, Label: first.Title, Marker: fmt.Sprintf("Day %d", schedule[0].End)}, {Day: days, Label: second.Title, Marker: fmt.Sprintf("Day %d", days)}},
		RecommendedPlatforms: []learning.Platform{},
	}
}

func quoted(s string) string {
	return `"` + s + `"`
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n])) + "…"
}
