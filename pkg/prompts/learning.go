package prompts

import "github.com/felixgeelhaar/learnroad/pkg/domain/roles"

const commonSystem = `You are a learning-plan engineer. You write instructions a learner can
execute without asking a follow-up question.
Constraints:
{{bullets .Constraints}}
Forbidden patterns (rule names): {{range $i, $r := .Rules}}{{if $i}}, {{end}}{{$r}}{{end}}
Return exactly one JSON object matching this JSON Schema:
{{.Schema}}`

const feedbackBlock = `{{if .Feedback}}
Your previous answer was rejected by the quality checker:
{{.Feedback}}
Rewrite it so none of these problems remain.{{end}}`

var learningSpecs = []Spec{
	{
		Name:    roles.ActionDiagnose,
		Version: 1,
		System:  commonSystem,
		User: `Diagnose this learning goal before any plan is written.
Goal: {{.Goal}}
{{if .Subject}}Subject: {{.Subject}}
{{end}}{{if .Timeframe}}Deadline: {{.Timeframe}}
{{end}}{{if .UserContext}}About the learner: {{.UserContext}}
{{end}}{{if .MemoryContext}}Earlier sessions: {{.MemoryContext}}
{{end}}{{if .Context}}Extracted material:
{{.Context}}
{{end}}
Classify the goal, judge urgency and scope, estimate the learner's level, list the
knowledge gaps in priority order (1 = most urgent), the prerequisites and the single
root cause most likely to make this learner fail.`,
		Validators: []Validator{RequireGoal},
	},
	{
		Name:    roles.ActionStrategize,
		Version: 1,
		System:  commonSystem,
		User: `Write the strategy for this goal.
Goal: {{.Goal}}
Diagnosis:
{{.Context}}

Describe the transformation from where the learner is to where they must be, the one
critical mistake that would sink the plan and its consequence, at least two further
risks with mitigations, measurable success metrics, what is explicitly out of scope,
day-numbered milestones and what success looks like on the last day.` + feedbackBlock,
		Validators: []Validator{RequireGoal},
	},
	{
		Name:    roles.ActionExecute,
		Version: 1,
		System:  commonSystem,
		User: `Write the executable plan for this goal.
Goal: {{.Goal}}
The plan has exactly {{.TargetSteps}} steps. The first step runs {{.StepTimeframe}}.
Earlier analysis:
{{.Context}}

Fill current_step in full: method, time breakdown in minutes, common mistakes, a
self-test, resources as search queries, and ordered micro-tasks that each name a
number (problems, pages, minutes). Give the remaining {{.TargetSteps}} minus one
steps as locked_steps with a title and a one-line preview.` + feedbackBlock,
		Validators: []Validator{RequireGoal},
	},
	{
		Name:    roles.ActionMission,
		Version: 1,
		System:  commonSystem,
		User: `Write today's mission for the learner's current step.
Goal: {{.Goal}}
Current step: {{.StepTitle}} ({{.StepTimeframe}})
Step detail:
{{.Context}}

List at least two typed actions with minutes, what to avoid today, and the exact
condition that means today is done.`,
		Validators: []Validator{RequireStep},
	},
	{
		Name:    roles.ActionHint,
		Version: 1,
		System:  commonSystem,
		User: `The learner is stuck on the current step and asks for a hint.
Goal: {{.Goal}}
Current step: {{.StepTitle}} ({{.StepTimeframe}})
Step detail:
{{.Context}}
Question: {{.Question}}

Give one hint that moves them forward without solving the task for them, and the
next concrete action to take.`,
		Validators: []Validator{RequireStep},
	},
}

// Default returns a registry holding the built-in role prompts.
func Default() *Registry {
	r := NewRegistry()
	for _, s := range learningSpecs {
		r.MustRegister(s)
	}
	return r
}
