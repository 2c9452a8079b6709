package learning

import (
	"context"
	"time"
)

// GoalNormalizer turns raw goal text into an enriched goal. Goal enhancement
// lives outside this module; the default only tidies whitespace.
type GoalNormalizer interface {
	Normalize(ctx context.Context, goal string) (string, error)
}

// InputContext is what an input-analysis collaborator extracted from raw input.
type InputContext struct {
	Topic         string   `json:"topic"`
	Subtopics     []string `json:"subtopics"`
	Complexity    string   `json:"complexity"`
	Prerequisites []string `json:"prerequisites"`
	FocusAreas    []string `json:"focus_areas"`
	Warnings      []string `json:"warnings"`
}

// InputAnalyzer extracts context from raw input (URLs, documents, transcripts).
type InputAnalyzer interface {
	Analyze(ctx context.Context, rawInput string) (*InputContext, error)
}

// PlatformLookup finds learning platforms for a subject. It is consulted at
// assembly time only, never inside a generation prompt.
type PlatformLookup interface {
	Lookup(ctx context.Context, subject, query string) ([]Platform, error)
}

// PlanRepository persists the caller-owned plan.
type PlanRepository interface {
	SavePlan(p *Plan) error
	LoadPlan() (*Plan, error)
}

// ProgressEvent is one entry of the plan's history.
type ProgressEvent struct {
	PlanID    string    `json:"plan_id"`
	StepID    string    `json:"step_id"`
	Action    string    `json:"action"`
	Minutes   int       `json:"minutes,omitempty"`
	Forced    bool      `json:"forced,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Progress event actions.
const (
	EventPlanCreated   = "plan.created"
	EventStepCompleted = "step.completed"
	EventStepSkipped   = "step.skipped"
)

// ProgressLog is an append-only plan history. A PlanRepository may also
// implement it.
type ProgressLog interface {
	AppendProgress(e ProgressEvent) error
	LoadProgress() ([]ProgressEvent, error)
}
