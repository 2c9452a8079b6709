package learning

import (
	"time"
)

type StepStatus string

const (
	StatusLocked    StepStatus = "locked"
	StatusCurrent   StepStatus = "current"
	StatusCompleted StepStatus = "completed"
	StatusSkipped   StepStatus = "skipped"
)

// AllowedContent is the capability set the generation layer must respect for a step.
type AllowedContent struct {
	Explanation   bool `json:"explanation" yaml:"explanation"`
	Practice      bool `json:"practice" yaml:"practice"`
	Examples      bool `json:"examples" yaml:"examples"`
	FullSolutions bool `json:"full_solutions" yaml:"full_solutions"`
}

// DefaultAllowedContent lets the generator explain and give examples and
// practice, but never hand over complete solutions.
func DefaultAllowedContent() AllowedContent {
	return AllowedContent{Explanation: true, Practice: true, Examples: true, FullSolutions: false}
}

type CriteriaType string

const (
	CriteriaTasksCompleted   CriteriaType = "tasks_completed"
	CriteriaSelfTestScore    CriteriaType = "self_test_score"
	CriteriaMinutesPracticed CriteriaType = "minutes_practiced"
)

// CompletionCriteria is evaluated by the system, never by generated text.
type CompletionCriteria struct {
	Type      CriteriaType `json:"type" yaml:"type"`
	Threshold float64      `json:"threshold" yaml:"threshold"`
}

// StepProgress is what the learner reports when closing a step.
type StepProgress struct {
	TasksCompleted   int     `json:"tasks_completed"`
	SelfTestScore    float64 `json:"self_test_score"`
	MinutesPracticed int     `json:"minutes_practiced"`
}

type TimeBlock struct {
	Activity string `json:"activity" yaml:"activity"`
	Minutes  int    `json:"minutes" yaml:"minutes"`
}

type ActionType string

const (
	ActionRead     ActionType = "read"
	ActionPractice ActionType = "practice"
	ActionReview   ActionType = "review"
	ActionCreate   ActionType = "create"
	ActionTest     ActionType = "test"
)

// MicroTask is one ordered unit of work inside the current step.
type MicroTask struct {
	Order       int        `json:"order" yaml:"order"`
	Description string     `json:"description" yaml:"description"`
	Minutes     int        `json:"minutes" yaml:"minutes"`
	Type        ActionType `json:"type" yaml:"type"`
}

type Resource struct {
	Title string `json:"title" yaml:"title"`
	Type  string `json:"type" yaml:"type"`
	Query string `json:"query" yaml:"query"`
}

// StepDetail is the full instruction set; only the pipeline's current step carries it.
type StepDetail struct {
	Method         string      `json:"method" yaml:"method"`
	TimeBreakdown  []TimeBlock `json:"time_breakdown" yaml:"time_breakdown"`
	CommonMistakes []string    `json:"common_mistakes" yaml:"common_mistakes"`
	SelfTest       []string    `json:"self_test" yaml:"self_test"`
	Resources      []Resource  `json:"resources" yaml:"resources"`
	MicroTasks     []MicroTask `json:"micro_tasks" yaml:"micro_tasks"`
}

// Step is one ordered, time-boxed unit of a Plan.
type Step struct {
	ID                 string             `json:"id" yaml:"id"`
	Index              int                `json:"index" yaml:"index"`
	Title              string             `json:"title" yaml:"title"`
	Description        string             `json:"description" yaml:"description"`
	Timeframe          string             `json:"timeframe" yaml:"timeframe"`
	Status             StepStatus         `json:"status" yaml:"status"`
	AllowedContent     AllowedContent     `json:"allowed_content" yaml:"allowed_content"`
	CompletionCriteria CompletionCriteria `json:"completion_criteria" yaml:"completion_criteria"`
	Pitfalls           []string           `json:"pitfalls" yaml:"pitfalls"`
	DoneWhen           string             `json:"done_when" yaml:"done_when"`
	Detail             *StepDetail        `json:"detail,omitempty" yaml:"detail,omitempty"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// CriteriaMet evaluates the step's completion criteria against reported progress.
func (s *Step) CriteriaMet(p StepProgress) bool {
	switch s.CompletionCriteria.Type {
	case CriteriaTasksCompleted:
		return float64(p.TasksCompleted) >= s.CompletionCriteria.Threshold
	case CriteriaSelfTestScore:
		return p.SelfTestScore >= s.CompletionCriteria.Threshold
	case CriteriaMinutesPracticed:
		return float64(p.MinutesPracticed) >= s.CompletionCriteria.Threshold
	default:
		return true
	}
}

// MissionAction is one typed action of today's mission.
type MissionAction struct {
	Type        ActionType `json:"type" yaml:"type"`
	Description string     `json:"description" yaml:"description"`
	Minutes     int        `json:"minutes" yaml:"minutes"`
}

// Mission is the ephemeral "what to do today", derived from the current step.
type Mission struct {
	StepID      string          `json:"step_id" yaml:"step_id"`
	Actions     []MissionAction `json:"actions" yaml:"actions"`
	Avoid       []string        `json:"avoid" yaml:"avoid"`
	DoneWhen    string          `json:"done_when" yaml:"done_when"`
	GeneratedAt time.Time       `json:"generated_at" yaml:"generated_at"`
}

// Plan is the multi-step learning roadmap owned by one goal.
type Plan struct {
	ID               string    `json:"id" yaml:"id"`
	Goal             string    `json:"goal" yaml:"goal"`
	Subject          string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Title            string    `json:"title" yaml:"title"`
	GoalType         GoalType  `json:"goal_type" yaml:"goal_type"`
	Steps            []Step    `json:"steps" yaml:"steps"`
	CurrentStepIndex int       `json:"current_step_index" yaml:"current_step_index"`
	TimeSpentMinutes int       `json:"time_spent_minutes" yaml:"time_spent_minutes"`
	TodaysMission    *Mission  `json:"todays_mission" yaml:"todays_mission"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" yaml:"updated_at"`
}

// CurrentStep returns the step under the cursor, or nil.
func (p *Plan) CurrentStep() *Step {
	if p == nil || p.CurrentStepIndex < 0 || p.CurrentStepIndex >= len(p.Steps) {
		return nil
	}
	return &p.Steps[p.CurrentStepIndex]
}

// Finished reports whether every step is completed or skipped.
func (p *Plan) Finished() bool {
	if p == nil || len(p.Steps) == 0 {
		return false
	}
	for _, s := range p.Steps {
		if !s.Status.IsFinal() {
			return false
		}
	}
	return true
}

// SetMission attaches today's mission; it must belong to the current step.
func (p *Plan) SetMission(m *Mission) error {
	cur := p.CurrentStep()
	if cur == nil || cur.Status != StatusCurrent {
		return ErrNoPlan
	}
	if m == nil || m.StepID != cur.ID {
		return ErrMissionStepMismatch
	}
	p.TodaysMission = m
	return nil
}
