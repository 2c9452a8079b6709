package learning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SeverityCritical is the only severity a critical warning carries.
const SeverityCritical = "CRITICAL"

// CurrentStepOutput is the fully detailed step the learner works on now.
type CurrentStepOutput struct {
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Timeframe          string             `json:"timeframe"`
	Method             string             `json:"method"`
	TimeBreakdown      []TimeBlock        `json:"time_breakdown"`
	CommonMistakes     []string           `json:"common_mistakes"`
	DoneWhen           string             `json:"done_when"`
	SelfTest           []string           `json:"self_test"`
	Resources          []Resource         `json:"resources"`
	MicroTasks         []MicroTask        `json:"micro_tasks"`
	AllowedContent     AllowedContent     `json:"allowed_content"`
	CompletionCriteria CompletionCriteria `json:"completion_criteria"`
}

// LockedStepOutput is a preview of a later step.
type LockedStepOutput struct {
	Title     string `json:"title"`
	Timeframe string `json:"timeframe"`
	Preview   string `json:"preview"`
}

type CriticalWarning struct {
	Warning     string `json:"warning"`
	Consequence string `json:"consequence"`
	Severity    string `json:"severity"`
}

type Milestone struct {
	Day    int    `json:"day"`
	Label  string `json:"label"`
	Marker string `json:"marker"`
}

// Platform is a recommended learning resource or site.
type Platform struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

// DebugInfo exposes how each phase was produced. It is optional.
type DebugInfo struct {
	Sources   map[string]string `json:"sources"`
	TimingsMs map[string]int64  `json:"timings_ms"`
	Attempts  map[string]int    `json:"attempts"`
	Errors    map[string]any    `json:"errors,omitempty"`
	Phases    map[string]any    `json:"phases"`
}

// PlanOutput is the stable outbound contract of one pipeline run.
type PlanOutput struct {
	Title                string             `json:"title"`
	Overview             string             `json:"overview"`
	Vision               string             `json:"vision"`
	TargetUser           string             `json:"target_user"`
	GoalType             GoalType           `json:"goal_type"`
	TotalSteps           int                `json:"total_steps"`
	EstimatedDays        int                `json:"estimated_days"`
	DailyCommitment      string             `json:"daily_commitment"`
	TotalMinutes         int                `json:"total_minutes"`
	SuccessLooksLike     string             `json:"success_looks_like"`
	SuccessMetrics       []string           `json:"success_metrics"`
	OutOfScope           []string           `json:"out_of_scope"`
	CurrentStep          CurrentStepOutput  `json:"current_step"`
	LockedSteps          []LockedStepOutput `json:"locked_steps"`
	CriticalWarning      CriticalWarning    `json:"critical_warning"`
	Pitfalls             []string           `json:"pitfalls"`
	Milestones           []Milestone        `json:"milestones"`
	RecommendedPlatforms []Platform         `json:"recommended_platforms"`
	Debug                *DebugInfo         `json:"debug,omitempty"`
}

// Check verifies the structural guarantees every PlanOutput must meet.
func (o *PlanOutput) Check() error {
	switch {
	case o == nil:
		return fmt.Errorf("plan output is nil")
	case o.Title == "":
		return fmt.Errorf("plan output has no title")
	case o.CurrentStep.Title == "":
		return fmt.Errorf("plan output has no current step title")
	case o.TotalSteps < MinSteps:
		return fmt.Errorf("plan output has %d steps, need at least %d", o.TotalSteps, MinSteps)
	case o.TotalSteps != len(o.LockedSteps)+1:
		return fmt.Errorf("total steps %d does not match 1 current + %d locked", o.TotalSteps, len(o.LockedSteps))
	case o.CriticalWarning.Severity != SeverityCritical:
		return fmt.Errorf("critical warning severity is %q", o.CriticalWarning.Severity)
	case len(o.CurrentStep.MicroTasks) == 0:
		return fmt.Errorf("current step has no micro tasks")
	case o.EstimatedDays < 1:
		return fmt.Errorf("plan output estimates %d days", o.EstimatedDays)
	case o.TotalMinutes < 1:
		return fmt.Errorf("plan output totals %d minutes", o.TotalMinutes)
	}
	return nil
}

// NewPlanFromOutput builds the caller-owned Plan from a finished pipeline run.
func NewPlanFromOutput(goal, subject string, out *PlanOutput) (*Plan, error) {
	if err := out.Check(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	cs := out.CurrentStep
	steps := make([]Step, 0, out.TotalSteps)
	steps = append(steps, Step{
		ID:                 uuid.NewString(),
		Index:              0,
		Title:              cs.Title,
		Description:        cs.Description,
		Timeframe:          cs.Timeframe,
		Status:             StatusCurrent,
		AllowedContent:     cs.AllowedContent,
		CompletionCriteria: cs.CompletionCriteria,
		Pitfalls:           append([]string(nil), cs.CommonMistakes...),
		DoneWhen:           cs.DoneWhen,
		Detail: &StepDetail{
			Method:         cs.Method,
			TimeBreakdown:  append([]TimeBlock(nil), cs.TimeBreakdown...),
			CommonMistakes: append([]string(nil), cs.CommonMistakes...),
			SelfTest:       append([]string(nil), cs.SelfTest...),
			Resources:      append([]Resource(nil), cs.Resources...),
			MicroTasks:     append([]MicroTask(nil), cs.MicroTasks...),
		},
	})
	for i, ls := range out.LockedSteps {
		steps = append(steps, Step{
			ID:                 uuid.NewString(),
			Index:              i + 1,
			Title:              ls.Title,
			Description:        ls.Preview,
			Timeframe:          ls.Timeframe,
			Status:             StatusLocked,
			AllowedContent:     DefaultAllowedContent(),
			CompletionCriteria: CompletionCriteria{Type: CriteriaSelfTestScore, Threshold: 0.8},
		})
	}
	return &Plan{
		ID:        uuid.NewString(),
		Goal:      goal,
		Subject:   subject,
		Title:     out.Title,
		GoalType:  out.GoalType,
		Steps:     steps,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
