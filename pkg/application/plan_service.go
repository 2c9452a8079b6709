package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/learnroad/pkg/domain/doctrine"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
	"github.com/felixgeelhaar/learnroad/pkg/domain/roles"
)

// HintResult is the answer to a stuck learner.
type HintResult struct {
	Hint       string `json:"hint"`
	NextAction string `json:"next_action"`
	Source     string `json:"source"`
}

type missionOutput struct {
	Actions  []learning.MissionAction `json:"actions"`
	Avoid    []string                 `json:"avoid"`
	DoneWhen string                   `json:"done_when"`
}

// PlanService runs the caller-side operations on the persisted plan.
// Mutations are serialized, so concurrent callers each see the previous write.
type PlanService struct {
	mu       sync.Mutex
	repo     learning.PlanRepository
	exec     Executor
	catalog  *roles.Catalog
	enforcer *QualityEnforcer
	logger   *slog.Logger
}

// NewPlanService wires the plan operations. exec may be nil, in which case
// missions and hints are always built from the step itself.
func NewPlanService(repo learning.PlanRepository, exec Executor, d *doctrine.Doctrine, logger *slog.Logger) *PlanService {
	if d == nil {
		d = doctrine.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanService{
		repo:     repo,
		exec:     exec,
		catalog:  roles.NewCatalog(d),
		enforcer: NewQualityEnforcer(d),
		logger:   logger,
	}
}

// CreateFromOutput turns a pipeline result into the stored plan, replacing any previous one.
func (s *PlanService) CreateFromOutput(ctx context.Context, goal, subject string, out *learning.PlanOutput) (*learning.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	plan, err := learning.NewPlanFromOutput(goal, subject, out)
	if err != nil {
		return nil, fmt.Errorf("build plan: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.SavePlan(plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	s.record(learning.ProgressEvent{PlanID: plan.ID, Action: learning.EventPlanCreated})
	s.logger.Info("plan created", "plan_id", plan.ID, "steps", len(plan.Steps))
	return plan, nil
}

func (s *PlanService) GetPlan(ctx context.Context) (*learning.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	plan, err := s.repo.LoadPlan()
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if plan == nil {
		return nil, learning.ErrNoPlan
	}
	return plan, nil
}

func (s *PlanService) View(ctx context.Context) (learning.PlanView, error) {
	plan, err := s.GetPlan(ctx)
	if err != nil {
		return learning.PlanView{}, err
	}
	return learning.GetCurrentView(plan), nil
}

// Progress closes the current step. Unless force is set, the step's
// completion criteria must be met by the reported progress.
func (s *PlanService) Progress(ctx context.Context, sp learning.StepProgress, force bool) (*learning.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, err := s.GetPlan(ctx)
	if err != nil {
		return nil, err
	}
	cur := plan.CurrentStep()
	if cur == nil {
		return nil, learning.ErrNoPlan
	}
	if cur.Status == learning.StatusCurrent && !force && !cur.CriteriaMet(sp) {
		return nil, fmt.Errorf("%w: %s needs %s >= %v",
			learning.ErrCriteriaNotMet, cur.Title, cur.CompletionCriteria.Type, cur.CompletionCriteria.Threshold)
	}
	stepID := cur.ID
	if err := learning.ProgressToNextStep(plan); err != nil {
		return nil, err
	}
	if sp.MinutesPracticed > 0 {
		plan.TimeSpentMinutes += sp.MinutesPracticed
	}
	if err := s.repo.SavePlan(plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	s.record(learning.ProgressEvent{PlanID: plan.ID, StepID: stepID, Action: learning.EventStepCompleted, Minutes: sp.MinutesPracticed, Forced: force})
	s.logger.Info("step completed", "plan_id", plan.ID, "step_id", stepID, "forced", force)
	return plan, nil
}

// Skip marks the current step skipped. authorized must come from the user.
func (s *PlanService) Skip(ctx context.Context, authorized bool) (*learning.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, err := s.GetPlan(ctx)
	if err != nil {
		return nil, err
	}
	stepID := ""
	if cur := plan.CurrentStep(); cur != nil {
		stepID = cur.ID
	}
	if err := learning.SkipCurrentStep(plan, authorized); err != nil {
		return nil, err
	}
	if err := s.repo.SavePlan(plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	s.record(learning.ProgressEvent{PlanID: plan.ID, StepID: stepID, Action: learning.EventStepSkipped})
	return plan, nil
}

// History returns the plan's progress log when the repository keeps one.
func (s *PlanService) History(ctx context.Context) ([]learning.ProgressEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log, ok := s.repo.(learning.ProgressLog)
	if !ok {
		return nil, nil
	}
	return log.LoadProgress()
}

// record appends to the progress log if the repository keeps one. A failed
// append never fails the operation that produced it.
func (s *PlanService) record(e learning.ProgressEvent) {
	log, ok := s.repo.(learning.ProgressLog)
	if !ok {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := log.AppendProgress(e); err != nil {
		s.logger.Warn("progress log append failed", "action", e.Action, "error", err)
	}
}

// TodaysMission returns the cached mission for the current step or builds one.
func (s *PlanService) TodaysMission(ctx context.Context) (*learning.Mission, error) {
	plan, err := s.GetPlan(ctx)
	if err != nil {
		return nil, err
	}
	cur := plan.CurrentStep()
	if cur == nil || cur.Status != learning.StatusCurrent {
		return nil, learning.ErrNoPlan
	}
	if m := plan.TodaysMission; m != nil && m.StepID == cur.ID {
		return m, nil
	}

	m, source, err := s.buildMission(ctx, plan, cur)
	if err != nil {
		return nil, err
	}
	s.enforcer.EnforceMission(m, plan.Goal, cur.Timeframe)

	// The mission is generated unlocked; store it only if the step is still current.
	s.mu.Lock()
	defer s.mu.Unlock()
	latest, err := s.GetPlan(ctx)
	if err != nil {
		return nil, err
	}
	if latest.ID != plan.ID {
		return nil, fmt.Errorf("%w: plan replaced while building the mission", learning.ErrInvalidTransition)
	}
	now := latest.CurrentStep()
	if now == nil || now.ID != cur.ID || now.Status != learning.StatusCurrent {
		return nil, fmt.Errorf("%w: step advanced while building the mission", learning.ErrInvalidTransition)
	}
	if existing := latest.TodaysMission; existing != nil && existing.StepID == cur.ID {
		return existing, nil
	}
	if err := latest.SetMission(m); err != nil {
		return nil, err
	}
	if err := s.repo.SavePlan(latest); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	s.logger.Info("mission built", "plan_id", latest.ID, "step_id", cur.ID, "source", source)
	return m, nil
}

func (s *PlanService) buildMission(ctx context.Context, plan *learning.Plan, cur *learning.Step) (*learning.Mission, string, error) {
	m := &learning.Mission{StepID: cur.ID, GeneratedAt: time.Now().UTC()}
	if s.exec != nil {
		role, err := s.catalog.Role(roles.ActionMission, cur)
		if err == nil {
			env := s.exec.Execute(ctx, role, stepPrompt(plan, cur, ""))
			if err := ctx.Err(); err != nil {
				return nil, "", err
			}
			if env.Success {
				if out, derr := decodeInto[missionOutput](env.Data); derr == nil {
					m.Actions, m.Avoid, m.DoneWhen = out.Actions, out.Avoid, out.DoneWhen
					return m, SourceGenerated, nil
				}
			}
		}
	}
	fb := fallbackMission(cur)
	m.Actions, m.Avoid, m.DoneWhen = fb.Actions, fb.Avoid, fb.DoneWhen
	return m, SourceFallback, nil
}

// Hint answers a question about the current step without solving it.
func (s *PlanService) Hint(ctx context.Context, question string) (HintResult, error) {
	plan, err := s.GetPlan(ctx)
	if err != nil {
		return HintResult{}, err
	}
	cur := plan.CurrentStep()
	if cur == nil || cur.Status != learning.StatusCurrent {
		return HintResult{}, learning.ErrNoPlan
	}
	if s.exec != nil {
		role, err := s.catalog.Role(roles.ActionHint, cur)
		if err == nil {
			env := s.exec.Execute(ctx, role, stepPrompt(plan, cur, question))
			if err := ctx.Err(); err != nil {
				return HintResult{}, err
			}
			if env.Success {
				if out, derr := decodeInto[HintResult](env.Data); derr == nil {
					out.Source = SourceGenerated
					return out, nil
				}
			}
		}
	}
	return fallbackHint(plan, cur), nil
}

func stepPrompt(plan *learning.Plan, cur *learning.Step, question string) PromptContext {
	return PromptContext{
		Goal:          plan.Goal,
		Subject:       plan.Subject,
		Context:       FormatContextBlock(cur, DefaultContextLimit),
		StepTitle:     cur.Title,
		StepTimeframe: cur.Timeframe,
		Question:      strings.TrimSpace(question),
	}
}

func fallbackMission(cur *learning.Step) missionOutput {
	var out missionOutput
	if cur.Detail != nil {
		for _, t := range cur.Detail.MicroTasks {
			out.Actions = append(out.Actions, learning.MissionAction{Type: t.Type, Description: t.Description, Minutes: t.Minutes})
		}
	}
	if len(out.Actions) < 2 {
		out.Actions = append(out.Actions,
			learning.MissionAction{Type: learning.ActionRead, Description: "Write 3 questions this step must answer: " + cur.Description, Minutes: 15},
			learning.MissionAction{Type: learning.ActionPractice, Description: "Spend 30 minutes producing 1 result for: " + cur.Title, Minutes: 30},
		)
	}
	out.Avoid = append(out.Avoid, cur.Pitfalls...)
	if len(out.Avoid) == 0 {
		out.Avoid = []string{"starting a new resource before finishing today's actions"}
	}
	out.DoneWhen = cur.DoneWhen
	if out.DoneWhen == "" {
		out.DoneWhen = fmt.Sprintf("all %d actions are done and checked", len(out.Actions))
	}
	return out
}

func fallbackHint(plan *learning.Plan, cur *learning.Step) HintResult {
	h := HintResult{Source: SourceFallback}
	if m := plan.TodaysMission; m != nil && m.StepID == cur.ID && len(m.Actions) > 0 {
		h.NextAction = m.Actions[0].Description
	} else if cur.Detail != nil && len(cur.Detail.MicroTasks) > 0 {
		h.NextAction = cur.Detail.MicroTasks[0].Description
	} else {
		h.NextAction = "Write down what done looks like for " + cur.Title
	}
	h.Hint = "Go back to the step's done condition and do the smallest piece of it: " + firstNonEmpty(cur.DoneWhen, cur.Description, cur.Title)
	return h
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
