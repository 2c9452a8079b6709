package learning_test

import (
	"testing"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

func sampleOutput() *learning.PlanOutput {
	return &learning.PlanOutput{
		Title:         "Calculus exam in 14 days",
		GoalType:      learning.GoalTestPrep,
		TotalSteps:    3,
		EstimatedDays: 14,
		TotalMinutes:  840,
		CurrentStep: learning.CurrentStepOutput{
			Title:     "Baseline and syllabus map",
			Timeframe: "Days 1–4",
			DoneWhen:  "every topic is tagged",
			MicroTasks: []learning.MicroTask{
				{Order: 1, Description: "Sit past paper 1 under 60 minutes", Minutes: 60, Type: learning.ActionTest},
			},
			CommonMistakes: []string{"rereading notes"},
			AllowedContent: learning.DefaultAllowedContent(),
			CompletionCriteria: learning.CompletionCriteria{
				Type: learning.CriteriaTasksCompleted, Threshold: 1,
			},
		},
		LockedSteps: []learning.LockedStepOutput{
			{Title: "Core drills", Timeframe: "Days 5–9", Preview: "drill"},
			{Title: "Mocks", Timeframe: "Days 10–14", Preview: "mock"},
		},
		CriticalWarning: learning.CriticalWarning{
			Warning: "No timed practice", Consequence: "You run out of time", Severity: learning.SeverityCritical,
		},
	}
}

func TestNewPlanFromOutput(t *testing.T) {
	p, err := learning.NewPlanFromOutput("pass calculus", "math", sampleOutput())
	if err != nil {
		t.Fatalf("NewPlanFromOutput failed: %v", err)
	}
	if len(p.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(p.Steps))
	}
	if p.Steps[0].Status != learning.StatusCurrent {
		t.Errorf("first step must be current, got %s", p.Steps[0].Status)
	}
	for i, s := range p.Steps[1:] {
		if s.Status != learning.StatusLocked {
			t.Errorf("step %d must be locked, got %s", i+1, s.Status)
		}
		if s.AllowedContent.FullSolutions {
			t.Errorf("locked step %d must not allow full solutions", i+1)
		}
	}
	if p.Steps[0].Detail == nil || len(p.Steps[0].Detail.MicroTasks) != 1 {
		t.Error("current step detail not carried over")
	}
	if p.ID == "" || p.Steps[0].ID == p.Steps[1].ID {
		t.Error("expected distinct generated IDs")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("new plan violates invariant: %v", err)
	}
}

func TestPlanOutputCheck(t *testing.T) {
	if err := sampleOutput().Check(); err != nil {
		t.Fatalf("sample output should pass: %v", err)
	}

	mutations := map[string]func(o *learning.PlanOutput){
		"no title":        func(o *learning.PlanOutput) { o.Title = "" },
		"count mismatch":  func(o *learning.PlanOutput) { o.TotalSteps = 5 },
		"single step":     func(o *learning.PlanOutput) { o.TotalSteps = 1; o.LockedSteps = nil },
		"wrong severity":  func(o *learning.PlanOutput) { o.CriticalWarning.Severity = "high" },
		"no micro tasks":  func(o *learning.PlanOutput) { o.CurrentStep.MicroTasks = nil },
		"no current step": func(o *learning.PlanOutput) { o.CurrentStep.Title = "" },
		"negative days":   func(o *learning.PlanOutput) { o.EstimatedDays = -3 },
		"zero minutes":    func(o *learning.PlanOutput) { o.TotalMinutes = 0 },
	}
	for name, mutate := range mutations {
		o := sampleOutput()
		mutate(o)
		if err := o.Check(); err == nil {
			t.Errorf("%s: expected Check to fail", name)
		}
		if _, err := learning.NewPlanFromOutput("g", "", o); err == nil {
			t.Errorf("%s: expected NewPlanFromOutput to fail", name)
		}
	}
}

func TestGetCurrentView(t *testing.T) {
	p, err := learning.NewPlanFromOutput("pass calculus", "math", sampleOutput())
	if err != nil {
		t.Fatal(err)
	}
	p.TimeSpentMinutes = 45

	v := learning.GetCurrentView(p)
	if v.TotalSteps != 3 || v.CompletedSteps != 0 || v.ProgressPercent != 0 {
		t.Errorf("unexpected counts: %+v", v)
	}
	if v.CurrentStep == nil || v.CurrentStep.Title != "Baseline and syllabus map" {
		t.Fatalf("unexpected current step: %+v", v.CurrentStep)
	}
	if v.NextMilestone != "Core drills (Days 5–9)" {
		t.Errorf("unexpected next milestone %q", v.NextMilestone)
	}
	if v.TimeSpentMinutes != 45 {
		t.Errorf("expected 45 minutes, got %d", v.TimeSpentMinutes)
	}

	v.CurrentStep.Title = "changed"
	v.CurrentStep.Detail.MicroTasks[0].Description = "changed"
	if p.Steps[0].Title == "changed" || p.Steps[0].Detail.MicroTasks[0].Description == "changed" {
		t.Error("view must not alias plan state")
	}

	_ = learning.ProgressToNextStep(p)
	_ = learning.ProgressToNextStep(p)
	v = learning.GetCurrentView(p)
	if v.NextMilestone != "Plan complete after this step" {
		t.Errorf("unexpected milestone at last step %q", v.NextMilestone)
	}
	if v.ProgressPercent != 66 {
		t.Errorf("expected 66%%, got %d", v.ProgressPercent)
	}

	_ = learning.ProgressToNextStep(p)
	v = learning.GetCurrentView(p)
	if !v.Finished || v.CurrentStep != nil || v.NextMilestone != "" || v.ProgressPercent != 100 {
		t.Errorf("unexpected finished view: %+v", v)
	}
}

func TestGetCurrentView_NilPlan(t *testing.T) {
	v := learning.GetCurrentView(nil)
	if v.TotalSteps != 0 || v.CurrentStep != nil {
		t.Errorf("expected zero view, got %+v", v)
	}
}

func TestStepCriteriaMet(t *testing.T) {
	s := learning.Step{CompletionCriteria: learning.CompletionCriteria{Type: learning.CriteriaTasksCompleted, Threshold: 3}}
	if s.CriteriaMet(learning.StepProgress{TasksCompleted: 2}) {
		t.Error("2 of 3 tasks should not meet criteria")
	}
	if !s.CriteriaMet(learning.StepProgress{TasksCompleted: 3}) {
		t.Error("3 of 3 tasks should meet criteria")
	}
	s.CompletionCriteria = learning.CompletionCriteria{Type: learning.CriteriaSelfTestScore, Threshold: 0.8}
	if !s.CriteriaMet(learning.StepProgress{SelfTestScore: 0.85}) {
		t.Error("0.85 should meet 0.8")
	}
}
