package learning_test

import (
	"testing"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

func TestCategorizeGoal(t *testing.T) {
	tests := []struct {
		goal string
		want learning.GoalType
	}{
		{"pass my calculus exam in 2 weeks", learning.GoalTestPrep},
		{"Become conversational in Spanish", learning.GoalLanguage},
		{"learn Python for data work", learning.GoalProgramming},
		{"build a portfolio website", learning.GoalProject},
		{"prepare for a product manager job interview", learning.GoalCareer},
		{"get better at chess", learning.GoalGeneral},
		{"learn go in 30 days", learning.GoalProgramming},
		{"get comfortable with the Go language", learning.GoalProgramming},
		{"write a CLI in Go", learning.GoalProgramming},
		{"go programming for beginners", learning.GoalProgramming},
		{"go running three times a week", learning.GoalGeneral},
		{"", learning.GoalGeneral},
		{"学习日语", learning.GoalGeneral},
		{"!!!??? ;; DROP TABLE", learning.GoalGeneral},
	}
	for _, tt := range tests {
		got := learning.CategorizeGoal(tt.goal)
		if got.Type != tt.want {
			t.Errorf("CategorizeGoal(%q) = %s, want %s", tt.goal, got.Type, tt.want)
		}
		if len(got.Templates) < learning.MinSteps {
			t.Errorf("CategorizeGoal(%q) returned %d templates", tt.goal, len(got.Templates))
		}
	}
}

func TestCategorizeGoal_Deterministic(t *testing.T) {
	goal := "build a python app to pass the exam"
	first := learning.CategorizeGoal(goal).Type
	for i := 0; i < 20; i++ {
		if got := learning.CategorizeGoal(goal).Type; got != first {
			t.Fatalf("classification changed between calls: %s vs %s", first, got)
		}
	}
}

func TestTemplatesN_Extends(t *testing.T) {
	got := learning.TemplatesN(learning.GoalGeneral, 8)
	if len(got) != 8 {
		t.Fatalf("expected 8 templates, got %d", len(got))
	}
	if got[7].Title == "" || got[7].DoneWhen == "" {
		t.Error("extended templates must be filled in")
	}
	if len(learning.TemplatesN(learning.GoalTestPrep, 2)) != 2 {
		t.Error("expected truncation to 2")
	}
}

func TestTemplatesFor_ReturnsCopy(t *testing.T) {
	a := learning.TemplatesFor(learning.GoalProject)
	a[0].Title = "mutated"
	if learning.TemplatesFor(learning.GoalProject)[0].Title == "mutated" {
		t.Error("templates must not be shared")
	}
}
