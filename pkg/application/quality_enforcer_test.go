package application_test

import (
	"strings"
	"testing"

	"github.com/felixgeelhaar/learnroad/pkg/application"
	"github.com/felixgeelhaar/learnroad/pkg/domain/doctrine"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

func TestRewriteText(t *testing.T) {
	q := application.NewQualityEnforcer(nil)
	in := "Practice derivatives\n- review chain rule\n1. Solve 5 limits\nPracticed 3 times already"

	out, n := q.RewriteText(in, "pass   calculus", "Days 1–4")
	if n != 2 {
		t.Fatalf("expected 2 rewrites, got %d:\n%s", n, out)
	}
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], `Complete 10 timed problems on "pass calculus"`) {
		t.Errorf("line 1: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "- Rewrite your notes") || !strings.Contains(lines[1], "Days 1–4") {
		t.Errorf("line 2 lost its bullet or day label: %q", lines[1])
	}
	if lines[2] != "1. Solve 5 limits" || lines[3] != "Practiced 3 times already" {
		t.Errorf("measured lines changed: %q / %q", lines[2], lines[3])
	}
}

func TestRewriteText_Idempotent(t *testing.T) {
	q := application.NewQualityEnforcer(nil)
	inputs := []string{
		"Study the chapter",
		"learn\nreview\nfocus on weak spots\n* work on the essay",
		"Brush up on vocabulary",
		"",
	}
	for _, in := range inputs {
		once, _ := q.RewriteText(in, "Spanish\nfor travel", "Day 3")
		twice, n := q.RewriteText(once, "Spanish\nfor travel", "Day 3")
		if n != 0 || twice != once {
			t.Errorf("second pass changed %q:\n%s\n=>\n%s", in, once, twice)
		}
	}
}

func TestRewriteText_CustomDoctrine(t *testing.T) {
	d, err := doctrine.New(doctrine.Options{VagueRewrites: []doctrine.RewriteRule{
		{Opener: "revisit", Template: "Redo 3 exercises on {goal} under {day}."},
	}})
	if err != nil {
		t.Fatal(err)
	}
	q := application.NewQualityEnforcer(d)
	out, n := q.RewriteText("Revisit loops", "Go", "Day 2")
	if n != 1 || out != "Redo 3 exercises on Go under Day 2." {
		t.Errorf("got %q (%d)", out, n)
	}
	if _, n := q.RewriteText("Practice loops", "Go", "Day 2"); n != 0 {
		t.Error("default rewrites still active after override")
	}
}

func TestEnforce(t *testing.T) {
	q := application.NewQualityEnforcer(nil)
	step := &learning.CurrentStepOutput{
		Method:   "Study derivatives",
		DoneWhen: "8 of 10 correct",
		MicroTasks: []learning.MicroTask{
			{Order: 1, Description: "Look at worked examples"},
			{Order: 2, Description: "Solve 5 problems"},
		},
		CommonMistakes: []string{"Practice without a timer"},
	}
	if n := q.Enforce(step, "calculus", "Days 1–4"); n != 2 {
		t.Errorf("expected 2 rewrites, got %d", n)
	}
	if !strings.HasPrefix(step.Method, "Read 1 named section") {
		t.Errorf("method %q", step.Method)
	}
	if !strings.HasPrefix(step.MicroTasks[0].Description, "Open 2 worked examples") {
		t.Errorf("micro task %q", step.MicroTasks[0].Description)
	}
	if step.CommonMistakes[0] != "Practice without a timer" {
		t.Error("fields outside the instruction set were rewritten")
	}
	if q.Enforce(nil, "g", "d") != 0 {
		t.Error("nil step")
	}
}

func TestEnforceMission(t *testing.T) {
	q := application.NewQualityEnforcer(nil)
	m := &learning.Mission{
		Actions:  []learning.MissionAction{{Description: "Revise formulas"}, {Description: "Solve 3 integrals"}},
		DoneWhen: "Focus on integrals",
	}
	if n := q.EnforceMission(m, "calculus", "Day 5"); n != 2 {
		t.Errorf("expected 2 rewrites, got %d", n)
	}
	if !strings.Contains(m.Actions[0].Description, "cheat sheet") || m.Actions[1].Description != "Solve 3 integrals" {
		t.Errorf("actions %+v", m.Actions)
	}
	if !strings.HasPrefix(m.DoneWhen, "Spend 25 minutes") {
		t.Errorf("done_when %q", m.DoneWhen)
	}
}

func TestScore(t *testing.T) {
	q := application.NewQualityEnforcer(nil)
	clean := q.Score("Solve 10 timed problems and score at least 8.")
	if clean.Score != 100 || clean.Verdict != doctrine.VerdictPass || len(clean.Violations) != 0 {
		t.Errorf("clean text: %+v", clean)
	}
	dirty := q.Score("Master calculus and learn about limits. Just try to understand it.")
	if dirty.Score >= 70 || len(dirty.Violations) == 0 {
		t.Errorf("vague text passed: %+v", dirty)
	}
}
