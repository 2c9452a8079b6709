package application_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/felixgeelhaar/learnroad/pkg/application"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

const calculusGoal = "Pass my calculus exam in 2 weeks"

func TestRun_GeneratedCalculusPlan(t *testing.T) {
	r := newRouter(happyResponses())
	svc, mock := routedPipeline(r)

	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: calculusGoal})
	if err != nil {
		t.Fatal(err)
	}
	if err := out.Check(); err != nil {
		t.Fatalf("plan failed checks: %v", err)
	}
	if out.GoalType != learning.GoalTestPrep {
		t.Errorf("goal type %s, want test_prep", out.GoalType)
	}
	if out.EstimatedDays != 14 || out.TotalSteps != 3 {
		t.Errorf("got %d days / %d steps, want 14 / 3", out.EstimatedDays, out.TotalSteps)
	}
	if !strings.HasPrefix(out.CurrentStep.Timeframe, "Days 1–") {
		t.Errorf("current step timeframe %q", out.CurrentStep.Timeframe)
	}
	if out.DailyCommitment != "90 minutes per day" || out.TotalMinutes != 90*14 {
		t.Errorf("short-term commitment wrong: %q / %d", out.DailyCommitment, out.TotalMinutes)
	}
	if out.CriticalWarning.Severity != learning.SeverityCritical || out.CriticalWarning.Warning != "no timed practice" {
		t.Errorf("critical warning not copied from strategy: %+v", out.CriticalWarning)
	}
	if out.Title != "Calculus in 14 days" {
		t.Errorf("generated title lost: %q", out.Title)
	}
	if out.Debug != nil {
		t.Error("debug block present without being requested")
	}
	if mock.Calls() != 3 {
		t.Errorf("expected one call per phase, got %d", mock.Calls())
	}
}

func TestRun_ForcesSystemOwnedFields(t *testing.T) {
	svc, _ := routedPipeline(newRouter(happyResponses()))
	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: calculusGoal})
	if err != nil {
		t.Fatal(err)
	}

	cs := out.CurrentStep
	if cs.AllowedContent != learning.DefaultAllowedContent() {
		t.Errorf("allowed content not forced: %+v", cs.AllowedContent)
	}
	if cs.Timeframe == "whenever" {
		t.Error("generated timeframe kept")
	}
	if cs.CompletionCriteria.Type != learning.CriteriaTasksCompleted || cs.CompletionCriteria.Threshold != 3 {
		t.Errorf("completion criteria %+v", cs.CompletionCriteria)
	}
	if len(out.LockedSteps) != out.TotalSteps-1 {
		t.Fatalf("locked steps %d for %d total", len(out.LockedSteps), out.TotalSteps)
	}
	schedule := learning.BuildSchedule(14, 3)
	for i, ls := range out.LockedSteps {
		if ls.Timeframe != schedule[i+1].Label() {
			t.Errorf("locked step %d timeframe %q, want %q", i, ls.Timeframe, schedule[i+1].Label())
		}
	}
	if len(out.Milestones) != 2 || out.Milestones[0].Day != 7 || out.Milestones[1].Day != 14 {
		t.Errorf("milestones not clamped and ordered: %+v", out.Milestones)
	}
}

func TestRun_PadsMissingLockedSteps(t *testing.T) {
	resp := happyResponses()
	resp["execution"] = []string{executionVagueJSON}
	svc, _ := routedPipeline(newRouter(resp))

	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: "Spanish for my trip in 3 months"})
	if err != nil {
		t.Fatal(err)
	}
	if out.TotalSteps != len(out.LockedSteps)+1 {
		t.Fatalf("step count mismatch: %d vs %d locked", out.TotalSteps, len(out.LockedSteps))
	}
	templates := learning.TemplatesN(learning.GoalLanguage, out.TotalSteps)
	last := out.LockedSteps[len(out.LockedSteps)-1]
	if last.Title != templates[len(templates)-1].Title {
		t.Errorf("padded step %q, want template %q", last.Title, templates[len(templates)-1].Title)
	}
}

func TestRun_EnforcesQuality(t *testing.T) {
	resp := happyResponses()
	resp["execution"] = []string{executionVagueJSON}
	svc, _ := routedPipeline(newRouter(resp))

	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: calculusGoal})
	if err != nil {
		t.Fatal(err)
	}
	cs := out.CurrentStep
	if !strings.HasPrefix(cs.Method, "Complete 10 timed problems on \""+calculusGoal+"\"") {
		t.Errorf("method not rewritten: %q", cs.Method)
	}
	if !strings.Contains(cs.Method, cs.Timeframe) {
		t.Errorf("rewrite lacks day label %q: %q", cs.Timeframe, cs.Method)
	}
	if !strings.HasPrefix(cs.DoneWhen, "Rewrite your notes") {
		t.Errorf("done_when not rewritten: %q", cs.DoneWhen)
	}
	if !strings.HasPrefix(cs.MicroTasks[1].Description, "Redo 5 problems") {
		t.Errorf("micro task not rewritten: %q", cs.MicroTasks[1].Description)
	}
	if cs.MicroTasks[0].Description != "Sit paper 1 in 45 minutes" {
		t.Errorf("measured task altered: %q", cs.MicroTasks[0].Description)
	}
}

func TestRun_FallbackTotality(t *testing.T) {
	goals := []string{
		"",
		"   \t\n",
		"学习中文",
		"Robert'); DROP TABLE plans;--",
		"{{.Goal}} [insert goal here] <script>alert(1)</script>",
		strings.Repeat("learn everything ", 2000),
		"Pass my calculus exam in 2 weeks",
	}
	for _, goal := range goals {
		svc, _ := failingPipeline()
		out, err := svc.Run(context.Background(), application.PipelineInput{Goal: goal})
		if err != nil {
			t.Errorf("%.20q: unexpected error %v", goal, err)
			continue
		}
		if err := out.Check(); err != nil {
			t.Errorf("%.20q: fallback plan failed checks: %v", goal, err)
		}
		if out.CriticalWarning.Severity != learning.SeverityCritical || out.CriticalWarning.Warning == "" {
			t.Errorf("%.20q: critical warning %+v", goal, out.CriticalWarning)
		}
		if out.TotalSteps < learning.MinSteps || out.TotalSteps > learning.MaxSteps {
			t.Errorf("%.20q: %d steps out of bounds", goal, out.TotalSteps)
		}
		if out.RecommendedPlatforms == nil {
			t.Errorf("%.20q: platforms must be an empty list, not null", goal)
		}
	}
}

func TestRun_HugeDeadlineIsCapped(t *testing.T) {
	svc, _ := failingPipeline()
	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: "learn go in 99999999999999999 years"})
	if err != nil {
		t.Fatal(err)
	}
	if out.EstimatedDays != learning.MaxPlanDays || out.TotalMinutes < out.EstimatedDays {
		t.Errorf("deadline not capped: days=%d minutes=%d", out.EstimatedDays, out.TotalMinutes)
	}
	if strings.HasPrefix(out.Title, "-") {
		t.Errorf("negative day count in title %q", out.Title)
	}
	if err := out.Check(); err != nil {
		t.Errorf("capped plan failed checks: %v", err)
	}
}

func TestRun_EmptyGoalMakesNoCalls(t *testing.T) {
	svc, mock := failingPipeline()
	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: "  ", Debug: true})
	if err != nil {
		t.Fatal(err)
	}
	if mock.Calls() != 0 {
		t.Errorf("expected no generation calls, got %d", mock.Calls())
	}
	if !strings.Contains(out.Title, application.PlaceholderGoal) {
		t.Errorf("placeholder not used: %q", out.Title)
	}
	for phase, src := range out.Debug.Sources {
		if src != application.SourceFallback {
			t.Errorf("%s source %s, want fallback", phase, src)
		}
	}
}

func TestRun_MalformedStrategyStillCritical(t *testing.T) {
	resp := happyResponses()
	resp["strategy"] = []string{"I think you should just study hard."}
	r := newRouter(resp)
	svc, _ := routedPipeline(r)

	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: calculusGoal, Debug: true})
	if err != nil {
		t.Fatal(err)
	}
	if out.CriticalWarning.Severity != learning.SeverityCritical || out.CriticalWarning.Warning == "" {
		t.Errorf("critical warning missing: %+v", out.CriticalWarning)
	}
	if out.Debug.Sources["strategize"] != application.SourceFallback {
		t.Errorf("strategy source %s", out.Debug.Sources["strategize"])
	}
	if r.callsFor("strategy") != 1 {
		t.Errorf("parse failures must not regenerate, got %d strategy calls", r.callsFor("strategy"))
	}
	if out.Debug.Sources["execute"] != application.SourceGenerated {
		t.Errorf("execution should still be generated, got %s", out.Debug.Sources["execute"])
	}
}

func TestRun_RegeneratesWithFeedback(t *testing.T) {
	resp := happyResponses()
	resp["strategy"] = []string{strategyMiddleJSON, strategyJSON}
	r := newRouter(resp)
	svc, _ := routedPipeline(r)

	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: calculusGoal, Debug: true})
	if err != nil {
		t.Fatal(err)
	}
	reqs := r.requestsFor("strategy")
	if len(reqs) != 2 {
		t.Fatalf("expected one regeneration, got %d strategy calls", len(reqs))
	}
	if strings.Contains(reqs[0].Prompt, "rejected") {
		t.Error("first attempt carried feedback")
	}
	if !strings.Contains(reqs[1].Prompt, "unmeasurable_mastery") || !strings.Contains(reqs[1].Prompt, "hedging") {
		t.Errorf("regeneration prompt lacks violation feedback:\n%s", reqs[1].Prompt)
	}
	if out.Debug.Sources["strategize"] != application.SourceGenerated {
		t.Errorf("regenerated strategy not accepted: %s", out.Debug.Sources["strategize"])
	}
	if out.Debug.Attempts["strategize"] != 2 {
		t.Errorf("attempts %d, want 2", out.Debug.Attempts["strategize"])
	}
}

func TestRun_RegenerationBudget(t *testing.T) {
	resp := happyResponses()
	resp["strategy"] = []string{strategyMiddleJSON}
	r := newRouter(resp)
	svc, _ := routedPipeline(r)

	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: calculusGoal, Debug: true})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.callsFor("strategy"), 1+svc.Doctrine().MaxRegenerations; got != want {
		t.Errorf("strategy calls %d, want %d", got, want)
	}
	if out.Debug.Sources["strategize"] != application.SourceFallback {
		t.Errorf("exhausted regenerations must fall back, got %s", out.Debug.Sources["strategize"])
	}
}

func TestRun_LowScoreFallsBackWithoutRegeneration(t *testing.T) {
	resp := happyResponses()
	resp["strategy"] = []string{strategyLowJSON}
	r := newRouter(resp)
	svc, _ := routedPipeline(r)

	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: calculusGoal, Debug: true})
	if err != nil {
		t.Fatal(err)
	}
	if r.callsFor("strategy") != 1 {
		t.Errorf("strategy calls %d, want 1", r.callsFor("strategy"))
	}
	if out.Debug.Sources["strategize"] != application.SourceFallback {
		t.Errorf("source %s, want fallback", out.Debug.Sources["strategize"])
	}
}

func TestRun_Cancellation(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc, mock := routedPipeline(newRouter(happyResponses()))
		out, err := svc.Run(ctx, application.PipelineInput{Goal: calculusGoal})
		if !errors.Is(err, context.Canceled) || out != nil {
			t.Errorf("expected context.Canceled, got %v / %v", out, err)
		}
		if mock.Calls() != 0 {
			t.Errorf("calls made after cancellation: %d", mock.Calls())
		}
	})

	t.Run("during diagnosis", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r := newRouter(happyResponses())
		r.onCall = func(kind string) {
			if kind == "diagnostic" {
				cancel()
			}
		}
		svc, _ := routedPipeline(r)
		_, err := svc.Run(ctx, application.PipelineInput{Goal: calculusGoal})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if r.callsFor("strategy") != 0 {
			t.Error("next phase started after cancellation")
		}
	})
}

func TestRun_DebugBlock(t *testing.T) {
	svc, _ := routedPipeline(newRouter(happyResponses()))
	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: calculusGoal, Debug: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, phase := range []string{"diagnose", "strategize", "execute"} {
		if out.Debug.Sources[phase] != application.SourceGenerated {
			t.Errorf("%s source %q", phase, out.Debug.Sources[phase])
		}
		if _, ok := out.Debug.TimingsMs[phase]; !ok {
			t.Errorf("%s has no timing", phase)
		}
		if out.Debug.Phases[phase] == nil {
			t.Errorf("%s has no raw result", phase)
		}
	}
	diag := out.Debug.Phases["diagnose"].(application.DiagnosticResult)
	if diag.GoalType != learning.GoalTestPrep || diag.Urgency != learning.UrgencyShortTerm || diag.TimeframeDays != 14 {
		t.Errorf("system-owned diagnosis fields not forced: %+v", diag)
	}
	if diag.KnowledgeGaps[0].Gap != "limits" {
		t.Errorf("gaps not ordered by priority: %+v", diag.KnowledgeGaps)
	}
}

func TestRun_CollaboratorsAreConsulted(t *testing.T) {
	lookup := &staticLookup{platforms: []learning.Platform{{Name: "Khan Academy", URL: "https://www.khanacademy.org", Kind: "course"}}}
	analyzer := fixedAnalyzer{ic: &learning.InputContext{Topic: "calculus", Subtopics: []string{"integration by parts", "series"}}}
	svc, _ := failingPipeline(application.WithPlatformLookup(lookup), application.WithInputAnalyzer(analyzer))

	out, err := svc.Run(context.Background(), application.PipelineInput{
		Goal: calculusGoal, Subject: "math", RawInput: "lecture notes", Debug: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.RecommendedPlatforms) != 1 || lookup.subject != "math" {
		t.Errorf("platform lookup not used: %+v (subject %q)", out.RecommendedPlatforms, lookup.subject)
	}
	diag := out.Debug.Phases["diagnose"].(application.DiagnosticResult)
	if diag.KnowledgeGaps[0].Gap != "integration by parts" {
		t.Errorf("analyzer context not used in fallback diagnosis: %+v", diag.KnowledgeGaps)
	}
}

func TestRun_LookupErrorDegrades(t *testing.T) {
	lookup := &staticLookup{err: errors.New("rate limited")}
	svc, _ := failingPipeline(application.WithPlatformLookup(lookup))
	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: calculusGoal})
	if err != nil {
		t.Fatal(err)
	}
	if out.RecommendedPlatforms == nil || len(out.RecommendedPlatforms) != 0 {
		t.Errorf("expected empty platform list, got %v", out.RecommendedPlatforms)
	}
}

func TestRun_PanicRecoveredToMinimalPlan(t *testing.T) {
	svc, _ := failingPipeline(application.WithNormalizer(panicNormalizer{}))
	out, err := svc.Run(context.Background(), application.PipelineInput{Goal: calculusGoal})
	if err != nil {
		t.Fatalf("panic surfaced as error: %v", err)
	}
	if err := out.Check(); err != nil {
		t.Errorf("minimal plan failed checks: %v", err)
	}
}

func TestMinimalPlan(t *testing.T) {
	out := application.MinimalPlan("")
	if err := out.Check(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Title, application.PlaceholderGoal) {
		t.Errorf("title %q", out.Title)
	}
	if _, err := learning.NewPlanFromOutput("g", "", out); err != nil {
		t.Errorf("minimal plan cannot become a plan: %v", err)
	}
}

func TestRunBatch_PreservesOrder(t *testing.T) {
	svc, _ := failingPipeline()
	var inputs []application.PipelineInput
	for i := 0; i < 6; i++ {
		inputs = append(inputs, application.PipelineInput{Goal: fmt.Sprintf("goal number %d", i)})
	}
	outs, err := svc.RunBatch(context.Background(), inputs, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != len(inputs) {
		t.Fatalf("got %d results", len(outs))
	}
	for i, out := range outs {
		if !strings.Contains(out.Title, inputs[i].Goal) {
			t.Errorf("result %d is %q, want goal %q", i, out.Title, inputs[i].Goal)
		}
	}
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc, _ := failingPipeline()
	if _, err := svc.RunBatch(ctx, []application.PipelineInput{{Goal: "a"}, {Goal: "b"}}, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFormatContextBlock(t *testing.T) {
	if got := application.FormatContextBlock("short", 100); got != "short" {
		t.Errorf("short text altered: %q", got)
	}
	if got := application.FormatContextBlock(nil, 100); got != "" {
		t.Errorf("nil should render empty, got %q", got)
	}

	long := strings.Repeat("é", 5000)
	got := application.FormatContextBlock(long, 100)
	if n := utf8.RuneCountInString(got); n != 100 {
		t.Errorf("truncated to %d runes, want 100", n)
	}
	if !utf8.ValidString(got) || !strings.HasSuffix(got, "[truncated]") {
		t.Errorf("bad truncation: %q", got)
	}
	if n := utf8.RuneCountInString(application.FormatContextBlock(long, 0)); n != application.DefaultContextLimit {
		t.Errorf("default limit gave %d runes", n)
	}

	structured := application.FormatContextBlock(map[string]int{"days": 14}, 100)
	if !strings.Contains(structured, `"days": 14`) {
		t.Errorf("structured value not serialized: %q", structured)
	}
}
