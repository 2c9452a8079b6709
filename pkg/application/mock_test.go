package application_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	infraAI "github.com/felixgeelhaar/learnroad/pkg/ai"
	"github.com/felixgeelhaar/learnroad/pkg/application"
	"github.com/felixgeelhaar/learnroad/pkg/domain/ai"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
	"github.com/felixgeelhaar/learnroad/pkg/prompts"
)

const (
	diagnosisJSON = `{
		"goal_type": "general", "urgency": "long_term", "scope": "narrow", "user_level": "beginner",
		"knowledge_gaps": [{"gap": "chain rule", "priority": 2}, {"gap": "limits", "priority": 1}],
		"prerequisites": ["algebra"], "root_cause": "no timed practice", "timeframe_days": 200}`

	strategyJSON = `{
		"transformation": {"from": "guessing", "to": "70% on past papers", "narrative": "drill then mock"},
		"critical_risk": {"mistake": "no timed practice", "consequence": "running out of time"},
		"common_risks": [{"risk": "cramming", "mitigation": "daily sets"}, {"risk": "skipping errors", "mitigation": "error log"}],
		"success_metrics": ["70% on a mock", "error log under 10 items"],
		"out_of_scope": ["proofs"],
		"milestones": [{"day": 30, "label": "exam"}, {"day": 7, "label": "first mock"}],
		"success_looks_like": "a timed paper above 70%"}`

	// Scores 65: one critical and one minor violation.
	strategyMiddleJSON = `{
		"transformation": {"from": "guessing", "to": "70% on past papers", "narrative": "master derivatives, maybe"},
		"critical_risk": {"mistake": "no timed practice", "consequence": "running out of time"},
		"common_risks": [{"risk": "cramming", "mitigation": "daily sets"}, {"risk": "skipping errors", "mitigation": "error log"}],
		"success_metrics": ["70% on a mock", "error log under 10 items"],
		"out_of_scope": ["proofs"],
		"milestones": [{"day": 7, "label": "first mock"}, {"day": 14, "label": "exam"}],
		"success_looks_like": "a timed paper above 70%"}`

	// Scores 10: three critical violations.
	strategyLowJSON = `{
		"transformation": {"from": "guessing", "to": "TBD", "narrative": "master it and become an expert"},
		"critical_risk": {"mistake": "no timed practice", "consequence": "running out of time"},
		"common_risks": [{"risk": "cramming", "mitigation": "daily sets"}, {"risk": "skipping errors", "mitigation": "error log"}],
		"success_metrics": ["70% on a mock", "error log under 10 items"],
		"out_of_scope": ["proofs"],
		"milestones": [{"day": 7, "label": "first mock"}, {"day": 14, "label": "exam"}],
		"success_looks_like": "a timed paper above 70%"}`

	executionJSON = `{
		"title": "Calculus in 14 days", "overview": "drills and mocks", "vision": "pass", "target_user": "student",
		"daily_minutes": 60,
		"current_step": {
			"title": "Baseline", "description": "map the syllabus", "method": "sit 1 past paper",
			"done_when": "every topic tagged",
			"time_breakdown": [{"activity": "paper", "minutes": 45}, {"activity": "tagging", "minutes": 15}],
			"common_mistakes": ["rereading", "no timer"],
			"self_test": ["derive d/dx x^2", "state the chain rule"],
			"resources": [{"title": "Past paper 2023", "type": "exam", "query": "calculus past paper"}],
			"micro_tasks": [
				{"order": 1, "description": "Sit paper 1 in 45 minutes", "minutes": 45, "type": "test"},
				{"order": 2, "description": "Tag 20 topics", "minutes": 10, "type": "review"},
				{"order": 3, "description": "List 3 weakest topics", "minutes": 5, "type": "review"}],
			"allowed_content": {"explanation": true, "practice": true, "examples": true, "full_solutions": true},
			"timeframe": "whenever"
		},
		"locked_steps": [
			{"title": "Drills", "preview": "drill core types"},
			{"title": "Mocks", "preview": "sit 2 mocks"},
			{"title": "Extra", "preview": "one too many"},
			{"title": "Extra 2", "preview": "two too many"}]}`

	// Vague, unmeasured instructions the enforcer must rewrite.
	executionVagueJSON = `{
		"title": "Calculus in 14 days", "overview": "drills and mocks", "vision": "pass", "target_user": "student",
		"daily_minutes": 60,
		"current_step": {
			"title": "Baseline", "description": "map the syllabus", "method": "Practice derivatives",
			"done_when": "Review your notes",
			"time_breakdown": [{"activity": "paper", "minutes": 45}, {"activity": "tagging", "minutes": 15}],
			"common_mistakes": ["rereading", "no timer"],
			"self_test": ["derive d/dx x^2", "state the chain rule"],
			"resources": [{"title": "Past paper 2023", "type": "exam", "query": "calculus past paper"}],
			"micro_tasks": [
				{"order": 1, "description": "Sit paper 1 in 45 minutes", "minutes": 45, "type": "test"},
				{"order": 2, "description": "Go over limits", "minutes": 10, "type": "review"},
				{"order": 3, "description": "List 3 weakest topics", "minutes": 5, "type": "review"}]
		},
		"locked_steps": [{"title": "Drills", "preview": "drill core types"}]}`

	missionJSON = `{
		"actions": [{"type": "practice", "description": "Solve 5 limits", "minutes": 20},
			{"type": "test", "description": "Practice limits", "minutes": 10}],
		"avoid": ["rereading notes"], "done_when": "5 limits solved"}`

	hintJSON = `{"hint": "factor the numerator first", "next_action": "retry question 3"}`
)

// kindOf finds which role a request was built for from the schema title in
// its system prompt.
func kindOf(req ai.CompletionRequest) string {
	for _, k := range []string{"diagnostic", "strategy", "execution", "mission", "hint"} {
		if strings.Contains(req.System, `"title":"`+k+`"`) {
			return k
		}
	}
	return ""
}

// router answers requests per role kind. Each kind's responses are consumed
// in order and the last one repeats.
type router struct {
	mu        sync.Mutex
	responses map[string][]string
	calls     map[string]int
	requests  map[string][]ai.CompletionRequest
	onCall    func(kind string)
}

func newRouter(responses map[string][]string) *router {
	return &router{
		responses: responses,
		calls:     map[string]int{},
		requests:  map[string][]ai.CompletionRequest{},
	}
}

func (r *router) handle(req ai.CompletionRequest) (string, error) {
	kind := kindOf(req)
	r.mu.Lock()
	n := r.calls[kind]
	r.calls[kind]++
	r.requests[kind] = append(r.requests[kind], req)
	hook := r.onCall
	r.mu.Unlock()
	if hook != nil {
		hook(kind)
	}
	rs := r.responses[kind]
	if len(rs) == 0 {
		return "", errors.New("no response scripted for " + kind)
	}
	if n >= len(rs) {
		n = len(rs) - 1
	}
	return rs[n], nil
}

func (r *router) callsFor(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[kind]
}

func (r *router) requestsFor(kind string) []ai.CompletionRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ai.CompletionRequest(nil), r.requests[kind]...)
}

func happyResponses() map[string][]string {
	return map[string][]string{
		"diagnostic": {diagnosisJSON},
		"strategy":   {strategyJSON},
		"execution":  {executionJSON},
		"mission":    {missionJSON},
		"hint":       {hintJSON},
	}
}

func newGateway(p ai.Provider) *application.ExecutionGateway {
	return application.NewExecutionGateway(p, prompts.Default(), nil)
}

func routedPipeline(r *router, opts ...application.PipelineOption) (*application.PipelineService, *infraAI.MockProvider) {
	mock := &infraAI.MockProvider{Model: "scripted", Handler: r.handle}
	return application.NewPipelineService(newGateway(mock), opts...), mock
}

func failingPipeline(opts ...application.PipelineOption) (*application.PipelineService, *infraAI.MockProvider) {
	mock := &infraAI.MockProvider{Model: "down", Err: errors.New("connection refused")}
	return application.NewPipelineService(newGateway(mock), opts...), mock
}

// memRepo is an in-memory plan repository.
type memRepo struct {
	plan    *learning.Plan
	saves   int
	saveErr error
	loadErr error
}

func (m *memRepo) SavePlan(p *learning.Plan) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.plan = p
	m.saves++
	return nil
}

func (m *memRepo) LoadPlan() (*learning.Plan, error) {
	return m.plan, m.loadErr
}

type staticLookup struct {
	platforms []learning.Platform
	err       error
	subject   string
}

func (s *staticLookup) Lookup(_ context.Context, subject, _ string) ([]learning.Platform, error) {
	s.subject = subject
	return s.platforms, s.err
}

type fixedAnalyzer struct {
	ic *learning.InputContext
}

func (f fixedAnalyzer) Analyze(context.Context, string) (*learning.InputContext, error) {
	return f.ic, nil
}

type panicNormalizer struct{}

func (panicNormalizer) Normalize(context.Context, string) (string, error) {
	panic("normalizer exploded")
}
