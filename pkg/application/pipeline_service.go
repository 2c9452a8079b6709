package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/learnroad/pkg/domain/doctrine"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
	"github.com/felixgeelhaar/learnroad/pkg/domain/roles"
)

const (
	SourceGenerated = "generated"
	SourceFallback  = "fallback"

	// PlaceholderGoal replaces a goal that is empty after trimming.
	PlaceholderGoal = "your learning goal"

	DefaultContextLimit = 4000
	truncationMarker    = "…[truncated]"
)

type KnowledgeGap struct {
	Gap      string `json:"gap"`
	Priority int    `json:"priority"`
}

// DiagnosticResult is the decoded output of the diagnose phase.
type DiagnosticResult struct {
	GoalType      learning.GoalType `json:"goal_type"`
	Urgency       learning.Urgency  `json:"urgency"`
	Scope         learning.Scope    `json:"scope"`
	UserLevel     string            `json:"user_level"`
	KnowledgeGaps []KnowledgeGap    `json:"knowledge_gaps"`
	Prerequisites []string          `json:"prerequisites"`
	RootCause     string            `json:"root_cause"`
	TimeframeDays int               `json:"timeframe_days"`
}

type Transformation struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Narrative string `json:"narrative"`
}

type CriticalRisk struct {
	Mistake     string `json:"mistake"`
	Consequence string `json:"consequence"`
}

type Risk struct {
	Risk       string `json:"risk"`
	Mitigation string `json:"mitigation"`
}

type StrategyMilestone struct {
	Day   int    `json:"day"`
	Label string `json:"label"`
}

// StrategyResult is the decoded output of the strategize phase.
type StrategyResult struct {
	Transformation   Transformation      `json:"transformation"`
	CriticalRisk     CriticalRisk        `json:"critical_risk"`
	CommonRisks      []Risk              `json:"common_risks"`
	SuccessMetrics   []string            `json:"success_metrics"`
	OutOfScope       []string            `json:"out_of_scope"`
	Milestones       []StrategyMilestone `json:"milestones"`
	SuccessLooksLike string              `json:"success_looks_like"`
}

// ExecutionResult is the decoded output of the execute phase.
type ExecutionResult struct {
	Title        string                      `json:"title"`
	Overview     string                      `json:"overview"`
	Vision       string                      `json:"vision"`
	TargetUser   string                      `json:"target_user"`
	DailyMinutes int                         `json:"daily_minutes"`
	CurrentStep  learning.CurrentStepOutput  `json:"current_step"`
	LockedSteps  []learning.LockedStepOutput `json:"locked_steps"`
}

// PhaseResult records how one phase produced its data.
type PhaseResult[T any] struct {
	Data     T
	Source   string
	Attempts int
	Elapsed  time.Duration
	Errors   []string
	Score    int
}

// PipelineInput is one plan request.
type PipelineInput struct {
	Goal          string `json:"goal"`
	Subject       string `json:"subject,omitempty"`
	UserContext   string `json:"user_context,omitempty"`
	MemoryContext string `json:"memory_context,omitempty"`
	RawInput      string `json:"raw_input,omitempty"`
	Debug         bool   `json:"debug,omitempty"`
}

// PipelineService turns a goal into a PlanOutput through the diagnose,
// strategize and execute phases. It holds no per-run state and can serve
// concurrent runs.
type PipelineService struct {
	exec         Executor
	doctrine     *doctrine.Doctrine
	catalog      *roles.Catalog
	enforcer     *QualityEnforcer
	normalizer   learning.GoalNormalizer
	analyzer     learning.InputAnalyzer
	platforms    learning.PlatformLookup
	logger       *slog.Logger
	tracer       trace.Tracer
	contextLimit int
}

type PipelineOption func(*PipelineService)

func WithNormalizer(n learning.GoalNormalizer) PipelineOption {
	return func(p *PipelineService) { p.normalizer = n }
}

func WithInputAnalyzer(a learning.InputAnalyzer) PipelineOption {
	return func(p *PipelineService) { p.analyzer = a }
}

func WithPlatformLookup(l learning.PlatformLookup) PipelineOption {
	return func(p *PipelineService) { p.platforms = l }
}

func WithDoctrine(d *doctrine.Doctrine) PipelineOption {
	return func(p *PipelineService) { p.doctrine = d }
}

func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *PipelineService) { p.logger = l }
}

// WithContextLimit caps the characters of serialized context passed between phases.
func WithContextLimit(n int) PipelineOption {
	return func(p *PipelineService) { p.contextLimit = n }
}

func NewPipelineService(exec Executor, opts ...PipelineOption) *PipelineService {
	p := &PipelineService{exec: exec}
	for _, opt := range opts {
		opt(p)
	}
	if p.doctrine == nil {
		p.doctrine = doctrine.Default()
	}
	if p.normalizer == nil {
		p.normalizer = WhitespaceNormalizer{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.contextLimit <= 0 {
		p.contextLimit = DefaultContextLimit
	}
	p.catalog = roles.NewCatalog(p.doctrine)
	p.enforcer = NewQualityEnforcer(p.doctrine)
	p.tracer = otel.Tracer(tracerName)
	return p
}

// Doctrine returns the rule set the service judges content with.
func (p *PipelineService) Doctrine() *doctrine.Doctrine { return p.doctrine }

// WhitespaceNormalizer collapses runs of whitespace in a goal.
type WhitespaceNormalizer struct{}

func (WhitespaceNormalizer) Normalize(_ context.Context, goal string) (string, error) {
	return strings.Join(strings.Fields(goal), " "), nil
}

// runState is the per-run data shared between phases.
type runState struct {
	in       PipelineInput
	goal     string
	live     bool
	category learning.Category
	deadline learning.Timeframe
	input    *learning.InputContext
	days     int
	steps    int
	schedule []learning.DayWindow
	debug    *learning.DebugInfo
}

// Run executes the phases in order. Generation failures never surface as
// errors; the only error is the context's.
func (p *PipelineService) Run(ctx context.Context, in PipelineInput) (out *learning.PlanOutput, err error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	start := time.Now()
	st := &runState{in: in}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic recovered", "panic", fmt.Sprint(r))
			span.SetStatus(codes.Error, "panic")
			goal := st.goal
			if goal == "" {
				goal = PlaceholderGoal
			}
			out, err = MinimalPlan(goal), nil
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.intake(ctx, st)
	span.SetAttributes(
		attribute.String("goal_type", string(st.category.Type)),
		attribute.Bool("live", st.live),
	)
	if in.Debug {
		st.debug = &learning.DebugInfo{
			Sources:   map[string]string{},
			TimingsMs: map[string]int64{},
			Attempts:  map[string]int{},
			Errors:    map[string]any{},
			Phases:    map[string]any{},
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	diag, err := p.diagnose(ctx, st)
	if err != nil {
		return nil, err
	}
	recordPhase(st.debug, roles.ActionDiagnose, diag)
	p.plan(st, diag.Data)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	strat, err := p.strategize(ctx, st, diag.Data)
	if err != nil {
		return nil, err
	}
	recordPhase(st.debug, roles.ActionStrategize, strat)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	execRes, err := p.execute(ctx, st, diag.Data, strat.Data)
	if err != nil {
		return nil, err
	}
	recordPhase(st.debug, roles.ActionExecute, execRes)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out = p.assemble(ctx, st, diag.Data, strat.Data, execRes.Data)
	if cerr := out.Check(); cerr != nil {
		p.logger.Error("assembled plan failed checks", "error", cerr)
		out = MinimalPlan(st.goal)
	}

	p.logger.Info("pipeline run",
		"goal_type", out.GoalType,
		"steps", out.TotalSteps,
		"days", out.EstimatedDays,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// RunBatch runs independent requests concurrently and returns results in input order.
func (p *PipelineService) RunBatch(ctx context.Context, inputs []PipelineInput, concurrency int) ([]*learning.PlanOutput, error) {
	results := make([]*learning.PlanOutput, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, in := range inputs {
		g.Go(func() error {
			out, err := p.Run(gctx, in)
			if err != nil {
				return fmt.Errorf("batch item %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *PipelineService) intake(ctx context.Context, st *runState) {
	goal, err := p.normalizer.Normalize(ctx, st.in.Goal)
	if err != nil {
		p.logger.Warn("goal normalization failed", "error", err)
		goal = st.in.Goal
	}
	goal = strings.TrimSpace(goal)
	st.live = goal != ""
	if !st.live {
		goal = PlaceholderGoal
	}
	st.goal = goal
	st.category = learning.CategorizeGoal(goal)
	st.deadline = learning.ParseTimeframe(goal)

	if p.analyzer != nil && strings.TrimSpace(st.in.RawInput) != "" {
		ic, err := p.analyzer.Analyze(ctx, st.in.RawInput)
		if err != nil {
			p.logger.Warn("input analysis failed", "error", err)
		} else {
			st.input = ic
		}
	}
}

// plan fixes the system-owned length, step count and day windows.
func (p *PipelineService) plan(st *runState, diag DiagnosticResult) {
	st.days = diag.TimeframeDays
	st.steps = learning.TargetStepCount(st.days, diag.Scope)
	st.schedule = learning.BuildSchedule(st.days, st.steps)
}

func (p *PipelineService) promptContext(st *runState, block string) PromptContext {
	pc := PromptContext{
		Goal:          st.goal,
		Subject:       st.in.Subject,
		UserContext:   st.in.UserContext,
		MemoryContext: st.in.MemoryContext,
		Context:       block,
	}
	if st.deadline.Detected {
		pc.Timeframe = st.deadline.Label
	}
	return pc
}

func (p *PipelineService) diagnose(ctx context.Context, st *runState) (PhaseResult[DiagnosticResult], error) {
	ctx, span := p.tracer.Start(ctx, "pipeline."+roles.ActionDiagnose)
	defer span.End()
	start := time.Now()

	var res PhaseResult[DiagnosticResult]
	if st.live {
		role, err := p.catalog.Role(roles.ActionDiagnose, nil)
		if err == nil {
			var block string
			if st.input != nil {
				block = FormatContextBlock(st.input, p.contextLimit)
			}
			env := p.exec.Execute(ctx, role, p.promptContext(st, block))
			if err := ctx.Err(); err != nil {
				return res, err
			}
			res.Attempts = env.Attempts
			if env.Success {
				if data, derr := decodeInto[DiagnosticResult](env.Data); derr == nil {
					res.Data, res.Source = data, SourceGenerated
				} else {
					res.Errors = append(res.Errors, derr.Error())
				}
			} else {
				res.Errors = append(res.Errors, envelopeErrors(env)...)
			}
		} else {
			res.Errors = append(res.Errors, err.Error())
		}
	}
	if res.Source == "" {
		res.Data, res.Source = fallbackDiagnosis(st), SourceFallback
	}

	// Classification, urgency and plan length are system-owned.
	d := &res.Data
	d.GoalType = st.category.Type
	if !validScope(d.Scope) {
		d.Scope = scopeFor(st.deadline)
	}
	if st.deadline.Detected {
		d.TimeframeDays = st.deadline.Days
		d.Urgency = learning.UrgencyFor(st.deadline.Days)
	} else {
		d.TimeframeDays = learning.DefaultDays(d.Scope)
		if !validUrgency(d.Urgency) {
			d.Urgency = learning.UrgencyFor(d.TimeframeDays)
		}
	}
	sort.SliceStable(d.KnowledgeGaps, func(i, j int) bool {
		return d.KnowledgeGaps[i].Priority < d.KnowledgeGaps[j].Priority
	})

	res.Elapsed = time.Since(start)
	p.logPhase(span, roles.ActionDiagnose, res.Source, res.Elapsed, res.Attempts, 0)
	return res, nil
}

func (p *PipelineService) strategize(ctx context.Context, st *runState, diag DiagnosticResult) (PhaseResult[StrategyResult], error) {
	ctx, span := p.tracer.Start(ctx, "pipeline."+roles.ActionStrategize)
	defer span.End()

	pc := p.promptContext(st, FormatContextBlock(diag, p.contextLimit))
	res, err := gated(ctx, p, st.live, roles.ActionStrategize, pc, strategyText, func() StrategyResult {
		return fallbackStrategy(st)
	})
	if err != nil {
		return res, err
	}
	res.Data.Milestones = clampMilestones(res.Data.Milestones, st.days)
	p.logPhase(span, roles.ActionStrategize, res.Source, res.Elapsed, res.Attempts, res.Score)
	return res, nil
}

func (p *PipelineService) execute(ctx context.Context, st *runState, diag DiagnosticResult, strat StrategyResult) (PhaseResult[ExecutionResult], error) {
	ctx, span := p.tracer.Start(ctx, "pipeline."+roles.ActionExecute)
	defer span.End()

	block := FormatContextBlock(map[string]any{"diagnosis": diag, "strategy": strat}, p.contextLimit)
	pc := p.promptContext(st, block)
	pc.TargetSteps = st.steps
	pc.StepTimeframe = st.schedule[0].Label()

	res, err := gated(ctx, p, st.live, roles.ActionExecute, pc, executionText, func() ExecutionResult {
		return fallbackExecution(st, diag)
	})
	if err != nil {
		return res, err
	}
	p.forceExecution(st, &res.Data)
	p.logPhase(span, roles.ActionExecute, res.Source, res.Elapsed, res.Attempts, res.Score)
	return res, nil
}

// forceExecution overwrites the fields the generator never owns: step count,
// day windows, capabilities and completion criteria.
func (p *PipelineService) forceExecution(st *runState, e *ExecutionResult) {
	cs := &e.CurrentStep
	cs.Timeframe = st.schedule[0].Label()
	cs.AllowedContent = learning.DefaultAllowedContent()
	sort.SliceStable(cs.MicroTasks, func(i, j int) bool { return cs.MicroTasks[i].Order < cs.MicroTasks[j].Order })
	cs.CompletionCriteria = learning.CompletionCriteria{
		Type:      learning.CriteriaTasksCompleted,
		Threshold: float64(len(cs.MicroTasks)),
	}

	templates := learning.TemplatesN(st.category.Type, st.steps)
	locked := make([]learning.LockedStepOutput, st.steps-1)
	for i := range locked {
		if i < len(e.LockedSteps) {
			locked[i] = e.LockedSteps[i]
		} else {
			t := templates[i+1]
			locked[i] = learning.LockedStepOutput{Title: t.Title, Preview: capitalize(t.Focus)}
		}
		locked[i].Timeframe = st.schedule[i+1].Label()
	}
	e.LockedSteps = locked

	p.enforcer.Enforce(cs, st.goal, cs.Timeframe)
}

// gated runs a doctrine-gated phase: accept at the pass score, regenerate
// with violation feedback in the middle band, fall back otherwise. Gateway
// failures fall back without regeneration.
func gated[T any](
	ctx context.Context,
	p *PipelineService,
	live bool,
	action string,
	pc PromptContext,
	text func(T) string,
	fallback func() T,
) (PhaseResult[T], error) {
	start := time.Now()
	var res PhaseResult[T]

	role, err := p.catalog.Role(action, nil)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		live = false
	}

	for regen := 0; live; regen++ {
		env := p.exec.Execute(ctx, role, pc)
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Attempts += env.Attempts
		if !env.Success {
			res.Errors = append(res.Errors, envelopeErrors(env)...)
			break
		}
		data, derr := decodeInto[T](env.Data)
		if derr != nil {
			res.Errors = append(res.Errors, derr.Error())
			break
		}
		content := text(data)
		res.Score = doctrine.ScoreContent(content, p.doctrine)
		verdict := doctrine.Decide(res.Score, p.doctrine)
		if verdict == doctrine.VerdictPass {
			res.Data, res.Source = data, SourceGenerated
			res.Elapsed = time.Since(start)
			return res, nil
		}
		res.Errors = append(res.Errors, fmt.Sprintf("quality score %d (%s)", res.Score, verdict))
		if verdict == doctrine.VerdictFallback || regen >= p.doctrine.MaxRegenerations {
			break
		}
		pc.Feedback = violationFeedback(doctrine.ListViolations(content, p.doctrine))
	}

	res.Data, res.Source = fallback(), SourceFallback
	res.Elapsed = time.Since(start)
	return res, nil
}

func (p *PipelineService) assemble(ctx context.Context, st *runState, diag DiagnosticResult, strat StrategyResult, e ExecutionResult) *learning.PlanOutput {
	minutes := dailyMinutes(diag.Urgency)
	out := &learning.PlanOutput{
		Title:            e.Title,
		Overview:         e.Overview,
		Vision:           e.Vision,
		TargetUser:       e.TargetUser,
		GoalType:         diag.GoalType,
		TotalSteps:       st.steps,
		EstimatedDays:    st.days,
		DailyCommitment:  fmt.Sprintf("%d minutes per day", minutes),
		TotalMinutes:     minutes * st.days,
		SuccessLooksLike: strat.SuccessLooksLike,
		SuccessMetrics:   nonNil(strat.SuccessMetrics),
		OutOfScope:       nonNil(strat.OutOfScope),
		CurrentStep:      e.CurrentStep,
		LockedSteps:      e.LockedSteps,
		CriticalWarning: learning.CriticalWarning{
			Warning:     strat.CriticalRisk.Mistake,
			Consequence: strat.CriticalRisk.Consequence,
			Severity:    learning.SeverityCritical,
		},
		Pitfalls:             pitfalls(e.CurrentStep.CommonMistakes, strat.CommonRisks),
		Milestones:           milestones(strat.Milestones),
		RecommendedPlatforms: []learning.Platform{},
		Debug:                st.debug,
	}

	if p.platforms != nil {
		subject := st.in.Subject
		if subject == "" {
			subject = string(diag.GoalType)
		}
		found, err := p.platforms.Lookup(ctx, subject, st.goal)
		if err != nil {
			p.logger.Warn("platform lookup failed", "error", err)
		} else if found != nil {
			out.RecommendedPlatforms = found
		}
	}
	return out
}

func (p *PipelineService) logPhase(span trace.Span, phase, source string, elapsed time.Duration, attempts, score int) {
	span.SetAttributes(
		attribute.String("source", source),
		attribute.Int("attempts", attempts),
		attribute.Int("score", score),
	)
	p.logger.Info("pipeline phase",
		"phase", phase,
		"source", source,
		"elapsed_ms", elapsed.Milliseconds(),
		"attempts", attempts,
		"score", score,
	)
}

func recordPhase[T any](dbg *learning.DebugInfo, phase string, r PhaseResult[T]) {
	if dbg == nil {
		return
	}
	dbg.Sources[phase] = r.Source
	dbg.TimingsMs[phase] = r.Elapsed.Milliseconds()
	dbg.Attempts[phase] = r.Attempts
	if len(r.Errors) > 0 {
		dbg.Errors[phase] = r.Errors
	}
	dbg.Phases[phase] = r.Data
}

// FormatContextBlock serializes v for a prompt, cutting it to at most limit
// characters with a visible marker.
func FormatContextBlock(v any, limit int) string {
	if limit <= 0 {
		limit = DefaultContextLimit
	}
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	default:
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return ""
		}
		s = string(raw)
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - utf8.RuneCountInString(truncationMarker)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return string(runes[:keep]) + truncationMarker
}

func decodeInto[T any](data map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(data)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode phase output: %w", err)
	}
	return out, nil
}

func envelopeErrors(env ExecutionEnvelope) []string {
	var out []string
	if env.Err != nil {
		out = append(out, env.Err.Error())
	}
	return append(out, env.ValidationErrors...)
}

func violationFeedback(vs []doctrine.Violation) string {
	seen := map[string]bool{}
	var b strings.Builder
	for _, v := range vs {
		key := v.Rule + "\x00" + strings.ToLower(v.Match)
		if seen[key] {
			continue
		}
		seen[key] = true
		fmt.Fprintf(&b, "- %s: %q. %s\n", v.Rule, v.Match, v.Fix)
	}
	return strings.TrimRight(b.String(), "\n")
}

func strategyText(s StrategyResult) string {
	lines := []string{s.Transformation.Narrative, s.CriticalRisk.Mistake, s.CriticalRisk.Consequence}
	for _, r := range s.CommonRisks {
		lines = append(lines, r.Risk, r.Mitigation)
	}
	lines = append(lines, s.SuccessMetrics...)
	for _, m := range s.Milestones {
		lines = append(lines, m.Label)
	}
	return strings.Join(append(lines, s.SuccessLooksLike), "\n")
}

func executionText(e ExecutionResult) string {
	cs := e.CurrentStep
	lines := []string{e.Overview, cs.Description, cs.Method, cs.DoneWhen}
	for _, t := range cs.MicroTasks {
		lines = append(lines, t.Description)
	}
	lines = append(lines, cs.SelfTest...)
	for _, l := range e.LockedSteps {
		lines = append(lines, l.Preview)
	}
	return strings.Join(lines, "\n")
}

func clampMilestones(ms []StrategyMilestone, days int) []StrategyMilestone {
	out := make([]StrategyMilestone, 0, len(ms))
	for _, m := range ms {
		if m.Day < 1 {
			m.Day = 1
		}
		if days > 0 && m.Day > days {
			m.Day = days
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

func milestones(ms []StrategyMilestone) []learning.Milestone {
	out := make([]learning.Milestone, 0, len(ms))
	for _, m := range ms {
		out = append(out, learning.Milestone{Day: m.Day, Label: m.Label, Marker: fmt.Sprintf("Day %d", m.Day)})
	}
	return out
}

func pitfalls(mistakes []string, risks []Risk) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(s string) {
		k := strings.ToLower(strings.TrimSpace(s))
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		out = append(out, s)
	}
	for _, m := range mistakes {
		add(m)
	}
	for _, r := range risks {
		add(r.Risk)
	}
	return out
}

func dailyMinutes(u learning.Urgency) int {
	switch u {
	case learning.UrgencyShortTerm:
		return 90
	case learning.UrgencyLongTerm:
		return 45
	default:
		return 60
	}
}

func validScope(s learning.Scope) bool {
	return s == learning.ScopeNarrow || s == learning.ScopeModerate || s == learning.ScopeBroad
}

func validUrgency(u learning.Urgency) bool {
	return u == learning.UrgencyShortTerm || u == learning.UrgencyMediumTerm || u == learning.UrgencyLongTerm
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
