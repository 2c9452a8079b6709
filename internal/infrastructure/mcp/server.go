package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/learnroad/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/learnroad/pkg/application"
	"github.com/felixgeelhaar/learnroad/pkg/domain/doctrine"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

type Server struct {
	mcpServer *mcp.Server
	pipeline  *application.PipelineService
	planSvc   *application.PlanService
	enforcer  *application.QualityEnforcer
	doctrine  *doctrine.Doctrine
	usage     *application.UsageService
	root      string
}

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// mcpErr returns a user-friendly error for MCP clients.
// Internal details are omitted; only the friendly message is returned.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

// NewServer builds the services for root. A provider config fallback is not
// fatal: the server starts on the default provider.
func NewServer(root string) (*Server, error) {
	services, err := wiring.BuildAppServices(root)
	if services == nil {
		return nil, fmt.Errorf("build services: %w", err)
	}
	return NewServerWithServices(root, services), nil
}

func NewServerWithServices(root string, services *wiring.AppServices) *Server {
	info := mcp.ServerInfo{
		Name:    "learnroad",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("learnroad MCP Server"),
			mcp.WithDescription("learnroad turns a learning goal into a staged, quality-checked plan and tracks progress through it."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Generate a plan from a goal, then read today's mission, ask for hints and report progress one step at a time."),
		),
		pipeline: services.Pipeline,
		planSvc:  services.Plan,
		enforcer: application.NewQualityEnforcer(services.Doctrine),
		doctrine: services.Doctrine,
		usage:    services.Workspace.Usage,
		root:     root,
	}

	s.registerTools()
	s.registerSchemaResource()
	return s
}

type GeneratePlanArgs struct {
	Goal    string `json:"goal" jsonschema:"description=The learning goal in the learner's own words"`
	Subject string `json:"subject,omitempty" jsonschema:"description=Optional subject used for resource lookup"`
	Context string `json:"context,omitempty" jsonschema:"description=What the learner already knows or has"`
	Memory  string `json:"memory,omitempty" jsonschema:"description=Notes from earlier sessions"`
	Save    bool   `json:"save,omitempty" jsonschema:"description=Store the plan as the current plan"`
	Debug   bool   `json:"debug,omitempty" jsonschema:"description=Include per-phase provenance"`
}

type ProgressArgs struct {
	TasksCompleted   int     `json:"tasks_completed,omitempty" jsonschema:"description=Micro-tasks finished in the current step"`
	SelfTestScore    float64 `json:"self_test_score,omitempty" jsonschema:"description=Self-test score between 0 and 1"`
	MinutesPracticed int     `json:"minutes_practiced,omitempty" jsonschema:"description=Minutes spent on the step"`
	Force            bool    `json:"force,omitempty" jsonschema:"description=Complete the step even if its criteria are not met"`
}

type SkipArgs struct {
	Confirm bool `json:"confirm" jsonschema:"description=Must be true; the learner explicitly asked to skip"`
}

type HintArgs struct {
	Question string `json:"question,omitempty" jsonschema:"description=Where the learner is stuck"`
}

type ScoreArgs struct {
	Text string `json:"text" jsonschema:"description=Learning content to rate against the quality doctrine"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("learnroad_generate_plan").
		Description("Generate a staged learning plan for a goal").
		Handler(s.handleGeneratePlan)

	s.mcpServer.Tool("learnroad_get_plan").
		Description("Retrieve the stored learning plan").
		Handler(s.handleGetPlan)

	s.mcpServer.Tool("learnroad_status").
		Description("Summarize progress through the stored plan").
		Handler(s.handleStatus)

	s.mcpServer.Tool("learnroad_progress").
		Description("Complete the current step and unlock the next one").
		Handler(s.handleProgress)

	s.mcpServer.Tool("learnroad_skip").
		Description("Skip the current step; requires the learner's explicit confirmation").
		Handler(s.handleSkip)

	s.mcpServer.Tool("learnroad_mission").
		Description("Get today's mission for the current step").
		Handler(s.handleMission)

	s.mcpServer.Tool("learnroad_hint").
		Description("Get a hint for the current step without a full solution").
		Handler(s.handleHint)

	s.mcpServer.Tool("learnroad_score").
		Description("Score text against the content-quality doctrine").
		Handler(s.handleScore)

	s.mcpServer.Tool("learnroad_get_usage").
		Description("Retrieve generation call and token statistics").
		Handler(s.handleGetUsage)
}

func (s *Server) handleGeneratePlan(ctx context.Context, args GeneratePlanArgs) (any, error) {
	out, err := s.pipeline.Run(ctx, application.PipelineInput{
		Goal:          args.Goal,
		Subject:       args.Subject,
		UserContext:   args.Context,
		MemoryContext: args.Memory,
		Debug:         args.Debug,
	})
	if err != nil {
		return nil, mcpErr("Plan generation was cancelled.")
	}
	if args.Save {
		if _, err := s.planSvc.CreateFromOutput(ctx, args.Goal, args.Subject, out); err != nil {
			return nil, mcpErr("The plan was generated but could not be saved. Check permissions on .learnroad/.")
		}
	}
	return out, nil
}

func (s *Server) handleGetPlan(ctx context.Context, args struct{}) (any, error) {
	plan, err := s.planSvc.GetPlan(ctx)
	if err != nil {
		return nil, noPlanErr(err, "Failed to load plan.")
	}
	return plan, nil
}

func (s *Server) handleStatus(ctx context.Context, args struct{}) (any, error) {
	view, err := s.planSvc.View(ctx)
	if err != nil {
		return nil, noPlanErr(err, "Failed to load plan status.")
	}
	return view, nil
}

func (s *Server) handleProgress(ctx context.Context, args ProgressArgs) (any, error) {
	plan, err := s.planSvc.Progress(ctx, learning.StepProgress{
		TasksCompleted:   args.TasksCompleted,
		SelfTestScore:    args.SelfTestScore,
		MinutesPracticed: args.MinutesPracticed,
	}, args.Force)
	switch {
	case errors.Is(err, learning.ErrCriteriaNotMet):
		return nil, mcpErr(fmt.Sprintf("The step is not done yet: %v.", err))
	case errors.Is(err, learning.ErrStepAlreadyCompleted):
		return nil, mcpErr("Every step is already finished.")
	case err != nil:
		return nil, noPlanErr(err, "Failed to record progress.")
	}
	return learning.GetCurrentView(plan), nil
}

func (s *Server) handleSkip(ctx context.Context, args SkipArgs) (any, error) {
	plan, err := s.planSvc.Skip(ctx, args.Confirm)
	if errors.Is(err, learning.ErrSkipNotAuthorized) {
		return nil, mcpErr("Skipping needs confirm=true, set only when the learner asked for it.")
	}
	if err != nil {
		return nil, noPlanErr(err, "Failed to skip the step.")
	}
	return learning.GetCurrentView(plan), nil
}

func (s *Server) handleMission(ctx context.Context, args struct{}) (any, error) {
	m, err := s.planSvc.TodaysMission(ctx)
	if err != nil {
		return nil, noPlanErr(err, "Failed to build today's mission.")
	}
	return m, nil
}

func (s *Server) handleHint(ctx context.Context, args HintArgs) (any, error) {
	h, err := s.planSvc.Hint(ctx, args.Question)
	if err != nil {
		return nil, noPlanErr(err, "Failed to build a hint.")
	}
	return h, nil
}

func (s *Server) handleScore(ctx context.Context, args ScoreArgs) (any, error) {
	if args.Text == "" {
		return nil, mcpErr("Provide the text to score.")
	}
	return s.enforcer.Score(args.Text), nil
}

func (s *Server) handleGetUsage(ctx context.Context, args struct{}) (any, error) {
	return s.usage.GetUsage(), nil
}

func noPlanErr(err error, friendly string) error {
	if errors.Is(err, learning.ErrNoPlan) {
		return mcpErr("No active plan. Generate one with learnroad_generate_plan and save=true.")
	}
	return mcpErr(friendly)
}

func (s *Server) Start() error {
	return s.StartStdio()
}

func (s *Server) StartStdio() error {
	return s.ServeStdio(context.Background())
}

func (s *Server) StartHTTP(addr string) error {
	return s.ServeHTTP(context.Background(), addr)
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}
