package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/mcp-go/client"

	"github.com/felixgeelhaar/learnroad/pkg/domain/ai"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

// Client is a typed Go client for the learnroad MCP server.
type Client struct {
	mcp      *client.Client
	retryCfg retry.Config
	timeout  time.Duration
}

// NewClient creates a new SDK client wrapping the given MCP transport.
func NewClient(transport client.Transport, opts ...Option) *Client {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Client{
		mcp:     client.New(transport, client.WithTimeout(o.timeout)),
		timeout: o.timeout,
		retryCfg: retry.Config{
			MaxAttempts:   o.maxAttempts,
			InitialDelay:  o.initialDelay,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Initialize performs the MCP initialize handshake.
func (c *Client) Initialize(ctx context.Context) (*client.ServerInfo, error) {
	return c.mcp.Initialize(ctx)
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	return c.mcp.Close()
}

// call invokes a tool with retry. Error results are not retried.
func (c *Client) call(ctx context.Context, tool string, args map[string]any) (*client.ToolResult, error) {
	r := retry.New[*client.ToolResult](c.retryCfg)
	result, err := r.Do(ctx, func(ctx context.Context) (*client.ToolResult, error) {
		return c.mcp.CallTool(ctx, tool, args)
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", tool, err)
	}
	if result.IsError {
		msg := ""
		if len(result.Content) > 0 {
			msg = result.Content[0].Text
		}
		return nil, &ToolError{Tool: tool, Message: msg}
	}
	return result, nil
}

// unmarshalText extracts Content[0].Text from a tool result and unmarshals it as JSON.
func unmarshalText[T any](result *client.ToolResult) (*T, error) {
	text, err := textResult(result)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &v, nil
}

// textResult extracts Content[0].Text from a tool result.
func textResult(result *client.ToolResult) (string, error) {
	if len(result.Content) == 0 {
		return "", ErrNoContent
	}
	return result.Content[0].Text, nil
}

// --- Schema ---

// GetSchema reads the learnroad://schema resource from the server.
func (c *Client) GetSchema(ctx context.Context) (*SchemaInfo, error) {
	rc, err := c.mcp.ReadResource(ctx, "learnroad://schema")
	if err != nil {
		return nil, fmt.Errorf("read schema resource: %w", err)
	}
	var info SchemaInfo
	if err := json.Unmarshal([]byte(rc.Text), &info); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return &info, nil
}

// Compatible returns nil when the server's schema major version matches
// SupportedSchemaMajor.
func (c *Client) Compatible(ctx context.Context) error {
	info, err := c.GetSchema(ctx)
	if err != nil {
		return fmt.Errorf("check compatibility: %w", err)
	}
	serverMajor := majorVersion(info.SchemaVersion)
	if serverMajor != SupportedSchemaMajor {
		return fmt.Errorf("incompatible schema: server=%s (major %s), sdk supports major %s",
			info.SchemaVersion, serverMajor, SupportedSchemaMajor)
	}
	return nil
}

func majorVersion(v string) string {
	for i, ch := range v {
		if ch == '.' {
			return v[:i]
		}
	}
	return v
}

// --- Plans ---

// GeneratePlan runs the planning pipeline for a goal.
func (c *Client) GeneratePlan(ctx context.Context, req GeneratePlanRequest) (*learning.PlanOutput, error) {
	args := map[string]any{"goal": req.Goal}
	if req.Subject != "" {
		args["subject"] = req.Subject
	}
	if req.Context != "" {
		args["context"] = req.Context
	}
	if req.Memory != "" {
		args["memory"] = req.Memory
	}
	if req.Save {
		args["save"] = true
	}
	if req.Debug {
		args["debug"] = true
	}
	res, err := c.call(ctx, "learnroad_generate_plan", args)
	if err != nil {
		return nil, err
	}
	return unmarshalText[learning.PlanOutput](res)
}

// GetPlan retrieves the stored plan.
func (c *Client) GetPlan(ctx context.Context) (*learning.Plan, error) {
	res, err := c.call(ctx, "learnroad_get_plan", nil)
	if err != nil {
		return nil, err
	}
	return unmarshalText[learning.Plan](res)
}

// Status returns the read-only view of the stored plan.
func (c *Client) Status(ctx context.Context) (*learning.PlanView, error) {
	res, err := c.call(ctx, "learnroad_status", nil)
	if err != nil {
		return nil, err
	}
	return unmarshalText[learning.PlanView](res)
}

// --- Progress ---

// Progress reports progress on the current step and returns the updated view.
func (c *Client) Progress(ctx context.Context, req ProgressRequest) (*learning.PlanView, error) {
	args := map[string]any{}
	if req.TasksCompleted > 0 {
		args["tasks_completed"] = req.TasksCompleted
	}
	if req.SelfTestScore > 0 {
		args["self_test_score"] = req.SelfTestScore
	}
	if req.MinutesPracticed > 0 {
		args["minutes_practiced"] = req.MinutesPracticed
	}
	if req.Force {
		args["force"] = true
	}
	res, err := c.call(ctx, "learnroad_progress", args)
	if err != nil {
		return nil, err
	}
	return unmarshalText[learning.PlanView](res)
}

// Skip skips the current step. confirm must reflect an explicit learner request.
func (c *Client) Skip(ctx context.Context, confirm bool) (*learning.PlanView, error) {
	res, err := c.call(ctx, "learnroad_skip", map[string]any{"confirm": confirm})
	if err != nil {
		return nil, err
	}
	return unmarshalText[learning.PlanView](res)
}

// Mission returns today's mission for the current step.
func (c *Client) Mission(ctx context.Context) (*learning.Mission, error) {
	res, err := c.call(ctx, "learnroad_mission", nil)
	if err != nil {
		return nil, err
	}
	return unmarshalText[learning.Mission](res)
}

// Hint asks for a nudge on the current step.
func (c *Client) Hint(ctx context.Context, question string) (*Hint, error) {
	var args map[string]any
	if question != "" {
		args = map[string]any{"question": question}
	}
	res, err := c.call(ctx, "learnroad_hint", args)
	if err != nil {
		return nil, err
	}
	return unmarshalText[Hint](res)
}

// --- Quality and usage ---

// Score rates text against the server's quality doctrine.
func (c *Client) Score(ctx context.Context, text string) (*ScoreReport, error) {
	res, err := c.call(ctx, "learnroad_score", map[string]any{"text": text})
	if err != nil {
		return nil, err
	}
	return unmarshalText[ScoreReport](res)
}

// Usage retrieves generation call and token statistics.
func (c *Client) Usage(ctx context.Context) (*ai.UsageStats, error) {
	res, err := c.call(ctx, "learnroad_get_usage", nil)
	if err != nil {
		return nil, err
	}
	return unmarshalText[ai.UsageStats](res)
}
