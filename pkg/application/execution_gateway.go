package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/learnroad/pkg/domain/ai"
	"github.com/felixgeelhaar/learnroad/pkg/domain/roles"
	"github.com/felixgeelhaar/learnroad/pkg/prompts"
)

const tracerName = "github.com/felixgeelhaar/learnroad/pkg/application"

// GenerationTemperature is fixed for every generation call.
const GenerationTemperature float32 = 0.3

type GatewayErrorKind string

const (
	KindUnknownRole         GatewayErrorKind = "UnknownRole"
	KindInvalidOutputFormat GatewayErrorKind = "InvalidOutputFormat"
	KindValidationFailed    GatewayErrorKind = "ValidationFailed"
	KindTransportError      GatewayErrorKind = "TransportError"
)

var (
	ErrUnknownRole         = errors.New("unknown role")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrValidationFailed    = errors.New("output failed validation")
	ErrTransport           = errors.New("generation transport failed")
)

// GatewayError is the typed failure of one gateway call.
type GatewayError struct {
	Kind    GatewayErrorKind
	Role    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%s [%s]: %s", e.Kind, e.Role, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error kind.
func (e *GatewayError) Is(target error) bool {
	switch e.Kind {
	case KindUnknownRole:
		return target == ErrUnknownRole
	case KindInvalidOutputFormat:
		return target == ErrInvalidOutputFormat
	case KindValidationFailed:
		return target == ErrValidationFailed
	case KindTransportError:
		return target == ErrTransport
	}
	return false
}

// PromptContext is the per-call data rendered into the role's prompt.
type PromptContext struct {
	Goal          string
	Subject       string
	UserContext   string
	MemoryContext string
	Context       string
	Feedback      string
	TargetSteps   int
	Timeframe     string
	StepTitle     string
	StepTimeframe string
	Question      string
}

// ExecutionEnvelope is the result of one gateway call. Data is set only on success.
type ExecutionEnvelope struct {
	Success          bool
	Data             map[string]any
	Err              *GatewayError
	ValidationErrors []string
	Elapsed          time.Duration
	Attempts         int
	Usage            ai.TokenUsage
}

// Executor runs one role call. ExecutionGateway is the production implementation.
type Executor interface {
	Execute(ctx context.Context, role roles.RoleConfig, pc PromptContext) ExecutionEnvelope
}

// countingProvider is implemented by providers that retry internally.
type countingProvider interface {
	CompleteCounted(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, int, error)
}

// ExecutionGateway is the single choke point between the pipeline and the
// generation service. It keeps no state between calls.
type ExecutionGateway struct {
	provider ai.Provider
	prompts  *prompts.Registry
	policy   *bluemonday.Policy
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewExecutionGateway(provider ai.Provider, registry *prompts.Registry, logger *slog.Logger) *ExecutionGateway {
	if registry == nil {
		registry = prompts.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecutionGateway{
		provider: provider,
		prompts:  registry,
		policy:   bluemonday.StrictPolicy(),
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

func (g *ExecutionGateway) Execute(ctx context.Context, role roles.RoleConfig, pc PromptContext) ExecutionEnvelope {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "gateway.execute", trace.WithAttributes(
		attribute.String("role", role.Action),
		attribute.String("provider", g.providerID()),
	))
	defer span.End()

	env := g.execute(ctx, role, pc)
	env.Elapsed = time.Since(start)

	outcome := "success"
	if env.Err != nil {
		outcome = string(env.Err.Kind)
		span.RecordError(env.Err)
		span.SetStatus(codes.Error, outcome)
	}
	span.SetAttributes(attribute.String("outcome", outcome), attribute.Int("attempts", env.Attempts))

	attrs := []any{
		"role", role.Action,
		"provider", g.providerID(),
		"duration_ms", env.Elapsed.Milliseconds(),
		"outcome", outcome,
		"attempts", env.Attempts,
		"tokens", env.Usage.Total(),
	}
	if env.Err != nil {
		g.logger.Warn("gateway call failed", append(attrs, "error", env.Err.Error())...)
	} else {
		g.logger.Info("gateway call", attrs...)
	}
	return env
}

func (g *ExecutionGateway) execute(ctx context.Context, role roles.RoleConfig, pc PromptContext) ExecutionEnvelope {
	fail := func(kind GatewayErrorKind, msg string, err error) ExecutionEnvelope {
		return ExecutionEnvelope{Err: &GatewayError{Kind: kind, Role: role.Action, Message: msg, Err: err}}
	}

	if !g.prompts.Has(role.Action) {
		return fail(KindUnknownRole, "no prompt registered", nil)
	}
	if g.provider == nil {
		return fail(KindTransportError, "no provider configured", nil)
	}

	schema, err := json.Marshal(role.Schema)
	if err != nil {
		return fail(KindUnknownRole, "role schema is not serializable", err)
	}
	prompt, err := g.prompts.Build(role.Action, prompts.Input{
		Goal:          pc.Goal,
		Subject:       pc.Subject,
		UserContext:   pc.UserContext,
		MemoryContext: pc.MemoryContext,
		Context:       pc.Context,
		Constraints:   role.Constraints,
		Rules:         role.Rules,
		Schema:        string(schema),
		Feedback:      pc.Feedback,
		TargetSteps:   pc.TargetSteps,
		Timeframe:     pc.Timeframe,
		StepTitle:     pc.StepTitle,
		StepTimeframe: pc.StepTimeframe,
		Question:      pc.Question,
	})
	if err != nil {
		return fail(KindUnknownRole, "prompt could not be rendered", err)
	}

	maxTokens := role.MaxTokens
	if maxTokens <= 0 {
		maxTokens = roles.MaxTokensFor(role.Action)
	}
	req := ai.CompletionRequest{
		System:      prompt.System,
		Prompt:      prompt.User,
		Temperature: GenerationTemperature,
		MaxTokens:   maxTokens,
		JSONMode:    true,
	}

	var resp *ai.CompletionResponse
	attempts := 1
	if cp, ok := g.provider.(countingProvider); ok {
		resp, attempts, err = cp.CompleteCounted(ctx, req)
	} else {
		resp, err = g.provider.Complete(ctx, req)
	}
	if err != nil {
		env := fail(KindTransportError, "generation call failed", err)
		env.Attempts = attempts
		return env
	}
	if resp == nil {
		env := fail(KindTransportError, "generation returned no response", nil)
		env.Attempts = attempts
		return env
	}

	data, err := parseObject(resp.Text)
	if err != nil {
		env := fail(KindInvalidOutputFormat, "response is not a JSON object", err)
		env.Attempts, env.Usage = attempts, resp.Usage
		return env
	}
	data = g.sanitize(data).(map[string]any)

	if v := roles.ValidateOutput(data, role); !v.Valid {
		env := fail(KindValidationFailed, fmt.Sprintf("%d schema violations", len(v.Errors)), nil)
		env.ValidationErrors = v.Errors
		env.Attempts, env.Usage = attempts, resp.Usage
		return env
	}

	return ExecutionEnvelope{Success: true, Data: data, Attempts: attempts, Usage: resp.Usage}
}

func (g *ExecutionGateway) providerID() string {
	if g.provider == nil {
		return "none"
	}
	return g.provider.ID()
}

// sanitize strips markup from every string in a decoded JSON value.
func (g *ExecutionGateway) sanitize(v any) any {
	switch t := v.(type) {
	case string:
		if !strings.ContainsAny(t, "<>") {
			return t
		}
		// StrictPolicy escapes entities; only markup removal is wanted.
		return strings.TrimSpace(html.UnescapeString(g.policy.Sanitize(t)))
	case map[string]any:
		for k, val := range t {
			t[k] = g.sanitize(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = g.sanitize(val)
		}
		return t
	}
	return v
}

// parseObject strips code fences and decodes the first JSON object in text.
func parseObject(text string) (map[string]any, error) {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	start := strings.Index(clean, "{")
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found")
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(clean[start:])))
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("null object")
	}
	return out, nil
}
