// Package roles derives the per-call contract handed to the execution
// gateway: constraints, output schema, rule list and token ceiling.
package roles

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/learnroad/pkg/domain/doctrine"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

// Generation actions.
const (
	ActionDiagnose   = "diagnose"
	ActionStrategize = "strategize"
	ActionExecute    = "execute"
	ActionMission    = "mission"
	ActionHint       = "hint"
)

// ErrUnknownRole is returned for actions without a role definition.
var ErrUnknownRole = errors.New("unknown generation role")

// DefaultMaxTokens is the ceiling used for actions missing from the token table.
const DefaultMaxTokens = 1000

var maxTokens = map[string]int{
	ActionDiagnose:   1200,
	ActionStrategize: 1500,
	ActionExecute:    2500,
	ActionMission:    800,
	ActionHint:       600,
}

var outputKinds = map[string]doctrine.OutputKind{
	ActionDiagnose:   doctrine.OutputDiagnostic,
	ActionStrategize: doctrine.OutputStrategy,
	ActionExecute:    doctrine.OutputExecution,
	ActionMission:    doctrine.OutputMission,
	ActionHint:       doctrine.OutputHint,
}

// Capability constraints injected from a step's AllowedContent.
const (
	ConstraintNoFullSolutions = "no complete solutions"
	ConstraintNoExamples      = "no worked examples"
	ConstraintNoPractice      = "no practice exercises"
	ConstraintNoExplanation   = "no explanations; point to resources instead"
)

var globalConstraints = []string{
	"respond with one JSON object that matches the schema exactly",
	"every instruction names a concrete action and a measurable result",
	"no vague verbs such as learn about, understand or explore",
	"no placeholders or template text",
}

// RoleConfig is the transient contract for one generation call.
type RoleConfig struct {
	Action      string
	Constraints []string
	SchemaName  string
	Schema      map[string]any
	Rules       []string
	MaxTokens   int
	StepID      string
}

// Actions lists every known action.
func Actions() []string {
	return []string{ActionDiagnose, ActionStrategize, ActionExecute, ActionMission, ActionHint}
}

// MaxTokensFor returns the token ceiling of an action.
func MaxTokensFor(action string) int {
	if n, ok := maxTokens[action]; ok {
		return n
	}
	return DefaultMaxTokens
}

// Catalog builds role configs against one doctrine.
type Catalog struct {
	doctrine *doctrine.Doctrine
}

func NewCatalog(d *doctrine.Doctrine) *Catalog {
	if d == nil {
		d = doctrine.Default()
	}
	return &Catalog{doctrine: d}
}

var defaultCatalog = NewCatalog(doctrine.Default())

// GetAIRole returns the role config for action bound to step (nil for unbound
// roles) using the default doctrine.
func GetAIRole(action string, step *learning.Step) (RoleConfig, error) {
	return defaultCatalog.Role(action, step)
}

// Role merges the global constraints with the step's capability restrictions
// and attaches the action's schema, rules and token ceiling.
func (c *Catalog) Role(action string, step *learning.Step) (RoleConfig, error) {
	kind, ok := outputKinds[action]
	if !ok {
		return RoleConfig{}, fmt.Errorf("%w: %q", ErrUnknownRole, action)
	}
	constraints := append([]string(nil), globalConstraints...)
	cfg := RoleConfig{
		Action:     action,
		SchemaName: string(kind),
		Schema:     buildSchema(kind, c.doctrine),
		Rules:      c.doctrine.RuleNames(),
		MaxTokens:  MaxTokensFor(action),
	}
	if step != nil {
		cfg.StepID = step.ID
		constraints = append(constraints, CapabilityConstraints(step.AllowedContent)...)
	}
	cfg.Constraints = constraints
	return cfg, nil
}

// CapabilityConstraints translates an AllowedContent set into constraint text.
func CapabilityConstraints(ac learning.AllowedContent) []string {
	var out []string
	if !ac.FullSolutions {
		out = append(out, ConstraintNoFullSolutions)
	}
	if !ac.Examples {
		out = append(out, ConstraintNoExamples)
	}
	if !ac.Practice {
		out = append(out, ConstraintNoPractice)
	}
	if !ac.Explanation {
		out = append(out, ConstraintNoExplanation)
	}
	return out
}
