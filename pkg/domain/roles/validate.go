package roles

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Validation is the outcome of checking one generated output against a role.
type Validation struct {
	Valid  bool
	Errors []string
}

// ValidateOutput checks output against the role's schema, then applies the
// per-action checks a schema cannot express.
func ValidateOutput(output map[string]any, role RoleConfig) Validation {
	if output == nil {
		return Validation{Errors: []string{"output is empty"}}
	}
	if role.Schema == nil {
		return Validation{Errors: []string{fmt.Sprintf("role %q has no schema", role.Action)}}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(role.Schema), gojsonschema.NewGoLoader(output))
	if err != nil {
		return Validation{Errors: []string{fmt.Sprintf("schema check failed: %v", err)}}
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	if len(errs) == 0 {
		errs = append(errs, actionChecks(output, role.Action)...)
	}
	return Validation{Valid: len(errs) == 0, Errors: errs}
}

func actionChecks(output map[string]any, action string) []string {
	switch action {
	case ActionExecute:
		step, _ := output["current_step"].(map[string]any)
		return append(checkOrder(step["micro_tasks"], "current_step.micro_tasks"),
			checkPositiveMinutes(step["time_breakdown"], "current_step.time_breakdown")...)
	case ActionMission:
		return checkPositiveMinutes(output["actions"], "actions")
	}
	return nil
}

func checkOrder(v any, field string) []string {
	items, _ := v.([]any)
	var errs []string
	prev := 0.0
	for i, it := range items {
		m, _ := it.(map[string]any)
		order, ok := number(m["order"])
		if !ok {
			continue
		}
		if i > 0 && order <= prev {
			errs = append(errs, fmt.Sprintf("%s.%d: order %v must be greater than %v", field, i, order, prev))
		}
		prev = order
	}
	return errs
}

func checkPositiveMinutes(v any, field string) []string {
	items, _ := v.([]any)
	var errs []string
	for i, it := range items {
		m, _ := it.(map[string]any)
		if n, ok := number(m["minutes"]); ok && n <= 0 {
			errs = append(errs, fmt.Sprintf("%s.%d: minutes must be positive", field, i))
		}
	}
	return errs
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
