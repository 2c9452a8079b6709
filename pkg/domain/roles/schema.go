package roles

import (
	"github.com/felixgeelhaar/learnroad/pkg/domain/doctrine"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

func nonBlank() map[string]any {
	return map[string]any{"type": "string", "pattern": `\S`}
}

func enum(values ...string) map[string]any {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return map[string]any{"type": "string", "enum": vs}
}

func intMin(min int) map[string]any {
	return map[string]any{"type": "integer", "minimum": min}
}

func arrayOf(items map[string]any, min int) map[string]any {
	return map[string]any{"type": "array", "items": items, "minItems": min}
}

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		schema["required"] = req
	}
	return schema
}

func actionTypes() map[string]any {
	return enum(
		string(learning.ActionRead), string(learning.ActionPractice), string(learning.ActionReview),
		string(learning.ActionCreate), string(learning.ActionTest),
	)
}

func goalTypes() map[string]any {
	var names []string
	for _, gt := range learning.AllGoalTypes() {
		names = append(names, string(gt))
	}
	return enum(names...)
}

func buildSchema(kind doctrine.OutputKind, d *doctrine.Doctrine) map[string]any {
	props := properties(kind, d)
	root := object(props, d.RequiredFields[kind]...)
	root["$schema"] = draft07
	root["title"] = string(kind)
	return root
}

func properties(kind doctrine.OutputKind, d *doctrine.Doctrine) map[string]any {
	switch kind {
	case doctrine.OutputDiagnostic:
		return map[string]any{
			"goal_type":  goalTypes(),
			"urgency":    enum(string(learning.UrgencyShortTerm), string(learning.UrgencyMediumTerm), string(learning.UrgencyLongTerm)),
			"scope":      enum(string(learning.ScopeNarrow), string(learning.ScopeModerate), string(learning.ScopeBroad)),
			"user_level": enum("beginner", "intermediate", "advanced"),
			"knowledge_gaps": arrayOf(object(map[string]any{
				"gap":      nonBlank(),
				"priority": map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
			}, "gap", "priority"), d.MinCount("knowledge_gaps")),
			"prerequisites":  arrayOf(nonBlank(), d.MinCount("prerequisites")),
			"root_cause":     nonBlank(),
			"timeframe_days": intMin(0),
		}
	case doctrine.OutputStrategy:
		return map[string]any{
			"transformation": object(map[string]any{
				"from": nonBlank(), "to": nonBlank(), "narrative": nonBlank(),
			}, "from", "to", "narrative"),
			"critical_risk": object(map[string]any{
				"mistake": nonBlank(), "consequence": nonBlank(),
			}, "mistake", "consequence"),
			"common_risks": arrayOf(object(map[string]any{
				"risk": nonBlank(), "mitigation": nonBlank(),
			}, "risk", "mitigation"), d.MinCount("common_risks")),
			"success_metrics": arrayOf(nonBlank(), d.MinCount("success_metrics")),
			"out_of_scope":    arrayOf(nonBlank(), d.MinCount("out_of_scope")),
			"milestones": arrayOf(object(map[string]any{
				"day": intMin(1), "label": nonBlank(),
			}, "day", "label"), d.MinCount("milestones")),
			"success_looks_like": nonBlank(),
		}
	case doctrine.OutputExecution:
		return map[string]any{
			"title":         nonBlank(),
			"overview":      nonBlank(),
			"vision":        nonBlank(),
			"target_user":   nonBlank(),
			"daily_minutes": map[string]any{"type": "integer", "minimum": 5, "maximum": 480},
			"current_step":  currentStepSchema(d),
			"locked_steps": arrayOf(object(map[string]any{
				"title": nonBlank(), "preview": nonBlank(),
			}, "title", "preview"), 1),
		}
	case doctrine.OutputMission:
		return map[string]any{
			"actions": arrayOf(object(map[string]any{
				"type": actionTypes(), "description": nonBlank(), "minutes": intMin(1),
			}, "type", "description", "minutes"), d.MinCount("mission_actions")),
			"avoid":     arrayOf(nonBlank(), d.MinCount("mission_avoid")),
			"done_when": nonBlank(),
		}
	case doctrine.OutputHint:
		return map[string]any{
			"hint":        nonBlank(),
			"next_action": nonBlank(),
		}
	}
	return map[string]any{}
}

func currentStepSchema(d *doctrine.Doctrine) map[string]any {
	return object(map[string]any{
		"title":       nonBlank(),
		"description": nonBlank(),
		"method":      nonBlank(),
		"done_when":   nonBlank(),
		"time_breakdown": arrayOf(object(map[string]any{
			"activity": nonBlank(), "minutes": intMin(1),
		}, "activity", "minutes"), d.MinCount("time_breakdown")),
		"common_mistakes": arrayOf(nonBlank(), d.MinCount("common_mistakes")),
		"self_test":       arrayOf(nonBlank(), d.MinCount("self_test")),
		"resources": arrayOf(object(map[string]any{
			"title": nonBlank(), "type": nonBlank(), "query": nonBlank(),
		}, "title", "type", "query"), d.MinCount("resources")),
		"micro_tasks": arrayOf(object(map[string]any{
			"order": intMin(1), "description": nonBlank(), "minutes": intMin(1), "type": actionTypes(),
		}, "order", "description", "minutes", "type"), d.MinCount("micro_tasks")),
	}, "title", "description", "method", "done_when", "time_breakdown", "common_mistakes", "self_test", "resources", "micro_tasks")
}
