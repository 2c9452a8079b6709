package watch

import (
	"strings"

	"github.com/felixgeelhaar/learnroad/pkg/application"
)

// ParseGoalFile reads a goal file. Lines of the form "subject: ...",
// "context: ..." or "memory: ..." fill those fields; every other non-empty
// line is part of the goal. Markdown heading marks are dropped.
func ParseGoalFile(data []byte) application.PipelineInput {
	raw := string(data)
	in := application.PipelineInput{RawInput: raw}

	var goal []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if ok {
			value = strings.TrimSpace(value)
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "goal":
				goal = append(goal, value)
				continue
			case "subject":
				in.Subject = value
				continue
			case "context":
				in.UserContext = joinField(in.UserContext, value)
				continue
			case "memory":
				in.MemoryContext = joinField(in.MemoryContext, value)
				continue
			}
		}
		goal = append(goal, line)
	}
	in.Goal = strings.Join(goal, " ")
	return in
}

func joinField(cur, next string) string {
	if cur == "" {
		return next
	}
	return cur + " " + next
}
