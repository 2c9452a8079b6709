package sdk

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoContent is returned when a tool result carries no content items.
var ErrNoContent = errors.New("learnroad: empty tool result")

// ToolError is a tool-level failure reported by the server, such as a
// missing plan or an unconfirmed skip.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("learnroad: %s: %s", e.Tool, e.Message)
}

// NoPlan reports whether the server refused the call because no plan is stored.
func (e *ToolError) NoPlan() bool {
	return strings.HasPrefix(e.Message, "No active plan")
}
