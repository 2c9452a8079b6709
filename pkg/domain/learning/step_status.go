package learning

import "fmt"

// Step lifecycle events.
const (
	EventActivate = "activate"
	EventComplete = "complete"
	EventSkip     = "skip"
)

// validTransitions maps currentStatus -> event -> targetStatus.
// completed and skipped have no outgoing transitions.
var validTransitions = map[StepStatus]map[string]StepStatus{
	StatusLocked: {
		EventActivate: StatusCurrent,
	},
	StatusCurrent: {
		EventComplete: StatusCompleted,
		EventSkip:     StatusSkipped,
	},
}

// AllStepStatuses returns all valid step statuses.
func AllStepStatuses() []StepStatus {
	return []StepStatus{StatusLocked, StatusCurrent, StatusCompleted, StatusSkipped}
}

// IsValid returns true if the status is a valid step status.
func (s StepStatus) IsValid() bool {
	switch s {
	case StatusLocked, StatusCurrent, StatusCompleted, StatusSkipped:
		return true
	default:
		return false
	}
}

func (s StepStatus) String() string {
	return string(s)
}

// IsFinal returns true for statuses that accept no further events.
func (s StepStatus) IsFinal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// CanTransitionWith returns true if the event is legal from this status.
func (s StepStatus) CanTransitionWith(event string) bool {
	_, ok := validTransitions[s][event]
	return ok
}

// TransitionWith returns the target status for an event, or an error if not allowed.
func (s StepStatus) TransitionWith(event string) (StepStatus, error) {
	transitions, ok := validTransitions[s]
	if !ok {
		return s, fmt.Errorf("no transitions defined for status: %s", s)
	}
	target, ok := transitions[event]
	if !ok {
		return s, fmt.Errorf("event '%s' not allowed from status '%s'", event, s)
	}
	return target, nil
}

// ValidEvents lists the events accepted from this status.
func (s StepStatus) ValidEvents() []string {
	var events []string
	for _, e := range []string{EventActivate, EventComplete, EventSkip} {
		if s.CanTransitionWith(e) {
			events = append(events, e)
		}
	}
	return events
}
