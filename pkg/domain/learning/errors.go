package learning

import "errors"

// Domain errors for plan progression.
var (
	// ErrNoPlan indicates no plan exists or it has no steps.
	ErrNoPlan = errors.New("no plan found")

	// ErrInvalidPlan indicates the plan breaks its cursor/status invariant.
	ErrInvalidPlan = errors.New("plan is inconsistent")

	// ErrInvalidTransition indicates the requested step status change is not allowed.
	ErrInvalidTransition = errors.New("invalid step transition")

	// ErrStepAlreadyCompleted indicates an attempt to mutate a finished step.
	ErrStepAlreadyCompleted = errors.New("step already completed")

	// ErrSkipNotAuthorized indicates a skip was requested without an explicit override.
	ErrSkipNotAuthorized = errors.New("skipping a step requires an explicit override")

	// ErrCriteriaNotMet indicates the current step's completion criteria are not satisfied.
	ErrCriteriaNotMet = errors.New("completion criteria not met")

	// ErrMissionStepMismatch indicates a mission was built for a step that is not current.
	ErrMissionStepMismatch = errors.New("mission does not belong to the current step")
)

// TransitionError provides details about a rejected step transition.
type TransitionError struct {
	StepID string
	From   StepStatus
	Event  string
}

func (e *TransitionError) Error() string {
	return "cannot apply " + e.Event + " to step " + e.StepID + " in status " + string(e.From)
}

// Is allows errors.Is to work with TransitionError.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
