package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

// Exit codes beyond the generic failure let scripts tell plan states apart.
const (
	ExitFailure     = 1
	ExitNoPlan      = 2
	ExitNotDone     = 3
	ExitNeedConfirm = 4
	ExitInterrupted = 130
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with ExitFailure.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: ExitFailure,
	}
}

func (e *CLIError) withCode(code int) *CLIError {
	e.ExitCode = code
	return e
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cliErr *CLIError
	if errors.As(MapError(err), &cliErr) {
		return cliErr.ExitCode
	}
	return ExitFailure
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var transErr *learning.TransitionError
	if errors.As(err, &transErr) {
		return NewCLIError(
			"step cannot move",
			fmt.Sprintf("Step '%s' is '%s'; run 'learnroad status' to see where the plan stands", transErr.StepID, transErr.From),
			err,
		)
	}

	switch {
	case errors.Is(err, learning.ErrNoPlan):
		return NewCLIError("no plan found", "Run 'learnroad plan --save \"<goal>\"' to create one", err).withCode(ExitNoPlan)
	case errors.Is(err, learning.ErrCriteriaNotMet):
		return NewCLIError("the current step is not done yet", "Report more progress, or pass --force to complete it anyway", err).withCode(ExitNotDone)
	case errors.Is(err, learning.ErrSkipNotAuthorized):
		return NewCLIError("skipping needs confirmation", "Re-run with --confirm to skip the current step", err).withCode(ExitNeedConfirm)
	case errors.Is(err, learning.ErrStepAlreadyCompleted):
		return NewCLIError("every step is already finished", "Start a new plan with 'learnroad plan --save'", err)
	case errors.Is(err, learning.ErrInvalidPlan):
		return NewCLIError("the stored plan is inconsistent", "Regenerate it with 'learnroad plan --save'", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewCLIError("interrupted", "", err).withCode(ExitInterrupted)
	}

	return err
}
