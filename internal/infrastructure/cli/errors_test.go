package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHint string
		wantCode int
	}{
		{"no plan", fmt.Errorf("load: %w", learning.ErrNoPlan), "learnroad plan --save", ExitNoPlan},
		{"criteria", learning.ErrCriteriaNotMet, "--force", ExitNotDone},
		{"skip", learning.ErrSkipNotAuthorized, "--confirm", ExitNeedConfirm},
		{"finished", learning.ErrStepAlreadyCompleted, "new plan", ExitFailure},
		{"invalid", learning.ErrInvalidPlan, "Regenerate", ExitFailure},
		{"transition", &learning.TransitionError{StepID: "s2", From: learning.StatusLocked, Event: "complete"}, "'s2' is 'locked'", ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cliErr *CLIError
			if !errors.As(MapError(tt.err), &cliErr) {
				t.Fatalf("not mapped: %v", tt.err)
			}
			if !strings.Contains(cliErr.Hint, tt.wantHint) {
				t.Errorf("hint %q, want it to contain %q", cliErr.Hint, tt.wantHint)
			}
			if !errors.Is(cliErr, tt.err) && !errors.Is(cliErr, errors.Unwrap(tt.err)) {
				t.Errorf("mapped error lost the cause")
			}
			if got := ExitCode(tt.err); got != tt.wantCode {
				t.Errorf("exit code %d, want %d", got, tt.wantCode)
			}
		})
	}

	if MapError(nil) != nil {
		t.Error("nil should stay nil")
	}
	plain := errors.New("boom")
	if MapError(plain) != plain {
		t.Error("unknown errors should pass through")
	}
	if !errors.Is(MapError(context.Canceled), context.Canceled) {
		t.Error("cancellation should stay detectable")
	}
	if ExitCode(nil) != 0 || ExitCode(plain) != ExitFailure || ExitCode(context.Canceled) != ExitInterrupted {
		t.Error("unexpected exit codes for nil, plain or cancelled errors")
	}
	already := NewCLIError("x", "y", nil)
	if MapError(already) != error(already) {
		t.Error("CLIError should not be rewrapped")
	}
}

func TestCLIErrorMessage(t *testing.T) {
	if got := NewCLIError("no plan found", "", learning.ErrNoPlan).Error(); got != "no plan found: no plan found" {
		t.Errorf("got %q", got)
	}
	if got := NewCLIError("plain", "", nil).Error(); got != "plain" {
		t.Errorf("got %q", got)
	}
}
