package learning

import (
	"errors"
	"fmt"
	"time"
)

// ProgressToNextStep is the only sanctioned mutator of the plan cursor. It
// completes the current step, activates the next one when it exists and
// clears today's mission. At the last step the cursor stays put.
func ProgressToNextStep(p *Plan) error {
	return advance(p, EventComplete, nil)
}

// SkipCurrentStep marks the current step skipped and advances like
// ProgressToNextStep. authorized must come from an explicit user override.
func SkipCurrentStep(p *Plan, authorized bool) error {
	guard := func(string, string) bool { return authorized }
	err := advance(p, EventSkip, guard)
	var te *TransitionError
	if err != nil && !authorized && errors.As(err, &te) {
		return fmt.Errorf("%w: %v", ErrSkipNotAuthorized, err)
	}
	return err
}

func advance(p *Plan, event string, guard func(string, string) bool) error {
	if p == nil || len(p.Steps) == 0 {
		return ErrNoPlan
	}
	idx := p.CurrentStepIndex
	if idx < 0 || idx >= len(p.Steps) {
		return fmt.Errorf("%w: cursor %d outside %d steps", ErrInvalidPlan, idx, len(p.Steps))
	}
	cur := &p.Steps[idx]
	if cur.Status.IsFinal() {
		return fmt.Errorf("%w: step %s is %s", ErrStepAlreadyCompleted, cur.ID, cur.Status)
	}
	var next *Step
	if idx+1 < len(p.Steps) {
		next = &p.Steps[idx+1]
		if !next.Status.CanTransitionWith(EventActivate) {
			return fmt.Errorf("%w: next step %s is %s", ErrInvalidPlan, next.ID, next.Status)
		}
	}

	if err := cur.transition(event, guard); err != nil {
		return err
	}
	now := time.Now().UTC()
	cur.CompletedAt = &now
	p.TodaysMission = nil

	if next != nil {
		if err := next.transition(EventActivate, nil); err != nil {
			return err
		}
		p.CurrentStepIndex = idx + 1
	}
	p.UpdatedAt = now
	return nil
}

// Validate checks the cursor/status invariant: steps before the cursor are
// finished, steps after it are locked, and the cursor step is current unless
// the whole plan is finished.
func (p *Plan) Validate() error {
	if p == nil || len(p.Steps) == 0 {
		return ErrNoPlan
	}
	idx := p.CurrentStepIndex
	if idx < 0 || idx >= len(p.Steps) {
		return fmt.Errorf("%w: cursor %d outside %d steps", ErrInvalidPlan, idx, len(p.Steps))
	}
	current := 0
	for i, s := range p.Steps {
		if !s.Status.IsValid() {
			return fmt.Errorf("%w: step %d has unknown status %q", ErrInvalidPlan, i, s.Status)
		}
		switch {
		case i < idx && !s.Status.IsFinal():
			return fmt.Errorf("%w: step %d before cursor is %s", ErrInvalidPlan, i, s.Status)
		case i > idx && s.Status != StatusLocked:
			return fmt.Errorf("%w: step %d after cursor is %s", ErrInvalidPlan, i, s.Status)
		}
		if s.Status == StatusCurrent {
			current++
		}
	}
	if current == 0 && !p.Finished() {
		return fmt.Errorf("%w: no current step", ErrInvalidPlan)
	}
	if current > 1 {
		return fmt.Errorf("%w: %d current steps", ErrInvalidPlan, current)
	}
	if current == 1 && p.Steps[idx].Status != StatusCurrent {
		return fmt.Errorf("%w: current step is not under the cursor", ErrInvalidPlan)
	}
	return nil
}
