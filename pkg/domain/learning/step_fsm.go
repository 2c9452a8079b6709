package learning

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit integration. Values are kept in sync with the
// StepStatus constants in plan.go.
const (
	StateLocked    = "locked"
	StateCurrent   = "current"
	StateCompleted = "completed"
	StateSkipped   = "skipped"
)

func init() {
	stateMap := map[string]StepStatus{
		StateLocked:    StatusLocked,
		StateCurrent:   StatusCurrent,
		StateCompleted: StatusCompleted,
		StateSkipped:   StatusSkipped,
	}
	for fsmState, status := range stateMap {
		if fsmState != string(status) {
			panic(fmt.Sprintf("FSM state %q does not match StepStatus %q - constants are out of sync", fsmState, status))
		}
	}
}

// StepContext carries state data into guards.
type StepContext struct {
	StepID string
	Guard  func(stepID string, event string) bool
}

// StepStateMachine enforces locked -> current -> completed|skipped.
type StepStateMachine struct {
	stepID      string
	interpreter *statekit.Interpreter[StepContext]
}

func NewStepStateMachine(initial StepStatus, stepID string, guard func(string, string) bool) (*StepStateMachine, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("unknown step status %q", initial)
	}
	if guard == nil {
		guard = func(string, string) bool { return true }
	}

	builder := statekit.NewMachine[StepContext]("step-machine").
		WithInitial(statekit.StateID(initial)).
		WithContext(StepContext{
			StepID: stepID,
			Guard:  guard,
		}).
		WithGuard("overrideGuard", func(ctx StepContext, e statekit.Event) bool {
			return ctx.Guard(ctx.StepID, string(e.Type))
		})

	builder.State(StateLocked).
		On(EventActivate).Target(StateCurrent).
		Done()

	builder.State(StateCurrent).
		On(EventComplete).Target(StateCompleted).
		On(EventSkip).Target(StateSkipped).Guard("overrideGuard").
		Done()

	builder.State(StateCompleted).Done()
	builder.State(StateSkipped).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build step state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &StepStateMachine{stepID: stepID, interpreter: interpreter}, nil
}

// Transition sends event and reports an error when the state did not move.
func (sm *StepStateMachine) Transition(event string) error {
	before := sm.CurrentStatus()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if sm.CurrentStatus() != before {
		return nil
	}
	return &TransitionError{StepID: sm.stepID, From: before, Event: event}
}

func (sm *StepStateMachine) CurrentStatus() StepStatus {
	return StepStatus(sm.interpreter.State().Value)
}

// IsFinal returns true once the step is completed or skipped.
func (sm *StepStateMachine) IsFinal() bool {
	return sm.CurrentStatus().IsFinal()
}

// transition moves the step through the machine and records the new status.
func (s *Step) transition(event string, guard func(string, string) bool) error {
	if s.Status.IsFinal() {
		return fmt.Errorf("%w: step %s is %s", ErrStepAlreadyCompleted, s.ID, s.Status)
	}
	sm, err := NewStepStateMachine(s.Status, s.ID, guard)
	if err != nil {
		return err
	}
	if err := sm.Transition(event); err != nil {
		return err
	}
	s.Status = sm.CurrentStatus()
	return nil
}
