package maki

import (
	"context"
	"fmt"

	"github.com/qmuntal/stateless"
	"go.uber.org/zap"
)

// State is the lifecycle state of a Machine.
type State int32

const (
	Ready State = iota
	Running
	Suspended
	Returned
	Failed
)

var stateNames = [...]string{
	Ready:     "Ready",
	Running:   "Running",
	Suspended: "Suspended",
	Returned:  "Returned",
	Failed:    "Failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Terminal reports whether no further instruction can run in s.
func (s State) Terminal() bool {
	return s == Returned || s == Failed
}

type trigger string

const (
	triggerStart   trigger = "start"
	triggerSuspend trigger = "suspend"
	triggerResume  trigger = "resume"
	triggerReturn  trigger = "return"
	triggerFail    trigger = "fail"
	triggerAbandon trigger = "abandon"
)

// newLifecycle wires the transitions of m. The current state lives in m.state so that
// State() can be read from any goroutine without touching the state machine.
func newLifecycle(m *Machine) *stateless.StateMachine {
	fsm := stateless.NewStateMachineWithExternalStorage(func(_ context.Context) (stateless.State, error) {
		return State(m.state.Load()), nil
	}, func(_ context.Context, s stateless.State) error {
		m.state.Store(int32(s.(State)))
		return nil
	}, stateless.FiringImmediate)

	fsm.Configure(Ready).
		Permit(triggerStart, Running).
		Permit(triggerAbandon, Failed)

	fsm.Configure(Running).
		Permit(triggerSuspend, Suspended).
		Permit(triggerReturn, Returned).
		Permit(triggerFail, Failed).
		Permit(triggerAbandon, Failed)

	fsm.Configure(Suspended).
		Permit(triggerResume, Running).
		Permit(triggerFail, Failed).
		Permit(triggerAbandon, Failed)

	fsm.Configure(Returned).
		OnEntry(func(_ context.Context, _ ...any) error {
			m.finished(Returned)
			return nil
		}).
		Ignore(triggerAbandon).
		Ignore(triggerFail)

	fsm.Configure(Failed).
		OnEntry(func(_ context.Context, _ ...any) error {
			m.finished(Failed)
			return nil
		}).
		Ignore(triggerAbandon).
		Ignore(triggerFail)

	fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		m.logger.Debug("state transition",
			zap.Stringer("from", t.Source.(State)),
			zap.Stringer("to", t.Destination.(State)),
			zap.String("trigger", string(t.Trigger.(trigger))),
		)
	})
	return fsm
}
