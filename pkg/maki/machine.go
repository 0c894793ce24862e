// Package maki executes canonical MAKI modules: a stack machine with frames, tagged values and
// a contract-checked bridge to host ("native") functions, synchronous or asynchronous.
package maki

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/qmuntal/stateless"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/maki/metrics"
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// Result is the outcome of a run that reached Returned.
type Result struct {
	// Value is what the entry function returned, Null when HasValue is false.
	Value    value.Value
	HasValue bool
	// Steps is the number of executed instructions.
	Steps int
}

type pendingCall struct {
	completion *Completion
	binding    *NativeBinding
	pc         int
}

// Machine is one run of a module. One goroutine drives it through Start, Wait and Resume,
// Abandon and the Completion of a suspended call may come from anywhere.
type Machine struct {
	module   *program.Module
	bindings *Bindings
	opts     options
	logger   *zap.Logger

	mu        sync.Mutex
	lifecycle *stateless.StateMachine
	state     atomic.Int32
	steps     atomic.Int64
	result    Result
	err       error
	done      chan struct{}

	abandoned   atomic.Bool
	abandonOnce sync.Once
	abandonCh   chan struct{}

	globals []value.Value
	frames  []*frame
	natives []*NativeBinding
	pending *pendingCall
}

// NewMachine prepares a run of module. The module is validated and never modified,
// so one module may back any number of machines.
func NewMachine(module *program.Module, bindings *Bindings, opts ...Option) (*Machine, error) {
	if module == nil {
		return nil, errors.New("nil module")
	}
	if err := program.Validate(module); err != nil {
		return nil, err
	}
	m := &Machine{
		module:    module,
		bindings:  bindings,
		opts:      newOptions(opts),
		done:      make(chan struct{}),
		abandonCh: make(chan struct{}),
		globals:   make([]value.Value, len(module.Globals)),
		natives:   make([]*NativeBinding, len(module.Natives)),
	}
	m.logger = m.opts.logger
	for i, g := range module.Globals {
		m.globals[i] = g.Init
	}
	m.lifecycle = newLifecycle(m)
	return m, nil
}

func (m *Machine) State() State {
	return State(m.state.Load())
}

// Done is closed when the machine reaches Returned or Failed.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Err is the failure of a Failed machine.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Machine) Result() Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.result
	r.Steps = int(m.steps.Load())
	return r
}

// Pending names the native the machine is suspended on. Call it from the driving goroutine.
func (m *Machine) Pending() (string, bool) {
	if m.State() != Suspended || m.pending == nil {
		return "", false
	}
	return m.pending.binding.Name, true
}

// Start runs the entry function until the machine returns, fails or suspends on an
// asynchronous native call. Starting an abandoned machine is a no-op.
func (m *Machine) Start() error {
	switch s := m.State(); {
	case s.Terminal():
		return nil
	case s != Ready:
		return errors.Errorf("machine is already %s", s)
	}
	if !m.transition(triggerStart, nil) {
		return nil
	}
	m.frames = append(m.frames, newFrame(m.module, m.module.Entry))
	m.logger.Debug("run started", zap.String("entry", m.module.EntryFunction().Name), zap.Stringer("dialect", m.module.Dialect))
	m.run()
	return nil
}

// Resume waits for the completion of the pending native call and continues the run until the
// next suspension or the end. A done ctx abandons the run. Resuming a finished machine is a no-op.
func (m *Machine) Resume(ctx context.Context) error {
	switch s := m.State(); {
	case s.Terminal():
		return nil
	case s != Suspended:
		return errors.Errorf("cannot resume a %s machine", s)
	}
	p := m.pending
	select {
	case c := <-p.completion.ch:
		m.complete(p, c)
	case <-ctx.Done():
		m.abandonWith(errs.Abandoned.Wrapf(context.Cause(ctx), "context done while waiting for %s", p.binding.Name))
	case <-m.abandonCh:
	}
	return nil
}

// Wait drives a started machine to its end, resuming it after every asynchronous call.
func (m *Machine) Wait(ctx context.Context) (Result, error) {
	for {
		switch s := m.State(); s {
		case Returned:
			return m.Result(), nil
		case Failed:
			return Result{Steps: int(m.steps.Load())}, m.Err()
		case Suspended:
			if err := m.Resume(ctx); err != nil {
				return Result{}, err
			}
		default:
			return Result{}, errors.Errorf("cannot wait for a %s machine", s)
		}
	}
}

// Abandon fails a live run with Abandoned. Completions arriving later are ignored.
func (m *Machine) Abandon() {
	m.abandonWith(errs.Abandoned.New("run abandoned by the host"))
}

func (m *Machine) abandonWith(err error) {
	m.abandoned.Store(true)
	m.abandonOnce.Do(func() {
		close(m.abandonCh)
	})
	m.transition(triggerAbandon, func() {
		m.err = err
	})
}

func (m *Machine) complete(p *pendingCall, c completion) {
	m.pending = nil
	if !m.transition(triggerResume, nil) {
		return
	}
	if c.err != nil {
		m.fail(errs.NativeCallFailed.Wrapf(c.err, "native %s", p.binding.Name), p.pc)
		return
	}
	v, err := p.binding.checkResult(c.value)
	if err != nil {
		m.fail(err, p.pc)
		return
	}
	m.frames[len(m.frames)-1].push(v)
	m.run()
}

// transition fires t unless the machine already finished, apply runs first under the same lock.
func (m *Machine) transition(t trigger, apply func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.State().Terminal() {
		return false
	}
	if apply != nil {
		apply()
	}
	if err := m.lifecycle.Fire(t); err != nil {
		m.logger.Error("invalid state transition", zap.Stringer("state", m.State()), zap.String("trigger", string(t)), zap.Error(err))
		return false
	}
	return true
}

func (m *Machine) fail(err error, pc int) {
	err = errs.AtPC(err, pc, m.trace())
	m.transition(triggerFail, func() {
		m.err = err
	})
}

// trace lists the functions of the frame stack, innermost first.
func (m *Machine) trace() []string {
	t := make([]string, len(m.frames))
	for i, f := range m.frames {
		t[len(m.frames)-1-i] = f.name
	}
	return t
}

// finished runs on entry to a terminal state, with m.mu held.
func (m *Machine) finished(s State) {
	steps := m.steps.Load()
	metrics.Instructions(int(steps))
	if s == Returned {
		metrics.RunFinished(metrics.OutcomeReturned, "")
		m.logger.Debug("run returned", zap.Stringer("value", m.result.Value), zap.Bool("hasValue", m.result.HasValue), zap.Int64("steps", steps))
	} else {
		metrics.RunFinished(metrics.OutcomeFailed, errs.KindOf(m.err).String())
		m.logger.Debug("run failed", zap.Error(m.err), zap.Int64("steps", steps))
	}
	close(m.done)
}
