package maki

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/libs/runner"
	"github.com/makiscript/gomaki/pkg/logging"
	"github.com/makiscript/gomaki/pkg/maki/fixtures"
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// asyncModule returns getValue() + 1 after reporting "before" and "after" around the call.
func asyncModule(t *testing.T) *program.Module {
	return script(t, 0, func(b *program.Builder) {
		report(b, "before")
		b.CallNative("getValue", 0).Push(value.Int32(1)).Emit(program.OpAdd)
		report(b, "after")
		b.Emit(program.OpReturn, 1)
	})
}

// parked is an asynchronous getValue that hands its completion to the test.
func parked(done chan<- *Completion) NativeBinding {
	return NativeBinding{
		Name:   "getValue",
		Result: value.Kinds(value.KindInt32),
		Async: func(_ []value.Value, c *Completion) {
			done <- c
		},
	}
}

func messages(r *recorder) []string {
	var out []string
	for _, c := range r.Calls() {
		out = append(out, value.Stringify(c[0]))
	}
	return out
}

func TestAsyncSuspendAndResume(t *testing.T) {
	r := &recorder{}
	completions := make(chan *Completion, 1)
	m, err := NewMachine(asyncModule(t), r.bindings(t, parked(completions)))
	require.NoError(t, err)
	assert.Equal(t, Ready, m.State())

	require.NoError(t, m.Start())
	assert.Equal(t, Suspended, m.State())
	name, ok := m.Pending()
	require.True(t, ok)
	assert.Equal(t, "getValue", name)
	assert.Equal(t, []string{"before"}, messages(r))

	c := <-completions
	assert.Equal(t, "getValue", c.Native())
	go func() {
		c.Complete(value.Int32(41))
		c.Complete(value.Int32(0))
		c.Fail(errors.New("too late"))
	}()
	res, err := m.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Returned, m.State())
	assert.Equal(t, value.Int32(42), res.Value)
	assert.True(t, res.HasValue)
	assert.Equal(t, []string{"before", "after"}, messages(r))
	<-m.Done()
}

func TestAsyncExplicitResume(t *testing.T) {
	completions := make(chan *Completion, 1)
	r := &recorder{}
	m, err := NewMachine(asyncModule(t), r.bindings(t, parked(completions)))
	require.NoError(t, err)
	require.Error(t, m.Resume(context.Background()), "not started yet")
	require.NoError(t, m.Start())
	require.Error(t, m.Start(), "already suspended")

	(<-completions).Complete(value.Int32(1))
	require.NoError(t, m.Resume(context.Background()))
	assert.Equal(t, Returned, m.State())
	assert.Equal(t, value.Int32(2), m.Result().Value)
	require.NoError(t, m.Resume(context.Background()))
}

func TestAsyncFailure(t *testing.T) {
	r := &recorder{}
	hostErr := errors.New("clock unavailable")
	completions := make(chan *Completion, 1)
	m, err := NewMachine(asyncModule(t), r.bindings(t, parked(completions)))
	require.NoError(t, err)
	require.NoError(t, m.Start())
	(<-completions).Fail(hostErr)

	_, err = m.Wait(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.NativeCallFailed)
	assert.ErrorIs(t, err, hostErr)
	assert.Equal(t, []string{"before"}, messages(r))
}

func TestAsyncResultContract(t *testing.T) {
	r := &recorder{}
	completions := make(chan *Completion, 1)
	m, err := NewMachine(asyncModule(t), r.bindings(t, parked(completions)))
	require.NoError(t, err)
	require.NoError(t, m.Start())
	(<-completions).Complete(value.String("41"))

	_, err = m.Wait(context.Background())
	assert.ErrorIs(t, err, errs.TypeMismatch)
	assert.Equal(t, Failed, m.State())
}

func TestAbandonWhileSuspended(t *testing.T) {
	r := &recorder{}
	completions := make(chan *Completion, 1)
	m, err := NewMachine(asyncModule(t), r.bindings(t, parked(completions)))
	require.NoError(t, err)
	require.NoError(t, m.Start())
	c := <-completions

	m.Abandon()
	assert.Equal(t, Failed, m.State())
	c.Complete(value.Int32(1))
	m.Abandon()

	_, err = m.Wait(context.Background())
	assert.ErrorIs(t, err, errs.Abandoned)
	assert.Equal(t, []string{"before"}, messages(r))
	select {
	case <-m.Done():
	default:
		t.Fatal("abandoned machine is not done")
	}
}

func TestAbandonBeforeStart(t *testing.T) {
	m, err := NewMachine(fixtures.HelloWorld().Module, nil)
	require.NoError(t, err)
	m.Abandon()
	require.NoError(t, m.Start())
	_, err = m.Wait(context.Background())
	assert.ErrorIs(t, err, errs.Abandoned)
	assert.Zero(t, m.Result().Steps)
}

func TestContextCancelWhileSuspended(t *testing.T) {
	completions := make(chan *Completion, 1)
	r := &recorder{}
	m, err := NewMachine(asyncModule(t), r.bindings(t, parked(completions)))
	require.NoError(t, err)
	require.NoError(t, m.Start())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.Abandoned)
	assert.ErrorIs(t, err, context.Canceled)
	(<-completions).Complete(value.Int32(1))
	assert.Equal(t, Failed, m.State())
}

func TestExecuteTimeout(t *testing.T) {
	r := &recorder{}
	never := NativeBinding{Name: "getValue", Result: value.Kinds(value.KindInt32), Async: func([]value.Value, *Completion) {}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Execute(ctx, asyncModule(t), r.bindings(t, never))
	assert.ErrorIs(t, err, errs.Abandoned)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecuteCancelsLongRuns(t *testing.T) {
	m := script(t, 0, func(b *program.Builder) {
		loop := b.NewLabel()
		b.Mark(loop)
		b.Branch(program.OpJump, loop)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res, err := Execute(ctx, m, nil)
	assert.ErrorIs(t, err, errs.Abandoned)
	assert.Positive(t, res.Steps)
}

func TestDeferred(t *testing.T) {
	getValue := func([]value.Value) (value.Value, error) {
		return value.Int32(9), nil
	}
	async := runner.NewAsync()
	tracked := runner.NewTracked(runner.NewAsync())
	for _, r := range []runner.Runner{runner.NewSync(), async, tracked} {
		rec := &recorder{}
		b := NativeBinding{Name: "getValue", Result: value.Kinds(value.KindInt32), Async: Deferred(r, getValue)}
		res, err := Execute(context.Background(), asyncModule(t), rec.bindings(t, b))
		require.NoError(t, err)
		assert.Equal(t, value.Int32(10), res.Value)
		assert.Equal(t, []string{"before", "after"}, messages(rec))
	}
	async.Wait()
	require.Eventually(t, func() bool { return len(tracked.Running()) == 0 }, time.Second, time.Millisecond)
}

func TestDeferredFailure(t *testing.T) {
	hostErr := errors.New("no clock")
	b := NativeBinding{Name: "getValue", Result: value.Kinds(value.KindInt32), Async: Deferred(runner.NewSync(), func([]value.Value) (value.Value, error) {
		return value.Null(), hostErr
	})}
	r := &recorder{}
	_, err := Execute(context.Background(), asyncModule(t), r.bindings(t, b))
	assert.ErrorIs(t, err, hostErr)
	assert.ErrorIs(t, err, errs.NativeCallFailed)
}

func TestConcurrentRunsShareTheModule(t *testing.T) {
	f := fixtures.BasicTests()
	recorders := make([]*recorder, 16)
	var g errgroup.Group
	for i := range recorders {
		r := &recorder{}
		recorders[i] = r
		bindings := r.bindings(t)
		g.Go(func() error {
			_, err := Execute(context.Background(), f.Module, bindings)
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, r := range recorders {
		assert.Equal(t, f.Calls, r.Calls())
	}
}

func TestDebugLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := &recorder{}
	_, err := Execute(context.Background(), fixtures.HelloWorld().Module, r.bindings(t), WithLogger(zap.New(core)))
	require.NoError(t, err)

	calls := logs.FilterMessage("native call").All()
	require.Len(t, calls, 1)
	assert.Equal(t, logging.EngineNamespace, calls[0].LoggerName)
	assert.Equal(t, fixtures.MessageBox, calls[0].ContextMap()["native"])

	transitions := logs.FilterMessage("state transition").All()
	require.Len(t, transitions, 2)
	assert.Equal(t, "Running", transitions[0].ContextMap()["to"])
	assert.Equal(t, "Returned", transitions[1].ContextMap()["to"])
	assert.Equal(t, 1, logs.FilterMessage("run returned").Len())
}

func TestWaitBeforeStart(t *testing.T) {
	m, err := NewMachine(fixtures.HelloWorld().Module, nil)
	require.NoError(t, err)
	_, err = m.Wait(context.Background())
	require.Error(t, err)
	assert.Equal(t, Ready, m.State())
}

func TestStateNames(t *testing.T) {
	for s, name := range map[State]string{
		Ready: "Ready", Running: "Running", Suspended: "Suspended", Returned: "Returned", Failed: "Failed", State(9): "State(9)",
	} {
		assert.Equal(t, name, s.String())
	}
	assert.True(t, Returned.Terminal())
	assert.True(t, Failed.Terminal())
	assert.False(t, Suspended.Terminal())
}
