package maki

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/makiscript/gomaki/pkg/maki/fixtures"
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// recorder is a messageBox host that remembers every call.
type recorder struct {
	mu    sync.Mutex
	calls []fixtures.Call
}

func (r *recorder) messageBox(args []value.Value) (value.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fixtures.Call(args))
	return value.Null(), nil
}

func (r *recorder) Calls() []fixtures.Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]fixtures.Call(nil), r.calls...)
}

func (r *recorder) binding() NativeBinding {
	return NativeBinding{Name: fixtures.MessageBox, Args: fixtures.MessageBoxArgs, Func: r.messageBox}
}

func (r *recorder) bindings(t *testing.T, extra ...NativeBinding) *Bindings {
	b, err := NewBindings(append([]NativeBinding{r.binding()}, extra...)...)
	require.NoError(t, err)
	return b
}

// script assembles a module with a parameterless main whose body is written by body.
func script(t *testing.T, locals int, body func(b *program.Builder)) *program.Module {
	b := program.NewBuilder()
	main := b.Function("main", 0, locals)
	b.Begin(main)
	body(b)
	m, err := b.Build(main)
	require.NoError(t, err)
	return m
}

// report emits a messageBox call showing msg.
func report(b *program.Builder, msg string) {
	b.Push(value.String(msg)).
		Push(value.String("")).
		Push(value.Int32(0)).
		Push(value.Null()).
		CallNative(fixtures.MessageBox, len(fixtures.MessageBoxArgs)).
		Emit(program.OpPop)
}

