package maki

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

func nop([]value.Value) (value.Value, error) {
	return value.Null(), nil
}

func TestBindingContracts(t *testing.T) {
	for i, test := range []struct {
		binding NativeBinding
		valid   bool
	}{
		{NativeBinding{Name: "f", Func: nop}, true},
		{NativeBinding{Name: "f", Args: []value.KindSet{value.AnyKind}, Result: value.AnyKind, Func: nop}, true},
		{NativeBinding{Name: "f", Async: func([]value.Value, *Completion) {}}, true},
		{NativeBinding{Func: nop}, false},
		{NativeBinding{Name: "f"}, false},
		{NativeBinding{Name: "f", Func: nop, Async: func([]value.Value, *Completion) {}}, false},
		{NativeBinding{Name: "f", Args: []value.KindSet{value.Kinds(value.KindInt32), 0}, Func: nop}, false},
		{NativeBinding{Name: "f", Args: []value.KindSet{0x80}, Func: nop}, false},
		{NativeBinding{Name: "f", Result: 0x80, Func: nop}, false},
	} {
		_, err := NewBindings(test.binding)
		if test.valid {
			assert.NoError(t, err, i)
			continue
		}
		assert.ErrorIs(t, err, errs.InvalidBinding, i)
	}
}

func TestBindingsLookup(t *testing.T) {
	b, err := NewBindings(
		NativeBinding{Name: "getTime", Func: nop},
		NativeBinding{Name: "GetTime", Func: nop, Args: []value.KindSet{value.AnyKind}},
		NativeBinding{Name: "messageBox", Func: nop},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"getTime", "GetTime", "messageBox"}, b.Names())

	nb, ok := b.Lookup("GetTime")
	require.True(t, ok)
	assert.Equal(t, 1, nb.Arity(), "exact match wins")
	nb, ok = b.Lookup("GETTIME")
	require.True(t, ok)
	assert.Equal(t, "getTime", nb.Name, "first registered wins among case-insensitive matches")
	nb, ok = b.Lookup("MessageBox")
	require.True(t, ok)
	assert.Equal(t, "messageBox", nb.Name)
	_, ok = b.Lookup("alert")
	assert.False(t, ok)

	err = b.Add(NativeBinding{Name: "messageBox", Func: nop})
	assert.ErrorIs(t, err, errs.InvalidBinding)
	assert.Equal(t, 3, b.Len())
}

func TestNilBindings(t *testing.T) {
	var b *Bindings
	_, ok := b.Lookup("messageBox")
	assert.False(t, ok)
	assert.Zero(t, b.Len())
	assert.Nil(t, b.Names())
}

func TestBindingArgsAreCopied(t *testing.T) {
	args := []value.KindSet{value.Kinds(value.KindString)}
	b := MustBindings(NativeBinding{Name: "f", Args: args, Func: nop})
	args[0] = value.Kinds(value.KindInt32)
	nb, ok := b.Lookup("f")
	require.True(t, ok)
	assert.True(t, nb.Args[0].Has(value.KindString))
}

func TestMustBindingsPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustBindings(NativeBinding{Name: "f"})
	})
}

func TestCompletionOnce(t *testing.T) {
	c := newCompletion("f")
	c.Fail(nil)
	c.Complete(value.Int32(1))
	r := <-c.ch
	assert.Error(t, r.err)
	select {
	case <-c.ch:
		t.Fatal("second completion delivered")
	default:
	}
}

func TestResultContract(t *testing.T) {
	void := &NativeBinding{Name: "v"}
	r, err := void.checkResult(value.Int32(3))
	require.NoError(t, err)
	assert.True(t, r.IsNull())

	typed := &NativeBinding{Name: "t", Result: value.Kinds(value.KindInt32, value.KindNull)}
	_, err = typed.checkResult(value.Null())
	require.NoError(t, err)
	_, err = typed.checkResult(value.Double(1))
	assert.ErrorIs(t, err, errs.TypeMismatch)
}
