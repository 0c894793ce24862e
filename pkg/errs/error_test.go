package errs

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindNames(t *testing.T) {
	for _, test := range []struct {
		kind Kind
		name string
	}{
		{TruncatedInput, "truncated input"},
		{UnknownDialect, "unknown dialect"},
		{MalformedBytecode, "malformed bytecode"},
		{TypeMismatch, "type mismatch"},
		{StackUnderflow, "stack underflow"},
		{InvalidJumpTarget, "invalid jump target"},
		{UnknownNativeCall, "unknown native call"},
		{ArithmeticError, "arithmetic error"},
		{NativeCallFailed, "native call failed"},
		{Kind(200), "Kind(200)"},
	} {
		assert.Equal(t, test.name, test.kind.String())
	}
	assert.True(t, MalformedBytecode.DecodeTime())
	assert.False(t, TypeMismatch.DecodeTime())
}

func TestKindOfThroughWrapping(t *testing.T) {
	err := TypeMismatch.Errorf("cannot subtract %s from %s", "String", "Int32")
	wrapped := errors.Wrap(fmt.Errorf("outer: %w", err), "run failed")
	assert.Equal(t, TypeMismatch, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, TypeMismatch)
	assert.NotErrorIs(t, wrapped, StackUnderflow)
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.EqualError(t, err, "type mismatch: cannot subtract String from Int32")
}

func TestMalformedCarriesOffset(t *testing.T) {
	err := errors.Wrap(Malformed(28, "unknown opcode 0x%02x", 0x99), "failed to load")
	off, ok := OffsetOf(err)
	require.True(t, ok)
	assert.Equal(t, 28, off)
	assert.EqualError(t, err, "failed to load: malformed bytecode at offset 28: unknown opcode 0x99")
	_, ok = OffsetOf(TypeMismatch.New("x"))
	assert.False(t, ok)
}

func TestWrapKeepsHostError(t *testing.T) {
	host := errors.New("dialog closed")
	err := NativeCallFailed.Wrapf(host, "native %q", "messageBox")
	assert.ErrorIs(t, err, host)
	assert.ErrorIs(t, err, NativeCallFailed)
	assert.EqualError(t, err, `native call failed: native "messageBox": dialog closed`)
	assert.EqualError(t, ArithmeticError.Wrap(nil, "division by zero"), "arithmetic error: division by zero")
}

func TestAtPC(t *testing.T) {
	err := AtPC(StackUnderflow.New("empty operand stack"), 7, []string{"f", "main"})
	pc, ok := PCOf(err)
	require.True(t, ok)
	assert.Equal(t, 7, pc)
	assert.Equal(t, []string{"f", "main"}, TraceOf(err))

	again := AtPC(err, 9, nil)
	pc, _ = PCOf(again)
	assert.Equal(t, 7, pc)

	foreign := AtPC(errors.New("boom"), 3, nil)
	assert.Equal(t, Unknown, KindOf(foreign))
	pc, _ = PCOf(foreign)
	assert.Equal(t, 3, pc)
}
