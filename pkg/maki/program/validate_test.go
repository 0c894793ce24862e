package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

func validModule() *Module {
	return &Module{
		Constants: []value.Value{value.Int32(1)},
		Natives:   []Native{{Name: "messageBox", Argc: 4}},
		Globals:   []Global{{Name: "n", Init: value.Int32(0)}},
		Functions: []Function{
			{Name: "main", Entry: 0, Params: 0, Locals: 1},
			{Name: "f", Entry: 3, Params: 1, Locals: 2},
		},
		Code: []Instruction{
			{Op: OpPush, A: 0, Offset: 10},
			{Op: OpStoreLocal, A: 0, Offset: 15},
			{Op: OpHalt, Offset: 20},
			{Op: OpLoadLocal, A: 1, Offset: 21},
			{Op: OpReturn, A: 1, Offset: 26},
		},
	}
}

func TestValidateAcceptsValidModule(t *testing.T) {
	require.NoError(t, Validate(validModule()))
}

func TestBody(t *testing.T) {
	m := validModule()
	for fn, exp := range [][2]int{{0, 3}, {3, 5}} {
		start, end := m.Body(fn)
		assert.Equal(t, exp, [2]int{start, end}, "function %d", fn)
	}
}

func TestValidateRejects(t *testing.T) {
	for i, test := range []struct {
		mutate func(m *Module)
		offset int
		msg    string
	}{
		{func(m *Module) { m.Code = nil }, NoOffset, "empty code"},
		{func(m *Module) { m.Entry = 2 }, NoOffset, "entry function 2"},
		{func(m *Module) { m.Entry = 1 }, NoOffset, "declares 1 parameters"},
		{func(m *Module) { m.Functions[1].Entry = 5 }, NoOffset, "outside the code"},
		{func(m *Module) { m.Functions[1].Locals = 0 }, 21, "0 locals for 1 parameters"},
		{func(m *Module) { m.Code[0].A = 1 }, 10, "constant 1 out of range"},
		{func(m *Module) { m.Code[1].A = 1 }, 15, "local 1 out of range [0, 1) of function main"},
		{func(m *Module) { m.Code[3].A = 2 }, 21, "local 2 out of range"},
		{func(m *Module) { m.Code[2] = Instruction{Op: OpJump, A: 5, Offset: 20} }, 20, "jump target 5"},
		{func(m *Module) { m.Code[2] = Instruction{Op: OpJumpIfFalse, A: -1, Offset: 20} }, 20, "jump target -1"},
		{func(m *Module) { m.Code[2] = Instruction{Op: OpJump, A: 3, Offset: 20} }, 20, "jump target 3 leaves function main [0, 3)"},
		{func(m *Module) { m.Code[4] = Instruction{Op: OpAndThen, A: 0, Offset: 26} }, 26, "jump target 0 leaves function f [3, 5)"},
		{func(m *Module) {
			m.Functions = append(m.Functions, Function{Name: "alias", Entry: 3, Params: 0, Locals: 1})
		}, 21, "local 1 out of range [0, 1) of function alias"},
		{func(m *Module) { m.Code[2] = Instruction{Op: OpCall, A: 2, Offset: 20} }, 20, "function 2 out of range"},
		{func(m *Module) { m.Code[2] = Instruction{Op: OpCallNative, A: 1, Offset: 20} }, 20, "native 1 out of range"},
		{func(m *Module) { m.Code[2] = Instruction{Op: OpCallNative, A: 0, B: -2, Offset: 20} }, 20, "negative argument count"},
		{func(m *Module) { m.Code[2] = Instruction{Op: OpLoadGlobal, A: 1, Offset: 20} }, 20, "global 1 out of range"},
		{func(m *Module) { m.Code[2] = Instruction{Op: OpCast, A: 17, Offset: 20} }, 20, "unknown value kind 17"},
		{func(m *Module) { m.Code[2] = Instruction{Op: OpPreInc, A: 0, B: 7, Offset: 20} }, 20, "unknown scope 7"},
		{func(m *Module) { m.Code[2] = Instruction{Op: OpPostDec, A: 3, B: ScopeGlobal, Offset: 20} }, 20, "global 3 out of range"},
		{func(m *Module) { m.Code[4].A = 2 }, 26, "flag must be 0 or 1"},
		{func(m *Module) { m.Code[2].Op = Opcode(200) }, 20, "unknown opcode 200"},
		{func(m *Module) { m.Natives[0].Argc = -5 }, NoOffset, "negative argument count -5"},
		{func(m *Module) {
			m.Functions[0].Entry = 1
			m.Code[0] = Instruction{Op: OpLoadLocal, Offset: 10}
		}, 10, "outside of any function"},
	} {
		m := validModule()
		test.mutate(m)
		err := Validate(m)
		require.Error(t, err, "#%d", i+1)
		assert.ErrorIs(t, err, errs.MalformedBytecode, "#%d", i+1)
		assert.ErrorContains(t, err, test.msg, "#%d", i+1)
		offset, ok := errs.OffsetOf(err)
		if test.offset == NoOffset {
			assert.False(t, ok, "#%d", i+1)
		} else {
			assert.True(t, ok, "#%d", i+1)
			assert.Equal(t, test.offset, offset, "#%d", i+1)
		}
	}
}
