package maki

import (
	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// frame is the activation of one function: its slots, its operand stack and its program counter.
// The caller of a frame is the previous element of the machine's frame slice.
type frame struct {
	fn     int
	name   string
	pc     int
	start  int // body of fn is [start, end)
	end    int
	locals []value.Value
	stack  []value.Value
}

func newFrame(m *program.Module, fn int) *frame {
	f := m.Functions[fn]
	start, end := m.Body(fn)
	return &frame{
		fn:     fn,
		name:   f.Name,
		pc:     f.Entry,
		start:  start,
		end:    end,
		locals: make([]value.Value, f.Locals),
		stack:  make([]value.Value, 0, 8),
	}
}

func (f *frame) push(v value.Value) {
	f.stack = append(f.stack, v)
}

func (f *frame) pop() (value.Value, error) {
	n := len(f.stack)
	if n == 0 {
		return value.Null(), errs.StackUnderflow.Errorf("empty operand stack in %s", f.name)
	}
	v := f.stack[n-1]
	f.stack = f.stack[:n-1]
	return v, nil
}

func (f *frame) peek() (value.Value, error) {
	n := len(f.stack)
	if n == 0 {
		return value.Null(), errs.StackUnderflow.Errorf("empty operand stack in %s", f.name)
	}
	return f.stack[n-1], nil
}

// popN pops n values, returning them in the order they were pushed.
func (f *frame) popN(n int) ([]value.Value, error) {
	if len(f.stack) < n {
		return nil, errs.StackUnderflow.Errorf("%d values needed in %s, %d on the stack", n, f.name, len(f.stack))
	}
	out := make([]value.Value, n)
	copy(out, f.stack[len(f.stack)-n:])
	f.stack = f.stack[:len(f.stack)-n]
	return out, nil
}
