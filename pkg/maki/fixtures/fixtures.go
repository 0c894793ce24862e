// Package fixtures provides reference scripts, assembled with program.Builder, together with
// the exact sequence of native calls a correct engine makes while running them.
package fixtures

import (
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// MessageBox is the display call every fixture reports through.
const MessageBox = "messageBox"

// MessageBoxArgs is the argument contract of MessageBox: message, title, flag, detail.
var MessageBoxArgs = []value.KindSet{
	value.Kinds(value.KindString),
	value.Kinds(value.KindString),
	value.Kinds(value.KindInt32, value.KindBoolean),
	value.Kinds(value.KindString, value.KindNull),
}

// Call is the argument list of one native call.
type Call []value.Value

// Script is a fixture module and the MessageBox calls it is expected to make.
type Script struct {
	Name   string
	Module *program.Module
	Calls  []Call
}

// All returns every fixture.
func All() []Script {
	return []Script{HelloWorld(), BasicTests(), SimpleFunctions()}
}

// Success is the call reporting a passed check.
func Success(msg string) Call {
	return Call{value.String(msg), value.String("Success"), value.Int32(0), value.String("")}
}

// Failure is the call reporting a failed check.
func Failure(msg string) Call {
	return Call{value.String(msg), value.String("Failed"), value.Int32(1), value.String("")}
}

func HelloWorld() Script {
	b := program.NewBuilder()
	main := b.Function("main", 0, 0)
	b.Begin(main)
	b.Push(value.String("Hello World")).
		Push(value.String("Hello Title")).
		Push(value.Int32(1)).
		Push(value.Null()).
		CallNative(MessageBox, len(MessageBoxArgs)).
		Emit(program.OpPop).
		Emit(program.OpReturn, 0)
	return Script{
		Name:   "hello_world",
		Module: b.MustBuild(main),
		Calls: []Call{
			{value.String("Hello World"), value.String("Hello Title"), value.Int32(1), value.Null()},
		},
	}
}

// writer emits self-checking code: each check reports its message with Success or Failure.
type writer struct {
	b     *program.Builder
	calls []Call
}

func newWriter() *writer {
	return &writer{b: program.NewBuilder()}
}

func (w *writer) report(message func(), status string, flag int32) {
	message()
	w.b.Push(value.String(status)).
		Push(value.Int32(flag)).
		Push(value.String("")).
		CallNative(MessageBox, len(MessageBoxArgs)).
		Emit(program.OpPop)
}

// checkf reports the message built by message, as Success if cond leaves a truthy value.
// text is the message the run is expected to produce.
func (w *writer) checkf(text string, message func(), cond func()) {
	failed := w.b.NewLabel()
	done := w.b.NewLabel()
	cond()
	w.b.Branch(program.OpJumpIfFalse, failed)
	w.report(message, "Success", 0)
	w.b.Branch(program.OpJump, done)
	w.b.Mark(failed)
	w.report(message, "Failed", 1)
	w.b.Mark(done)
	w.calls = append(w.calls, Success(text))
}

func (w *writer) check(msg string, cond func()) {
	w.checkf(msg, func() { w.b.Push(value.String(msg)) }, cond)
}

// binary emits a op b.
func (w *writer) binary(op program.Opcode, a, b value.Value) {
	w.b.Push(a).Push(b).Emit(op)
}

// expect emits (a op b) == want.
func (w *writer) expect(op program.Opcode, a, b, want value.Value) func() {
	return func() {
		w.binary(op, a, b)
		w.b.Push(want).Emit(program.OpEq)
	}
}

func (w *writer) holds(op program.Opcode, a, b value.Value) func() {
	return func() { w.binary(op, a, b) }
}

func (w *writer) not(cond func()) func() {
	return func() {
		cond()
		w.b.Emit(program.OpNot)
	}
}

// logical emits a && b or a || b with the short-circuit sequence compilers produce.
func (w *writer) logical(op program.Opcode, a, b func()) func() {
	return func() {
		end := w.b.NewLabel()
		a()
		w.b.Branch(op, end)
		b()
		w.b.Emit(program.OpToBool)
		w.b.Mark(end)
	}
}

func (w *writer) push(v value.Value) func() {
	return func() { w.b.Push(v) }
}
