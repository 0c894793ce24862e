package fixtures

import (
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// SimpleFunctions calls user defined functions: a void one, one whose typed return
// truncates its Double argument, one with extra locals and a recursive one.
func SimpleFunctions() Script {
	w := newWriter()
	b := w.b
	main := b.Function("main", 0, 0)
	simple := b.Function("simple", 0, 0)
	truncate := b.Function("truncate", 1, 1)
	sum := b.Function("sum", 2, 3)
	factorial := b.Function("factorial", 1, 1)

	b.Begin(main)
	b.Emit(program.OpCall, simple)
	w.calls = append(w.calls, Success("simple custom function"))
	w.check("simple custom function with implicit cast", func() {
		b.Push(value.Double(4.7)).
			Emit(program.OpCast, int(value.KindDouble)).
			Emit(program.OpCall, truncate).
			Push(value.Int32(4)).
			Emit(program.OpEq)
	})
	w.check("custom function with locals", func() {
		b.Push(value.Int32(2)).Push(value.Int32(3)).Emit(program.OpCall, sum).Push(value.Int32(5)).Emit(program.OpEq)
	})
	w.check("recursive custom function", func() {
		b.Push(value.Int32(5)).Emit(program.OpCall, factorial).Push(value.Int32(120)).Emit(program.OpEq)
	})
	b.Emit(program.OpReturn, 0)

	b.Begin(simple)
	w.report(func() { b.Push(value.String("simple custom function")) }, "Success", 0)
	b.Emit(program.OpReturn, 0)

	b.Begin(truncate)
	b.Emit(program.OpLoadLocal, 0).
		Emit(program.OpCast, int(value.KindInt32)).
		Emit(program.OpReturn, 1)

	b.Begin(sum)
	b.Emit(program.OpLoadLocal, 0).
		Emit(program.OpLoadLocal, 1).
		Emit(program.OpAdd).
		Emit(program.OpStoreLocal, 2).
		Emit(program.OpLoadLocal, 2).
		Emit(program.OpReturn, 1)

	b.Begin(factorial)
	recurse := b.NewLabel()
	b.Emit(program.OpLoadLocal, 0).Push(value.Int32(1)).Emit(program.OpLe)
	b.Branch(program.OpJumpIfFalse, recurse)
	b.Push(value.Int32(1)).Emit(program.OpReturn, 1)
	b.Mark(recurse)
	b.Emit(program.OpLoadLocal, 0).
		Emit(program.OpLoadLocal, 0).
		Push(value.Int32(1)).
		Emit(program.OpSub).
		Emit(program.OpCall, factorial).
		Emit(program.OpMul).
		Emit(program.OpReturn, 1)

	return Script{Name: "simple_functions", Module: b.MustBuild(main), Calls: w.calls}
}
