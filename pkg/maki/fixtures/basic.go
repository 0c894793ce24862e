package fixtures

import (
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

var (
	i32 = value.Int32
	f64 = value.Double
	yes = value.Bool(true)
	no  = value.Bool(false)
)

// BasicTests exercises every operator, the coercion rules, increments and short-circuit evaluation.
func BasicTests() Script {
	w := newWriter()
	b := w.b
	main := b.Function("main", 0, 2)
	n := b.Global("n", i32(0))
	b.Begin(main)

	concat := func(prefix string, op program.Opcode, x, y value.Value) func() {
		return func() {
			b.Push(value.String(prefix))
			w.binary(op, x, y)
			b.Emit(program.OpAdd)
		}
	}

	w.checkf("2 + 2 = 4", concat("2 + 2 = ", program.OpAdd, i32(2), i32(2)), w.expect(program.OpAdd, i32(2), i32(2), i32(4)))
	w.checkf("2.2 + 2.2 = 4.4", concat("2.2 + 2.2 = ", program.OpAdd, f64(2.2), f64(2.2)),
		w.expect(program.OpAdd, f64(2.2), f64(2.2), f64(4.4)))
	w.check("4 + 4.4 = 4.4 + 4", func() {
		w.binary(program.OpAdd, i32(4), f64(4.4))
		w.binary(program.OpAdd, f64(4.4), i32(4))
		b.Emit(program.OpEq)
	})
	w.check("#t + #t = 2", w.expect(program.OpAdd, yes, yes, i32(2)))
	w.check("3 - 2 = 1", w.expect(program.OpSub, i32(3), i32(2), i32(1)))
	w.check("3 - -2 = 5", func() {
		b.Push(i32(3)).Push(i32(2)).Emit(program.OpNeg).Emit(program.OpSub)
		b.Push(i32(5)).Emit(program.OpEq)
	})
	w.check("3.5 - 2 = 1.5", w.expect(program.OpSub, f64(3.5), i32(2), f64(1.5)))
	w.check("2 * 3 = 6", w.expect(program.OpMul, i32(2), i32(3), i32(6)))
	w.check("2 * 1.5 = 3", w.expect(program.OpMul, i32(2), f64(1.5), f64(3)))
	w.check("#t * 3 = 3", w.expect(program.OpMul, yes, i32(3), i32(3)))
	w.check("#f * 3 = 0", w.expect(program.OpMul, no, i32(3), i32(0)))
	w.check("#t * 0.25 = 0.25", w.expect(program.OpMul, yes, f64(0.25), f64(0.25)))
	w.check("0.25 * #t = 0.25", w.expect(program.OpMul, f64(0.25), yes, f64(0.25)))
	w.check("#f * 0.25 = 0", w.expect(program.OpMul, no, f64(0.25), f64(0)))
	w.check("6 / 3 = 2", w.expect(program.OpDiv, i32(6), i32(3), i32(2)))
	w.checkf("3 / 2 = 1.5", concat("3 / 2 = ", program.OpDiv, i32(3), i32(2)), w.expect(program.OpDiv, i32(3), i32(2), f64(1.5)))
	w.check("5 % 2 = 1", w.expect(program.OpMod, i32(5), i32(2), i32(1)))
	w.check("5.5 % 2 = 1 (implicit casting)", w.expect(program.OpMod, f64(5.5), i32(2), i32(1)))
	w.check("3 & 2 = 2", w.expect(program.OpBitAnd, i32(3), i32(2), i32(2)))
	w.check("3 | 2 = 3", w.expect(program.OpBitOr, i32(3), i32(2), i32(3)))
	w.check("2 << 1 = 4", w.expect(program.OpShl, i32(2), i32(1), i32(4)))
	w.check("4 >> 1 = 2", w.expect(program.OpShr, i32(4), i32(1), i32(2)))
	w.check("2.5 << 1 = 4 (implicit casting)", w.expect(program.OpShl, f64(2.5), i32(1), i32(4)))
	w.check("4.5 >> 1 = 2 (implicit casting)", w.expect(program.OpShr, f64(4.5), i32(1), i32(2)))
	w.check("1 != 2", w.holds(program.OpNe, i32(1), i32(2)))
	w.check("1 < 2", w.holds(program.OpLt, i32(1), i32(2)))
	w.check("2 > 1", w.holds(program.OpGt, i32(2), i32(1)))

	// Equality never converts between Int32 and Double. Relational operators convert the right
	// operand to the kind of the left one.
	w.check("! [int] 4 == [float] 4.4 (no coercion)", w.not(w.holds(program.OpEq, i32(4), f64(4.4))))
	w.check("! [int] 4 == [float] 4.0 (no coercion)", w.not(w.holds(program.OpEq, i32(4), f64(4))))
	w.check("[float] 4.4 != [int] 4 (no coercion)", w.holds(program.OpNe, f64(4.4), i32(4)))
	w.check("[int] 4 <= [float] 4.4 (autocasting types)", w.holds(program.OpLe, i32(4), f64(4.4)))
	w.check("[int] 4 >= [float] 4.4 (autocasting types)", w.holds(program.OpGe, i32(4), f64(4.4)))
	w.check("! [float] 4.4 <= [int] 4 (not autocasting types)", w.not(w.holds(program.OpLe, f64(4.4), i32(4))))
	w.check("[float] 4.4 >= [int] 4 (not autocasting types)", w.holds(program.OpGe, f64(4.4), i32(4)))
	w.check("! [int] 4 < [float] 4.4 (autocasting types)", w.not(w.holds(program.OpLt, i32(4), f64(4.4))))
	w.check("! [float] 4.4 < [int] 4 (not autocasting types)", w.not(w.holds(program.OpLt, f64(4.4), i32(4))))
	w.check("! [int] 4 > [float] 4.4 (autocasting types)", w.not(w.holds(program.OpGt, i32(4), f64(4.4))))
	w.check("[float] 4.4 > [int] 4 (not autocasting types)", w.holds(program.OpGt, f64(4.4), i32(4)))

	const x, y = 0, 1
	b.Push(i32(1)).Emit(program.OpStoreLocal, x)
	w.check("1++ = 1", func() {
		b.Emit(program.OpPostInc, x, program.ScopeLocal).Push(i32(1)).Emit(program.OpEq)
	})
	w.check("1++ (after increment) = 2", func() {
		b.Emit(program.OpLoadLocal, x).Push(i32(2)).Emit(program.OpEq)
	})
	w.check("2-- = 2", func() {
		b.Emit(program.OpPostDec, x, program.ScopeLocal).Push(i32(2)).Emit(program.OpEq)
	})
	w.check("2-- (after decrement) = 1", func() {
		b.Emit(program.OpLoadLocal, x).Push(i32(1)).Emit(program.OpEq)
	})
	b.Push(i32(1)).Emit(program.OpStoreLocal, y)
	w.check("++1 = 2", func() {
		b.Emit(program.OpPreInc, y, program.ScopeLocal).Push(i32(2)).Emit(program.OpEq)
	})
	w.check("--2 = 1", func() {
		b.Emit(program.OpPreDec, y, program.ScopeLocal).Push(i32(1)).Emit(program.OpEq)
	})
	b.Push(f64(1.5)).Emit(program.OpStoreLocal, y)
	w.check("1.5++ (after increment) = 2.5", func() {
		b.Emit(program.OpPostInc, y, program.ScopeLocal).Emit(program.OpPop)
		b.Emit(program.OpLoadLocal, y).Push(f64(2.5)).Emit(program.OpEq)
	})
	w.check("++n (global) = 1", func() {
		b.Emit(program.OpPreInc, n, program.ScopeGlobal).Push(i32(1)).Emit(program.OpEq)
	})
	b.Push(i32(0)).Emit(program.OpStoreGlobal, n)

	w.check("!#f", w.not(w.push(no)))
	w.check("!0", w.not(w.push(i32(0))))
	w.check("!1 == #f", func() {
		b.Push(i32(1)).Emit(program.OpNot).Push(no).Emit(program.OpEq)
	})
	w.check("1 == #t", w.holds(program.OpEq, i32(1), yes))
	w.check("0 == #f", w.holds(program.OpEq, i32(0), no))
	w.check("#t && #t", w.logical(program.OpAndThen, w.push(yes), w.push(yes)))
	w.check("!(#t && #f)", w.not(w.logical(program.OpAndThen, w.push(yes), w.push(no))))
	w.check("!(#f && #f)", w.not(w.logical(program.OpAndThen, w.push(no), w.push(no))))
	w.check("#t || #t", w.logical(program.OpOrElse, w.push(yes), w.push(yes)))
	w.check("#t || #f", w.logical(program.OpOrElse, w.push(yes), w.push(no)))
	w.check("#f || #t", w.logical(program.OpOrElse, w.push(no), w.push(yes)))
	w.check("!(#f || #f)", w.not(w.logical(program.OpOrElse, w.push(no), w.push(no))))

	incN := func() { b.Emit(program.OpPreInc, n, program.ScopeGlobal) }
	nIs := func(v int32) func() {
		return func() { b.Emit(program.OpLoadGlobal, n).Push(i32(v)).Emit(program.OpEq) }
	}
	w.check("#t || ++n (skips ++n)",
		w.logical(program.OpAndThen, w.logical(program.OpOrElse, w.push(yes), incN), nIs(0)))
	w.check("!(#f && ++n) (skips ++n)",
		w.logical(program.OpAndThen, w.not(w.logical(program.OpAndThen, w.push(no), incN)), nIs(0)))
	w.check("#f || ++n (evaluates ++n)",
		w.logical(program.OpAndThen, w.logical(program.OpOrElse, w.push(no), incN), nIs(1)))
	w.check("#t && ++n (evaluates ++n)",
		w.logical(program.OpAndThen, w.logical(program.OpAndThen, w.push(yes), incN), nIs(2)))

	b.Emit(program.OpReturn, 0)
	return Script{Name: "basic_tests", Module: b.MustBuild(main), Calls: w.calls}
}
