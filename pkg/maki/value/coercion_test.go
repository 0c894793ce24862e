package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makiscript/gomaki/pkg/errs"
)

var numericSamples = []Value{
	Int32(0), Int32(1), Int32(-2), Int32(3), Int32(4), Int32(7),
	Double(0), Double(0.25), Double(1.5), Double(4.4), Double(-2.5), Double(4),
	Bool(true), Bool(false),
}

func widen(v Value) float64 {
	if v.kind == KindDouble {
		return v.f
	}
	return float64(v.i)
}

func anyDouble(a, b Value) bool {
	return a.kind == KindDouble || b.kind == KindDouble
}

func TestArithmeticMatrix(t *testing.T) {
	for _, op := range []BinaryOp{OpAdd, OpSub, OpMul} {
		for _, a := range numericSamples {
			for _, b := range numericSamples {
				r, err := Binary(op, a, b)
				require.NoError(t, err, "%s %s %s", a, op, b)
				x, y := widen(a), widen(b)
				var exp float64
				switch op {
				case OpAdd:
					exp = x + y
				case OpSub:
					exp = x - y
				default:
					exp = x * y
				}
				if anyDouble(a, b) {
					require.Equal(t, KindDouble, r.Kind(), "%s %s %s", a, op, b)
					assert.InDelta(t, exp, r.f, 1e-9, "%s %s %s", a, op, b)
				} else {
					require.Equal(t, KindInt32, r.Kind(), "%s %s %s", a, op, b)
					assert.EqualValues(t, exp, r.i, "%s %s %s", a, op, b)
				}
			}
		}
	}
}

func TestDivisionMatrix(t *testing.T) {
	for _, a := range numericSamples {
		for _, b := range numericSamples {
			r, err := Binary(OpDiv, a, b)
			x, y := widen(a), widen(b)
			if y == 0 {
				require.Error(t, err, "%s / %s", a, b)
				assert.Equal(t, errs.ArithmeticError, errs.KindOf(err))
				continue
			}
			require.NoError(t, err, "%s / %s", a, b)
			q := x / y
			if !anyDouble(a, b) && q == math.Trunc(q) {
				require.Equal(t, KindInt32, r.Kind(), "%s / %s", a, b)
				assert.EqualValues(t, q, r.i)
				continue
			}
			require.Equal(t, KindDouble, r.Kind(), "%s / %s", a, b)
			assert.InDelta(t, q, r.f, 1e-9, "%s / %s", a, b)
		}
	}
}

func TestModuloMatrix(t *testing.T) {
	for _, a := range numericSamples {
		for _, b := range numericSamples {
			r, err := Binary(OpMod, a, b)
			x, y := int32(widen(a)), int32(widen(b))
			if y == 0 {
				require.Error(t, err, "%s %% %s", a, b)
				assert.Equal(t, errs.ArithmeticError, errs.KindOf(err))
				continue
			}
			require.NoError(t, err, "%s %% %s", a, b)
			require.Equal(t, KindInt32, r.Kind())
			assert.Equal(t, x%y, r.i, "%s %% %s", a, b)
		}
	}
}

func TestBitwiseMatrix(t *testing.T) {
	for _, op := range []BinaryOp{OpBitAnd, OpBitOr, OpShl, OpShr} {
		for _, a := range numericSamples {
			for _, b := range numericSamples {
				r, err := Binary(op, a, b)
				require.NoError(t, err, "%s %s %s", a, op, b)
				require.Equal(t, KindInt32, r.Kind(), "%s %s %s", a, op, b)
				x, y := int32(widen(a)), int32(widen(b))
				var exp int32
				switch op {
				case OpBitAnd:
					exp = x & y
				case OpBitOr:
					exp = x | y
				case OpShl:
					exp = x << (uint32(y) & 31)
				default:
					exp = x >> (uint32(y) & 31)
				}
				assert.Equal(t, exp, r.i, "%s %s %s", a, op, b)
			}
		}
	}
}

func TestRelationalMatrix(t *testing.T) {
	for _, op := range []BinaryOp{OpLt, OpLe, OpGt, OpGe} {
		for _, a := range numericSamples {
			for _, b := range numericSamples {
				r, err := Binary(op, a, b)
				require.NoError(t, err, "%s %s %s", a, op, b)
				require.Equal(t, KindBoolean, r.Kind())
				// The right operand takes the numeric kind of the left one.
				x, y := widen(a), widen(b)
				if a.kind != KindDouble {
					y = float64(truncate(y))
				}
				var exp bool
				switch op {
				case OpLt:
					exp = x < y
				case OpLe:
					exp = x <= y
				case OpGt:
					exp = x > y
				default:
					exp = x >= y
				}
				got, _ := r.AsBool()
				assert.Equal(t, exp, got, "%s %s %s", a, op, b)
			}
		}
	}
}

func TestEqualityMatrix(t *testing.T) {
	for _, a := range numericSamples {
		for _, b := range numericSamples {
			eq, err := Binary(OpEq, a, b)
			require.NoError(t, err)
			ne, err := Binary(OpNe, a, b)
			require.NoError(t, err)
			e, _ := eq.AsBool()
			n, _ := ne.AsBool()
			assert.NotEqual(t, e, n, "%s == %s", a, b)

			mixed := (a.kind == KindDouble) != (b.kind == KindDouble)
			switch {
			case mixed:
				assert.False(t, e, "%s == %s must not coerce", a, b)
			default:
				assert.Equal(t, widen(a) == widen(b), e, "%s == %s", a, b)
			}
		}
	}
}

func TestOperatorScenarios(t *testing.T) {
	for i, test := range []struct {
		op   BinaryOp
		a, b Value
		exp  Value
	}{
		{OpAdd, Int32(2), Int32(2), Int32(4)},
		{OpAdd, Double(2.2), Double(2.2), Double(4.4)},
		{OpAdd, Bool(true), Bool(true), Int32(2)},
		{OpAdd, Int32(2), Bool(true), Int32(3)},
		{OpSub, Double(4.4), Int32(2), Double(2.4000000000000004)},
		{OpMul, Int32(2), Double(1.5), Double(3)},
		{OpDiv, Int32(3), Int32(2), Double(1.5)},
		{OpDiv, Int32(6), Int32(2), Int32(3)},
		{OpDiv, Double(4.4), Int32(2), Double(2.2)},
		{OpMod, Double(5.5), Int32(2), Int32(1)},
		{OpMod, Int32(-7), Int32(2), Int32(-1)},
		{OpBitAnd, Int32(12), Int32(10), Int32(8)},
		{OpBitOr, Int32(12), Int32(10), Int32(14)},
		{OpShl, Int32(1), Int32(33), Int32(2)},
		{OpShr, Int32(-8), Int32(1), Int32(-4)},
		{OpLt, Int32(4), Double(4.4), Bool(false)},
		{OpLe, Int32(4), Double(4.4), Bool(true)},
		{OpGe, Int32(4), Double(4.4), Bool(true)},
		{OpGt, Int32(4), Double(4.4), Bool(false)},
		{OpLt, Double(4.4), Int32(4), Bool(false)},
		{OpLe, Double(4.4), Int32(4), Bool(false)},
		{OpGe, Double(4.4), Int32(4), Bool(true)},
		{OpGt, Double(4.4), Int32(4), Bool(true)},
		{OpLt, Int32(-3), Double(-2.5), Bool(true)},
		{OpGt, Bool(true), Double(0.5), Bool(true)},
		{OpLe, Bool(true), Int32(1), Bool(true)},
		{OpEq, Int32(4), Double(4), Bool(false)},
		{OpNe, Int32(4), Double(4), Bool(true)},
		{OpEq, Bool(true), Int32(1), Bool(true)},
		{OpEq, Bool(true), Double(1), Bool(false)},
		{OpEq, String("a"), String("a"), Bool(true)},
		{OpEq, String("1"), Int32(1), Bool(false)},
		{OpEq, Null(), Null(), Bool(true)},
		{OpEq, Object(3), Object(3), Bool(true)},
		{OpEq, Object(3), Null(), Bool(false)},
		{OpLt, String("abc"), String("abd"), Bool(true)},
		{OpGe, String("b"), String("a"), Bool(true)},
		{OpAdd, String("2 + 2 = "), Int32(4), String("2 + 2 = 4")},
		{OpAdd, Double(2.5), String("x"), String("2.5x")},
		{OpAdd, String("b="), Bool(true), String("b=1")},
		{OpAdd, String("n="), Null(), String("n=")},
	} {
		got, err := Binary(test.op, test.a, test.b)
		require.NoError(t, err, "#%d", i+1)
		assert.True(t, test.exp.Equal(got), "#%d: %s %s %s: expected %s, got %s",
			i+1, test.a, test.op, test.b, test.exp, got)
	}
}

func TestOperatorMismatches(t *testing.T) {
	for i, test := range []struct {
		op   BinaryOp
		a, b Value
	}{
		{OpSub, String("a"), Int32(1)},
		{OpMul, Null(), Int32(1)},
		{OpDiv, Object(1), Int32(1)},
		{OpMod, String("4"), Int32(2)},
		{OpBitAnd, Int32(1), String("1")},
		{OpLt, String("a"), Int32(1)},
		{OpGe, Null(), Null()},
		{BinaryOp(200), Int32(1), Int32(1)},
	} {
		_, err := Binary(test.op, test.a, test.b)
		require.Error(t, err, "#%d", i+1)
		assert.ErrorIs(t, err, errs.TypeMismatch, "#%d", i+1)
	}
}

func TestUnary(t *testing.T) {
	v, err := Negate(Int32(5))
	require.NoError(t, err)
	assert.True(t, Int32(-5).Equal(v))
	v, err = Negate(Double(2.5))
	require.NoError(t, err)
	assert.True(t, Double(-2.5).Equal(v))
	v, err = Negate(Bool(true))
	require.NoError(t, err)
	assert.True(t, Int32(-1).Equal(v))
	_, err = Negate(String("x"))
	assert.ErrorIs(t, err, errs.TypeMismatch)

	assert.True(t, Bool(true).Equal(Not(Int32(0))))
	assert.True(t, Bool(false).Equal(Not(Double(0.5))))

	v, err = Step(Int32(1), 1)
	require.NoError(t, err)
	assert.True(t, Int32(2).Equal(v))
	v, err = Step(Double(1.5), -1)
	require.NoError(t, err)
	assert.True(t, Double(0.5).Equal(v))
	v, err = Step(Bool(true), 1)
	require.NoError(t, err)
	assert.True(t, Int32(2).Equal(v))
	_, err = Step(Null(), 1)
	assert.ErrorIs(t, err, errs.TypeMismatch)
}
