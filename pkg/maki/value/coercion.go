package value

import (
	"math"
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/makiscript/gomaki/pkg/errs"
)

// BinaryOp enumerates the binary operators of the VM.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	binaryOpCount
)

var binaryOpSymbols = [binaryOpCount]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpBitAnd: "&", OpBitOr: "|", OpShl: "<<", OpShr: ">>",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
}

func (op BinaryOp) String() string {
	if op < binaryOpCount {
		return binaryOpSymbols[op]
	}
	return "?"
}

// numeric is the representation both operands are brought to before an operator runs.
type numeric uint8

const (
	numNone numeric = iota
	numInt
	numDouble
)

// promotion is the coercion matrix shared by arithmetic, bitwise and relational operators.
// Boolean behaves as Int32 0/1, any Double operand widens the pair to Double.
// Relational operators only use it to tell numeric pairs apart.
var promotion = [kindCount][kindCount]numeric{
	KindInt32: {
		KindInt32:   numInt,
		KindDouble:  numDouble,
		KindBoolean: numInt,
	},
	KindDouble: {
		KindInt32:   numDouble,
		KindDouble:  numDouble,
		KindBoolean: numDouble,
	},
	KindBoolean: {
		KindInt32:   numInt,
		KindDouble:  numDouble,
		KindBoolean: numInt,
	},
}

// equality decides how == and != treat a pair of kinds. Int32 and Double are never
// coerced into each other: values of different numeric kinds are simply not equal.
type equality uint8

const (
	eqNever equality = iota
	eqInt
	eqDouble
	eqString
	eqObject
	eqNull
)

var equalityRules = [kindCount][kindCount]equality{
	KindNull: {
		KindNull: eqNull,
	},
	KindInt32: {
		KindInt32:   eqInt,
		KindBoolean: eqInt,
	},
	KindDouble: {
		KindDouble: eqDouble,
	},
	KindBoolean: {
		KindInt32:   eqInt,
		KindBoolean: eqInt,
	},
	KindString: {
		KindString: eqString,
	},
	KindObject: {
		KindObject: eqObject,
	},
}

type binaryFunc func(op BinaryOp, a, b Value) (Value, error)

var binaryTable = [binaryOpCount]binaryFunc{
	OpAdd:    add,
	OpSub:    arithmetic,
	OpMul:    arithmetic,
	OpDiv:    divide,
	OpMod:    modulo,
	OpBitAnd: bitwise,
	OpBitOr:  bitwise,
	OpShl:    bitwise,
	OpShr:    bitwise,
	OpEq:     equal,
	OpNe:     equal,
	OpLt:     relational,
	OpLe:     relational,
	OpGt:     relational,
	OpGe:     relational,
}

// Binary applies op to a and b following the coercion tables.
func Binary(op BinaryOp, a, b Value) (Value, error) {
	if op >= binaryOpCount {
		return Null(), errs.TypeMismatch.Errorf("unknown binary operator %d", op)
	}
	return binaryTable[op](op, a, b)
}

// Eq is the script's == operator.
func Eq(a, b Value) bool {
	switch equalityRules[a.kind][b.kind] {
	case eqInt:
		return a.i == b.i
	case eqDouble:
		return a.f == b.f
	case eqString:
		return a.s == b.s
	case eqObject:
		return a.h == b.h
	case eqNull:
		return true
	default:
		return false
	}
}

func classify(a, b Value) numeric {
	if !a.kind.Valid() || !b.kind.Valid() {
		return numNone
	}
	return promotion[a.kind][b.kind]
}

func mismatch(op BinaryOp, a, b Value) error {
	return errs.TypeMismatch.Errorf("operator %s is not defined for %s and %s", op, a.kind, b.kind)
}

// asInt64 reads an Int32 or Boolean payload.
func asInt64(v Value) int64 {
	if v.kind == KindDouble {
		return int64(truncate(v.f))
	}
	return int64(v.i)
}

func asFloat(v Value) float64 {
	if v.kind == KindDouble {
		return v.f
	}
	return float64(v.i)
}

// truncate converts toward zero, saturating at the Int32 range.
func truncate(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(f)
	}
}

func fitsInt32(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

func apply[T constraints.Integer | constraints.Float](op BinaryOp, a, b T) T {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	default:
		panic("unsupported arithmetic operator " + op.String())
	}
}

func compare[T constraints.Ordered](op BinaryOp, a, b T) bool {
	switch op {
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	default:
		panic("unsupported relational operator " + op.String())
	}
}

func add(op BinaryOp, a, b Value) (Value, error) {
	if a.kind == KindString || b.kind == KindString {
		return String(Stringify(a) + Stringify(b)), nil
	}
	return arithmetic(op, a, b)
}

func arithmetic(op BinaryOp, a, b Value) (Value, error) {
	switch classify(a, b) {
	case numInt:
		return Int32(apply(op, int32(asInt64(a)), int32(asInt64(b)))), nil
	case numDouble:
		return Double(apply(op, asFloat(a), asFloat(b))), nil
	default:
		return Null(), mismatch(op, a, b)
	}
}

func divide(op BinaryOp, a, b Value) (Value, error) {
	switch classify(a, b) {
	case numInt:
		x, y := asInt64(a), asInt64(b)
		if y == 0 {
			return Null(), errs.ArithmeticError.New("division by zero")
		}
		if q := x / y; x%y == 0 && fitsInt32(q) {
			return Int32(int32(q)), nil
		}
		return Double(float64(x) / float64(y)), nil
	case numDouble:
		y := asFloat(b)
		if y == 0 {
			return Null(), errs.ArithmeticError.New("division by zero")
		}
		return Double(asFloat(a) / y), nil
	default:
		return Null(), mismatch(op, a, b)
	}
}

func modulo(op BinaryOp, a, b Value) (Value, error) {
	if classify(a, b) == numNone {
		return Null(), mismatch(op, a, b)
	}
	x, y := asInt64(a), asInt64(b)
	if y == 0 {
		return Null(), errs.ArithmeticError.New("modulo by zero")
	}
	return Int32(int32(x % y)), nil
}

func bitwise(op BinaryOp, a, b Value) (Value, error) {
	if classify(a, b) == numNone {
		return Null(), mismatch(op, a, b)
	}
	x, y := int32(asInt64(a)), int32(asInt64(b))
	switch op {
	case OpBitAnd:
		return Int32(x & y), nil
	case OpBitOr:
		return Int32(x | y), nil
	case OpShl:
		return Int32(x << (uint32(y) & 31)), nil
	default:
		return Int32(x >> (uint32(y) & 31)), nil
	}
}

// relational converts the right operand to the numeric kind of the left one:
// [int] 4 < [float] 4.4 compares 4 with 4, [float] 4.4 > [int] 4 compares 4.4 with 4.0.
func relational(op BinaryOp, a, b Value) (Value, error) {
	if classify(a, b) != numNone {
		if a.kind == KindDouble {
			return Bool(compare(op, a.f, asFloat(b))), nil
		}
		return Bool(compare(op, asInt64(a), asInt64(b))), nil
	}
	if a.kind == KindString && b.kind == KindString {
		return Bool(compare(op, strings.Compare(a.s, b.s), 0)), nil
	}
	return Null(), mismatch(op, a, b)
}

func equal(op BinaryOp, a, b Value) (Value, error) {
	eq := Eq(a, b)
	if op == OpNe {
		return Bool(!eq), nil
	}
	return Bool(eq), nil
}

// Not is the script's ! operator.
func Not(v Value) Value {
	return Bool(!Truthy(v))
}

// Negate is the unary minus. Booleans negate as Int32 0/1.
func Negate(v Value) (Value, error) {
	switch v.kind {
	case KindInt32, KindBoolean:
		return Int32(-v.i), nil
	case KindDouble:
		return Double(-v.f), nil
	default:
		return Null(), errs.TypeMismatch.Errorf("unary - is not defined for %s", v.kind)
	}
}

// Step adds delta to a numeric storage value for ++ and --.
// Int32 and Double keep their kind, Boolean storage becomes Int32.
func Step(v Value, delta int32) (Value, error) {
	switch v.kind {
	case KindInt32, KindBoolean:
		return Int32(v.i + delta), nil
	case KindDouble:
		return Double(v.f + float64(delta)), nil
	default:
		return Null(), errs.TypeMismatch.Errorf("cannot increment or decrement %s", v.kind)
	}
}
