package program

import (
	"fmt"

	"github.com/makiscript/gomaki/pkg/maki/value"
)

// Opcode is the canonical instruction set every dialect decodes into.
// Dialect opcode numbers never appear in a Module.
type Opcode uint8

const (
	OpNop         Opcode = iota // 00 - No operation.
	OpPush                      // 01 - Push constant. A: constant index.
	OpPop                       // 02 - Drop the top of the stack.
	OpDup                       // 03 - Duplicate the top of the stack.
	OpLoadLocal                 // 04 - Push local slot. A: slot.
	OpStoreLocal                // 05 - Pop into local slot. A: slot.
	OpLoadGlobal                // 06 - Push global. A: global index.
	OpStoreGlobal               // 07 - Pop into global. A: global index.
	OpAdd                       // 08
	OpSub                       // 09
	OpMul                       // 10
	OpDiv                       // 11
	OpMod                       // 12
	OpBitAnd                    // 13
	OpBitOr                     // 14
	OpShl                       // 15
	OpShr                       // 16
	OpNeg                       // 17 - Unary minus.
	OpNot                       // 18 - Logical not.
	OpEq                        // 19
	OpNe                        // 20
	OpLt                        // 21
	OpLe                        // 22
	OpGt                        // 23
	OpGe                        // 24
	OpJump                      // 25 - A: target instruction.
	OpJumpIfFalse               // 26 - Pop, jump if falsy. A: target.
	OpJumpIfTrue                // 27 - Pop, jump if truthy. A: target.
	OpAndThen                   // 28 - Pop, if falsy push false and jump. A: target.
	OpOrElse                    // 29 - Pop, if truthy push true and jump. A: target.
	OpToBool                    // 30 - Replace the top of the stack with its truthiness.
	OpCast                      // 31 - Convert the top of the stack. A: value.Kind.
	OpPreInc                    // 32 - A: slot, B: scope.
	OpPostInc                   // 33 - A: slot, B: scope.
	OpPreDec                    // 34 - A: slot, B: scope.
	OpPostDec                   // 35 - A: slot, B: scope.
	OpCall                      // 36 - Call user function. A: function index.
	OpCallNative                // 37 - A: native index, B: recorded argument count or UnknownArgc.
	OpReturn                    // 38 - A: 1 if a value is returned.
	OpHalt                      // 39 - Stop the run.
	opcodeCount
)

// Scope selects the storage an increment or decrement instruction updates.
const (
	ScopeLocal  = 0
	ScopeGlobal = 1
)

// Operand describes how the operands of an instruction are interpreted.
type Operand uint8

const (
	OperandNone     Operand = iota
	OperandConstant         // A: constant index.
	OperandLocal            // A: local slot of the enclosing function.
	OperandGlobal           // A: global index.
	OperandTarget           // A: instruction index.
	OperandFunction         // A: function index.
	OperandNative           // A: native index, B: argument count.
	OperandKind             // A: value kind.
	OperandSlot             // A: slot, B: scope.
	OperandFlag             // A: 0 or 1.
)

type opcodeInfo struct {
	name    string
	operand Operand
}

var opcodes = [opcodeCount]opcodeInfo{
	OpNop:         {"NOP", OperandNone},
	OpPush:        {"PUSH", OperandConstant},
	OpPop:         {"POP", OperandNone},
	OpDup:         {"DUP", OperandNone},
	OpLoadLocal:   {"LOAD_LOCAL", OperandLocal},
	OpStoreLocal:  {"STORE_LOCAL", OperandLocal},
	OpLoadGlobal:  {"LOAD_GLOBAL", OperandGlobal},
	OpStoreGlobal: {"STORE_GLOBAL", OperandGlobal},
	OpAdd:         {"ADD", OperandNone},
	OpSub:         {"SUB", OperandNone},
	OpMul:         {"MUL", OperandNone},
	OpDiv:         {"DIV", OperandNone},
	OpMod:         {"MOD", OperandNone},
	OpBitAnd:      {"BIT_AND", OperandNone},
	OpBitOr:       {"BIT_OR", OperandNone},
	OpShl:         {"SHL", OperandNone},
	OpShr:         {"SHR", OperandNone},
	OpNeg:         {"NEG", OperandNone},
	OpNot:         {"NOT", OperandNone},
	OpEq:          {"EQ", OperandNone},
	OpNe:          {"NE", OperandNone},
	OpLt:          {"LT", OperandNone},
	OpLe:          {"LE", OperandNone},
	OpGt:          {"GT", OperandNone},
	OpGe:          {"GE", OperandNone},
	OpJump:        {"JUMP", OperandTarget},
	OpJumpIfFalse: {"JUMP_IF_FALSE", OperandTarget},
	OpJumpIfTrue:  {"JUMP_IF_TRUE", OperandTarget},
	OpAndThen:     {"AND_THEN", OperandTarget},
	OpOrElse:      {"OR_ELSE", OperandTarget},
	OpToBool:      {"TO_BOOL", OperandNone},
	OpCast:        {"CAST", OperandKind},
	OpPreInc:      {"PRE_INC", OperandSlot},
	OpPostInc:     {"POST_INC", OperandSlot},
	OpPreDec:      {"PRE_DEC", OperandSlot},
	OpPostDec:     {"POST_DEC", OperandSlot},
	OpCall:        {"CALL", OperandFunction},
	OpCallNative:  {"CALL_NATIVE", OperandNative},
	OpReturn:      {"RETURN", OperandFlag},
	OpHalt:        {"HALT", OperandNone},
}

var binaryOps = map[Opcode]value.BinaryOp{
	OpAdd:    value.OpAdd,
	OpSub:    value.OpSub,
	OpMul:    value.OpMul,
	OpDiv:    value.OpDiv,
	OpMod:    value.OpMod,
	OpBitAnd: value.OpBitAnd,
	OpBitOr:  value.OpBitOr,
	OpShl:    value.OpShl,
	OpShr:    value.OpShr,
	OpEq:     value.OpEq,
	OpNe:     value.OpNe,
	OpLt:     value.OpLt,
	OpLe:     value.OpLe,
	OpGt:     value.OpGt,
	OpGe:     value.OpGe,
}

// Valid reports whether op belongs to the canonical instruction set.
func (op Opcode) Valid() bool {
	return op < opcodeCount
}

func (op Opcode) String() string {
	if op.Valid() {
		return opcodes[op].name
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", uint8(op))
}

// Operand returns the operand layout of op.
func (op Opcode) Operand() Operand {
	if op.Valid() {
		return opcodes[op].operand
	}
	return OperandNone
}

// IsJump reports whether the A operand of op is an instruction index.
func (op Opcode) IsJump() bool {
	return op.Operand() == OperandTarget
}

// BinaryOp maps an arithmetic, bitwise or comparison instruction to its value operator.
func (op Opcode) BinaryOp() (value.BinaryOp, bool) {
	b, ok := binaryOps[op]
	return b, ok
}

// Opcodes lists the canonical instruction set in numeric order.
func Opcodes() []Opcode {
	r := make([]Opcode, opcodeCount)
	for i := range r {
		r[i] = Opcode(i)
	}
	return r
}
