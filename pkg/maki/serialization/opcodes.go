package serialization

import (
	"fmt"

	"github.com/makiscript/gomaki/pkg/maki/program"
)

// opcodeTable translates between dialect opcode bytes and the canonical instruction set.
type opcodeTable struct {
	decode [256]program.Opcode
	known  [256]bool
	encode map[program.Opcode]byte
}

func newOpcodeTable(m map[program.Opcode]byte) *opcodeTable {
	t := &opcodeTable{encode: make(map[program.Opcode]byte, len(m))}
	for op, b := range m {
		if t.known[b] {
			panic(fmt.Sprintf("opcode byte 0x%02x is assigned twice", b))
		}
		t.decode[b] = op
		t.known[b] = true
		t.encode[op] = b
	}
	for _, op := range program.Opcodes() {
		if _, ok := t.encode[op]; !ok {
			panic(fmt.Sprintf("opcode %s has no encoding", op))
		}
	}
	return t
}

func (t *opcodeTable) canonical(b byte) (program.Opcode, bool) {
	return t.decode[b], t.known[b]
}

func (t *opcodeTable) byteOf(op program.Opcode) (byte, bool) {
	b, ok := t.encode[op]
	return b, ok
}

// Opcode numbering of the 1.1.x compilers.
var legacyOpcodes = map[program.Opcode]byte{
	program.OpNop:         0x00,
	program.OpPush:        0x01,
	program.OpPop:         0x02,
	program.OpStoreGlobal: 0x03,
	program.OpDup:         0x04,
	program.OpLoadLocal:   0x05,
	program.OpStoreLocal:  0x06,
	program.OpLoadGlobal:  0x07,
	program.OpEq:          0x08,
	program.OpNe:          0x09,
	program.OpGt:          0x0a,
	program.OpGe:          0x0b,
	program.OpLt:          0x0c,
	program.OpLe:          0x0d,
	program.OpJumpIfTrue:  0x10,
	program.OpJumpIfFalse: 0x11,
	program.OpJump:        0x12,
	program.OpCallNative:  0x18,
	program.OpCall:        0x19,
	program.OpReturn:      0x21,
	program.OpHalt:        0x28,
	program.OpPostInc:     0x38,
	program.OpPostDec:     0x39,
	program.OpPreInc:      0x3a,
	program.OpPreDec:      0x3b,
	program.OpAdd:         0x40,
	program.OpSub:         0x41,
	program.OpMul:         0x42,
	program.OpDiv:         0x43,
	program.OpMod:         0x44,
	program.OpBitAnd:      0x48,
	program.OpBitOr:       0x49,
	program.OpNot:         0x4a,
	program.OpNeg:         0x4c,
	program.OpAndThen:     0x50,
	program.OpOrElse:      0x51,
	program.OpShl:         0x58,
	program.OpShr:         0x59,
	program.OpToBool:      0x68,
	program.OpCast:        0x69,
}

// 1.1.13 moved native calls to the opcode that carries the argument count.
func v3Opcodes() map[program.Opcode]byte {
	m := make(map[program.Opcode]byte, len(legacyOpcodes))
	for op, b := range legacyOpcodes {
		m[op] = b
	}
	m[program.OpCallNative] = 0x70
	return m
}

// Opcode numbering of the 1.2.0 compiler, grouped by operand layout.
var v4Opcodes = map[program.Opcode]byte{
	program.OpNop:         0x00,
	program.OpPop:         0x01,
	program.OpDup:         0x02,
	program.OpToBool:      0x03,
	program.OpNeg:         0x04,
	program.OpNot:         0x05,
	program.OpAdd:         0x06,
	program.OpSub:         0x07,
	program.OpMul:         0x08,
	program.OpDiv:         0x09,
	program.OpMod:         0x0a,
	program.OpBitAnd:      0x0b,
	program.OpBitOr:       0x0c,
	program.OpShl:         0x0d,
	program.OpShr:         0x0e,
	program.OpEq:          0x0f,
	program.OpNe:          0x10,
	program.OpLt:          0x11,
	program.OpLe:          0x12,
	program.OpGt:          0x13,
	program.OpGe:          0x14,
	program.OpPush:        0x20,
	program.OpLoadLocal:   0x21,
	program.OpStoreLocal:  0x22,
	program.OpLoadGlobal:  0x23,
	program.OpStoreGlobal: 0x24,
	program.OpPreInc:      0x25,
	program.OpPostInc:     0x26,
	program.OpPreDec:      0x27,
	program.OpPostDec:     0x28,
	program.OpCast:        0x29,
	program.OpJump:        0x30,
	program.OpJumpIfFalse: 0x31,
	program.OpJumpIfTrue:  0x32,
	program.OpAndThen:     0x33,
	program.OpOrElse:      0x34,
	program.OpCall:        0x40,
	program.OpCallNative:  0x41,
	program.OpReturn:      0x42,
	program.OpHalt:        0x43,
}

var (
	opcodesV1 = newOpcodeTable(legacyOpcodes)
	opcodesV3 = newOpcodeTable(v3Opcodes())
	opcodesV4 = newOpcodeTable(v4Opcodes)
)
