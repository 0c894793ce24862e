package serialization

import (
	"github.com/ccoveille/go-safecast"
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/makiscript/gomaki/pkg/libs/serializer"
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// Serialize encodes a canonical module in the given dialect.
func Serialize(m *program.Module, d program.Dialect) ([]byte, error) {
	var newEncoder func(w *serializer.Serializer) *encoder
	switch d {
	case program.DialectV1:
		newEncoder = newSerializerV1
	case program.DialectV2:
		newEncoder = newSerializerV2
	case program.DialectV3:
		newEncoder = newSerializerV3
	case program.DialectV4:
		newEncoder = newSerializerV4
	default:
		return nil, errors.Errorf("no encoder for dialect %s", d)
	}
	if err := program.Validate(m); err != nil {
		return nil, errors.Wrap(err, "refusing to serialize invalid module")
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	e := newEncoder(serializer.New(buf))
	if err := e.serialize(m); err != nil {
		return nil, errors.Wrapf(err, "failed to serialize module as %s", d)
	}
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

// Convert re-encodes a module in another dialect.
func Convert(data []byte, d program.Dialect) ([]byte, error) {
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Serialize(m, d)
}

type encoder struct {
	w         *serializer.Serializer
	dialect   program.Dialect
	opcodes   *opcodeTable
	order     []section
	ordinals  bool
	indexSize int // width of index operands in bytes for fixed width dialects

	writePreamble func(e *encoder) error
	writeIndex    func(e *encoder, v int) error
	writeSmall    func(e *encoder, v int) error
	writeInt      func(e *encoder, v int32) error
	writeString   func(e *encoder, s string) error
	writeNative   func(e *encoder, m *program.Module, i int) error
	writeTarget   func(e *encoder, target, end int) error
	writeCallArgc func(e *encoder, argc int) error
	writeCode     func(e *encoder, m *program.Module, positions []int) error
}

func newEncoder(w *serializer.Serializer, dialect program.Dialect, opcodes *opcodeTable, order []section) *encoder {
	return &encoder{w: w, dialect: dialect, opcodes: opcodes, order: order}
}

func (e *encoder) serialize(m *program.Module) error {
	if _, err := e.w.Write([]byte(program.Magic)); err != nil {
		return err
	}
	if err := e.w.Uint16(e.dialect.Marker()); err != nil {
		return err
	}
	if e.writePreamble != nil {
		if err := e.writePreamble(e); err != nil {
			return err
		}
	}
	positions, err := e.positions(m)
	if err != nil {
		return err
	}
	for _, s := range e.order {
		switch s {
		case sectionNatives:
			err = e.writeNatives(m)
		case sectionGlobals:
			err = e.writeGlobals(m)
		case sectionConstants:
			err = e.writeConstants(m)
		case sectionFunctions:
			err = e.writeFunctions(m, positions)
		}
		if err != nil {
			return err
		}
	}
	if err := e.writeIndex(e, m.Entry); err != nil {
		return err
	}
	return e.writeCode(e, m, positions)
}

// positions maps every instruction, and the end of the code, to the value jumps and entries refer to it by.
func (e *encoder) positions(m *program.Module) ([]int, error) {
	positions := make([]int, len(m.Code)+1)
	pos := 0
	for i, ins := range m.Code {
		positions[i] = pos
		if e.ordinals {
			pos++
			continue
		}
		size, err := e.sizeOf(ins)
		if err != nil {
			return nil, err
		}
		pos += size
	}
	positions[len(m.Code)] = pos
	return positions, nil
}

func (e *encoder) sizeOf(ins program.Instruction) (int, error) {
	size := 1
	switch ins.Op.Operand() {
	case program.OperandNone:
	case program.OperandConstant, program.OperandLocal, program.OperandGlobal, program.OperandFunction, program.OperandTarget:
		size += e.indexSize
	case program.OperandNative:
		size += e.indexSize
		if e.writeCallArgc != nil {
			size++
		}
	case program.OperandKind, program.OperandFlag:
		size++
	case program.OperandSlot:
		size += e.indexSize + 1
	default:
		return 0, errors.Errorf("unknown opcode %d", uint8(ins.Op))
	}
	return size, nil
}

func (e *encoder) writeNatives(m *program.Module) error {
	if err := e.writeIndex(e, len(m.Natives)); err != nil {
		return err
	}
	for i := range m.Natives {
		if err := e.writeNative(e, m, i); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) writeGlobals(m *program.Module) error {
	if err := e.writeIndex(e, len(m.Globals)); err != nil {
		return err
	}
	for _, g := range m.Globals {
		if err := e.writeString(e, g.Name); err != nil {
			return err
		}
		if err := e.writeValue(g.Init); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) writeConstants(m *program.Module) error {
	if err := e.writeIndex(e, len(m.Constants)); err != nil {
		return err
	}
	for _, c := range m.Constants {
		if err := e.writeValue(c); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) writeFunctions(m *program.Module, positions []int) error {
	if err := e.writeIndex(e, len(m.Functions)); err != nil {
		return err
	}
	for _, f := range m.Functions {
		if f.Entry < 0 || f.Entry >= len(m.Code) {
			return errors.Errorf("function %s entry %d outside the code", f.Name, f.Entry)
		}
		if err := e.writeString(e, f.Name); err != nil {
			return err
		}
		if err := e.writeIndex(e, positions[f.Entry]); err != nil {
			return err
		}
		if err := e.writeIndex(e, f.Params); err != nil {
			return err
		}
		if err := e.writeIndex(e, f.Locals); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) writeValue(v value.Value) error {
	if err := e.w.Byte(byte(v.Kind())); err != nil {
		return err
	}
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindInt32:
		i, _ := v.AsInt32()
		return e.writeInt(e, i)
	case value.KindDouble:
		f, _ := v.AsDouble()
		return e.w.Float64(f)
	case value.KindBoolean:
		b, _ := v.AsBool()
		return e.w.Bool(b)
	case value.KindString:
		s, _ := v.AsString()
		return e.writeString(e, s)
	case value.KindObject:
		h, _ := v.AsObject()
		return e.writeIndex(e, int(h))
	default:
		return errors.Errorf("unsupported value kind %s", v.Kind())
	}
}

func (e *encoder) writeInstructions(m *program.Module, positions []int) error {
	for i, ins := range m.Code {
		b, ok := e.opcodes.byteOf(ins.Op)
		if !ok {
			return errors.Errorf("instruction %d: opcode %s has no %s encoding", i, ins.Op, e.dialect)
		}
		if err := e.w.Byte(b); err != nil {
			return err
		}
		if err := e.writeOperands(m, ins, positions, i); err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
	}
	return nil
}

func (e *encoder) writeOperands(m *program.Module, ins program.Instruction, positions []int, i int) error {
	switch ins.Op.Operand() {
	case program.OperandNone:
		return nil
	case program.OperandConstant, program.OperandLocal, program.OperandGlobal, program.OperandFunction:
		return e.writeIndex(e, ins.A)
	case program.OperandTarget:
		if ins.A < 0 || ins.A >= len(m.Code) {
			return errors.Errorf("jump target %d outside the code", ins.A)
		}
		return e.writeTarget(e, positions[ins.A], positions[i+1])
	case program.OperandNative:
		if err := e.writeIndex(e, ins.A); err != nil {
			return err
		}
		if e.writeCallArgc == nil {
			return nil
		}
		return e.writeCallArgc(e, m.Arity(ins))
	case program.OperandKind, program.OperandFlag:
		return e.writeSmall(e, ins.A)
	case program.OperandSlot:
		if err := e.writeIndex(e, ins.A); err != nil {
			return err
		}
		return e.writeSmall(e, ins.B)
	default:
		return errors.Errorf("unknown opcode %d", uint8(ins.Op))
	}
}

// nativeArity is the argument count of native i: the recorded one or, failing that, the one of its first call.
func nativeArity(m *program.Module, i int) int {
	if m.Natives[i].Argc != program.UnknownArgc {
		return m.Natives[i].Argc
	}
	for _, ins := range m.Code {
		if ins.Op == program.OpCallNative && ins.A == i && ins.B != program.UnknownArgc {
			return ins.B
		}
	}
	return program.UnknownArgc
}

func toUint32(v int) (uint32, error) {
	u, err := safecast.ToUint32(v)
	if err != nil {
		return 0, errors.Wrapf(err, "value %d does not fit u32", v)
	}
	return u, nil
}
