package serialization

import (
	"fmt"

	"github.com/ccoveille/go-safecast"
	"github.com/pkg/errors"

	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/libs/deserializer"
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

type section uint8

const (
	sectionNatives section = iota
	sectionGlobals
	sectionConstants
	sectionFunctions
)

var (
	legacyOrder = []section{sectionNatives, sectionGlobals, sectionConstants, sectionFunctions}
	modernOrder = []section{sectionConstants, sectionGlobals, sectionNatives, sectionFunctions}
)

type decoder struct {
	dialect   program.Dialect
	newParser func(body []byte) *parser
}

func (d *decoder) Dialect() program.Dialect {
	return d.dialect
}

func (d *decoder) Decode(body []byte) (*program.Module, error) {
	m, err := d.newParser(body).parse()
	if err != nil {
		return nil, errs.Extend(err, fmt.Sprintf("failed to decode %s module", d.dialect))
	}
	return m, nil
}

// Decoders returns a decoder for every observed dialect.
func Decoders() []Decoder {
	return []Decoder{
		&decoder{dialect: program.DialectV1, newParser: newParserV1},
		&decoder{dialect: program.DialectV2, newParser: newParserV2},
		&decoder{dialect: program.DialectV3, newParser: newParserV3},
		&decoder{dialect: program.DialectV4, newParser: newParserV4},
	}
}

// NewDecoder returns the decoder of a single dialect.
func NewDecoder(d program.Dialect) (Decoder, error) {
	for _, dec := range Decoders() {
		if dec.Dialect() == d {
			return dec, nil
		}
	}
	return nil, errors.Errorf("no decoder for dialect %s", d)
}

// parser holds the layout shared by all dialects; the dialect constructors plug in the field readers.
type parser struct {
	d        *deserializer.Deserializer
	dialect  program.Dialect
	opcodes  *opcodeTable
	order    []section
	ordinals bool // jump targets and function entries are instruction ordinals, not byte positions

	readPreamble func(p *parser) error
	readIndex    func(p *parser, what string) (int, error)
	readSmall    func(p *parser, what string) (int, error)
	readInt      func(p *parser) (int32, error)
	readString   func(p *parser) (string, error)
	readNative   func(p *parser) (program.Native, error)
	readTarget   func(p *parser, codeStart int) (int, error)
	readCallArgc func(p *parser) (int, error)
	readCode     func(p *parser) ([]program.Instruction, error)
}

func newParser(body []byte, dialect program.Dialect, opcodes *opcodeTable, order []section) *parser {
	return &parser{
		d:       deserializer.NewDeserializerAt(body, program.HeaderSize),
		dialect: dialect,
		opcodes: opcodes,
		order:   order,
	}
}

// functionRecord keeps the raw entry of a function until the code section is known.
type functionRecord struct {
	offset int
	entry  int
}

func (p *parser) parse() (*program.Module, error) {
	if p.readPreamble != nil {
		if err := p.readPreamble(p); err != nil {
			return nil, err
		}
	}
	m := &program.Module{Dialect: p.dialect}
	var records []functionRecord
	for _, s := range p.order {
		var err error
		switch s {
		case sectionNatives:
			m.Natives, err = p.readNatives()
		case sectionGlobals:
			m.Globals, err = p.readGlobals()
		case sectionConstants:
			m.Constants, err = p.readConstants()
		case sectionFunctions:
			m.Functions, records, err = p.readFunctions()
		}
		if err != nil {
			return nil, err
		}
	}
	entry, err := p.readIndex(p, "entry function")
	if err != nil {
		return nil, err
	}
	m.Entry = entry
	code, err := p.readCode(p)
	if err != nil {
		return nil, err
	}
	m.Code = code
	if n := p.d.Len(); n != 0 {
		return nil, errs.Malformed(p.d.Offset(), "%d bytes of trailing data after the code section", n)
	}
	if err := p.resolve(m, records); err != nil {
		return nil, err
	}
	if err := program.Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// readCount reads a table length and rejects lengths the rest of the input cannot hold.
func (p *parser) readCount(what string) (int, error) {
	at := p.d.Offset()
	n, err := p.readIndex(p, what)
	if err != nil {
		return 0, err
	}
	if n > p.d.Len() {
		return 0, errs.Malformed(at, "%s %d exceeds the remaining %d bytes", what, n, p.d.Len())
	}
	return n, nil
}

func (p *parser) readNatives() ([]program.Native, error) {
	n, err := p.readCount("native count")
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	natives := make([]program.Native, n)
	for i := range natives {
		if natives[i], err = p.readNative(p); err != nil {
			return nil, err
		}
	}
	return natives, nil
}

func (p *parser) readGlobals() ([]program.Global, error) {
	n, err := p.readCount("global count")
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	globals := make([]program.Global, n)
	for i := range globals {
		if globals[i].Name, err = p.readString(p); err != nil {
			return nil, err
		}
		if globals[i].Init, err = p.readValue(); err != nil {
			return nil, err
		}
	}
	return globals, nil
}

func (p *parser) readConstants() ([]value.Value, error) {
	n, err := p.readCount("constant count")
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	constants := make([]value.Value, n)
	for i := range constants {
		if constants[i], err = p.readValue(); err != nil {
			return nil, err
		}
	}
	return constants, nil
}

func (p *parser) readFunctions() ([]program.Function, []functionRecord, error) {
	n, err := p.readCount("function count")
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, nil
	}
	functions := make([]program.Function, n)
	records := make([]functionRecord, n)
	for i := range functions {
		records[i].offset = p.d.Offset()
		f := &functions[i]
		if f.Name, err = p.readString(p); err != nil {
			return nil, nil, err
		}
		if records[i].entry, err = p.readIndex(p, "function entry"); err != nil {
			return nil, nil, err
		}
		if f.Params, err = p.readIndex(p, "parameter count"); err != nil {
			return nil, nil, err
		}
		if f.Locals, err = p.readIndex(p, "local count"); err != nil {
			return nil, nil, err
		}
	}
	return functions, records, nil
}

func (p *parser) readValue() (value.Value, error) {
	at := p.d.Offset()
	k, err := p.d.Byte()
	if err != nil {
		return value.Null(), err
	}
	switch value.Kind(k) {
	case value.KindNull:
		return value.Null(), nil
	case value.KindInt32:
		i, err := p.readInt(p)
		if err != nil {
			return value.Null(), err
		}
		return value.Int32(i), nil
	case value.KindDouble:
		f, err := p.d.Float64()
		if err != nil {
			return value.Null(), err
		}
		return value.Double(f), nil
	case value.KindBoolean:
		b, err := p.d.Byte()
		if err != nil {
			return value.Null(), err
		}
		if b > 1 {
			return value.Null(), errs.Malformed(at+1, "invalid boolean byte 0x%02x", b)
		}
		return value.Bool(b == 1), nil
	case value.KindString:
		s, err := p.readString(p)
		if err != nil {
			return value.Null(), err
		}
		return value.String(s), nil
	case value.KindObject:
		hat := p.d.Offset()
		h, err := p.readIndex(p, "object handle")
		if err != nil {
			return value.Null(), err
		}
		handle, err := safecast.ToUint32(h)
		if err != nil {
			return value.Null(), errs.Malformed(hat, "object handle %d does not fit 32 bits", h)
		}
		return value.Object(handle), nil
	default:
		return value.Null(), errs.Malformed(at, "unknown value kind %d", k)
	}
}

func (p *parser) readInstruction(codeStart int) (program.Instruction, error) {
	at := p.d.Offset()
	b, err := p.d.Byte()
	if err != nil {
		return program.Instruction{}, err
	}
	op, ok := p.opcodes.canonical(b)
	if !ok {
		return program.Instruction{}, errs.Malformed(at, "unknown opcode 0x%02x", b)
	}
	ins := program.Instruction{Op: op, Offset: at}
	switch op.Operand() {
	case program.OperandNone:
	case program.OperandConstant:
		ins.A, err = p.readIndex(p, "constant index")
	case program.OperandLocal:
		ins.A, err = p.readIndex(p, "local slot")
	case program.OperandGlobal:
		ins.A, err = p.readIndex(p, "global index")
	case program.OperandFunction:
		ins.A, err = p.readIndex(p, "function index")
	case program.OperandTarget:
		ins.A, err = p.readTarget(p, codeStart)
	case program.OperandNative:
		ins.B = program.UnknownArgc
		if ins.A, err = p.readIndex(p, "native index"); err == nil && p.readCallArgc != nil {
			ins.B, err = p.readCallArgc(p)
		}
	case program.OperandKind:
		ins.A, err = p.readSmall(p, "value kind")
	case program.OperandSlot:
		if ins.A, err = p.readIndex(p, "slot"); err == nil {
			ins.B, err = p.readSmall(p, "scope")
		}
	case program.OperandFlag:
		ins.A, err = p.readSmall(p, "flag")
	}
	if err != nil {
		return program.Instruction{}, err
	}
	return ins, nil
}

// resolve turns raw jump targets and function entries into instruction indices.
func (p *parser) resolve(m *program.Module, records []functionRecord) error {
	index := func(raw int) (int, bool) {
		return raw, raw >= 0 && raw < len(m.Code)
	}
	if !p.ordinals {
		codeStart := 0
		if len(m.Code) > 0 {
			codeStart = m.Code[0].Offset
		}
		positions := make(map[int]int, len(m.Code))
		for i, ins := range m.Code {
			positions[ins.Offset-codeStart] = i
		}
		index = func(raw int) (int, bool) {
			i, ok := positions[raw]
			return i, ok
		}
	}
	for i, r := range records {
		e, ok := index(r.entry)
		if !ok {
			return errs.Malformed(r.offset, "entry %d of function %s is not an instruction boundary", r.entry, m.Functions[i].Name)
		}
		m.Functions[i].Entry = e
	}
	for i := range m.Code {
		ins := &m.Code[i]
		if !ins.Op.IsJump() {
			continue
		}
		t, ok := index(ins.A)
		if !ok {
			return errs.Malformed(ins.Offset, "jump target %d is not an instruction boundary", ins.A)
		}
		ins.A = t
	}
	return nil
}

// narrow converts a decoded unsigned field to int.
func narrow[T uint8 | uint16 | uint32 | uint64](at int, what string, v T) (int, error) {
	i, err := safecast.ToInt(v)
	if err != nil {
		return 0, errs.Malformed(at, "%s %d is out of range", what, v)
	}
	return i, nil
}
