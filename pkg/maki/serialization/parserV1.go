package serialization

import (
	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/maki/program"
)

/*
Dialect V1 (marker 0x0300):
NATIVES GLOBALS CONSTANTS FUNCTIONS ENTRY CODE
  counts, indices and operands are u32 LE, strings u32 length prefixed,
  kind, scope and flag operands are a single byte,
  jump targets and function entries are byte positions from the start of the code,
  CODE is a u32 byte length followed by the instructions.
*/
func newParserV1(body []byte) *parser {
	p := newParser(body, program.DialectV1, opcodesV1, legacyOrder)
	p.readIndex = readIndexV1
	p.readSmall = readSmallV1
	p.readInt = readIntV1
	p.readString = readStringV1
	p.readNative = readNativeV1
	p.readTarget = readTargetV1
	p.readCode = readCodeV1
	return p
}

func readIndexV1(p *parser, what string) (int, error) {
	at := p.d.Offset()
	v, err := p.d.Uint32()
	if err != nil {
		return 0, err
	}
	return narrow(at, what, v)
}

func readSmallV1(p *parser, _ string) (int, error) {
	b, err := p.d.Byte()
	return int(b), err
}

func readIntV1(p *parser) (int32, error) {
	return p.d.Int32()
}

func readStringV1(p *parser) (string, error) {
	return p.d.StringWithUInt32Len()
}

func readNativeV1(p *parser) (program.Native, error) {
	name, err := p.readString(p)
	if err != nil {
		return program.Native{}, err
	}
	return program.Native{Name: name, Argc: program.UnknownArgc}, nil
}

func readTargetV1(p *parser, _ int) (int, error) {
	return readIndexV1(p, "jump target")
}

func readCodeV1(p *parser) ([]program.Instruction, error) {
	at := p.d.Offset()
	size, err := readIndexV1(p, "code size")
	if err != nil {
		return nil, err
	}
	if size > p.d.Len() {
		return nil, errs.Malformed(at, "code size %d exceeds the remaining %d bytes", size, p.d.Len())
	}
	start := p.d.Offset()
	end := start + size
	code := make([]program.Instruction, 0, size/2)
	for p.d.Offset() < end {
		ins, err := p.readInstruction(start)
		if err != nil {
			return nil, err
		}
		code = append(code, ins)
	}
	if p.d.Offset() != end {
		return nil, errs.Malformed(code[len(code)-1].Offset, "instruction crosses the end of the code section")
	}
	return code, nil
}
