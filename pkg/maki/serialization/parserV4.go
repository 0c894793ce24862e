package serialization

import (
	"github.com/ccoveille/go-safecast"

	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/maki/program"
)

/*
Dialect V4 (marker 0x0500):
CONSTANTS GLOBALS NATIVES FUNCTIONS ENTRY CODE
  every count, index, length and small operand is a uvarint, Int32 values are zig-zag varints,
  natives carry their arity as uvarint argc+1 (0 when unknown),
  jump targets and function entries are instruction ordinals,
  CODE is a uvarint instruction count followed by the instructions.
*/
func newParserV4(body []byte) *parser {
	p := newParser(body, program.DialectV4, opcodesV4, modernOrder)
	p.ordinals = true
	p.readIndex = readIndexV4
	p.readSmall = readIndexV4
	p.readInt = readIntV4
	p.readString = readStringV4
	p.readNative = readNativeV4
	p.readTarget = readTargetV4
	p.readCode = readCodeV4
	return p
}

func readIndexV4(p *parser, what string) (int, error) {
	at := p.d.Offset()
	v, err := p.d.Uvarint()
	if err != nil {
		return 0, err
	}
	return narrow(at, what, v)
}

func readIntV4(p *parser) (int32, error) {
	at := p.d.Offset()
	v, err := p.d.Varint()
	if err != nil {
		return 0, err
	}
	i, err := safecast.ToInt32(v)
	if err != nil {
		return 0, errs.Malformed(at, "integer %d does not fit 32 bits", v)
	}
	return i, nil
}

func readStringV4(p *parser) (string, error) {
	return p.d.StringWithUvarintLen()
}

func readNativeV4(p *parser) (program.Native, error) {
	name, err := p.readString(p)
	if err != nil {
		return program.Native{}, err
	}
	arity, err := readIndexV4(p, "native arity")
	if err != nil {
		return program.Native{}, err
	}
	return program.Native{Name: name, Argc: arity - 1}, nil
}

func readTargetV4(p *parser, _ int) (int, error) {
	return readIndexV4(p, "jump target")
}

func readCodeV4(p *parser) ([]program.Instruction, error) {
	n, err := p.readCount("instruction count")
	if err != nil {
		return nil, err
	}
	code := make([]program.Instruction, n)
	for i := range code {
		if code[i], err = p.readInstruction(0); err != nil {
			return nil, err
		}
	}
	return code, nil
}
