package serialization

import (
	"github.com/makiscript/gomaki/pkg/maki/program"
)

// argcUnknownV3 is the argument count byte of native calls the compiler did not count.
const argcUnknownV3 = 0xff

/*
Dialect V3 (marker 0x0402):
BUILD CONSTANTS GLOBALS NATIVES FUNCTIONS ENTRY CODE
  as V2, but strings are u16 length prefixed and native calls use a
  different opcode followed by a u8 argument count.
*/
func newParserV3(body []byte) *parser {
	p := newParserV2(body)
	p.dialect = program.DialectV3
	p.opcodes = opcodesV3
	p.order = modernOrder
	p.readString = readStringV3
	p.readCallArgc = readCallArgcV3
	return p
}

func readStringV3(p *parser) (string, error) {
	return p.d.StringWithUInt16Len()
}

func readCallArgcV3(p *parser) (int, error) {
	b, err := p.d.Byte()
	if err != nil {
		return 0, err
	}
	if b == argcUnknownV3 {
		return program.UnknownArgc, nil
	}
	return int(b), nil
}
