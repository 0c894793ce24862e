package serialization

import (
	"github.com/makiscript/gomaki/pkg/maki/program"
)

/*
Dialect V2 (marker 0x0301):
BUILD V1-SECTIONS
  BUILD is a u32 compiler build number,
  jump targets are i32 offsets from the end of the jump instruction.
*/
func newParserV2(body []byte) *parser {
	p := newParserV1(body)
	p.dialect = program.DialectV2
	p.readPreamble = readBuildV2
	p.readTarget = readTargetV2
	return p
}

func readBuildV2(p *parser) error {
	_, err := p.d.Uint32()
	return err
}

func readTargetV2(p *parser, codeStart int) (int, error) {
	rel, err := p.d.Int32()
	if err != nil {
		return 0, err
	}
	return p.d.Offset() - codeStart + int(rel), nil
}
