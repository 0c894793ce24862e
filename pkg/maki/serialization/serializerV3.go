package serialization

import (
	"github.com/pkg/errors"

	"github.com/makiscript/gomaki/pkg/libs/serializer"
	"github.com/makiscript/gomaki/pkg/maki/program"
)

func newSerializerV3(w *serializer.Serializer) *encoder {
	e := newSerializerV2(w)
	e.dialect = program.DialectV3
	e.opcodes = opcodesV3
	e.order = modernOrder
	e.writeString = writeStringV3
	e.writeCallArgc = writeCallArgcV3
	return e
}

func writeStringV3(e *encoder, s string) error {
	return e.w.StringWithUInt16Len(s)
}

func writeCallArgcV3(e *encoder, argc int) error {
	if argc == program.UnknownArgc {
		return e.w.Byte(argcUnknownV3)
	}
	if argc < 0 || argc >= argcUnknownV3 {
		return errors.Errorf("native call argument count %d does not fit", argc)
	}
	return e.w.Byte(byte(argc))
}
