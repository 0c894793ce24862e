package serialization

import (
	"github.com/pkg/errors"

	"github.com/makiscript/gomaki/pkg/libs/serializer"
	"github.com/makiscript/gomaki/pkg/maki/program"
)

func newSerializerV4(w *serializer.Serializer) *encoder {
	e := newEncoder(w, program.DialectV4, opcodesV4, modernOrder)
	e.ordinals = true
	e.writeIndex = writeIndexV4
	e.writeSmall = writeIndexV4
	e.writeInt = writeIntV4
	e.writeString = writeStringV4
	e.writeNative = writeNativeV4
	e.writeTarget = writeTargetV4
	e.writeCode = writeCodeV4
	return e
}

func writeIndexV4(e *encoder, v int) error {
	if v < 0 {
		return errors.Errorf("negative index %d", v)
	}
	return e.w.Uvarint(uint64(v))
}

func writeIntV4(e *encoder, v int32) error {
	return e.w.Varint(int64(v))
}

func writeStringV4(e *encoder, s string) error {
	return e.w.StringWithUvarintLen(s)
}

func writeNativeV4(e *encoder, m *program.Module, i int) error {
	if err := e.writeString(e, m.Natives[i].Name); err != nil {
		return err
	}
	return writeIndexV4(e, nativeArity(m, i)+1)
}

func writeTargetV4(e *encoder, target, _ int) error {
	return writeIndexV4(e, target)
}

func writeCodeV4(e *encoder, m *program.Module, positions []int) error {
	if err := writeIndexV4(e, len(m.Code)); err != nil {
		return err
	}
	return e.writeInstructions(m, positions)
}
