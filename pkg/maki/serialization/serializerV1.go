package serialization

import (
	"github.com/ccoveille/go-safecast"
	"github.com/pkg/errors"

	"github.com/makiscript/gomaki/pkg/libs/serializer"
	"github.com/makiscript/gomaki/pkg/maki/program"
)

func newSerializerV1(w *serializer.Serializer) *encoder {
	e := newEncoder(w, program.DialectV1, opcodesV1, legacyOrder)
	e.indexSize = 4
	e.writeIndex = writeIndexV1
	e.writeSmall = writeSmallV1
	e.writeInt = writeIntV1
	e.writeString = writeStringV1
	e.writeNative = writeNativeV1
	e.writeTarget = writeTargetV1
	e.writeCode = writeCodeV1
	return e
}

func writeIndexV1(e *encoder, v int) error {
	u, err := toUint32(v)
	if err != nil {
		return err
	}
	return e.w.Uint32(u)
}

func writeSmallV1(e *encoder, v int) error {
	b, err := safecast.ToUint8(v)
	if err != nil {
		return errors.Wrapf(err, "operand %d does not fit a byte", v)
	}
	return e.w.Byte(b)
}

func writeIntV1(e *encoder, v int32) error {
	return e.w.Int32(v)
}

func writeStringV1(e *encoder, s string) error {
	return e.w.StringWithUInt32Len(s)
}

func writeNativeV1(e *encoder, m *program.Module, i int) error {
	return e.writeString(e, m.Natives[i].Name)
}

func writeTargetV1(e *encoder, target, _ int) error {
	return writeIndexV1(e, target)
}

func writeCodeV1(e *encoder, m *program.Module, positions []int) error {
	if err := writeIndexV1(e, positions[len(m.Code)]); err != nil {
		return err
	}
	return e.writeInstructions(m, positions)
}
