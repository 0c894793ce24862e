package serialization

import (
	"github.com/ccoveille/go-safecast"
	"github.com/pkg/errors"

	"github.com/makiscript/gomaki/pkg/libs/serializer"
	"github.com/makiscript/gomaki/pkg/maki/program"
)

// buildV2 is the compiler build number written into the preamble of V2 and V3 modules.
const buildV2 = 488

func newSerializerV2(w *serializer.Serializer) *encoder {
	e := newSerializerV1(w)
	e.dialect = program.DialectV2
	e.writePreamble = writeBuildV2
	e.writeTarget = writeTargetV2
	return e
}

func writeBuildV2(e *encoder) error {
	return e.w.Uint32(buildV2)
}

func writeTargetV2(e *encoder, target, end int) error {
	rel, err := safecast.ToInt32(target - end)
	if err != nil {
		return errors.Wrapf(err, "jump distance %d does not fit i32", target-end)
	}
	return e.w.Int32(rel)
}
