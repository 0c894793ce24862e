package value

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

type wireValue struct {
	_ struct{} `cbor:",toarray"`
	K Kind
	I int32
	F float64
	S string
	H uint32
}

func (v Value) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(wireValue{K: v.kind, I: v.i, F: v.f, S: v.s, H: v.h})
}

func (v *Value) UnmarshalCBOR(data []byte) error {
	var w wireValue
	if err := cbor.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "failed to unmarshal value")
	}
	if !w.K.Valid() {
		return errors.Errorf("invalid value kind %d", w.K)
	}
	*v = Value{kind: w.K, i: w.I, f: w.F, s: w.S, h: w.H}
	return nil
}
