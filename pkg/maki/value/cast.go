package value

import (
	"strconv"
	"strings"

	"github.com/makiscript/gomaki/pkg/errs"
)

// Cast converts v to kind k. Compilers emit it for implicit casts of arguments and typed returns.
func Cast(v Value, k Kind) (Value, error) {
	if v.kind == k {
		return v, nil
	}
	switch k {
	case KindBoolean:
		return Bool(Truthy(v)), nil
	case KindString:
		return String(Stringify(v)), nil
	case KindInt32:
		switch v.kind {
		case KindDouble:
			return Int32(truncate(v.f)), nil
		case KindBoolean:
			return Int32(v.i), nil
		case KindString:
			if n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 32); err == nil {
				return Int32(int32(n)), nil
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64); err == nil {
				return Int32(truncate(f)), nil
			}
		}
	case KindDouble:
		switch v.kind {
		case KindInt32, KindBoolean:
			return Double(float64(v.i)), nil
		case KindString:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64); err == nil {
				return Double(f), nil
			}
		}
	}
	if v.kind == KindString {
		return Null(), errs.TypeMismatch.Errorf("cannot cast %q to %s", v.s, k)
	}
	return Null(), errs.TypeMismatch.Errorf("cannot cast %s to %s", v.kind, k)
}
