// Package value implements the tagged values of the MAKI virtual machine and the
// operator semantics scripts rely on.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt32
	KindDouble
	KindBoolean
	KindString
	KindObject
	kindCount
)

var kindNames = [kindCount]string{
	KindNull:    "Null",
	KindInt32:   "Int32",
	KindDouble:  "Double",
	KindBoolean: "Boolean",
	KindString:  "String",
	KindObject:  "Object",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k < kindCount
}

// ParseKind is the inverse of Kind.String, case-insensitive.
func ParseKind(s string) (Kind, bool) {
	for k, n := range kindNames {
		if strings.EqualFold(n, s) {
			return Kind(k), true
		}
	}
	return KindNull, false
}

// KindSet is a set of kinds, used to declare what a native call accepts or returns.
type KindSet uint8

// AnyKind accepts every value.
const AnyKind = KindSet(1<<kindCount - 1)

func Kinds(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

func (s KindSet) Has(k Kind) bool {
	return k < kindCount && s&(1<<k) != 0
}

func (s KindSet) Empty() bool {
	return s == 0
}

func (s KindSet) String() string {
	if s == 0 {
		return "Void"
	}
	if s == AnyKind {
		return "Any"
	}
	parts := make([]string, 0, kindCount)
	for k := KindNull; k < kindCount; k++ {
		if s.Has(k) {
			parts = append(parts, k.String())
		}
	}
	return strings.Join(parts, "|")
}

// ParseKindSet parses the "Int32|Boolean" notation produced by KindSet.String.
func ParseKindSet(s string) (KindSet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "void":
		return 0, nil
	case "any":
		return AnyKind, nil
	}
	var set KindSet
	for _, p := range strings.Split(s, "|") {
		k, ok := ParseKind(strings.TrimSpace(p))
		if !ok {
			return 0, fmt.Errorf("unknown value kind %q", p)
		}
		set |= Kinds(k)
	}
	return set, nil
}

// Value is an immutable tagged value. The zero Value is Null.
type Value struct {
	kind Kind
	i    int32
	f    float64
	s    string
	h    uint32
}

func Null() Value {
	return Value{kind: KindNull}
}

func Int32(v int32) Value {
	return Value{kind: KindInt32, i: v}
}

func Double(v float64) Value {
	return Value{kind: KindDouble, f: v}
}

func Bool(v bool) Value {
	if v {
		return Value{kind: KindBoolean, i: 1}
	}
	return Value{kind: KindBoolean}
}

func String(v string) Value {
	return Value{kind: KindString, s: v}
}

// Object wraps a handle into the host's native-object table.
func Object(handle uint32) Value {
	return Value{kind: KindObject, h: handle}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) AsInt32() (int32, bool) {
	return v.i, v.kind == KindInt32
}

func (v Value) AsDouble() (float64, bool) {
	return v.f, v.kind == KindDouble
}

func (v Value) AsBool() (bool, bool) {
	return v.i != 0, v.kind == KindBoolean
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) AsObject() (uint32, bool) {
	return v.h, v.kind == KindObject
}

// Equal reports whether v and o are the same value of the same kind.
// It is structural identity, not the script's == operator (see Eq).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt32, KindBoolean:
		return v.i == o.i
	case KindDouble:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindObject:
		return v.h == o.h
	default:
		return false
	}
}

// String is a debugging representation that shows the kind.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("String(%q)", v.s)
	case KindNull:
		return "Null"
	default:
		return fmt.Sprintf("%s(%s)", v.kind, Stringify(v))
	}
}

// Stringify formats v the way message display and string concatenation do.
func Stringify(v Value) string {
	switch v.kind {
	case KindInt32:
		return strconv.FormatInt(int64(v.i), 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBoolean:
		if v.i != 0 {
			return "1"
		}
		return "0"
	case KindString:
		return v.s
	case KindObject:
		return "object#" + strconv.FormatUint(uint64(v.h), 10)
	default:
		return ""
	}
}

// Truthy applies the 0/false-else-true rule.
func Truthy(v Value) bool {
	switch v.kind {
	case KindInt32, KindBoolean:
		return v.i != 0
	case KindDouble:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindObject:
		return true
	default:
		return false
	}
}
