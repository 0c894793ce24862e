// Package program holds the canonical, dialect independent form of a compiled MAKI module.
package program

import (
	"fmt"
	"strings"

	"github.com/makiscript/gomaki/pkg/maki/value"
)

const (
	// Magic opens every compiled module.
	Magic = "FG"
	// HeaderSize is the length of the magic and the version marker.
	HeaderSize = 4
	// UnknownArgc marks a native call whose argument count the dialect does not record.
	UnknownArgc = -1
	// NoOffset is the byte offset of instructions that were not decoded from bytes.
	NoOffset = -1
)

// Dialect identifies one historical binary encoding of modules.
type Dialect uint8

const (
	DialectCanonical Dialect = iota
	DialectV1
	DialectV2
	DialectV3
	DialectV4
)

type dialectInfo struct {
	name     string
	marker   uint16
	compiler string
}

var dialects = [...]dialectInfo{
	DialectCanonical: {"canonical", 0, ""},
	DialectV1:        {"v1", 0x0300, "1.1.0/1.1.1 beta"},
	DialectV2:        {"v2", 0x0301, "1.1.1"},
	DialectV3:        {"v3", 0x0402, "1.1.13"},
	DialectV4:        {"v4", 0x0500, "1.2.0"},
}

func (d Dialect) String() string {
	if int(d) < len(dialects) {
		return dialects[d].name
	}
	return fmt.Sprintf("Dialect(%d)", uint8(d))
}

// Marker is the header version marker of the dialect.
func (d Dialect) Marker() uint16 {
	if int(d) < len(dialects) {
		return dialects[d].marker
	}
	return 0
}

// Compiler names the compiler releases that produced the dialect.
func (d Dialect) Compiler() string {
	if int(d) < len(dialects) {
		return dialects[d].compiler
	}
	return ""
}

// Dialects lists the binary dialects, oldest first.
func Dialects() []Dialect {
	return []Dialect{DialectV1, DialectV2, DialectV3, DialectV4}
}

// ParseDialect accepts the dialect names "v1".."v4", case-insensitive.
func ParseDialect(s string) (Dialect, error) {
	for _, d := range Dialects() {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return DialectCanonical, fmt.Errorf("unknown dialect %q", s)
}

type Native struct {
	Name string
	Argc int
}

type Global struct {
	Name string
	Init value.Value
}

type Function struct {
	Name   string
	Entry  int
	Params int
	Locals int
}

type Instruction struct {
	Op     Opcode
	A      int
	B      int
	Offset int
}

func (i Instruction) String() string {
	switch i.Op.Operand() {
	case OperandNone:
		return i.Op.String()
	case OperandNative, OperandSlot:
		return fmt.Sprintf("%s %d %d", i.Op, i.A, i.B)
	default:
		return fmt.Sprintf("%s %d", i.Op, i.A)
	}
}

// Module is a decoded script. It is never modified after the loader returns it,
// so a single Module may back any number of concurrent runs.
type Module struct {
	Dialect   Dialect
	Constants []value.Value
	Natives   []Native
	Globals   []Global
	Functions []Function
	Entry     int
	Code      []Instruction
}

// EntryFunction returns the function the run starts in.
func (m *Module) EntryFunction() Function {
	return m.Functions[m.Entry]
}

// Arity resolves the argument count recorded for a native call instruction,
// UnknownArgc if neither the instruction nor the native table records one.
func (m *Module) Arity(ins Instruction) int {
	if ins.B != UnknownArgc {
		return ins.B
	}
	return m.Natives[ins.A].Argc
}

// Owner returns the index of the function whose body contains instruction pc:
// the function with the greatest entry not past pc.
func (m *Module) Owner(pc int) (int, bool) {
	owner, entry := -1, -1
	for i, f := range m.Functions {
		if f.Entry <= pc && f.Entry > entry {
			owner, entry = i, f.Entry
		}
	}
	return owner, owner >= 0
}

// Body returns the instruction range [start, end) of function fn. A body ends where the
// next function with a greater entry begins, or at the end of the code.
func (m *Module) Body(fn int) (start, end int) {
	start, end = m.Functions[fn].Entry, len(m.Code)
	for _, f := range m.Functions {
		if f.Entry > start && f.Entry < end {
			end = f.Entry
		}
	}
	return start, end
}
