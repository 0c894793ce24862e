package program

import (
	"fmt"
	"strings"

	"github.com/makiscript/gomaki/pkg/maki/value"
)

// Disassemble returns a human-readable listing of the module.
func Disassemble(m *Module) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; dialect %s", m.Dialect)
	if c := m.Dialect.Compiler(); c != "" {
		fmt.Fprintf(&sb, " (compiler %s)", c)
	}
	sb.WriteString("\n")

	if len(m.Constants) > 0 {
		sb.WriteString("; constants:\n")
		for i, c := range m.Constants {
			fmt.Fprintf(&sb, ";   [%3d] %s\n", i, c)
		}
	}
	if len(m.Natives) > 0 {
		sb.WriteString("; natives:\n")
		for i, n := range m.Natives {
			fmt.Fprintf(&sb, ";   [%3d] %s/%s\n", i, n.Name, argc(n.Argc))
		}
	}
	if len(m.Globals) > 0 {
		sb.WriteString("; globals:\n")
		for i, g := range m.Globals {
			fmt.Fprintf(&sb, ";   [%3d] %s = %s\n", i, g.Name, g.Init)
		}
	}

	entries := make(map[int][]int, len(m.Functions))
	for i, f := range m.Functions {
		entries[f.Entry] = append(entries[f.Entry], i)
	}
	for pc := range m.Code {
		for _, fi := range entries[pc] {
			f := m.Functions[fi]
			marker := ""
			if fi == m.Entry {
				marker = " entry"
			}
			fmt.Fprintf(&sb, "\n%s: ; params=%d locals=%d%s\n", f.Name, f.Params, f.Locals, marker)
		}
		sb.WriteString(DisassembleInstruction(m, pc))
		sb.WriteString("\n")
	}
	return sb.String()
}

// DisassembleInstruction formats instruction pc with its operands resolved against the module tables.
func DisassembleInstruction(m *Module, pc int) string {
	ins := m.Code[pc]
	prefix := fmt.Sprintf("%04d  %-14s", pc, ins.Op)
	if ins.Offset != NoOffset {
		prefix = fmt.Sprintf("%04d  @%06x  %-14s", pc, ins.Offset, ins.Op)
	}
	operand := ""
	switch ins.Op.Operand() {
	case OperandConstant:
		operand = fmt.Sprintf("%d ; %s", ins.A, lookup(m.Constants, ins.A, value.Value.String))
	case OperandLocal:
		operand = fmt.Sprintf("local %d", ins.A)
	case OperandGlobal:
		operand = fmt.Sprintf("%d ; %s", ins.A, lookup(m.Globals, ins.A, func(g Global) string { return g.Name }))
	case OperandTarget:
		operand = fmt.Sprintf("-> %04d", ins.A)
	case OperandFunction:
		operand = fmt.Sprintf("%d ; %s", ins.A, lookup(m.Functions, ins.A, func(f Function) string { return f.Name }))
	case OperandNative:
		operand = fmt.Sprintf("%d ; %s/%s", ins.A,
			lookup(m.Natives, ins.A, func(n Native) string { return n.Name }), argc(ins.B))
	case OperandKind:
		operand = value.Kind(ins.A).String()
	case OperandSlot:
		if ins.B == ScopeGlobal {
			operand = fmt.Sprintf("global %d ; %s", ins.A, lookup(m.Globals, ins.A, func(g Global) string { return g.Name }))
		} else {
			operand = fmt.Sprintf("local %d", ins.A)
		}
	case OperandFlag:
		operand = fmt.Sprintf("%d", ins.A)
	}
	return strings.TrimRight(prefix+" "+operand, " ")
}

func lookup[T any](items []T, i int, name func(T) string) string {
	if i < 0 || i >= len(items) {
		return "?"
	}
	return name(items[i])
}

func argc(n int) string {
	if n == UnknownArgc {
		return "?"
	}
	return fmt.Sprintf("%d", n)
}
