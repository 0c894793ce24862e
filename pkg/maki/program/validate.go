package program

import (
	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// Validate checks the structural invariants the engine relies on: indices in range,
// function entries inside the code, jump targets inside the body of the jumping function,
// Locals >= Params and an entry function without parameters. Failures are MalformedBytecode errors positioned at the
// offending instruction.
func Validate(m *Module) error {
	if len(m.Code) == 0 {
		return errs.Malformed(NoOffset, "empty code section")
	}
	if m.Entry < 0 || m.Entry >= len(m.Functions) {
		return errs.Malformed(NoOffset, "entry function %d out of range [0, %d)", m.Entry, len(m.Functions))
	}
	if p := m.Functions[m.Entry].Params; p != 0 {
		return errs.Malformed(NoOffset, "entry function %q declares %d parameters", m.Functions[m.Entry].Name, p)
	}
	for i, n := range m.Natives {
		if n.Argc < UnknownArgc {
			return errs.Malformed(NoOffset, "native %d (%s) has negative argument count %d", i, n.Name, n.Argc)
		}
	}
	for i, f := range m.Functions {
		if f.Entry < 0 || f.Entry >= len(m.Code) {
			return errs.Malformed(NoOffset, "function %d (%s) entry %d outside the code", i, f.Name, f.Entry)
		}
		if f.Params < 0 || f.Locals < f.Params {
			return errs.Malformed(m.Code[f.Entry].Offset,
				"function %d (%s) has %d locals for %d parameters", i, f.Name, f.Locals, f.Params)
		}
	}
	for pc, ins := range m.Code {
		if err := validateInstruction(m, pc, ins); err != nil {
			return err
		}
	}
	return nil
}

func validateInstruction(m *Module, pc int, ins Instruction) error {
	bad := func(format string, args ...interface{}) error {
		return errs.Malformed(ins.Offset, "instruction %d (%s): "+format, append([]interface{}{pc, ins.Op}, args...)...)
	}
	if !ins.Op.Valid() {
		return errs.Malformed(ins.Offset, "instruction %d: unknown opcode %d", pc, uint8(ins.Op))
	}
	switch ins.Op.Operand() {
	case OperandConstant:
		if !inRange(ins.A, len(m.Constants)) {
			return bad("constant %d out of range [0, %d)", ins.A, len(m.Constants))
		}
	case OperandGlobal:
		if !inRange(ins.A, len(m.Globals)) {
			return bad("global %d out of range [0, %d)", ins.A, len(m.Globals))
		}
	case OperandLocal:
		return validateLocal(m, pc, ins.A, bad)
	case OperandTarget:
		if !inRange(ins.A, len(m.Code)) {
			return bad("jump target %d outside the code", ins.A)
		}
		owner, ok := m.Owner(pc)
		if !ok {
			return bad("jump outside of any function")
		}
		if start, end := m.Body(owner); ins.A < start || ins.A >= end {
			return bad("jump target %d leaves function %s [%d, %d)", ins.A, m.Functions[owner].Name, start, end)
		}
	case OperandFunction:
		if !inRange(ins.A, len(m.Functions)) {
			return bad("function %d out of range [0, %d)", ins.A, len(m.Functions))
		}
	case OperandNative:
		if !inRange(ins.A, len(m.Natives)) {
			return bad("native %d out of range [0, %d)", ins.A, len(m.Natives))
		}
		if ins.B < UnknownArgc {
			return bad("negative argument count %d", ins.B)
		}
	case OperandKind:
		if k := value.Kind(ins.A); ins.A < 0 || !k.Valid() {
			return bad("unknown value kind %d", ins.A)
		}
	case OperandSlot:
		switch ins.B {
		case ScopeLocal:
			return validateLocal(m, pc, ins.A, bad)
		case ScopeGlobal:
			if !inRange(ins.A, len(m.Globals)) {
				return bad("global %d out of range [0, %d)", ins.A, len(m.Globals))
			}
		default:
			return bad("unknown scope %d", ins.B)
		}
	case OperandFlag:
		if ins.A != 0 && ins.A != 1 {
			return bad("flag must be 0 or 1, got %d", ins.A)
		}
	}
	return nil
}

func validateLocal(m *Module, pc, slot int, bad func(string, ...interface{}) error) error {
	owner, ok := m.Owner(pc)
	if !ok {
		return bad("local access outside of any function")
	}
	// Functions sharing an entry share the body, so the slot must fit each of them.
	entry := m.Functions[owner].Entry
	for _, f := range m.Functions {
		if f.Entry != entry {
			continue
		}
		if !inRange(slot, f.Locals) {
			return bad("local %d out of range [0, %d) of function %s", slot, f.Locals, f.Name)
		}
	}
	return nil
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}
