package program

import (
	"github.com/pkg/errors"

	"github.com/makiscript/gomaki/pkg/maki/value"
)

// Label is a forward or backward reference to an instruction, resolved by Builder.Build.
type Label int

// Builder assembles a canonical Module. Constants and natives are interned,
// jumps are written against labels and fixed up when the module is built.
//
//	b := NewBuilder()
//	main := b.Function("main", 0, 0)
//	b.Begin(main)
//	b.Push(value.String("Hello World"))
//	...
//	m, err := b.Build(main)
type Builder struct {
	m       Module
	labels  []int
	fixups  map[int]Label
	natives map[string]int
	err     error
}

func NewBuilder() *Builder {
	return &Builder{
		labels:  make([]int, 0),
		fixups:  make(map[int]Label),
		natives: make(map[string]int),
	}
}

// Constant interns v in the constant pool and returns its index.
func (b *Builder) Constant(v value.Value) int {
	for i, c := range b.m.Constants {
		if c.Equal(v) {
			return i
		}
	}
	b.m.Constants = append(b.m.Constants, v)
	return len(b.m.Constants) - 1
}

// Native interns a native call name with the argument count the compiler recorded.
func (b *Builder) Native(name string, argc int) int {
	if i, ok := b.natives[name]; ok {
		return i
	}
	b.m.Natives = append(b.m.Natives, Native{Name: name, Argc: argc})
	b.natives[name] = len(b.m.Natives) - 1
	return len(b.m.Natives) - 1
}

func (b *Builder) Global(name string, init value.Value) int {
	b.m.Globals = append(b.m.Globals, Global{Name: name, Init: init})
	return len(b.m.Globals) - 1
}

// Function declares a function; its body starts at the next Begin call.
func (b *Builder) Function(name string, params, locals int) int {
	b.m.Functions = append(b.m.Functions, Function{Name: name, Entry: -1, Params: params, Locals: locals})
	return len(b.m.Functions) - 1
}

// Begin places the body of function f at the current position.
func (b *Builder) Begin(f int) {
	if f < 0 || f >= len(b.m.Functions) {
		b.fail(errors.Errorf("undeclared function %d", f))
		return
	}
	if b.m.Functions[f].Entry >= 0 {
		b.fail(errors.Errorf("function %q already has a body", b.m.Functions[f].Name))
		return
	}
	b.m.Functions[f].Entry = len(b.m.Code)
}

// Emit appends an instruction. Missing operands default to 0, except the argument
// count of OpCallNative, which defaults to UnknownArgc.
func (b *Builder) Emit(op Opcode, operands ...int) *Builder {
	ins := Instruction{Op: op, Offset: NoOffset}
	if op == OpCallNative {
		ins.B = UnknownArgc
	}
	switch len(operands) {
	case 0:
	case 1:
		ins.A = operands[0]
	case 2:
		ins.A, ins.B = operands[0], operands[1]
	default:
		b.fail(errors.Errorf("too many operands for %s", op))
	}
	b.m.Code = append(b.m.Code, ins)
	return b
}

// Push emits OpPush of the interned constant v.
func (b *Builder) Push(v value.Value) *Builder {
	return b.Emit(OpPush, b.Constant(v))
}

// CallNative emits a call of the named native, interning the name with argc.
func (b *Builder) CallNative(name string, argc int) *Builder {
	return b.Emit(OpCallNative, b.Native(name, argc), argc)
}

func (b *Builder) NewLabel() Label {
	b.labels = append(b.labels, -1)
	return Label(len(b.labels) - 1)
}

// Mark binds l to the position of the next emitted instruction.
func (b *Builder) Mark(l Label) {
	if int(l) >= len(b.labels) || b.labels[l] >= 0 {
		b.fail(errors.Errorf("label %d is unknown or already marked", l))
		return
	}
	b.labels[l] = len(b.m.Code)
}

// Branch emits a jump instruction targeting l.
func (b *Builder) Branch(op Opcode, l Label) *Builder {
	if !op.IsJump() {
		b.fail(errors.Errorf("%s is not a jump", op))
		return b
	}
	b.fixups[len(b.m.Code)] = l
	return b.Emit(op)
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build resolves labels, validates the result and returns the module with entry function f.
// The Builder must not be used afterwards.
func (b *Builder) Build(f int) (*Module, error) {
	if b.err != nil {
		return nil, errors.Wrap(b.err, "failed to build module")
	}
	for pc, l := range b.fixups {
		t := b.labels[l]
		if t < 0 {
			return nil, errors.Errorf("failed to build module: label %d is never marked", l)
		}
		b.m.Code[pc].A = t
	}
	b.m.Entry = f
	m := b.m
	if err := Validate(&m); err != nil {
		return nil, errors.Wrap(err, "failed to build module")
	}
	return &m, nil
}

// MustBuild is Build for modules known to be valid, such as test fixtures.
func (b *Builder) MustBuild(f int) *Module {
	m, err := b.Build(f)
	if err != nil {
		panic(err)
	}
	return m
}
