package maki

import (
	"go.uber.org/zap"

	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/maki/metrics"
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// run executes instructions until the machine leaves Running.
func (m *Machine) run() {
	code := m.module.Code
	for {
		if m.abandoned.Load() {
			return
		}
		fr := m.frames[len(m.frames)-1]
		pc := fr.pc
		if pc < fr.start || pc >= fr.end {
			m.fail(errs.InvalidJumpTarget.Errorf("program counter %d outside function %s [%d, %d)", pc, fr.name, fr.start, fr.end), pc)
			return
		}
		if limit := m.opts.stepLimit; limit > 0 && m.steps.Load() >= int64(limit) {
			m.fail(errs.LimitExceeded.Errorf("step limit %d exceeded", limit), pc)
			return
		}
		m.steps.Inc()
		stop, err := m.step(fr, pc, code[pc])
		if err != nil {
			m.fail(err, pc)
			return
		}
		if stop {
			return
		}
	}
}

// step executes one instruction of fr. It reports true when the machine stopped running.
func (m *Machine) step(fr *frame, pc int, ins program.Instruction) (bool, error) {
	fr.pc = pc + 1
	switch ins.Op {
	case program.OpNop:

	case program.OpPush:
		fr.push(m.module.Constants[ins.A])

	case program.OpPop:
		if _, err := fr.pop(); err != nil {
			return false, err
		}

	case program.OpDup:
		v, err := fr.peek()
		if err != nil {
			return false, err
		}
		fr.push(v)

	case program.OpLoadLocal:
		fr.push(fr.locals[ins.A])

	case program.OpStoreLocal:
		v, err := fr.pop()
		if err != nil {
			return false, err
		}
		fr.locals[ins.A] = v

	case program.OpLoadGlobal:
		fr.push(m.globals[ins.A])

	case program.OpStoreGlobal:
		v, err := fr.pop()
		if err != nil {
			return false, err
		}
		m.globals[ins.A] = v

	case program.OpAdd, program.OpSub, program.OpMul, program.OpDiv, program.OpMod,
		program.OpBitAnd, program.OpBitOr, program.OpShl, program.OpShr,
		program.OpEq, program.OpNe, program.OpLt, program.OpLe, program.OpGt, program.OpGe:
		return false, binary(fr, ins.Op)

	case program.OpNeg:
		return false, unary(fr, value.Negate)

	case program.OpNot:
		return false, unary(fr, func(v value.Value) (value.Value, error) {
			return value.Not(v), nil
		})

	case program.OpToBool:
		return false, unary(fr, func(v value.Value) (value.Value, error) {
			return value.Bool(value.Truthy(v)), nil
		})

	case program.OpCast:
		return false, unary(fr, func(v value.Value) (value.Value, error) {
			return value.Cast(v, value.Kind(ins.A))
		})

	case program.OpJump:
		fr.pc = ins.A

	case program.OpJumpIfFalse, program.OpJumpIfTrue:
		v, err := fr.pop()
		if err != nil {
			return false, err
		}
		if value.Truthy(v) == (ins.Op == program.OpJumpIfTrue) {
			fr.pc = ins.A
		}

	case program.OpAndThen, program.OpOrElse:
		// A false left operand decides &&, a true one decides ||. The right operand is skipped then.
		v, err := fr.pop()
		if err != nil {
			return false, err
		}
		if decided := ins.Op == program.OpOrElse; value.Truthy(v) == decided {
			fr.push(value.Bool(decided))
			fr.pc = ins.A
		}

	case program.OpPreInc, program.OpPostInc, program.OpPreDec, program.OpPostDec:
		return false, m.increment(fr, ins)

	case program.OpCall:
		return false, m.call(fr, ins.A)

	case program.OpCallNative:
		return m.callNative(fr, pc, ins)

	case program.OpReturn:
		return m.ret(fr, ins.A == 1)

	case program.OpHalt:
		m.transition(triggerReturn, func() {
			m.result = Result{}
		})
		return true, nil

	default:
		return false, errs.Unknown.Errorf("unsupported instruction %s", ins.Op)
	}
	return false, nil
}

func binary(fr *frame, op program.Opcode) error {
	bop, ok := op.BinaryOp()
	if !ok {
		return errs.Unknown.Errorf("%s is not a binary operator", op)
	}
	b, err := fr.pop()
	if err != nil {
		return err
	}
	a, err := fr.pop()
	if err != nil {
		return err
	}
	r, err := value.Binary(bop, a, b)
	if err != nil {
		return err
	}
	fr.push(r)
	return nil
}

func unary(fr *frame, f func(value.Value) (value.Value, error)) error {
	v, err := fr.pop()
	if err != nil {
		return err
	}
	r, err := f(v)
	if err != nil {
		return err
	}
	fr.push(r)
	return nil
}

func (m *Machine) increment(fr *frame, ins program.Instruction) error {
	var slot *value.Value
	if ins.B == program.ScopeLocal {
		slot = &fr.locals[ins.A]
	} else {
		slot = &m.globals[ins.A]
	}
	delta := int32(1)
	if ins.Op == program.OpPreDec || ins.Op == program.OpPostDec {
		delta = -1
	}
	prior := *slot
	v, err := value.Step(prior, delta)
	if err != nil {
		return err
	}
	*slot = v
	if ins.Op == program.OpPreInc || ins.Op == program.OpPreDec {
		fr.push(v)
	} else {
		fr.push(prior)
	}
	return nil
}

func (m *Machine) call(caller *frame, fn int) error {
	if limit := m.opts.maxCallDepth; limit > 0 && len(m.frames) >= limit {
		return errs.LimitExceeded.Errorf("call depth %d exceeded", limit)
	}
	f := m.module.Functions[fn]
	args, err := caller.popN(f.Params)
	if err != nil {
		return err
	}
	callee := newFrame(m.module, fn)
	copy(callee.locals, args)
	m.frames = append(m.frames, callee)
	return nil
}

func (m *Machine) ret(fr *frame, hasValue bool) (bool, error) {
	var v value.Value
	if hasValue {
		var err error
		if v, err = fr.pop(); err != nil {
			return false, err
		}
	}
	m.frames = m.frames[:len(m.frames)-1]
	if len(m.frames) == 0 {
		m.transition(triggerReturn, func() {
			m.result = Result{Value: v, HasValue: hasValue}
		})
		return true, nil
	}
	if hasValue {
		m.frames[len(m.frames)-1].push(v)
	}
	return false, nil
}

func (m *Machine) native(i int) (*NativeBinding, error) {
	if b := m.natives[i]; b != nil {
		return b, nil
	}
	name := m.module.Natives[i].Name
	b, ok := m.bindings.Lookup(name)
	if !ok {
		return nil, errs.UnknownNativeCall.Errorf("no binding for native %q", name)
	}
	m.natives[i] = b
	return b, nil
}

func (m *Machine) callNative(fr *frame, pc int, ins program.Instruction) (bool, error) {
	b, err := m.native(ins.A)
	if err != nil {
		return false, err
	}
	if argc := m.module.Arity(ins); argc != program.UnknownArgc && argc != b.Arity() {
		return false, errs.TypeMismatch.Errorf("native %s called with %d arguments, bound with %d", b.Name, argc, b.Arity())
	}
	args, err := fr.popN(b.Arity())
	if err != nil {
		return false, err
	}
	if err := b.checkArgs(args); err != nil {
		return false, err
	}
	metrics.NativeCall(b.Name)
	m.logger.Debug("native call", zap.String("native", b.Name), zap.Stringers("args", args), zap.Bool("async", b.Async != nil))

	if b.Func != nil {
		r, err := b.Func(args)
		if err != nil {
			return false, errs.NativeCallFailed.Wrapf(err, "native %s", b.Name)
		}
		if r, err = b.checkResult(r); err != nil {
			return false, err
		}
		fr.push(r)
		return false, nil
	}

	c := newCompletion(b.Name)
	m.pending = &pendingCall{completion: c, binding: b, pc: pc}
	if !m.transition(triggerSuspend, nil) {
		return true, nil
	}
	metrics.Suspended()
	b.Async(args, c)
	return true, nil
}
