package errs

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

const noPosition = -1

// Error is the structured failure returned by the loader and the engine.
type Error struct {
	kind   Kind
	cause  error
	offset int
	pc     int
	trace  []string
}

func newError(k Kind, cause error) *Error {
	return &Error{kind: k, cause: cause, offset: noPosition, pc: noPosition}
}

func (e *Error) Error() string {
	return e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.kind
}

func (e *Error) Kind() Kind {
	return e.kind
}

// Offset is the byte offset of the offending input for decode-time errors.
func (e *Error) Offset() (int, bool) {
	return e.offset, e.offset != noPosition
}

// PC is the index of the instruction that failed for run-time errors.
func (e *Error) PC() (int, bool) {
	return e.pc, e.pc != noPosition
}

// Trace lists the functions on the frame stack at the moment of failure, innermost first.
func (e *Error) Trace() []string {
	return e.trace
}

func (e *Error) Extend(message string) error {
	c := *e
	c.cause = &extended{msg: fmtExtend(e.cause, message), cause: e.cause}
	return &c
}

type extended struct {
	msg   string
	cause error
}

func (e *extended) Error() string { return e.msg }

func (e *extended) Unwrap() error { return e.cause }

// Malformed builds a MalformedBytecode error pointing at the byte offset.
// A negative offset means the failure has no position in the input.
func Malformed(offset int, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if offset < 0 {
		return newError(MalformedBytecode, pkgerrors.Errorf("%s: %s", MalformedBytecode, msg))
	}
	e := newError(MalformedBytecode, pkgerrors.Errorf("%s at offset %d: %s", MalformedBytecode, offset, msg))
	e.offset = offset
	return e
}

// AtPC annotates a run-time error with the failing instruction and the frame trace.
// Errors that already carry a PC are returned unchanged, errors of other packages become Unknown.
func AtPC(err error, pc int, trace []string) error {
	var e *Error
	if !errors.As(err, &e) {
		e = newError(Unknown, err)
	}
	if e.pc != noPosition {
		return err
	}
	c := *e
	c.pc = pc
	c.trace = trace
	return &c
}

// KindOf extracts the kind of err, Unknown if err was not produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return Unknown
}

func OffsetOf(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Offset()
	}
	return 0, false
}

func PCOf(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.PC()
	}
	return 0, false
}

func TraceOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.trace
	}
	return nil
}
