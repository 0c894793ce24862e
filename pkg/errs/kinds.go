package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies every failure the loader and the engine can report.
// A Kind is itself an error, so errors.Is(err, errs.TypeMismatch) matches any error of that kind.
type Kind uint8

const (
	Unknown Kind = iota

	// Decode time.
	TruncatedInput
	UnknownDialect
	MalformedBytecode

	// Run time.
	TypeMismatch
	StackUnderflow
	InvalidJumpTarget
	UnknownNativeCall
	ArithmeticError
	NativeCallFailed

	// Host side.
	InvalidBinding
	LimitExceeded
	Abandoned
)

var kindNames = [...]string{
	Unknown:           "unknown error",
	TruncatedInput:    "truncated input",
	UnknownDialect:    "unknown dialect",
	MalformedBytecode: "malformed bytecode",
	TypeMismatch:      "type mismatch",
	StackUnderflow:    "stack underflow",
	InvalidJumpTarget: "invalid jump target",
	UnknownNativeCall: "unknown native call",
	ArithmeticError:   "arithmetic error",
	NativeCallFailed:  "native call failed",
	InvalidBinding:    "invalid binding",
	LimitExceeded:     "limit exceeded",
	Abandoned:         "abandoned",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

func (k Kind) Error() string {
	return k.String()
}

// DecodeTime reports whether errors of the kind abort loading rather than a run.
func (k Kind) DecodeTime() bool {
	return k == TruncatedInput || k == UnknownDialect || k == MalformedBytecode
}

func (k Kind) New(msg string) error {
	return newError(k, errors.Errorf("%s: %s", k, msg))
}

func (k Kind) Errorf(format string, args ...interface{}) error {
	return newError(k, errors.Errorf("%s: %s", k, fmt.Sprintf(format, args...)))
}

func (k Kind) Wrap(err error, msg string) error {
	return k.Wrapf(err, "%s", msg)
}

func (k Kind) Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return k.Errorf(format, args...)
	}
	return newError(k, errors.Wrapf(err, "%s: %s", k, fmt.Sprintf(format, args...)))
}
