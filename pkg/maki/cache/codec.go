package cache

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// Cached modules are stored as CBOR arrays: freecache caps an entry at 1/1024 of the cache size,
// so field names would cost most of the room.

type wireModule struct {
	_         struct{} `cbor:",toarray"`
	Dialect   program.Dialect
	Constants []value.Value
	Natives   []wireNative
	Globals   []wireGlobal
	Functions []wireFunction
	Entry     int
	Code      []wireInstruction
}

type wireNative struct {
	_    struct{} `cbor:",toarray"`
	Name string
	Argc int
}

type wireGlobal struct {
	_    struct{} `cbor:",toarray"`
	Name string
	Init value.Value
}

type wireFunction struct {
	_      struct{} `cbor:",toarray"`
	Name   string
	Entry  int
	Params int
	Locals int
}

type wireInstruction struct {
	_      struct{} `cbor:",toarray"`
	Op     program.Opcode
	A      int
	B      int
	Offset int
}

// convert keeps nil slices nil so that a cached module equals the decoded one.
func convert[T, U any](in []T, f func(T) U) []U {
	if in == nil {
		return nil
	}
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}

func marshalModule(m *program.Module) ([]byte, error) {
	w := wireModule{
		Dialect:   m.Dialect,
		Constants: m.Constants,
		Natives: convert(m.Natives, func(n program.Native) wireNative {
			return wireNative{Name: n.Name, Argc: n.Argc}
		}),
		Globals: convert(m.Globals, func(g program.Global) wireGlobal {
			return wireGlobal{Name: g.Name, Init: g.Init}
		}),
		Functions: convert(m.Functions, func(f program.Function) wireFunction {
			return wireFunction{Name: f.Name, Entry: f.Entry, Params: f.Params, Locals: f.Locals}
		}),
		Entry: m.Entry,
		Code: convert(m.Code, func(i program.Instruction) wireInstruction {
			return wireInstruction{Op: i.Op, A: i.A, B: i.B, Offset: i.Offset}
		}),
	}
	b, err := cbor.Marshal(w)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode module")
	}
	return b, nil
}

func unmarshalModule(b []byte) (*program.Module, error) {
	var w wireModule
	if err := cbor.Unmarshal(b, &w); err != nil {
		return nil, errors.Wrap(err, "failed to decode cached module")
	}
	return &program.Module{
		Dialect:   w.Dialect,
		Constants: w.Constants,
		Natives: convert(w.Natives, func(n wireNative) program.Native {
			return program.Native{Name: n.Name, Argc: n.Argc}
		}),
		Globals: convert(w.Globals, func(g wireGlobal) program.Global {
			return program.Global{Name: g.Name, Init: g.Init}
		}),
		Functions: convert(w.Functions, func(f wireFunction) program.Function {
			return program.Function{Name: f.Name, Entry: f.Entry, Params: f.Params, Locals: f.Locals}
		}),
		Entry: w.Entry,
		Code: convert(w.Code, func(i wireInstruction) program.Instruction {
			return program.Instruction{Op: i.Op, A: i.A, B: i.B, Offset: i.Offset}
		}),
	}, nil
}
