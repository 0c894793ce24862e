package maki

import (
	"context"

	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/maki/program"
)

// Run loads data and executes it to the end, waiting for every asynchronous native call.
// A done ctx abandons the run.
func Run(ctx context.Context, data []byte, bindings *Bindings, opts ...Option) (Result, error) {
	o := newOptions(opts)
	module, err := o.load(data)
	if err != nil {
		return Result{}, err
	}
	return Execute(ctx, module, bindings, opts...)
}

// Execute runs an already loaded module to the end.
func Execute(ctx context.Context, module *program.Module, bindings *Bindings, opts ...Option) (Result, error) {
	m, err := NewMachine(module, bindings, opts...)
	if err != nil {
		return Result{}, err
	}
	stop := context.AfterFunc(ctx, func() {
		m.abandonWith(errs.Abandoned.Wrap(context.Cause(ctx), "context done"))
	})
	defer stop()
	if err := m.Start(); err != nil {
		return Result{}, err
	}
	return m.Wait(ctx)
}
