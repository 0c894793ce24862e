package maki

import (
	"github.com/makiscript/gomaki/pkg/libs/runner"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// Deferred turns a blocking host function into an asynchronous one executed by r.
// A runner.NamedRunner tracks the call under the native's name. With a synchronous
// runner the completion is ready before the machine starts waiting for it.
func Deferred(r runner.Runner, fn NativeFunc) AsyncNativeFunc {
	return func(args []value.Value, done *Completion) {
		call := func() {
			v, err := fn(args)
			if err != nil {
				done.Fail(err)
				return
			}
			done.Complete(v)
		}
		if nr, ok := r.(runner.NamedRunner); ok {
			nr.Named(done.Native(), call)
			return
		}
		r.Go(call)
	}
}
