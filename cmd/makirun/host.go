package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/stoewer/go-strcase"
	"go.uber.org/zap"

	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/libs/runner"
	"github.com/makiscript/gomaki/pkg/maki"
	"github.com/makiscript/gomaki/pkg/maki/fixtures"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// host answers the native calls of the scripts: messageBox prints, stubs return constants.
type host struct {
	logger  *zap.Logger
	async   *runner.Async
	tracked runner.NamedRunner

	mu  sync.Mutex
	out io.Writer
}

func newHost(logger *zap.Logger, out io.Writer) *host {
	a := runner.NewAsync()
	return &host{logger: logger, async: a, tracked: runner.NewTracked(a), out: out}
}

func (h *host) messageBox(args []value.Value) (value.Value, error) {
	msg, title := value.Stringify(args[0]), value.Stringify(args[1])
	h.logger.Debug("messageBox", zap.String("title", title), zap.String("message", msg))
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := fmt.Fprintf(h.out, "[%s] %s\n", title, msg); err != nil {
		return value.Null(), err
	}
	return value.Null(), nil
}

func (h *host) bindings(stubs []stubConfig) (*maki.Bindings, error) {
	b, err := maki.NewBindings(maki.NativeBinding{
		Name: fixtures.MessageBox,
		Args: fixtures.MessageBoxArgs,
		Func: h.messageBox,
	})
	if err != nil {
		return nil, err
	}
	for _, s := range stubs {
		nb, err := h.stub(s)
		if err != nil {
			return nil, err
		}
		if err := b.Add(nb); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (h *host) stub(s stubConfig) (maki.NativeBinding, error) {
	name := strcase.LowerCamelCase(s.Name)
	nb := maki.NativeBinding{Name: name, Args: make([]value.KindSet, len(s.Args))}
	for i, a := range s.Args {
		k, err := value.ParseKindSet(a)
		if err != nil {
			return nb, errs.InvalidBinding.Wrapf(err, "argument %d of stub %s", i, name)
		}
		nb.Args[i] = k
	}
	var err error
	if nb.Result, err = value.ParseKindSet(s.Result); err != nil {
		return nb, errs.InvalidBinding.Wrapf(err, "result of stub %s", name)
	}
	v, err := toValue(s.Value)
	if err != nil {
		return nb, errs.InvalidBinding.Wrapf(err, "value of stub %s", name)
	}
	if !nb.Result.Empty() && !nb.Result.Has(v.Kind()) {
		return nb, errs.InvalidBinding.Errorf("stub %s returns %s, declared %s", name, v.Kind(), nb.Result)
	}
	fn := func(args []value.Value) (value.Value, error) {
		h.logger.Debug("stub call", zap.String("native", name), zap.Stringers("args", args))
		if s.Error != "" {
			return value.Null(), errors.New(s.Error)
		}
		return v, nil
	}
	if s.Async {
		nb.Async = maki.Deferred(h.tracked, fn)
	} else {
		nb.Func = fn
	}
	return nb, nil
}

// wait blocks until every asynchronous stub call returned, logging the ones still running.
func (h *host) wait() {
	if running := h.tracked.Running(); len(running) > 0 {
		h.logger.Info("waiting for asynchronous natives", zap.Any("running", running))
	}
	h.async.Wait()
}
