package maki

import (
	"strings"
	"sync"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

// NativeFunc is a synchronous host function. Its result is pushed on the caller's stack.
type NativeFunc func(args []value.Value) (value.Value, error)

// AsyncNativeFunc starts a host operation that finishes later through done.
// The machine stays suspended until done is completed or failed.
type AsyncNativeFunc func(args []value.Value, done *Completion)

// NativeBinding is the declared contract of a host function. Exactly one of Func and Async is set.
type NativeBinding struct {
	Name string
	// Args holds the accepted kinds of every parameter, its length is the arity.
	Args []value.KindSet
	// Result is the set of kinds the function may return, zero for void functions.
	Result value.KindSet
	Func   NativeFunc
	Async  AsyncNativeFunc
}

func (b *NativeBinding) Arity() int {
	return len(b.Args)
}

func (b *NativeBinding) validate() error {
	if b.Name == "" {
		return errs.InvalidBinding.New("native binding without a name")
	}
	if (b.Func == nil) == (b.Async == nil) {
		return errs.InvalidBinding.Errorf("native %s must have exactly one of Func and Async", b.Name)
	}
	for i, a := range b.Args {
		if a.Empty() {
			return errs.InvalidBinding.Errorf("argument %d of native %s accepts no kind", i, b.Name)
		}
		if a&^value.AnyKind != 0 {
			return errs.InvalidBinding.Errorf("argument %d of native %s has unknown kinds", i, b.Name)
		}
	}
	if b.Result&^value.AnyKind != 0 {
		return errs.InvalidBinding.Errorf("result of native %s has unknown kinds", b.Name)
	}
	return nil
}

func (b *NativeBinding) checkArgs(args []value.Value) error {
	for i, a := range args {
		if !b.Args[i].Has(a.Kind()) {
			return errs.TypeMismatch.Errorf("argument %d of %s is %s, expected %s", i, b.Name, a.Kind(), b.Args[i])
		}
	}
	return nil
}

// checkResult applies the result contract. Void functions always yield Null.
func (b *NativeBinding) checkResult(r value.Value) (value.Value, error) {
	if b.Result.Empty() {
		return value.Null(), nil
	}
	if !b.Result.Has(r.Kind()) {
		return value.Null(), errs.TypeMismatch.Errorf("result of %s is %s, expected %s", b.Name, r.Kind(), b.Result)
	}
	return r, nil
}

// Bindings is the insertion-ordered table of host functions visible to scripts.
type Bindings struct {
	m *orderedmap.OrderedMap[string, *NativeBinding]
}

func NewBindings(bindings ...NativeBinding) (*Bindings, error) {
	b := &Bindings{m: orderedmap.NewOrderedMap[string, *NativeBinding]()}
	for _, nb := range bindings {
		if err := b.Add(nb); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func MustBindings(bindings ...NativeBinding) *Bindings {
	b, err := NewBindings(bindings...)
	if err != nil {
		panic(err)
	}
	return b
}

// Add validates the contract of nb and registers it. Names are unique.
func (b *Bindings) Add(nb NativeBinding) error {
	if err := nb.validate(); err != nil {
		return err
	}
	if _, ok := b.m.Get(nb.Name); ok {
		return errs.InvalidBinding.Errorf("native %s is already bound", nb.Name)
	}
	nb.Args = append([]value.KindSet(nil), nb.Args...)
	b.m.Set(nb.Name, &nb)
	return nil
}

// Lookup finds a binding by exact name first, then ignoring case. Among case-insensitive
// matches the earliest registered wins.
func (b *Bindings) Lookup(name string) (*NativeBinding, bool) {
	if b == nil {
		return nil, false
	}
	if nb, ok := b.m.Get(name); ok {
		return nb, true
	}
	for el := b.m.Front(); el != nil; el = el.Next() {
		if strings.EqualFold(el.Key, name) {
			return el.Value, true
		}
	}
	return nil, false
}

func (b *Bindings) Len() int {
	if b == nil {
		return 0
	}
	return b.m.Len()
}

// Names lists the bound names in registration order.
func (b *Bindings) Names() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, b.m.Len())
	for el := b.m.Front(); el != nil; el = el.Next() {
		names = append(names, el.Key)
	}
	return names
}

type completion struct {
	value value.Value
	err   error
}

// Completion finishes one suspended native call. Only the first Complete or Fail counts,
// it is safe to call from any goroutine and after the run was abandoned.
type Completion struct {
	once   sync.Once
	native string
	ch     chan completion
}

func newCompletion(native string) *Completion {
	return &Completion{native: native, ch: make(chan completion, 1)}
}

// Native is the name of the binding the completion belongs to.
func (c *Completion) Native() string {
	return c.native
}

func (c *Completion) Complete(v value.Value) {
	c.once.Do(func() {
		c.ch <- completion{value: v}
	})
}

func (c *Completion) Fail(err error) {
	if err == nil {
		err = errs.Unknown.New("asynchronous native failed without an error")
	}
	c.once.Do(func() {
		c.ch <- completion{err: err}
	})
}
