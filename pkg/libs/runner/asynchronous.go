package runner

import "sync"

// Async runs every function on a new goroutine and can wait for all of them to return.
type Async struct {
	wg sync.WaitGroup
}

func NewAsync() *Async {
	return &Async{}
}

func (a *Async) Go(f func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		f()
	}()
}

// Wait blocks until every function started so far has returned.
func (a *Async) Wait() {
	a.wg.Wait()
}
