package runner

import "sync"

// NamedRunner runs functions under a name and reports how many of each are in flight.
type NamedRunner interface {
	Runner
	Named(name string, f func())
	Running() map[string]int
}

type tracked struct {
	mu      sync.Mutex
	r       Runner
	running map[string]int
}

func NewTracked(r Runner) NamedRunner {
	return &tracked{
		r:       r,
		running: make(map[string]int),
	}
}

func (a *tracked) add(name string, d int) {
	a.mu.Lock()
	a.running[name] += d
	if a.running[name] == 0 {
		delete(a.running, name)
	}
	a.mu.Unlock()
}

func (a *tracked) Go(f func()) {
	a.Named("", f)
}

func (a *tracked) Named(name string, f func()) {
	a.add(name, 1)
	a.r.Go(func() {
		defer a.add(name, -1)
		f()
	})
}

func (a *tracked) Running() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.running))
	for k, v := range a.running {
		out[k] = v
	}
	return out
}
