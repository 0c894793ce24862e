package runner

// Sync runs functions inline, which keeps tests deterministic.
type Sync struct{}

func NewSync() Sync {
	return Sync{}
}

func (Sync) Go(f func()) {
	f()
}
