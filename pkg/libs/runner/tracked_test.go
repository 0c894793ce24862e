package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrackedNamed(t *testing.T) {
	a := NewTracked(NewAsync())
	require.Empty(t, a.Running())

	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})
	a.Named("getTime", func() {
		close(started)
		<-release
	})
	a.Go(func() {
		<-release
		close(finished)
	})

	<-started
	require.Equal(t, map[string]int{"getTime": 1, "": 1}, a.Running())
	close(release)
	<-finished
	require.Eventually(t, func() bool { return len(a.Running()) == 0 }, time.Second, time.Millisecond)
}

func TestTrackedSync(t *testing.T) {
	a := NewTracked(NewSync())
	calls := 0
	a.Named("x", func() {
		require.Equal(t, map[string]int{"x": 1}, a.Running())
		calls++
	})
	require.Equal(t, 1, calls)
	require.Empty(t, a.Running())
}

func TestAsyncWait(t *testing.T) {
	a := NewAsync()
	results := make(chan int, 3)
	for i := range 3 {
		a.Go(func() {
			results <- i
		})
	}
	a.Wait()
	require.Len(t, results, 3)
}
