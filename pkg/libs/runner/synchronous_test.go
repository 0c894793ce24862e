package runner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// a wrong implementation is caught by the race detector
func TestSyncGo(t *testing.T) {
	i := 0
	s := NewSync()
	s.Go(func() {
		i++
	})
	require.Equal(t, 1, i)
}
