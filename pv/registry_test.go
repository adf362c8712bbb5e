package pv

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	require := require.New(t)

	t.Run("Auto-vivify and share", func(t *testing.T) {
		reg := NewRegistry()

		sig := reg.Float64("TST:R_DES")
		require.NotNil(sig)
		require.Equal("TST:R_DES", sig.Name())
		require.Equal(0.0, sig.Get())

		// the simulated IOC side and the device side see the same signal
		require.NoError(sig.Put(0.5))
		require.Equal(0.5, reg.Float64("TST:R_DES").Get())

		state := reg.Discrete("TST:01:STATE")
		require.NoError(state.Put("IN"))
		require.Equal("IN", reg.Discrete("TST:01:STATE").Get())
	})

	t.Run("Distinct names distinct signals", func(t *testing.T) {
		reg := NewRegistry()

		require.NoError(reg.Float64("TST:A").Put(1))
		require.Equal(0.0, reg.Float64("TST:B").Get())
	})

	t.Run("Concurrent lookups return one signal", func(t *testing.T) {
		reg := NewRegistry()

		const workers = 16
		signals := make([]Float64Signal, workers)
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func(idx int) {
				defer wg.Done()
				signals[idx] = reg.Float64("TST:SHARED")
			}(i)
		}
		wg.Wait()

		for i := 1; i < workers; i++ {
			require.Same(signals[0], signals[i])
		}
	})
}
