package pv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemSignal(t *testing.T) {
	require := require.New(t)

	t.Run("Get and Put", func(t *testing.T) {
		sig := NewMemFloat64("TST:VAL", 1.5)
		require.Equal("TST:VAL", sig.Name())
		require.Equal(1.5, sig.Get())

		require.NoError(sig.Put(2.5))
		require.Equal(2.5, sig.Get())
	})

	t.Run("Monitor dispatch order", func(t *testing.T) {
		sig := NewMemDiscrete("TST:STATE", "OUT")

		var order []string
		sig.Monitor(func(v string) { order = append(order, "first:"+v) })
		sig.Monitor(func(v string) { order = append(order, "second:"+v) })

		require.NoError(sig.Put("IN"))
		require.Equal([]string{"first:IN", "second:IN"}, order)
	})

	t.Run("Monitor sees value before Put returns", func(t *testing.T) {
		sig := NewMemFloat64("TST:VAL", 0)

		observed := -1.0
		sig.Monitor(func(v float64) { observed = sig.Get() })

		require.NoError(sig.Put(3))
		require.Equal(3.0, observed)
	})

	t.Run("Cancel removes monitor", func(t *testing.T) {
		sig := NewMemFloat64("TST:VAL", 0)

		count := 0
		cancel := sig.Monitor(func(v float64) { count++ })

		require.NoError(sig.Put(1))
		require.Equal(1, count)

		cancel()
		cancel() // second cancel must be safe
		require.NoError(sig.Put(2))
		require.Equal(1, count)
	})
}

func TestReadOnlySignals(t *testing.T) {
	require := require.New(t)

	t.Run("Float64", func(t *testing.T) {
		inner := NewMemFloat64("TST:RBV", 0.8)
		sig := ReadOnlyFloat64(inner)

		require.Equal(0.8, sig.Get())
		require.ErrorIs(sig.Put(0.2), ErrReadOnlySignal)
		require.Equal(0.8, sig.Get())

		// writes through the inner signal remain visible
		require.NoError(inner.Put(0.4))
		require.Equal(0.4, sig.Get())
	})

	t.Run("Discrete", func(t *testing.T) {
		sig := ReadOnlyDiscrete(NewMemDiscrete("TST:STATUS", "OK"))

		require.Equal("OK", sig.Get())
		require.ErrorIs(sig.Put("BAD"), ErrReadOnlySignal)
	})

	t.Run("Const", func(t *testing.T) {
		sig := ConstFloat64(0)

		require.Equal(0.0, sig.Get())
		require.ErrorIs(sig.Put(1), ErrReadOnlySignal)

		cancel := sig.Monitor(func(float64) {})
		cancel()
	})
}
