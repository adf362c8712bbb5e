package pv

import "errors"

var (
	// ErrReadOnlySignal indicates that a Put was attempted on a read-only signal.
	ErrReadOnlySignal = errors.New("signal is read-only")
)

// Float64Signal represents a continuous-valued process variable.
type Float64Signal interface {
	// Name returns the full PV name of the signal.
	Name() string
	// Get returns the last known value of the signal.
	Get() float64
	// Put writes a new value to the signal.
	Put(value float64) error
	// Monitor registers a callback invoked on every value update.
	// The returned cancel function unregisters the callback.
	Monitor(fn func(value float64)) (cancel func())
}

// DiscreteSignal represents an enumerated process variable whose value is the
// raw state string reported by the control system.
type DiscreteSignal interface {
	// Name returns the full PV name of the signal.
	Name() string
	// Get returns the last known raw state string.
	Get() string
	// Put writes a new raw state string to the signal.
	Put(value string) error
	// Monitor registers a callback invoked on every value update.
	// The returned cancel function unregisters the callback.
	Monitor(fn func(value string)) (cancel func())
}

// Provider resolves PV names to signals. It is the wiring point between
// go-beamline devices and a concrete control-system transport.
type Provider interface {
	// Float64 returns the continuous signal with the given PV name.
	Float64(name string) Float64Signal
	// Discrete returns the enumerated signal with the given PV name.
	Discrete(name string) DiscreteSignal
}

type roFloat64 struct {
	Float64Signal
}

func (roFloat64) Put(float64) error { return ErrReadOnlySignal }

// ReadOnlyFloat64 wraps sig so that Put always fails with ErrReadOnlySignal.
func ReadOnlyFloat64(sig Float64Signal) Float64Signal {
	return roFloat64{sig}
}

type roDiscrete struct {
	DiscreteSignal
}

func (roDiscrete) Put(string) error { return ErrReadOnlySignal }

// ReadOnlyDiscrete wraps sig so that Put always fails with ErrReadOnlySignal.
func ReadOnlyDiscrete(sig DiscreteSignal) DiscreteSignal {
	return roDiscrete{sig}
}

type constFloat64 float64

func (constFloat64) Name() string { return "" }

func (c constFloat64) Get() float64 { return float64(c) }

func (constFloat64) Put(float64) error { return ErrReadOnlySignal }

func (constFloat64) Monitor(func(float64)) (cancel func()) { return func() {} }

// ConstFloat64 returns a read-only signal that always reports value.
// It stands in for PVs that do not exist on older IOCs.
func ConstFloat64(value float64) Float64Signal {
	return constFloat64(value)
}
