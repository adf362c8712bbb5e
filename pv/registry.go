package pv

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Registry is an in-memory Provider. Signals are created on first lookup and
// shared between all callers asking for the same PV name, so a simulated IOC
// and the device under test observe the same values.
//
// Registry is safe for concurrent use.
type Registry struct {
	floats    *xsync.MapOf[string, *MemFloat64]
	discretes *xsync.MapOf[string, *MemDiscrete]
}

var _ Provider = (*Registry)(nil)

// NewRegistry creates an empty in-memory signal registry.
func NewRegistry() *Registry {
	return &Registry{
		floats:    xsync.NewMapOf[string, *MemFloat64](),
		discretes: xsync.NewMapOf[string, *MemDiscrete](),
	}
}

// Float64 returns the continuous signal registered under name, creating it with
// a zero value on first use.
func (r *Registry) Float64(name string) Float64Signal {
	sig, _ := r.floats.LoadOrCompute(name, func() *MemFloat64 {
		return NewMemFloat64(name, 0)
	})

	return sig
}

// Discrete returns the enumerated signal registered under name, creating it
// with an empty value on first use.
func (r *Registry) Discrete(name string) DiscreteSignal {
	sig, _ := r.discretes.LoadOrCompute(name, func() *MemDiscrete {
		return NewMemDiscrete(name, "")
	})

	return sig
}
