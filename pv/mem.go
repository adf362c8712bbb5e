package pv

import "sync"

type monitorEntry[T any] struct {
	id uint64
	fn func(T)
}

// MemSignal is an in-memory signal implementation. It backs the Registry and is
// the test double for remote PVs.
//
// Put stores the value and then invokes every registered monitor callback, in
// registration order, before returning. Callbacks run outside the signal's lock
// so they may call Get or Put on any signal.
type MemSignal[T any] struct {
	mu       sync.Mutex
	name     string
	value    T
	monitors []monitorEntry[T]
	nextID   uint64
}

// MemFloat64 is an in-memory continuous signal.
type MemFloat64 = MemSignal[float64]

// MemDiscrete is an in-memory enumerated signal.
type MemDiscrete = MemSignal[string]

var (
	_ Float64Signal  = (*MemFloat64)(nil)
	_ DiscreteSignal = (*MemDiscrete)(nil)
)

// NewMemFloat64 creates an in-memory continuous signal with an initial value.
func NewMemFloat64(name string, initial float64) *MemFloat64 {
	return &MemSignal[float64]{name: name, value: initial}
}

// NewMemDiscrete creates an in-memory enumerated signal with an initial value.
func NewMemDiscrete(name string, initial string) *MemDiscrete {
	return &MemSignal[string]{name: name, value: initial}
}

// Name returns the PV name of the signal.
func (s *MemSignal[T]) Name() string {
	return s.name
}

// Get returns the current value of the signal.
func (s *MemSignal[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.value
}

// Put stores value and dispatches it to all monitor callbacks synchronously,
// in registration order.
func (s *MemSignal[T]) Put(value T) error {
	s.mu.Lock()
	s.value = value
	monitors := make([]monitorEntry[T], len(s.monitors))
	copy(monitors, s.monitors)
	s.mu.Unlock()

	for _, m := range monitors {
		m.fn(value)
	}

	return nil
}

// Monitor registers fn to be invoked on every Put. The returned cancel function
// removes the registration; it is safe to call more than once.
func (s *MemSignal[T]) Monitor(fn func(T)) (cancel func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.monitors = append(s.monitors, monitorEntry[T]{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		for i, m := range s.monitors {
			if m.id == id {
				s.monitors = append(s.monitors[:i], s.monitors[i+1:]...)
				return
			}
		}
	}
}
