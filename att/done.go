package att

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-beamline/logger"
)

// DoneChangeHandler is invoked when the aggregate done value transitions
// between 0 and 1.
//
// Note: the handler is invoked in a blocking mode. Take care with long-running
// implementations.
type DoneChangeHandler func(prev int, cur int)

// DoneSignal is the aggregate completion indicator of an attenuator: it is 1
// when every blade reports a known (non-transitional) state and 0 otherwise.
//
// It caches each blade's last observed state and recomputes the value
// synchronously inside every state notification, so it never reports a stale 1
// while a late-arriving blade update is still unknown. The attenuator's move
// loop waits on it instead of polling each blade individually, centralizing
// the "all done" decision in one place.
//
// DoneSignal is read-only from the outside: Put is a no-op.
type DoneSignal struct {
	mu       sync.Mutex
	cond     *sync.Cond
	filters  []*Filter
	cache    []string
	value    atomic.Int32
	handlers []DoneChangeHandler
	cancels  []func()
	logger   logger.Logger
}

// NewDoneSignal creates the aggregate done signal for the given blades.
//
// The cache is seeded from each blade's current position and kept current by a
// monitor subscription on every blade's state signal. Release the
// subscriptions with Close when the owning attenuator is discarded.
func NewDoneSignal(filters []*Filter, log logger.Logger) *DoneSignal {
	if log == nil {
		log = logger.GetLogger()
	}

	d := &DoneSignal{
		filters: filters,
		cache:   make([]string, len(filters)),
		logger:  log,
	}
	d.cond = sync.NewCond(&d.mu)

	for i, f := range filters {
		d.cache[i] = f.Position()
	}
	d.value.Store(int32(d.calcValue()))

	d.cancels = make([]func(), 0, len(filters))
	for i, f := range filters {
		cancel := f.StateSignal().Monitor(func(raw string) {
			d.update(i, f.normalize(raw))
		})
		d.cancels = append(d.cancels, cancel)
	}

	return d
}

// Value returns 1 if every blade is in a known state, 0 otherwise.
func (d *DoneSignal) Value() int {
	return int(d.value.Load())
}

// Put is a no-op. The done value is derived from blade states and cannot be
// set externally; accepting and discarding writes prevents callers from
// spoofing completion.
func (d *DoneSignal) Put(int) error {
	return nil
}

// AddHandler adds one or more DoneChangeHandler functions to be invoked on
// 0/1 transitions.
func (d *DoneSignal) AddHandler(handlers ...DoneChangeHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, handlers...)
}

// Wait blocks until the done value is 1 or until the context is done.
// It returns nil once every blade reports a known state, or the context error.
func (d *DoneSignal) Wait(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Value() == 1 {
		return nil
	}

	stopFunc := context.AfterFunc(ctx, func() {
		d.cond.Broadcast()
	})
	defer stopFunc()

	for d.Value() != 1 {
		select {
		case <-ctx.Done():
			d.logger.Debug("wait for filters receive ctx done", "done", d.Value())
			return ctx.Err()
		default:
			d.cond.Wait()
		}
	}

	return nil
}

// Close cancels the blade state subscriptions. The signal stops updating and
// keeps its last value.
func (d *DoneSignal) Close() {
	d.mu.Lock()
	cancels := d.cancels
	d.cancels = nil
	d.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (d *DoneSignal) update(idx int, state string) {
	d.mu.Lock()
	d.cache[idx] = state

	prev := d.Value()
	cur := d.calcValue()
	if cur == prev {
		d.mu.Unlock()
		return
	}

	d.value.Store(int32(cur))
	d.cond.Broadcast()
	handlers := make([]DoneChangeHandler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.Unlock()

	d.logger.Debug("filters done changed", "prev", prev, "cur", cur)
	for _, handler := range handlers {
		handler(prev, cur)
	}
}

// calcValue recomputes done from the cache. Callers must hold d.mu or have
// exclusive access during construction.
func (d *DoneSignal) calcValue() int {
	for i, f := range d.filters {
		if d.cache[i] == f.profile.Unknown {
			return 0
		}
	}
	return 1
}
