package att

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/arloliu/go-beamline/internal/pool"
	"github.com/arloliu/go-beamline/logger"
	"github.com/arloliu/go-beamline/pv"
)

// MaxFilters is the largest number of blades an attenuator can hold.
const MaxFilters = 12

// Actuation command codes written to the GO record. The IOC moves the blades
// to the precomputed ceiling or floor configuration accordingly.
const (
	// CeilingDirection commands the blade configuration whose transmission is
	// the nearest achievable value at or above the setpoint.
	CeilingDirection = 2
	// FloorDirection commands the blade configuration whose transmission is
	// the nearest achievable value at or below the setpoint.
	FloorDirection = 3
)

// Energy source modes written to the EACT scan record.
const (
	// liveEnergyMode makes the IOC track the live beam energy continuously.
	liveEnergyMode = 6
	// userEnergyMode makes the IOC passive so an explicit user energy drives
	// the transmission calculation.
	userEnergyMode = 0
)

// Attenuator is the controller of one segmented attenuator: an ordered,
// fixed-size collection of Filter blades plus the IOC records that translate a
// requested transmission into a blade configuration.
//
// The controller does not compute any physics itself. The IOC continuously
// publishes the two achievable transmissions bracketing the setpoint (ceiling
// and floor); the controller picks a direction, issues the go command, and
// resolves the move once the aggregate done signal asserts.
//
// Use the New or NewFee factory functions to construct instances.
type Attenuator struct {
	name    string
	prefix  string
	filters []*Filter

	setpoint   pv.Float64Signal
	readback   pv.Float64Signal
	actuate    pv.Float64Signal
	energy     pv.Float64Signal
	transCeil  pv.Float64Signal
	transFloor pv.Float64Signal
	userEnergy pv.Float64Signal
	egetCmd    pv.Float64Signal
	status     pv.DiscreteSignal
	calcPend   pv.Float64Signal

	done    *DoneSignal
	cfg     *config
	logger  logger.Logger
	metrics Metrics

	mu           sync.Mutex
	staged       bool
	originalVals map[int]string
}

func newAttenuator(prefix string, filters []*Filter, cfg *config) *Attenuator {
	a := &Attenuator{
		name:    cfg.name,
		prefix:  prefix,
		filters: filters,
		cfg:     cfg,
		logger:  cfg.logger.With("attenuator", cfg.name),
	}
	a.done = NewDoneSignal(filters, a.logger)

	return a
}

// Name returns the attenuator's name.
func (a *Attenuator) Name() string {
	return a.name
}

// Prefix returns the attenuator's base PV prefix.
func (a *Attenuator) Prefix() string {
	return a.prefix
}

// NumFilters returns the number of blades, fixed at construction.
func (a *Attenuator) NumFilters() int {
	return len(a.filters)
}

// Filters returns the ordered blade collection.
func (a *Attenuator) Filters() []*Filter {
	return a.filters
}

// Filter returns the n-th blade, 1-based to match the filter1..filterN naming.
// It returns nil if n is out of range.
func (a *Attenuator) Filter(n int) *Filter {
	if n < 1 || n > len(a.filters) {
		return nil
	}
	return a.filters[n-1]
}

// Done returns the aggregate done signal of this attenuator.
func (a *Attenuator) Done() *DoneSignal {
	return a.done
}

// Metrics returns the attenuator's metrics counters.
func (a *Attenuator) Metrics() *Metrics {
	return &a.metrics
}

// ActuateValue computes the value to write to the go record: CeilingDirection
// if the setpoint is closer to the achievable ceiling than to the achievable
// floor, FloorDirection otherwise. An exact tie deliberately selects the floor,
// erring toward more attenuation.
//
// If a ceiling/floor recalculation is pending, ActuateValue first waits for it
// to clear, polling at the configured interval up to the configured timeout.
// On timeout it proceeds with the currently readable values; staleness is
// bounded best-effort, never an error. The (setpoint, ceiling, floor) snapshot
// is taken only after the wait resolves.
func (a *Attenuator) ActuateValue(ctx context.Context) float64 {
	a.waitCalcPend(ctx)

	goal := a.setpoint.Get()
	ceil := a.transCeil.Get()
	floor := a.transFloor.Get()

	if math.Abs(goal-ceil) < math.Abs(goal-floor) {
		a.logger.Debug("selected ceiling direction", "goal", goal, "ceil", ceil, "floor", floor)
		return CeilingDirection
	}

	a.logger.Debug("selected floor direction", "goal", goal, "ceil", ceil, "floor", floor)

	return FloorDirection
}

// waitCalcPend blocks until the pending-calculation flag clears, the timeout
// elapses, or the context is done. It never fails; on timeout the caller
// proceeds with whatever ceiling/floor values are currently readable.
func (a *Attenuator) waitCalcPend(ctx context.Context) {
	if a.calcPend.Get() == 0 {
		return
	}

	ticker := pool.GetTicker(a.cfg.calcPendInterval)
	defer pool.PutTicker(ticker)
	timer := pool.GetTimer(a.cfg.calcPendTimeout)
	defer pool.PutTimer(timer)

	for {
		select {
		case <-ctx.Done():
			a.logger.Warn("calc pending wait canceled, using current ceiling/floor values")
			return
		case <-timer.C:
			a.metrics.incCalcPendTimeoutCount()
			a.logger.Warn("calc pending did not clear before timeout, using current ceiling/floor values",
				"timeout", a.cfg.calcPendTimeout)
			return
		case <-ticker.C:
			if a.calcPend.Get() == 0 {
				return
			}
		}
	}
}

// Move requests the discrete transmission nearest to target in the selected
// direction. It writes the setpoint, computes the direction, and issues the go
// command; blade motion is asynchronous. Use WaitDone to block until all
// blades settle. Issuing a new Move while one is outstanding supersedes the
// prior target.
func (a *Attenuator) Move(ctx context.Context, target float64) error {
	if target < 0 || target > 1 || math.IsNaN(target) {
		return fmt.Errorf("%w: %v", ErrTransmission, target)
	}

	if err := a.setpoint.Put(target); err != nil {
		return fmt.Errorf("write setpoint: %w", err)
	}

	value := a.ActuateValue(ctx)
	if err := a.actuate.Put(value); err != nil {
		return fmt.Errorf("write go command: %w", err)
	}

	a.metrics.incMoveCount()
	if value == CeilingDirection {
		a.metrics.incCeilingMoveCount()
	} else {
		a.metrics.incFloorMoveCount()
	}
	a.logger.Debug("move issued", "target", target, "direction", value)

	return nil
}

// Insert blocks the beam: it moves to transmission 0.
func (a *Attenuator) Insert(ctx context.Context) error {
	return a.Move(ctx, 0)
}

// Remove brings the attenuator fully out of the beam: it moves to
// transmission 1.
func (a *Attenuator) Remove(ctx context.Context) error {
	return a.Move(ctx, 1)
}

// WaitDone blocks until every blade reports a known state or the context is
// done. On completion it samples the final blade configuration once to
// reconcile the observed in/out pattern with the transmission readback.
func (a *Attenuator) WaitDone(ctx context.Context) error {
	if err := a.done.Wait(ctx); err != nil {
		return err
	}

	inserted := 0
	for _, f := range a.filters {
		if f.Inserted() {
			inserted++
		}
	}
	a.logger.Debug("move complete",
		"transmission", a.Transmission(),
		"inserted_filters", inserted,
		"total_filters", len(a.filters))

	return nil
}

// Transmission returns the last achieved transmission: the ratio of
// pass-through beam to incoming beam, between 1 (full beam) and 0 (no beam).
func (a *Attenuator) Transmission() float64 {
	return a.readback.Get()
}

// Inserted reports whether any blade attenuates the beam, i.e. the resolved
// transmission is strictly below 1.
func (a *Attenuator) Inserted() bool {
	return a.Transmission() < 1
}

// Removed reports whether the beam passes unattenuated, i.e. the resolved
// transmission is exactly 1.
func (a *Attenuator) Removed() bool {
	return a.Transmission() == 1
}

// Setpoint returns the requested transmission.
func (a *Attenuator) Setpoint() float64 {
	return a.setpoint.Get()
}

// CalcPending reports whether a ceiling/floor recalculation is in progress
// after an energy change.
func (a *Attenuator) CalcPending() bool {
	return a.calcPend.Get() != 0
}

// TransCeil returns the nearest achievable transmission at or above the
// setpoint, as last computed by the IOC.
func (a *Attenuator) TransCeil() float64 {
	return a.transCeil.Get()
}

// TransFloor returns the nearest achievable transmission at or below the
// setpoint, as last computed by the IOC.
func (a *Attenuator) TransFloor() float64 {
	return a.transFloor.Get()
}

// Energy returns the energy currently used for the transmission calculation.
func (a *Attenuator) Energy() float64 {
	return a.energy.Get()
}

// Status returns the IOC's status string, or "" if this variant has no status
// record.
func (a *Attenuator) Status() string {
	if a.status == nil {
		return ""
	}
	return a.status.Get()
}

// SetEnergy selects the energy source for the transmission calculations.
//
// With no argument the IOC tracks the live beam energy continuously. With an
// explicit energy the IOC is switched to passive mode and the given value
// drives the ceiling/floor recomputation.
func (a *Attenuator) SetEnergy(energy ...float64) error {
	a.metrics.incEnergySetCount()

	if len(energy) == 0 {
		a.logger.Debug("setting attenuator to use live energy")
		return a.egetCmd.Put(liveEnergyMode)
	}

	a.logger.Debug("setting attenuator to use explicit energy", "energy", energy[0])
	if err := a.egetCmd.Put(userEnergyMode); err != nil {
		return fmt.Errorf("write energy source mode: %w", err)
	}

	return a.userEnergy.Put(energy[0])
}

// Stage records the current position of every blade so Unstage can restore the
// configuration later. A blade observed in a declared-invalid state (e.g.
// FAIL) is recorded as its first out-state instead, so a restore never targets
// an invalid state.
//
// Recording happens before the generic staged-move mechanism runs: the
// remembered values must reflect the pre-stage configuration, not whatever the
// stager does to the blades.
//
// Storing blade states rather than the transmission is deliberate: the
// mechanical configuration matching a given transmission changes with the beam
// energy.
func (a *Attenuator) Stage() error {
	a.mu.Lock()
	if a.staged {
		a.mu.Unlock()
		return ErrAlreadyStaged
	}

	a.originalVals = make(map[int]string, len(a.filters))
	for i, f := range a.filters {
		pos := f.Position()
		if f.profile.IsInvalid(pos) {
			a.originalVals[i] = f.profile.FirstOut()
			a.logger.Warn("filter in invalid state, will restore to out-state",
				"filter", f.Name(), "state", pos, "restore_state", f.profile.FirstOut())
		} else {
			a.originalVals[i] = f.state.Get()
		}
	}
	a.staged = true
	a.mu.Unlock()

	a.metrics.incStageCount()

	if a.cfg.stager != nil {
		return a.cfg.stager.Stage()
	}

	return nil
}

// Unstage restores every blade to its recorded pre-stage configuration after
// delegating to the generic staged-move mechanism. Unstage without a prior
// Stage is a no-op.
func (a *Attenuator) Unstage() error {
	a.mu.Lock()
	if !a.staged {
		a.mu.Unlock()
		return nil
	}
	vals := a.originalVals
	a.originalVals = nil
	a.staged = false
	a.mu.Unlock()

	var err error
	if a.cfg.stager != nil {
		err = a.cfg.stager.Unstage()
	}

	for i, f := range a.filters {
		state, ok := vals[i]
		if !ok {
			continue
		}
		if cmdErr := f.Command(state); cmdErr != nil && err == nil {
			err = fmt.Errorf("restore %s to %s: %w", f.Name(), state, cmdErr)
		}
	}

	return err
}

// Staged reports whether the attenuator currently holds a recorded pre-stage
// configuration.
func (a *Attenuator) Staged() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.staged
}

// Close releases the blade state subscriptions held by the done signal.
func (a *Attenuator) Close() {
	a.done.Close()
}
