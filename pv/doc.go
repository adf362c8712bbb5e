// Package pv defines the process-variable layer that connects go-beamline
// devices to a control system.
//
// A process variable (PV) is a named remote value exposed by an IOC. Two signal
// shapes cover everything the devices need:
//   - Float64Signal: continuous values (setpoints, readbacks, energies).
//   - DiscreteSignal: enumerated states reported as raw strings.
//
// Both support Get/Put and Monitor subscriptions. Monitor callbacks are
// dispatched synchronously from Put, in registration order, so derived signals
// built on top of them never observe a value change before their own cache
// update runs.
//
// The Provider interface is the wiring point for devices. Registry implements
// Provider with in-memory signals and is used by tests, simulations, and
// examples; a production deployment supplies a Provider backed by its actual
// transport (e.g. Channel Access).
package pv
