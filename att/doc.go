// Package att models a segmented x-ray beam attenuator: an ordered array of up
// to twelve binary absorbing blades whose combined configuration yields a
// discrete beam transmission between 0 (fully blocked) and 1 (fully open).
//
// The hardware I/O itself lives behind the pv.Provider interface; this package
// implements the decision and aggregation logic above it:
//   - Filter: a single attenuation blade with a per-variant state vocabulary.
//   - DoneSignal: the aggregate "all blades reached a known state" indicator,
//     derived synchronously from every blade's state updates.
//   - Attenuator: the controller that translates a requested transmission into
//     a ceiling or floor move command, switches the energy source used for the
//     transmission calculation, and records/restores blade configuration
//     across stage/unstage cycles.
//
// Construction goes through the factory functions New (standard hutch
// attenuators, 1 to 12 blades) and NewFee (the fixed 9-blade attenuator on the
// old FEE IOC, which adds an explicit FAIL state to each blade).
package att
