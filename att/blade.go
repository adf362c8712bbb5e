package att

import (
	"slices"

	"github.com/arloliu/go-beamline/logger"
	"github.com/arloliu/go-beamline/pv"
)

// StateProfile describes the state vocabulary of a filter blade.
//
// States is the declared vocabulary the blade may report. Any raw value outside
// it reads as the Unknown sentinel. Invalid lists declared states that are not
// valid resting positions (the FEE hardware reports FAIL); a blade observed in
// an invalid state is never used as a restore target.
type StateProfile struct {
	States  []string
	In      []string
	Out     []string
	Invalid []string
	Unknown string
}

// StandardProfile returns the state vocabulary of the hard x-ray hutch blades.
func StandardProfile() StateProfile {
	return StateProfile{
		States:  []string{"IN", "OUT"},
		In:      []string{"IN"},
		Out:     []string{"OUT"},
		Unknown: "Unknown",
	}
}

// FeeProfile returns the state vocabulary of the FEE blades, which adds an
// explicit FAIL state and uses XSTN as the unknown sentinel.
func FeeProfile() StateProfile {
	return StateProfile{
		States:  []string{"IN", "OUT", "FAIL"},
		In:      []string{"IN"},
		Out:     []string{"OUT"},
		Invalid: []string{"FAIL"},
		Unknown: "XSTN",
	}
}

// Declared reports whether raw is part of the declared vocabulary.
func (p *StateProfile) Declared(raw string) bool {
	return slices.Contains(p.States, raw)
}

// IsInvalid reports whether state is a declared-invalid resting state.
func (p StateProfile) IsInvalid(state string) bool {
	return slices.Contains(p.Invalid, state)
}

// FirstOut returns the first declared out-state. It is the substitute restore
// target for blades observed in an invalid state.
func (p *StateProfile) FirstOut() string {
	return p.Out[0]
}

// Filter is a single attenuation blade: a binary in/out absorbing element
// wrapping a remote discrete-state device.
//
// The state signal reports the blade's current position; move commands are
// written to a separate command signal. Material, thickness and the stuck flag
// are advisory metadata and are never computed upon.
type Filter struct {
	name    string
	profile StateProfile

	state pv.DiscreteSignal
	cmd   pv.DiscreteSignal

	thickness pv.Float64Signal
	material  pv.DiscreteSignal
	stuck     pv.Float64Signal

	logger logger.Logger
}

// NewFilter creates a hutch attenuation blade addressed under the given PV
// prefix, with state, command, and metadata PVs resolved through pvs.
func NewFilter(name, prefix string, pvs pv.Provider, log logger.Logger) *Filter {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Filter{
		name:      name,
		profile:   StandardProfile(),
		state:     pvs.Discrete(prefix + ":STATE"),
		cmd:       pvs.Discrete(prefix + ":GO"),
		thickness: pvs.Float64(prefix + ":THICK"),
		material:  pvs.Discrete(prefix + ":MATERIAL"),
		stuck:     pvs.Float64(prefix + ":STUCK"),
		logger:    log,
	}
}

// NewFeeFilter creates an FEE attenuation blade. The old FEE IOC exposes only
// the state and command PVs and uses the extended FAIL vocabulary.
func NewFeeFilter(name, prefix string, pvs pv.Provider, log logger.Logger) *Filter {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Filter{
		name:    name,
		profile: FeeProfile(),
		state:   pvs.Discrete(prefix + ":STATE"),
		cmd:     pvs.Discrete(prefix + ":CMD"),
		logger:  log,
	}
}

// Name returns the blade's name within its attenuator, e.g. "filter3".
func (f *Filter) Name() string {
	return f.name
}

// Profile returns the blade's state vocabulary.
func (f *Filter) Profile() StateProfile {
	return f.profile
}

// Position returns the blade's current state. Raw values outside the declared
// vocabulary collapse to the profile's unknown sentinel.
func (f *Filter) Position() string {
	return f.normalize(f.state.Get())
}

// Unknown reports whether the blade's position is currently unknown, i.e. the
// blade is moving or its state cannot be read.
func (f *Filter) Unknown() bool {
	return f.Position() == f.profile.Unknown
}

// Inserted reports whether the blade is in the beam path.
func (f *Filter) Inserted() bool {
	return slices.Contains(f.profile.In, f.Position())
}

// Removed reports whether the blade is out of the beam path.
func (f *Filter) Removed() bool {
	return slices.Contains(f.profile.Out, f.Position())
}

// Insert commands the blade into the beam path.
func (f *Filter) Insert() error {
	f.logger.Debug("insert filter", "filter", f.name)
	return f.cmd.Put(f.profile.In[0])
}

// Remove commands the blade out of the beam path.
func (f *Filter) Remove() error {
	f.logger.Debug("remove filter", "filter", f.name)
	return f.cmd.Put(f.profile.FirstOut())
}

// Command writes a raw state value to the blade's command PV. It is used by
// the attenuator's unstage path to restore a recorded configuration.
func (f *Filter) Command(state string) error {
	return f.cmd.Put(state)
}

// Thickness returns the blade's thickness metadata, or 0 if the variant does
// not expose it.
func (f *Filter) Thickness() float64 {
	if f.thickness == nil {
		return 0
	}
	return f.thickness.Get()
}

// Material returns the blade's material metadata, or "" if the variant does
// not expose it.
func (f *Filter) Material() string {
	if f.material == nil {
		return ""
	}
	return f.material.Get()
}

// Stuck reports the blade's advisory stuck flag. A stuck blade does not block
// commands; callers decide what to do with the information.
func (f *Filter) Stuck() bool {
	if f.stuck == nil {
		return false
	}
	return f.stuck.Get() != 0
}

// StateSignal returns the blade's state signal. The aggregate done signal
// monitors it for position updates.
func (f *Filter) StateSignal() pv.DiscreteSignal {
	return f.state
}

func (f *Filter) normalize(raw string) string {
	if f.profile.Declared(raw) {
		return raw
	}
	return f.profile.Unknown
}
