package att

import (
	"fmt"
	"strconv"

	"github.com/arloliu/go-beamline/pv"
)

// feeNumFilters is the fixed blade count of the old FEE attenuator IOC.
const feeNumFilters = 9

// defaultFeePrefix is the base PV prefix of the FEE attenuator.
const defaultFeePrefix = "SATT:FEE1:320"

// variant describes the wiring of an attenuator with a specific blade count.
// One variant per count is precomputed at package init so that construction is
// a pure table lookup.
type variant struct {
	numAtt   int
	suffixes []string
}

var attVariants [MaxFilters + 1]variant

func init() {
	for i := 1; i <= MaxFilters; i++ {
		suffixes := make([]string, 0, i)
		for n := 1; n <= i; n++ {
			suffixes = append(suffixes, fmt.Sprintf(":%02d", n))
		}
		attVariants[i] = variant{numAtt: i, suffixes: suffixes}
	}
}

// New creates a hutch attenuator controller with exactly numFilters blades,
// addressed under the given base PV prefix. Blade n lives under
// "<prefix>:<nn>" with nn zero-padded to two digits.
//
// It returns ErrFilterCount if numFilters is outside [1, MaxFilters].
func New(prefix string, numFilters int, pvs pv.Provider, opts ...Option) (*Attenuator, error) {
	if numFilters < 1 || numFilters > MaxFilters {
		return nil, fmt.Errorf("%w: got %d", ErrFilterCount, numFilters)
	}

	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	v := attVariants[numFilters]
	filters := make([]*Filter, 0, v.numAtt)
	for n, suffix := range v.suffixes {
		name := "filter" + strconv.Itoa(n+1)
		filters = append(filters, NewFilter(name, prefix+suffix, pvs, cfg.logger))
	}

	a := newAttenuator(prefix, filters, cfg)
	a.setpoint = pvs.Float64(prefix + ":R_DES")
	a.readback = pv.ReadOnlyFloat64(pvs.Float64(prefix + ":R_CUR"))
	a.actuate = pvs.Float64(prefix + ":GO")
	a.energy = pv.ReadOnlyFloat64(pvs.Float64(prefix + ":T_CALC.VALE"))
	a.transCeil = pv.ReadOnlyFloat64(pvs.Float64(prefix + ":R_CEIL"))
	a.transFloor = pv.ReadOnlyFloat64(pvs.Float64(prefix + ":R_FLOOR"))
	a.userEnergy = pvs.Float64(prefix + ":EDES")
	a.egetCmd = pvs.Float64(prefix + ":EACT.SCAN")
	a.status = pv.ReadOnlyDiscrete(pvs.Discrete(prefix + ":STATUS"))
	a.calcPend = pv.ReadOnlyFloat64(pvs.Float64(prefix + ":CALCP"))

	return a, nil
}

// NewFee creates the controller of the old FEE attenuator IOC. It carries a
// fixed set of 9 FEE blades, uses the legacy setpoint/readback record names,
// and has no pending-calculation record; the direction-selection wait resolves
// immediately.
//
// An empty prefix selects the default FEE base PV prefix.
func NewFee(prefix string, pvs pv.Provider, opts ...Option) (*Attenuator, error) {
	if prefix == "" {
		prefix = defaultFeePrefix
	}

	cfg, err := newConfig(append([]Option{WithName("FeeAtt")}, opts...)...)
	if err != nil {
		return nil, err
	}

	// The FEE blades hang off the base prefix with its last character dropped,
	// e.g. SATT:FEE1:320 -> SATT:FEE1:32<n>.
	filterPrefix := prefix[:len(prefix)-1]
	filters := make([]*Filter, 0, feeNumFilters)
	for n := 1; n <= feeNumFilters; n++ {
		name := "filter" + strconv.Itoa(n)
		filters = append(filters, NewFeeFilter(name, filterPrefix+strconv.Itoa(n), pvs, cfg.logger))
	}

	a := newAttenuator(prefix, filters, cfg)
	a.setpoint = pvs.Float64(prefix + ":RDES")
	a.readback = pvs.Float64(prefix + ":RACT")
	a.actuate = pvs.Float64(prefix + ":GO")
	a.energy = pv.ReadOnlyFloat64(pvs.Float64(prefix + "ETOA.E"))
	a.transCeil = pv.ReadOnlyFloat64(pvs.Float64(prefix + ":R_CEIL"))
	a.transFloor = pv.ReadOnlyFloat64(pvs.Float64(prefix + ":R_FLOOR"))
	a.userEnergy = pvs.Float64(prefix + ":EDES")
	a.egetCmd = pvs.Float64(prefix + ":EACT.SCAN")
	a.calcPend = pv.ConstFloat64(0)

	return a, nil
}
