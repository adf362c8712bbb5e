package att

import (
	"sync/atomic"
)

// Metrics contains atomic metrics for an attenuator.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type Metrics struct {
	// MoveCount indicates the number of move commands issued.
	MoveCount atomic.Uint64
	// CeilingMoveCount indicates the number of moves commanded in the ceiling direction.
	CeilingMoveCount atomic.Uint64
	// FloorMoveCount indicates the number of moves commanded in the floor direction.
	FloorMoveCount atomic.Uint64
	// CalcPendTimeoutCount indicates the number of direction selections that
	// proceeded with possibly-stale ceiling/floor values after the pending
	// calculation wait timed out.
	CalcPendTimeoutCount atomic.Uint64
	// EnergySetCount indicates the number of energy source changes.
	EnergySetCount atomic.Uint64
	// StageCount indicates the number of completed stage cycles.
	StageCount atomic.Uint64
}

func (m *Metrics) incMoveCount() {
	m.MoveCount.Add(1)
}

func (m *Metrics) incCeilingMoveCount() {
	m.CeilingMoveCount.Add(1)
}

func (m *Metrics) incFloorMoveCount() {
	m.FloorMoveCount.Add(1)
}

func (m *Metrics) incCalcPendTimeoutCount() {
	m.CalcPendTimeoutCount.Add(1)
}

func (m *Metrics) incEnergySetCount() {
	m.EnergySetCount.Add(1)
}

func (m *Metrics) incStageCount() {
	m.StageCount.Add(1)
}
