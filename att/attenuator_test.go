package att

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/arloliu/go-beamline/pv"
	"github.com/stretchr/testify/require"
)

func newTestAtt(t *testing.T, reg *pv.Registry, numFilters int, opts ...Option) *Attenuator {
	t.Helper()

	for i := 1; i <= numFilters; i++ {
		require.NoError(t, reg.Discrete(fmtFilterState(i)).Put("OUT"))
	}

	a, err := New("TST:ATT", numFilters, reg, opts...)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return a
}

func fmtFilterState(i int) string {
	return fmt.Sprintf("TST:ATT:%02d:STATE", i)
}

func TestActuateValue(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		setpoint float64
		ceil     float64
		floor    float64
		want     float64
	}{
		{"Tie prefers floor", 0.5, 0.9, 0.1, FloorDirection},
		{"Floor closer", 0.5, 0.9, 0.3, FloorDirection},
		{"Ceiling closer", 0.55, 0.6, 0.1, CeilingDirection},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := pv.NewRegistry()
			a := newTestAtt(t, reg, 2)

			require.NoError(reg.Float64("TST:ATT:R_DES").Put(tc.setpoint))
			require.NoError(reg.Float64("TST:ATT:R_CEIL").Put(tc.ceil))
			require.NoError(reg.Float64("TST:ATT:R_FLOOR").Put(tc.floor))

			require.Equal(tc.want, a.ActuateValue(ctx))
		})
	}

	t.Run("Calc pending bounds the wait", func(t *testing.T) {
		reg := pv.NewRegistry()
		a := newTestAtt(t, reg, 2,
			WithCalcPendTimeout(50*time.Millisecond),
			WithCalcPendInterval(5*time.Millisecond))

		// pending flag never clears
		require.NoError(reg.Float64("TST:ATT:CALCP").Put(1))
		require.NoError(reg.Float64("TST:ATT:R_DES").Put(0.5))
		require.NoError(reg.Float64("TST:ATT:R_CEIL").Put(0.6))
		require.NoError(reg.Float64("TST:ATT:R_FLOOR").Put(0.1))

		start := time.Now()
		value := a.ActuateValue(ctx)
		elapsed := time.Since(start)

		require.Equal(float64(CeilingDirection), value)
		require.GreaterOrEqual(elapsed, 50*time.Millisecond)
		require.Less(elapsed, 1*time.Second)
		require.Equal(uint64(1), a.Metrics().CalcPendTimeoutCount.Load())
	})

	t.Run("Snapshot taken after pending clears", func(t *testing.T) {
		reg := pv.NewRegistry()
		a := newTestAtt(t, reg, 2, WithCalcPendInterval(2*time.Millisecond))

		require.NoError(reg.Float64("TST:ATT:CALCP").Put(1))
		require.NoError(reg.Float64("TST:ATT:R_DES").Put(0.55))
		// stale values favoring the ceiling
		require.NoError(reg.Float64("TST:ATT:R_CEIL").Put(0.6))
		require.NoError(reg.Float64("TST:ATT:R_FLOOR").Put(0.1))

		go func() {
			time.Sleep(20 * time.Millisecond)
			// the recalculation lands values favoring the floor, then clears
			_ = reg.Float64("TST:ATT:R_CEIL").Put(0.9)
			_ = reg.Float64("TST:ATT:R_FLOOR").Put(0.5)
			_ = reg.Float64("TST:ATT:CALCP").Put(0)
		}()

		require.Equal(float64(FloorDirection), a.ActuateValue(ctx))
		require.Equal(uint64(0), a.Metrics().CalcPendTimeoutCount.Load())
	})

	t.Run("Context cancellation is fail-open", func(t *testing.T) {
		reg := pv.NewRegistry()
		a := newTestAtt(t, reg, 2)

		require.NoError(reg.Float64("TST:ATT:CALCP").Put(1))
		require.NoError(reg.Float64("TST:ATT:R_DES").Put(0.5))
		require.NoError(reg.Float64("TST:ATT:R_CEIL").Put(0.9))
		require.NoError(reg.Float64("TST:ATT:R_FLOOR").Put(0.1))

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		require.Equal(float64(FloorDirection), a.ActuateValue(canceled))
	})
}

func TestMove(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	t.Run("Writes setpoint and go command", func(t *testing.T) {
		reg := pv.NewRegistry()
		a := newTestAtt(t, reg, 3)

		require.NoError(reg.Float64("TST:ATT:R_CEIL").Put(0.6))
		require.NoError(reg.Float64("TST:ATT:R_FLOOR").Put(0.1))

		require.NoError(a.Move(ctx, 0.55))
		require.Equal(0.55, reg.Float64("TST:ATT:R_DES").Get())
		require.Equal(float64(CeilingDirection), reg.Float64("TST:ATT:GO").Get())
		require.Equal(uint64(1), a.Metrics().MoveCount.Load())
		require.Equal(uint64(1), a.Metrics().CeilingMoveCount.Load())
	})

	t.Run("Rejects out-of-range targets", func(t *testing.T) {
		reg := pv.NewRegistry()
		a := newTestAtt(t, reg, 2)

		require.ErrorIs(a.Move(ctx, -0.1), ErrTransmission)
		require.ErrorIs(a.Move(ctx, 1.1), ErrTransmission)
		require.Equal(uint64(0), a.Metrics().MoveCount.Load())
	})

	t.Run("Insert and Remove are edge moves", func(t *testing.T) {
		reg := pv.NewRegistry()
		a := newTestAtt(t, reg, 2)

		require.NoError(a.Insert(ctx))
		require.Equal(0.0, a.Setpoint())

		require.NoError(a.Remove(ctx))
		require.Equal(1.0, a.Setpoint())
		require.Equal(uint64(2), a.Metrics().MoveCount.Load())
	})

	t.Run("New move supersedes outstanding one", func(t *testing.T) {
		reg := pv.NewRegistry()
		a := newTestAtt(t, reg, 2)

		require.NoError(a.Move(ctx, 0.3))
		require.NoError(a.Move(ctx, 0.7))
		require.Equal(0.7, a.Setpoint())
		require.Equal(uint64(2), a.Metrics().MoveCount.Load())
	})
}

func TestWaitDone(t *testing.T) {
	require := require.New(t)

	reg := pv.NewRegistry()
	a := newTestAtt(t, reg, 2)

	require.NoError(reg.Discrete(fmtFilterState(1)).Put("Unknown"))
	require.Equal(0, a.Done().Value())

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = reg.Discrete(fmtFilterState(1)).Put("IN")
		_ = reg.Float64("TST:ATT:R_CUR").Put(0.5)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(a.WaitDone(ctx))
	require.Equal(0.5, a.Transmission())
}

func TestTransmissionProperties(t *testing.T) {
	require := require.New(t)

	reg := pv.NewRegistry()
	a := newTestAtt(t, reg, 2)

	require.NoError(reg.Float64("TST:ATT:R_CUR").Put(1))
	require.Equal(1.0, a.Transmission())
	require.False(a.Inserted())
	require.True(a.Removed())

	require.NoError(reg.Float64("TST:ATT:R_CUR").Put(0.9999))
	require.True(a.Inserted())
	require.False(a.Removed())

	require.NoError(reg.Float64("TST:ATT:R_CUR").Put(0))
	require.True(a.Inserted())
	require.False(a.Removed())
}

func TestSetEnergy(t *testing.T) {
	require := require.New(t)

	t.Run("No argument tracks live energy", func(t *testing.T) {
		reg := pv.NewRegistry()
		a := newTestAtt(t, reg, 2)

		require.NoError(a.SetEnergy())
		require.Equal(6.0, reg.Float64("TST:ATT:EACT.SCAN").Get())
		require.Equal(uint64(1), a.Metrics().EnergySetCount.Load())
	})

	t.Run("Explicit energy switches to passive mode", func(t *testing.T) {
		reg := pv.NewRegistry()
		a := newTestAtt(t, reg, 2)

		require.NoError(a.SetEnergy(9500))
		require.Equal(0.0, reg.Float64("TST:ATT:EACT.SCAN").Get())
		require.Equal(9500.0, reg.Float64("TST:ATT:EDES").Get())
	})
}

type recordingStager struct {
	events *[]string
}

func (s recordingStager) Stage() error {
	*s.events = append(*s.events, "stage")
	return nil
}

func (s recordingStager) Unstage() error {
	*s.events = append(*s.events, "unstage")
	return nil
}

func TestStageUnstage(t *testing.T) {
	require := require.New(t)

	t.Run("Round trip restores recorded states", func(t *testing.T) {
		reg := pv.NewRegistry()
		a := newTestAtt(t, reg, 3)

		require.NoError(reg.Discrete(fmtFilterState(1)).Put("IN"))
		require.NoError(reg.Discrete(fmtFilterState(2)).Put("OUT"))
		require.NoError(reg.Discrete(fmtFilterState(3)).Put("IN"))

		require.NoError(a.Stage())
		require.True(a.Staged())

		// a temporary reconfiguration happens while staged
		require.NoError(a.Filter(1).Remove())

		require.NoError(a.Unstage())
		require.False(a.Staged())
		require.Equal(uint64(1), a.Metrics().StageCount.Load())
		require.Equal("IN", reg.Discrete("TST:ATT:01:GO").Get())
		require.Equal("OUT", reg.Discrete("TST:ATT:02:GO").Get())
		require.Equal("IN", reg.Discrete("TST:ATT:03:GO").Get())
	})

	t.Run("Invalid state restores to first out-state", func(t *testing.T) {
		reg := pv.NewRegistry()
		a, err := NewFee("SATT:FEE1:320", reg)
		require.NoError(err)
		defer a.Close()

		require.NoError(reg.Discrete("SATT:FEE1:321:STATE").Put("FAIL"))
		require.NoError(reg.Discrete("SATT:FEE1:322:STATE").Put("IN"))

		require.NoError(a.Stage())
		require.NoError(a.Unstage())

		// never restore into FAIL
		require.Equal("OUT", reg.Discrete("SATT:FEE1:321:CMD").Get())
		require.Equal("IN", reg.Discrete("SATT:FEE1:322:CMD").Get())
	})

	t.Run("Records before delegating to the stager", func(t *testing.T) {
		reg := pv.NewRegistry()
		var events []string
		a := newTestAtt(t, reg, 1, WithStager(recordingStager{events: &events}))

		require.NoError(reg.Discrete(fmtFilterState(1)).Put("IN"))
		require.NoError(a.Stage())

		// the stager reconfigures the blade after the record was taken
		require.NoError(reg.Discrete(fmtFilterState(1)).Put("OUT"))

		require.NoError(a.Unstage())
		require.Equal([]string{"stage", "unstage"}, events)
		require.Equal("IN", reg.Discrete("TST:ATT:01:GO").Get())
	})

	t.Run("Double stage fails, unstage without stage is a no-op", func(t *testing.T) {
		reg := pv.NewRegistry()
		a := newTestAtt(t, reg, 1)

		require.NoError(a.Unstage())

		require.NoError(a.Stage())
		require.ErrorIs(a.Stage(), ErrAlreadyStaged)
		require.NoError(a.Unstage())
		require.NoError(a.Stage())
		require.NoError(a.Unstage())
	})
}
