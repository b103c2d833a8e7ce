package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTBurke/limits/pkg/registry"
	"github.com/BTBurke/limits/pkg/telemetry"
)

type frame struct {
	mode, k9, k10, k11, k12, cal int64
}

func frames(fs ...frame) *telemetry.MemorySource {
	cols := make([][]telemetry.Value, fieldCount)
	for _, f := range fs {
		for i, v := range []int64{f.mode, f.k9, f.k10, f.k11, f.k12, f.cal} {
			cols[i] = append(cols[i], telemetry.Int(v))
		}
	}
	src := telemetry.NewMemorySource()
	for i := 0; i < fieldCount; i++ {
		src.AddDataset(registry.DatasetName(fieldNames[i].name), cols[i]...)
	}
	return src
}

func openTracker(t *testing.T, v Variant, src telemetry.Source) *Tracker {
	t.Helper()
	tr, err := NewTracker(registry.Default(), v)
	require.NoError(t, err)
	require.NoError(t, tr.OpenDatasets(src))
	return tr
}

func TestTrackerNoChange(t *testing.T) {
	f := frame{mode: RawModeCBM, k9: 1, k10: 1, k11: 0, k12: 0}
	src := frames(f, f, f, f, f)
	tr := openTracker(t, Primary, src)

	changed, err := tr.Update(src, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	for i := 1; i < src.RecordCount(); i++ {
		changed, err := tr.Update(src, i)
		require.NoError(t, err)
		assert.False(t, changed, "record %d", i)
		assert.False(t, tr.Changed())
	}
	assert.Equal(t, New(Primary, ModeCBM, TWTOn, TWTA1, FrameScience), tr.Current())
}

func TestTrackerSingleChange(t *testing.T) {
	wom := frame{mode: RawModeWOM, k9: 3, k10: 3, k11: 1, k12: 1}
	rom := frame{mode: RawModeROM, k9: 3, k10: 2, k11: 1, k12: 0, cal: 5}
	src := frames(wom, wom, wom, rom, rom)
	tr := openTracker(t, Primary, src)

	var transitions []int
	for i := 0; i < src.RecordCount(); i++ {
		changed, err := tr.Update(src, i)
		require.NoError(t, err)
		if changed {
			transitions = append(transitions, i)
		}
	}
	// the initial slot is WOM/On/#1/Sci so the first frame is not a transition
	assert.Equal(t, []int{3}, transitions)
	assert.Equal(t, New(Primary, ModeROM, TWTOff, TWTA2, FrameCalibration), tr.Current())
	assert.Equal(t, New(Primary, ModeWOM, TWTOn, TWTA1, FrameScience), tr.Previous())
	assert.Equal(t, 31, tr.Offset())
}

func TestTrackerHousekeepingIgnoresFrame(t *testing.T) {
	src := frames(frame{mode: RawModeSBM, k9: 1, k10: 1, k11: 1, k12: 1, cal: 9})
	tr := openTracker(t, Housekeeping, src)
	assert.Len(t, tr.Parameters(), fieldCalPulse)
	_, err := tr.Update(src, 0)
	require.NoError(t, err)
	assert.Equal(t, New(Housekeeping, ModeSBM, TWTOn, TWTA1, FrameScience), tr.Current())
	assert.Equal(t, 16, tr.NumStates())
}

func TestTrackerUnknownMode(t *testing.T) {
	good := frame{mode: RawModeSBM, k9: 1, k10: 1}
	src := frames(good, frame{mode: 99})
	tr := openTracker(t, Primary, src)

	_, err := tr.Update(src, 0)
	require.NoError(t, err)
	before := tr.Current()

	changed, err := tr.Update(src, 1)
	assert.False(t, changed)
	var unknown UnknownModeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, int64(99), unknown.Code)
	assert.Equal(t, 1, unknown.Record)
	assert.Equal(t, before, tr.Current())
}

func TestTrackerNotOpen(t *testing.T) {
	tr, err := NewTracker(registry.Default(), Derived)
	require.NoError(t, err)
	_, err = tr.Update(frames(frame{mode: RawModeWOM}), 0)
	assert.True(t, errors.Is(err, telemetry.ErrDatasetNotOpen))
}

func TestTrackerOpenFailureCloses(t *testing.T) {
	src := telemetry.NewMemorySource().
		AddDataset("operational_mode", telemetry.Int(RawModeWOM)).
		AddDataset("k9_twta_power", telemetry.Int(0))
	tr, err := NewTracker(registry.Default(), Primary)
	require.NoError(t, err)
	assert.Error(t, tr.OpenDatasets(src))
	assert.Equal(t, 0, src.OpenCount())
}

func TestTrackerClose(t *testing.T) {
	src := frames(frame{mode: RawModeWOM})
	tr := openTracker(t, Primary, src)
	assert.Equal(t, fieldCount, src.OpenCount())
	require.NoError(t, tr.CloseDatasets(src))
	assert.Equal(t, 0, src.OpenCount())
	assert.NoError(t, tr.CloseDatasets(src))
}

func TestTrackerUpdateDoesNotAllocate(t *testing.T) {
	a := frame{mode: RawModeWOM, k9: 1, k10: 1}
	b := frame{mode: RawModeCBM, k9: 1, k10: 0}
	src := frames(a, b)
	tr := openTracker(t, Primary, src)
	i := 0
	allocs := testing.AllocsPerRun(100, func() {
		tr.Update(src, i%2)
		i++
	})
	assert.Equal(t, 0.0, allocs)
}

func TestNewTrackerMissingParameter(t *testing.T) {
	_, err := NewTracker(registry.New(), Primary)
	assert.True(t, errors.Is(err, registry.ErrNotFound))
}
