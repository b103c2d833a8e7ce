package state

import (
	"fmt"

	"github.com/BTBurke/limits/pkg/registry"
	"github.com/BTBurke/limits/pkg/telemetry"
)

// Raw operational mode codes in the telemetry stream
const (
	RawModeWOM int64 = 14
	RawModeCBM int64 = 7
	RawModeSBM int64 = 112
	RawModeROM int64 = 224
)

// UnknownModeError is returned by Tracker.Update when the operational mode code
// of a frame maps to no Mode
type UnknownModeError struct {
	Record int
	Code   int64
}

func (e UnknownModeError) Error() string {
	return fmt.Sprintf("record %d: unknown operational mode code %d (0x%x)", e.Record, e.Code, e.Code)
}

// ModeFromRaw maps a raw operational mode code to a Mode
func ModeFromRaw(code int64) (Mode, bool) {
	switch code {
	case RawModeWOM:
		return ModeWOM, true
	case RawModeCBM:
		return ModeCBM, true
	case RawModeSBM:
		return ModeSBM, true
	case RawModeROM:
		return ModeROM, true
	default:
		return 0, false
	}
}

const (
	fieldMode = iota
	fieldK9
	fieldK10
	fieldK11
	fieldK12
	fieldCalPulse
	fieldCount
)

var fieldNames = [fieldCount]struct{ name, unit string }{
	{registry.OperationalMode, registry.UnitHex},
	{registry.K9TWTAPower, registry.UnitMap},
	{registry.K10TWTAPower, registry.UnitMap},
	{registry.K11TWTASelect, registry.UnitMap},
	{registry.K12TWTASelect, registry.UnitMap},
	{registry.TrueCalPulsePos, registry.UnitCounts},
}

// Tracker derives the instrument state of each frame and reports transitions.
// It keeps the current and previous state in a fixed pair of slots and flips
// between them on a transition.
type Tracker struct {
	variant Variant
	fields  []*registry.Parameter
	handles []telemetry.Handle
	open    bool

	slots   [2]State
	current int
	changed bool
}

// NewTracker resolves the state parameters for variant v.  Primary and derived
// limits take their state from primary telemetry.
func NewTracker(reg *registry.Registry, v Variant) (*Tracker, error) {
	source := registry.SourcePrimary
	if v == Housekeeping {
		source = registry.SourceHousekeeping
	}
	n := fieldCount
	if !v.HasFrame() {
		n = fieldCalPulse
	}
	t := &Tracker{
		variant: v,
		fields:  make([]*registry.Parameter, n),
		handles: make([]telemetry.Handle, n),
	}
	for i := 0; i < n; i++ {
		p, err := reg.Resolve(source, fieldNames[i].name, fieldNames[i].unit)
		if err != nil {
			return nil, fmt.Errorf("state tracker: %w", err)
		}
		t.fields[i] = p
	}
	initial := New(v, ModeWOM, TWTOn, TWTA1, FrameScience)
	t.slots = [2]State{initial, initial}
	return t, nil
}

// Variant returns the tuple shape tracked
func (t *Tracker) Variant() Variant { return t.variant }

// NumStates is the size of a limit table indexed by Offset
func (t *Tracker) NumStates() int { return t.variant.NumStates() }

// Current returns the state of the most recent frame
func (t *Tracker) Current() State { return t.slots[t.current] }

// Previous returns the state before the most recent transition
func (t *Tracker) Previous() State { return t.slots[1-t.current] }

// Offset is the table offset of the current state
func (t *Tracker) Offset() int { return t.slots[t.current].Offset() }

// Changed reports whether the last Update was a transition
func (t *Tracker) Changed() bool { return t.changed }

// Parameters returns the resolved state parameters
func (t *Tracker) Parameters() []*registry.Parameter { return t.fields }

// OpenDatasets selects the dataset of every state parameter.  On failure the
// datasets already opened are closed again.
func (t *Tracker) OpenDatasets(src telemetry.Source) error {
	for i, p := range t.fields {
		h, err := src.SelectDataset(p.Dataset)
		if err != nil {
			for j := 0; j < i; j++ {
				src.CloseDataset(t.handles[j])
			}
			return fmt.Errorf("open %s: %w", p, err)
		}
		t.handles[i] = h
	}
	t.open = true
	return nil
}

// CloseDatasets closes every state dataset and returns the first failure
func (t *Tracker) CloseDatasets(src telemetry.Source) error {
	if !t.open {
		return nil
	}
	t.open = false
	var first error
	for i, p := range t.fields {
		if err := src.CloseDataset(t.handles[i]); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", p, err)
		}
	}
	return first
}

// Update derives the state of record and reports whether it differs from the
// current state.  On a transition the new state replaces the previous slot and
// becomes current.  An error leaves both slots untouched.
func (t *Tracker) Update(src telemetry.Source, record int) (bool, error) {
	t.changed = false
	if !t.open {
		return false, fmt.Errorf("state tracker: %w", telemetry.ErrDatasetNotOpen)
	}
	var raw [fieldCount]int64
	for i, p := range t.fields {
		v, err := p.Value(src, t.handles[i], record)
		if err != nil {
			return false, fmt.Errorf("record %d: %s: %w", record, p, err)
		}
		raw[i] = v.Int()
	}

	mode, ok := ModeFromRaw(raw[fieldMode])
	if !ok {
		return false, UnknownModeError{Record: record, Code: raw[fieldMode]}
	}
	candidate := State{Variant: t.variant, Mode: mode, TWT: TWTOff, TWTA: TWTA2}
	if raw[fieldK9] == raw[fieldK10] {
		candidate.TWT = TWTOn
	}
	if raw[fieldK11] == raw[fieldK12] {
		candidate.TWTA = TWTA1
	}
	if t.variant.HasFrame() && raw[fieldCalPulse] > 0 {
		candidate.Frame = FrameCalibration
	}

	if candidate == t.slots[t.current] {
		return false, nil
	}
	prev := 1 - t.current
	t.slots[prev] = candidate
	t.current = prev
	t.changed = true
	return true, nil
}
