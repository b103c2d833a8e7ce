// Package state models the instrument configuration that selects which limits
// apply to a telemetry frame, and tracks it across frames.
package state

import (
	"fmt"

	"github.com/BTBurke/limits/pkg/registry"
)

// Variant selects the shape of the state tuple used by a telemetry source
type Variant uint8

const (
	// Primary telemetry uses mode, TWT, TWTA and frame type
	Primary Variant = iota
	// Derived telemetry uses the same tuple as Primary
	Derived
	// Housekeeping telemetry has no frame type
	Housekeeping
)

func (v Variant) String() string {
	switch v {
	case Primary:
		return "primary"
	case Derived:
		return "derived"
	case Housekeeping:
		return "housekeeping"
	default:
		return fmt.Sprintf("variant(%d)", uint8(v))
	}
}

// HasFrame reports whether the tuple includes the frame type
func (v Variant) HasFrame() bool {
	return v != Housekeeping
}

// NumStates is the number of distinct tuples of the variant
func (v Variant) NumStates() int {
	n := int(modeCount) * int(twtCount) * int(twtaCount)
	if v.HasFrame() {
		n *= int(frameCount)
	}
	return n
}

// VariantOf returns the tuple shape used for limits on a telemetry source
func VariantOf(source registry.SourceID) Variant {
	switch source {
	case registry.SourceDerived:
		return Derived
	case registry.SourceHousekeeping:
		return Housekeeping
	default:
		return Primary
	}
}

// State is one instrument configuration.  Frame is always FrameScience for the
// housekeeping variant so that equal configurations compare equal.
type State struct {
	Variant Variant
	Mode    Mode
	TWT     TWT
	TWTA    TWTA
	Frame   FrameType
}

// New returns a state of variant v.  The frame argument is ignored for variants
// without a frame type.
func New(v Variant, mode Mode, twt TWT, twta TWTA, frame FrameType) State {
	s := State{Variant: v, Mode: mode, TWT: twt, TWTA: twta}
	if v.HasFrame() {
		s.Frame = frame
	}
	return s
}

// Valid reports whether every field is within its enumeration
func (s State) Valid() bool {
	if s.Variant > Housekeeping || s.Mode >= modeCount || s.TWT >= twtCount || s.TWTA >= twtaCount {
		return false
	}
	if s.Variant.HasFrame() {
		return s.Frame < frameCount
	}
	return s.Frame == FrameScience
}

// Offset is the row-major index of s in a table of Variant.NumStates() entries
func (s State) Offset() int {
	off := (int(s.Mode)*int(twtCount)+int(s.TWT))*int(twtaCount) + int(s.TWTA)
	if s.Variant.HasFrame() {
		off = off*int(frameCount) + int(s.Frame)
	}
	return off
}

// FromOffset is the inverse of Offset
func FromOffset(v Variant, off int) (State, error) {
	if off < 0 || off >= v.NumStates() {
		return State{}, fmt.Errorf("offset %d out of range for %s state", off, v)
	}
	s := State{Variant: v}
	if v.HasFrame() {
		s.Frame = FrameType(off % int(frameCount))
		off /= int(frameCount)
	}
	s.TWTA = TWTA(off % int(twtaCount))
	off /= int(twtaCount)
	s.TWT = TWT(off % int(twtCount))
	off /= int(twtCount)
	s.Mode = Mode(off)
	return s, nil
}

// All returns every state of v in offset order
func All(v Variant) []State {
	out := make([]State, v.NumStates())
	for i := range out {
		out[i], _ = FromOffset(v, i)
	}
	return out
}

func (s State) String() string {
	if s.Variant.HasFrame() {
		return fmt.Sprintf("Mode=%s TWT=%s TWTA=%s Frame=%s", s.Mode, s.TWT, s.TWTA, s.Frame)
	}
	return fmt.Sprintf("Mode=%s TWT=%s TWTA=%s", s.Mode, s.TWT, s.TWTA)
}
