// Package limit classifies telemetry values against caution and action bounds
// that depend on the instrument state.
package limit

import (
	"fmt"

	"github.com/BTBurke/limits/pkg/state"
	"github.com/BTBurke/limits/pkg/telemetry"
)

// Bounds are the caution and action limits for one state
type Bounds struct {
	CautionLow  telemetry.Value
	CautionHigh telemetry.Value
	ActionLow   telemetry.Value
	ActionHigh  telemetry.Value
}

// NewBounds returns bounds in the order they are written in a limit file
func NewBounds(cautionLow, cautionHigh, actionLow, actionHigh telemetry.Value) Bounds {
	return Bounds{CautionLow: cautionLow, CautionHigh: cautionHigh, ActionLow: actionLow, ActionHigh: actionHigh}
}

// ZeroBounds returns bounds of kind k with every limit zero
func ZeroBounds(k telemetry.Kind) Bounds {
	z := telemetry.Zero(k)
	return Bounds{CautionLow: z, CautionHigh: z, ActionLow: z, ActionHigh: z}
}

// Classify returns the severity of v.  Action limits are tested before caution
// limits, low before high.
func (b Bounds) Classify(v telemetry.Value) Severity {
	switch {
	case v.Less(b.ActionLow):
		return ActionLow
	case v.Greater(b.ActionHigh):
		return ActionHigh
	case v.Less(b.CautionLow):
		return CautionLow
	case v.Greater(b.CautionHigh):
		return CautionHigh
	default:
		return OK
	}
}

// Crossed returns the limit that a value of severity s exceeded
func (b Bounds) Crossed(s Severity) (telemetry.Value, bool) {
	switch s {
	case ActionLow:
		return b.ActionLow, true
	case ActionHigh:
		return b.ActionHigh, true
	case CautionLow:
		return b.CautionLow, true
	case CautionHigh:
		return b.CautionHigh, true
	default:
		return telemetry.Value{}, false
	}
}

func (b Bounds) kindIs(k telemetry.Kind) bool {
	return b.CautionLow.Kind() == k && b.CautionHigh.Kind() == k &&
		b.ActionLow.Kind() == k && b.ActionHigh.Kind() == k
}

// Table holds one Bounds per state of a variant
type Table struct {
	variant state.Variant
	kind    telemetry.Kind
	bounds  []Bounds
}

// NewTable returns a table of zero bounds of kind k for every state of v
func NewTable(v state.Variant, k telemetry.Kind) *Table {
	t := &Table{variant: v, kind: k, bounds: make([]Bounds, v.NumStates())}
	z := ZeroBounds(k)
	for i := range t.bounds {
		t.bounds[i] = z
	}
	return t
}

// Variant returns the state variant the table is indexed by
func (t *Table) Variant() state.Variant { return t.variant }

// Kind returns the value kind of every bound
func (t *Table) Kind() telemetry.Kind { return t.kind }

// Len returns the number of states
func (t *Table) Len() int { return len(t.bounds) }

// At returns the bounds at a state offset
func (t *Table) At(offset int) Bounds { return t.bounds[offset] }

// Set replaces the bounds of s
func (t *Table) Set(s state.State, b Bounds) error {
	if s.Variant != t.variant || !s.Valid() {
		return fmt.Errorf("set limits: %s is not a valid %s state", s, t.variant)
	}
	if !b.kindIs(t.kind) {
		return fmt.Errorf("set limits for %s: bounds are not all %s", s, t.kind)
	}
	t.bounds[s.Offset()] = b
	return nil
}

// Group is a set of states sharing identical bounds
type Group struct {
	Bounds Bounds
	States []state.State
}

// Groups partitions the table by identical bounds.  Groups are ordered by the
// first state that uses them and list their states in offset order.
func (t *Table) Groups() []Group {
	var groups []Group
	index := make(map[Bounds]int)
	for off, b := range t.bounds {
		s, _ := state.FromOffset(t.variant, off)
		i, ok := index[b]
		if !ok {
			i = len(groups)
			index[b] = i
			groups = append(groups, Group{Bounds: b})
		}
		groups[i].States = append(groups[i].States, s)
	}
	return groups
}
