package limit

import (
	"fmt"

	"github.com/BTBurke/limits/pkg/eventlog"
	"github.com/BTBurke/limits/pkg/registry"
	"github.com/BTBurke/limits/pkg/state"
	"github.com/BTBurke/limits/pkg/telemetry"
)

// Checker checks one parameter against state-dependent bounds
type Checker struct {
	param   *registry.Parameter
	enabled bool
	table   *Table

	handle telemetry.Handle
	open   bool
	last   Severity
	log    *eventlog.Log

	summary Summary
}

// Summary describes how a parameter behaved over a run
type Summary struct {
	Param   string
	Unit    string
	Enabled bool
	Checked int

	// Exceedances counts frames with a severity other than OK
	Exceedances int
	// Worst is the most severe outcome, first seen direction wins on ties
	Worst Severity
	// Extreme is the value furthest past the limit in the direction of Worst
	// and Record the frame it was seen in
	Extreme telemetry.Value
	Record  int
}

// NewChecker returns a checker for p with zero bounds for every state of v
func NewChecker(p *registry.Parameter, enabled bool, v state.Variant) *Checker {
	return &Checker{
		param:   p,
		enabled: enabled,
		table:   NewTable(v, p.Kind),
		summary: Summary{Param: p.Name, Unit: p.Unit, Enabled: enabled, Record: -1},
	}
}

// Param returns the checked parameter
func (c *Checker) Param() *registry.Parameter { return c.param }

// Enabled reports whether the checker takes part in checking
func (c *Checker) Enabled() bool { return c.enabled }

// Table returns the bounds table
func (c *Checker) Table() *Table { return c.table }

// Variant returns the state variant the bounds are indexed by
func (c *Checker) Variant() state.Variant { return c.table.Variant() }

// Last returns the severity of the most recent check
func (c *Checker) Last() Severity { return c.last }

// SetEventLog directs status changes to l.  A nil log disables them.
func (c *Checker) SetEventLog(l *eventlog.Log) { c.log = l }

// SetLimits replaces the bounds applied in state s
func (c *Checker) SetLimits(s state.State, b Bounds) error {
	if err := c.table.Set(s, b); err != nil {
		return fmt.Errorf("%s: %w", c.param, err)
	}
	return nil
}

// OpenDatasets selects the parameter's dataset
func (c *Checker) OpenDatasets(src telemetry.Source) error {
	h, err := src.SelectDataset(c.param.Dataset)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.param, err)
	}
	c.handle = h
	c.open = true
	return nil
}

// CloseDatasets releases the parameter's dataset
func (c *Checker) CloseDatasets(src telemetry.Source) error {
	if !c.open {
		return nil
	}
	c.open = false
	if err := src.CloseDataset(c.handle); err != nil {
		return fmt.Errorf("close %s: %w", c.param, err)
	}
	return nil
}

// Result is the outcome of checking one frame.  It takes effect on the checker
// only when passed to Commit.
type Result struct {
	Record   int
	Severity Severity
	Value    telemetry.Value
	Bounds   Bounds

	checked bool
}

// Check classifies the parameter at record using the bounds of the tracker's
// current state.  It does not change the checker: the caller commits the result
// once every checker of the frame has succeeded.  A disabled checker returns OK
// without reading the frame.
func (c *Checker) Check(src telemetry.Source, record int, tr *state.Tracker) (Result, error) {
	if !c.enabled {
		return Result{Record: record, Severity: OK}, nil
	}
	if !c.open {
		return Result{}, fmt.Errorf("check %s: %w", c.param, telemetry.ErrDatasetNotOpen)
	}
	if tr.Variant() != c.table.Variant() {
		return Result{}, fmt.Errorf("check %s: %s tracker for %s limits", c.param, tr.Variant(), c.table.Variant())
	}
	v, err := c.param.Value(src, c.handle, record)
	if err != nil {
		return Result{}, fmt.Errorf("check %s record %d: %w", c.param, record, err)
	}

	b := c.table.At(tr.Offset())
	return Result{Record: record, Severity: b.Classify(v), Value: v, Bounds: b, checked: true}, nil
}

// Commit applies r to the last severity, the run summary and the event log.
// Results of a disabled checker are ignored.
func (c *Checker) Commit(r Result, tr *state.Tracker) {
	if !r.checked {
		return
	}
	c.report(r.Record, r.Severity, r.Value, r.Bounds, tr)
	c.record(r.Record, r.Severity, r.Value)
	c.last = r.Severity
}

func (c *Checker) report(record int, sev Severity, v telemetry.Value, b Bounds, tr *state.Tracker) {
	if c.log == nil {
		return
	}
	var event string
	switch {
	case sev != c.last && sev == OK:
		event = eventlog.EventReturn
	case sev != c.last:
		event = eventlog.EventEnter
	case tr.Changed() && sev != OK:
		event = eventlog.EventState
	default:
		return
	}
	e := eventlog.Exceedance{
		Record:   record,
		Event:    event,
		Param:    c.param.Name,
		Unit:     c.param.Unit,
		Severity: sev,
		Value:    v,
		State:    tr.Current(),
	}
	if event != eventlog.EventState {
		e.Previous = c.last
	}
	if crossed, ok := b.Crossed(sev); ok {
		e.Limit = crossed
	}
	c.log.Exceedance(e)
}

func (c *Checker) record(record int, sev Severity, v telemetry.Value) {
	s := &c.summary
	s.Checked++
	if sev == OK {
		return
	}
	s.Exceedances++
	switch {
	case s.Record < 0 || sev.Level() > s.Worst.Level():
		s.Worst, s.Extreme, s.Record = sev, v, record
	case sev == s.Worst && sev.High() && v.Greater(s.Extreme):
		s.Extreme, s.Record = v, record
	case sev == s.Worst && !sev.High() && v.Less(s.Extreme):
		s.Extreme, s.Record = v, record
	}
}

// Summary returns the run summary so far
func (c *Checker) Summary() Summary { return c.summary }

// Reset clears the last severity and run summary ahead of a new pass
func (c *Checker) Reset() {
	c.last = OK
	c.summary = Summary{Param: c.param.Name, Unit: c.param.Unit, Enabled: c.enabled, Record: -1}
}
