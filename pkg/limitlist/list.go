// Package limitlist drives a limit checking run: it owns the checkers loaded
// from one limit file and the state tracker they share, and folds their
// results frame by frame.
package limitlist

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BTBurke/limits/pkg/eventlog"
	"github.com/BTBurke/limits/pkg/fsm"
	"github.com/BTBurke/limits/pkg/limit"
	"github.com/BTBurke/limits/pkg/limitfile"
	"github.com/BTBurke/limits/pkg/metrics"
	"github.com/BTBurke/limits/pkg/registry"
	"github.com/BTBurke/limits/pkg/state"
	"github.com/BTBurke/limits/pkg/telemetry"
)

// Phases of a run
const (
	Loading  fsm.State = "loading"
	Ready    fsm.State = "ready"
	Checking fsm.State = "checking"
	Draining fsm.State = "draining"
)

// List is the set of checkers of one limit file
type List struct {
	path    string
	reg     *registry.Registry
	source  registry.SourceID
	variant state.Variant

	checkers []*limit.Checker
	tracker  *state.Tracker
	machine  *fsm.Machine

	worst    limit.Level
	frames   int
	failures int
	results  []limit.Result

	keepDisabled bool
	events       *eventlog.Log
	metrics      *metrics.Collector
	logger       zerolog.Logger
}

// Option configures a List
type Option func(l *List) error

// KeepDisabled keeps disabled entries of the limit file in the list
func KeepDisabled() Option {
	return func(l *List) error {
		l.keepDisabled = true
		return nil
	}
}

// WithEventLog records state transitions and limit status changes to events
func WithEventLog(events *eventlog.Log) Option {
	return func(l *List) error {
		l.events = events
		return nil
	}
}

// WithMetrics counts frames, transitions and exceedances in m
func WithMetrics(m *metrics.Collector) Option {
	return func(l *List) error {
		l.metrics = m
		return nil
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger zerolog.Logger) Option {
	return func(l *List) error {
		l.logger = logger
		return nil
	}
}

// Open loads the limit file at path for telemetry of source
func Open(path string, reg *registry.Registry, source registry.SourceID, opts ...Option) (*List, error) {
	l := &List{
		path:    path,
		reg:     reg,
		source:  source,
		variant: state.VariantOf(source),
		worst:   limit.LevelOK,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	machine, err := fsm.NewMachine(Loading, fsm.WithTransitions(
		fsm.T(Loading, Ready),
		fsm.T(Ready, Checking, Draining),
		fsm.T(Checking, Draining),
		fsm.T(Draining, Ready),
	))
	if err != nil {
		return nil, err
	}
	l.machine = machine

	if l.tracker, err = state.NewTracker(reg, l.variant); err != nil {
		return nil, err
	}
	checkers, err := l.read()
	if err != nil {
		return nil, err
	}
	for _, c := range checkers {
		c.SetEventLog(l.events)
	}
	l.checkers = checkers
	l.logger.Debug().Str("path", path).Str("source", source.String()).Int("checkers", len(checkers)).Msg("loaded limits")
	return l, nil
}

func (l *List) loader() (*limitfile.Loader, error) {
	opts := []limitfile.LoaderOption{limitfile.WithLogger(l.logger)}
	if l.keepDisabled {
		opts = append(opts, limitfile.KeepDisabled())
	}
	return limitfile.NewLoader(l.reg, l.source, opts...)
}

// read is the read phase: the file is open only for the duration of the load
func (l *List) read() ([]*limit.Checker, error) {
	loader, err := l.loader()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, FileError{Op: "read", Path: l.path, Err: err}
	}
	defer f.Close()
	checkers, err := loader.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	return checkers, nil
}

// Path returns the backing limit file
func (l *List) Path() string { return l.path }

// Source returns the telemetry source the limits apply to
func (l *List) Source() registry.SourceID { return l.source }

// Phase returns the current phase of the run
func (l *List) Phase() fsm.State { return l.machine.State() }

// Checkers returns the checkers in file order
func (l *List) Checkers() []*limit.Checker { return l.checkers }

// Worst returns the worst status over every frame checked since Open.  It is
// never lowered, not even by a new pass.
func (l *List) Worst() limit.Level { return l.worst }

// Frames returns the number of frames checked since OpenDatasets
func (l *List) Frames() int { return l.frames }

// Failures returns the number of frames aborted since OpenDatasets
func (l *List) Failures() int { return l.failures }

// Lookup finds the checker of a parameter by name and unit, ignoring case
func (l *List) Lookup(name, unit string) (*limit.Checker, bool) {
	for _, c := range l.checkers {
		p := c.Param()
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) && strings.EqualFold(p.Unit, strings.TrimSpace(unit)) {
			return c, true
		}
	}
	return nil, false
}

// Remove drops c from the list.  Only allowed while no datasets are open.
func (l *List) Remove(c *limit.Checker) (bool, error) {
	if l.machine.Is(Ready, Checking) {
		return false, fmt.Errorf("remove %s: datasets are open", c.Param())
	}
	for i, o := range l.checkers {
		if o == c {
			l.checkers = append(l.checkers[:i], l.checkers[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (l *List) require(to fsm.State) error {
	from := l.machine.State()
	if l.machine.Allowable(from, to) {
		return nil
	}
	return fsm.TransitionNotAllowed{From: from, To: to, Msg: fmt.Sprintf("limit list is %s, cannot move to %s", from, to)}
}

// OpenDatasets selects every dataset needed by the tracker and the enabled
// checkers and starts a new pass.  Frame and failure counts and the checker
// summaries restart; Worst does not.  On failure everything opened is released.
func (l *List) OpenDatasets(src telemetry.Source) error {
	if err := l.require(Ready); err != nil {
		return err
	}
	if err := l.tracker.OpenDatasets(src); err != nil {
		return DatasetOpenError{Err: err}
	}
	for i, c := range l.checkers {
		if !c.Enabled() {
			continue
		}
		if err := c.OpenDatasets(src); err != nil {
			for _, opened := range l.checkers[:i] {
				opened.CloseDatasets(src)
			}
			l.tracker.CloseDatasets(src)
			return DatasetOpenError{Err: err}
		}
	}

	l.frames, l.failures = 0, 0
	for _, c := range l.checkers {
		c.Reset()
	}
	return l.machine.Transition(Ready)
}

// CheckFrame updates the state from record and runs every checker in file order.
// It returns the worst status of this frame and folds it into the run status.
// Any checker error aborts the frame: no checker records it and the run status
// is untouched.
func (l *List) CheckFrame(src telemetry.Source, record int) (limit.Level, error) {
	if l.machine.State() != Checking {
		if err := l.require(Checking); err != nil {
			return limit.LevelOK, err
		}
		if err := l.machine.Transition(Checking); err != nil {
			return limit.LevelOK, err
		}
	}

	changed, err := l.tracker.Update(src, record)
	if err != nil {
		return limit.LevelOK, l.fail(record, err)
	}
	if changed {
		l.events.Transition(record, l.tracker.Previous(), l.tracker.Current())
		if l.metrics != nil {
			l.metrics.Transition()
		}
	}

	l.results = l.results[:0]
	for _, c := range l.checkers {
		r, err := c.Check(src, record, l.tracker)
		if err != nil {
			return limit.LevelOK, l.fail(record, err)
		}
		l.results = append(l.results, r)
	}

	frame := limit.LevelOK
	for i, c := range l.checkers {
		r := l.results[i]
		c.Commit(r, l.tracker)
		if r.Severity != limit.OK && l.metrics != nil {
			l.metrics.Exceedance(c.Param().Name, c.Param().Unit, r.Severity.String())
		}
		frame = limit.Fold(frame, r.Severity.Level())
	}

	l.worst = limit.Fold(l.worst, frame)
	l.frames++
	if l.metrics != nil {
		l.metrics.FrameChecked()
	}
	return frame, nil
}

func (l *List) fail(record int, err error) error {
	l.failures++
	if l.metrics != nil {
		l.metrics.FrameFailed()
	}
	return fmt.Errorf("check record %d: %w", record, err)
}

// CloseDatasets releases every dataset.  All handles are closed even when some
// fail; the results of the pass stay available.
func (l *List) CloseDatasets(src telemetry.Source) error {
	if err := l.require(Draining); err != nil {
		return err
	}
	var errs []error
	if err := l.tracker.CloseDatasets(src); err != nil {
		errs = append(errs, err)
	}
	for _, c := range l.checkers {
		if err := c.CloseDatasets(src); err != nil {
			errs = append(errs, err)
		}
	}
	if l.metrics != nil {
		l.metrics.Worst(int(l.worst))
	}
	if err := l.events.Err(); err != nil {
		l.logger.Warn().Err(err).Msg("event log incomplete")
	}
	if err := l.machine.Transition(Draining); err != nil {
		return err
	}
	if len(errs) > 0 {
		return DatasetCloseError{Errs: errs}
	}
	return nil
}
