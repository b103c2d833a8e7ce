// Package registry resolves (source, name, unit) triples from a limit file to the
// telemetry parameters that can be extracted from a frame.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/BTBurke/limits/pkg/telemetry"
)

var (
	// ErrNotFound is returned by Resolve when no parameter matches
	ErrNotFound = errors.New("parameter not found")
	// ErrDuplicate is returned by Add when the parameter is already registered
	ErrDuplicate = errors.New("parameter already registered")
)

// SourceID names the telemetry source a parameter is read from
type SourceID uint8

const (
	// SourcePrimary is level 1A science telemetry
	SourcePrimary SourceID = iota
	// SourceDerived is engineering values derived from level 1A telemetry
	SourceDerived
	// SourceHousekeeping is housekeeping telemetry
	SourceHousekeeping
)

func (s SourceID) String() string {
	switch s {
	case SourcePrimary:
		return "primary"
	case SourceDerived:
		return "derived"
	case SourceHousekeeping:
		return "housekeeping"
	default:
		return fmt.Sprintf("source(%d)", uint8(s))
	}
}

// ParseSource maps a source name to a SourceID
func ParseSource(s string) (SourceID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "l1a":
		return SourcePrimary, nil
	case "derived", "l1a-derived", "l1adrv":
		return SourceDerived, nil
	case "housekeeping", "hk", "hk2":
		return SourceHousekeeping, nil
	default:
		return 0, fmt.Errorf("unknown telemetry source %q", s)
	}
}

// ExtractFunc reads one parameter value from an open dataset
type ExtractFunc func(src telemetry.Source, h telemetry.Handle, record int) (telemetry.Value, error)

// Parameter is a registered telemetry parameter
type Parameter struct {
	Source  SourceID
	Name    string
	Unit    string
	Kind    telemetry.Kind
	Dataset string

	// Coefficients of an engineering unit polynomial c0 + c1*x + c2*x^2 ...
	// applied to the raw dataset value.  A parameter with coefficients always
	// has KindFloat.
	Coefficients []float64

	// Extract replaces the default read of Dataset when set
	Extract ExtractFunc
}

// Value extracts the parameter at record from the dataset opened as h
func (p *Parameter) Value(src telemetry.Source, h telemetry.Handle, record int) (telemetry.Value, error) {
	if p.Extract != nil {
		return p.Extract(src, h, record)
	}
	raw, err := src.Read(h, record)
	if err != nil {
		return telemetry.Value{}, err
	}
	if len(p.Coefficients) > 0 {
		return telemetry.Float(polynomial(p.Coefficients, raw.Float())), nil
	}
	return raw.As(p.Kind), nil
}

func (p *Parameter) String() string {
	return fmt.Sprintf("%s [%s]", p.Name, p.Unit)
}

func polynomial(c []float64, x float64) float64 {
	y := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		y = y*x + c[i]
	}
	return y
}

type key struct {
	source SourceID
	name   string
	unit   string
}

func keyOf(source SourceID, name, unit string) key {
	return key{
		source: source,
		name:   strings.ToLower(strings.TrimSpace(name)),
		unit:   strings.ToLower(strings.TrimSpace(unit)),
	}
}

// Registry holds the parameters known to a run
type Registry struct {
	params map[key]*Parameter
	order  []*Parameter
}

// New returns an empty Registry
func New() *Registry {
	return &Registry{params: make(map[key]*Parameter)}
}

// Add registers p and returns the registered copy.  An empty Dataset defaults to
// DatasetName(p.Name).
func (r *Registry) Add(p Parameter) (*Parameter, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("register parameter: empty name")
	}
	if len(p.Coefficients) > 0 {
		p.Kind = telemetry.KindFloat
	}
	if p.Kind == telemetry.KindInvalid {
		return nil, fmt.Errorf("register %s: no value kind", p.String())
	}
	if p.Dataset == "" {
		p.Dataset = DatasetName(p.Name)
	}
	k := keyOf(p.Source, p.Name, p.Unit)
	if _, ok := r.params[k]; ok {
		return nil, fmt.Errorf("register %s (%s): %w", p.String(), p.Source, ErrDuplicate)
	}
	stored := p
	r.params[k] = &stored
	r.order = append(r.order, &stored)
	return &stored, nil
}

// Resolve looks up a parameter by source, name and unit.  Name and unit match
// case-insensitively.
func (r *Registry) Resolve(source SourceID, name, unit string) (*Parameter, error) {
	p, ok := r.params[keyOf(source, name, unit)]
	if !ok {
		return nil, fmt.Errorf("%s [%s] in %s telemetry: %w", name, unit, source, ErrNotFound)
	}
	return p, nil
}

// Parameters returns the parameters of a source in registration order
func (r *Registry) Parameters(source SourceID) []*Parameter {
	var out []*Parameter
	for _, p := range r.order {
		if p.Source == source {
			out = append(out, p)
		}
	}
	return out
}

// DatasetName derives a dataset name from a parameter name, e.g.
// "TWT Body Current" becomes twt_body_current
func DatasetName(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
