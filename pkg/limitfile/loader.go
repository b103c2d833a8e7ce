// Package limitfile reads and writes the text format that defines state
// dependent limits.
//
// A file is a sequence of blocks separated by lines beginning with a form feed.
// Each block names one parameter and lists its bounds by state:
//
//	[TWT Body Current] [mA] [Enabled]
//	Caution:(0, 10)  Action:(-5, 15)
//	Mode:WOM  TWT:On   TWTA:#1  Frame:Sci
//	Mode:WOM  TWT:On   TWTA:#1  Frame:Cal
//	Caution:(0, 2)  Action:(-5, 4)
//	Mode:CBM  TWT:On   TWTA:#1  Frame:Sci
//
// Housekeeping files omit the Frame field.
package limitfile

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BTBurke/limits/pkg/limit"
	"github.com/BTBurke/limits/pkg/registry"
	"github.com/BTBurke/limits/pkg/state"
	"github.com/BTBurke/limits/pkg/telemetry"
)

// PageBreak separates blocks
const PageBreak = '\f'

var (
	headerRE    = regexp.MustCompile(`^\s*\[([^\]]*)\]\s*\[([^\]]*)\]\s*\[([^\]]*)\]\s*$`)
	boundsRE    = regexp.MustCompile(`(?i)^\s*Caution:\s*\(\s*([^,\s]+)\s*,\s*([^)\s]+)\s*\)\s*Action:\s*\(\s*([^,\s]+)\s*,\s*([^)\s]+)\s*\)\s*$`)
	condition4  = regexp.MustCompile(`(?i)^\s*Mode:\s*(\S+)\s+TWT:\s*(\S+)\s+TWTA:\s*(\S+)\s+Frame:\s*(\S+)\s*$`)
	condition3  = regexp.MustCompile(`(?i)^\s*Mode:\s*(\S+)\s+TWT:\s*(\S+)\s+TWTA:\s*(\S+)\s*$`)
	enabledText = []string{"Enabled", "Enable"}
	disableText = []string{"Disabled", "Disable"}
)

// Loader builds checkers from limit file text
type Loader struct {
	reg          *registry.Registry
	source       registry.SourceID
	variant      state.Variant
	keepDisabled bool
	logger       zerolog.Logger
}

// LoaderOption configures a Loader
type LoaderOption func(l *Loader) error

// KeepDisabled keeps checkers whose header is Disabled instead of dropping them
func KeepDisabled() LoaderOption {
	return func(l *Loader) error {
		l.keepDisabled = true
		return nil
	}
}

// WithLogger sets the logger used for warnings about recoverable input
func WithLogger(logger zerolog.Logger) LoaderOption {
	return func(l *Loader) error {
		l.logger = logger
		return nil
	}
}

// NewLoader returns a loader resolving parameters of source in reg
func NewLoader(reg *registry.Registry, source registry.SourceID, opts ...LoaderOption) (*Loader, error) {
	l := &Loader{
		reg:     reg,
		source:  source,
		variant: state.VariantOf(source),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Load parses every block of r.  Any malformed line, unknown parameter or read
// failure aborts the load and no checkers are returned.  Input ending inside a
// block is not an error.
func (l *Loader) Load(r io.Reader) ([]*limit.Checker, error) {
	p := &parser{Loader: l, scanner: bufio.NewScanner(r)}
	p.scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var checkers []*limit.Checker
	for {
		c, err := p.block()
		if err != nil {
			return nil, err
		}
		if c == nil {
			return checkers, nil
		}
		if !c.Enabled() && !l.keepDisabled {
			l.logger.Debug().Str("param", c.Param().Name).Msg("skipping disabled limits")
			continue
		}
		checkers = append(checkers, c)
	}
}

type parser struct {
	*Loader
	scanner *bufio.Scanner
	line    int
	text    string
	pending bool
}

// next advances to the next non-blank line.  It returns false at end of input.
func (p *parser) next() (bool, error) {
	if p.pending {
		p.pending = false
		return true, nil
	}
	for p.scanner.Scan() {
		p.line++
		p.text = strings.TrimRight(p.scanner.Text(), "\r")
		if strings.TrimSpace(p.text) == "" && !strings.ContainsRune(p.text, PageBreak) {
			continue
		}
		return true, nil
	}
	if err := p.scanner.Err(); err != nil {
		return false, ReadError{Line: p.line + 1, Err: err}
	}
	return false, nil
}

func (p *parser) unread() { p.pending = true }

func (p *parser) malformed(msg string, err error) error {
	return MalformedLineError{Line: p.line, Text: p.text, Msg: msg, Err: err}
}

// block parses one block.  It returns nil, nil when the input holds no more blocks.
func (p *parser) block() (*limit.Checker, error) {
	ok, err := p.next()
	for ok && err == nil && isBreak(p.text) {
		ok, err = p.next()
	}
	if err != nil || !ok {
		return nil, err
	}

	c, err := p.header()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.next()
		if err != nil {
			return nil, err
		}
		if !ok || isBreak(p.text) {
			return c, nil
		}
		b, err := p.bounds(c.Table().Kind())
		if err != nil {
			return nil, err
		}
		if err := p.conditions(c, b); err != nil {
			return nil, err
		}
	}
}

func (p *parser) header() (*limit.Checker, error) {
	m := headerRE.FindStringSubmatch(p.text)
	if m == nil {
		return nil, p.malformed("expected [parameter] [unit] [Enabled|Disabled]", nil)
	}
	name, unit, enable := strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
	param, err := p.reg.Resolve(p.source, name, unit)
	if err != nil {
		return nil, UnknownParameterError{Line: p.line, Source: p.source, Name: name, Unit: unit, Err: err}
	}

	enabled := true
	switch {
	case matchAny(enable, enabledText):
	case matchAny(enable, disableText):
		enabled = false
	default:
		p.logger.Warn().Int("line", p.line).Str("param", name).Str("value", enable).Msg("unrecognized enable flag, treating as Enabled")
	}
	return limit.NewChecker(param, enabled, p.variant), nil
}

func (p *parser) bounds(kind telemetry.Kind) (limit.Bounds, error) {
	m := boundsRE.FindStringSubmatch(p.text)
	if m == nil {
		return limit.Bounds{}, p.malformed("expected Caution:(low, high)  Action:(low, high)", nil)
	}
	var v [4]telemetry.Value
	for i := range v {
		parsed, err := telemetry.ParseValue(kind, m[i+1])
		if err != nil {
			return limit.Bounds{}, p.malformed("bad limit value", err)
		}
		if !parsed.Finite() {
			return limit.Bounds{}, p.malformed("limit value is not a finite number", nil)
		}
		v[i] = parsed
	}
	return limit.NewBounds(v[0], v[1], v[2], v[3]), nil
}

// conditions applies b to every condition line that follows.  The first line that
// is not a condition is left for the caller.
func (p *parser) conditions(c *limit.Checker, b limit.Bounds) error {
	re := condition4
	if !p.variant.HasFrame() {
		re = condition3
	}
	for {
		ok, err := p.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		m := re.FindStringSubmatch(p.text)
		if m == nil {
			p.unread()
			return nil
		}
		s, err := p.state(m[1:])
		if err != nil {
			return p.malformed("bad state", err)
		}
		if err := c.SetLimits(s, b); err != nil {
			return p.malformed("cannot apply limits", err)
		}
	}
}

func (p *parser) state(fields []string) (state.State, error) {
	mode, err := state.ParseMode(fields[0])
	if err != nil {
		return state.State{}, err
	}
	twt, err := state.ParseTWT(fields[1])
	if err != nil {
		return state.State{}, err
	}
	twta, err := state.ParseTWTA(fields[2])
	if err != nil {
		return state.State{}, err
	}
	var frame state.FrameType
	if p.variant.HasFrame() {
		if frame, err = state.ParseFrameType(fields[3]); err != nil {
			return state.State{}, err
		}
	}
	return state.New(p.variant, mode, twt, twta, frame), nil
}

func isBreak(line string) bool {
	return strings.IndexRune(strings.TrimLeft(line, " \t"), PageBreak) == 0
}

func matchAny(s string, options []string) bool {
	for _, o := range options {
		if strings.EqualFold(s, o) {
			return true
		}
	}
	return false
}

func enableText(enabled bool) string {
	if enabled {
		return enabledText[0]
	}
	return disableText[0]
}
