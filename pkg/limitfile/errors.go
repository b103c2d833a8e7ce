package limitfile

import (
	"fmt"

	"github.com/BTBurke/limits/pkg/registry"
)

// ReadError is an I/O failure while reading a limit file
type ReadError struct {
	Line int
	Err  error
}

func (e ReadError) Error() string {
	return fmt.Sprintf("limit file line %d: read: %v", e.Line, e.Err)
}

func (e ReadError) Unwrap() error { return e.Err }

// MalformedLineError is a line that does not fit the limit file grammar
type MalformedLineError struct {
	Line int
	Text string
	Msg  string
	Err  error
}

func (e MalformedLineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("limit file line %d: %s: %v: %q", e.Line, e.Msg, e.Err, e.Text)
	}
	return fmt.Sprintf("limit file line %d: %s: %q", e.Line, e.Msg, e.Text)
}

func (e MalformedLineError) Unwrap() error { return e.Err }

// UnknownParameterError is a block header naming a parameter that is not in the
// registry
type UnknownParameterError struct {
	Line   int
	Source registry.SourceID
	Name   string
	Unit   string
	Err    error
}

func (e UnknownParameterError) Error() string {
	return fmt.Sprintf("limit file line %d: unknown %s parameter %s [%s]", e.Line, e.Source, e.Name, e.Unit)
}

func (e UnknownParameterError) Unwrap() error { return e.Err }
