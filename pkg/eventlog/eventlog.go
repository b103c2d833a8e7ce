// Package eventlog writes the human readable record of a limit checking run:
// state transitions and limit exceedances, one logfmt line each.
package eventlog

import (
	"fmt"
	"io"

	"github.com/go-logfmt/logfmt"
)

// Event kinds
const (
	EventTransition = "transition"
	EventEnter      = "enter"
	EventReturn     = "return"
	EventState      = "state"
)

// Log encodes events to an io.Writer.  The first write error is kept and every
// later event is dropped.
type Log struct {
	enc *logfmt.Encoder
	err error
	n   int
}

// New returns a Log writing to w
func New(w io.Writer) *Log {
	return &Log{enc: logfmt.NewEncoder(w)}
}

// Transition records a change of instrument state at record
func (l *Log) Transition(record int, from, to fmt.Stringer) {
	l.write("record", record, "event", EventTransition, "from", from, "to", to)
}

// Exceedance is a change in the limit status of one parameter
type Exceedance struct {
	Record   int
	Event    string
	Param    string
	Unit     string
	Severity fmt.Stringer
	Previous fmt.Stringer
	Value    fmt.Stringer
	Limit    fmt.Stringer
	State    fmt.Stringer
}

// Exceedance records a change in a parameter's limit status
func (l *Log) Exceedance(e Exceedance) {
	kv := []interface{}{
		"record", e.Record,
		"event", e.Event,
		"param", e.Param,
		"unit", e.Unit,
		"severity", e.Severity,
	}
	if e.Previous != nil {
		kv = append(kv, "was", e.Previous)
	}
	if e.Value != nil {
		kv = append(kv, "value", e.Value)
	}
	if e.Limit != nil {
		kv = append(kv, "limit", e.Limit)
	}
	if e.State != nil {
		kv = append(kv, "state", e.State)
	}
	l.write(kv...)
}

// Err returns the first write error
func (l *Log) Err() error {
	if l == nil {
		return nil
	}
	return l.err
}

// Events returns the number of events written
func (l *Log) Events() int {
	if l == nil {
		return 0
	}
	return l.n
}

func (l *Log) write(keyvals ...interface{}) {
	if l == nil || l.err != nil {
		return
	}
	for i := 0; i+1 < len(keyvals); i += 2 {
		if err := l.enc.EncodeKeyval(keyvals[i], keyvals[i+1]); err != nil {
			l.err = fmt.Errorf("encode %v: %w", keyvals[i], err)
			return
		}
	}
	if err := l.enc.EndRecord(); err != nil {
		l.err = fmt.Errorf("end record: %w", err)
		return
	}
	l.n++
}
