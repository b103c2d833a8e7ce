package eventlog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type label string

func (l label) String() string { return string(l) }

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestTransition(t *testing.T) {
	var b bytes.Buffer
	l := New(&b)
	l.Transition(42, label("Mode=WOM TWT=On"), label("Mode=CBM TWT=On"))
	assert.Equal(t, "record=42 event=transition from=\"Mode=WOM TWT=On\" to=\"Mode=CBM TWT=On\"\n", b.String())
	assert.NoError(t, l.Err())
	assert.Equal(t, 1, l.Events())
}

func TestExceedance(t *testing.T) {
	var b bytes.Buffer
	l := New(&b)
	l.Exceedance(Exceedance{
		Record:   7,
		Event:    EventEnter,
		Param:    "TWT Body Current",
		Unit:     "mA",
		Severity: label("ACTION HIGH"),
		Previous: label("OK"),
		Value:    label("20"),
		Limit:    label("15"),
	})
	assert.Equal(t, "record=7 event=enter param=\"TWT Body Current\" unit=mA severity=\"ACTION HIGH\" was=OK value=20 limit=15\n", b.String())
}

func TestWriteErrorIsSticky(t *testing.T) {
	l := New(failingWriter{})
	l.Transition(1, label("a"), label("b"))
	assert.Error(t, l.Err())
	l.Transition(2, label("b"), label("a"))
	assert.Equal(t, 0, l.Events())
}

func TestNilLog(t *testing.T) {
	var l *Log
	assert.NotPanics(t, func() { l.Transition(1, label("a"), label("b")) })
}
