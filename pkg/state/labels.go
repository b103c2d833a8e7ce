package state

import (
	"fmt"
	"strings"
)

// Mode is the instrument operating mode
type Mode uint8

// Operating modes
const (
	ModeWOM Mode = iota
	ModeCBM
	ModeSBM
	ModeROM
	modeCount
)

// TWT is the travelling wave tube power state
type TWT uint8

// TWT power states
const (
	TWTOn TWT = iota
	TWTOff
	twtCount
)

// TWTA is the selected travelling wave tube amplifier
type TWTA uint8

// TWTA selections
const (
	TWTA1 TWTA = iota
	TWTA2
	twtaCount
)

// FrameType distinguishes science and calibration frames
type FrameType uint8

// Frame types
const (
	FrameScience FrameType = iota
	FrameCalibration
	frameCount
)

// labels holds the text forms of one enumeration.  The first entry of each row is
// the canonical label written to limit files, the rest are accepted aliases.
type labels struct {
	field string
	rows  [][]string
}

func (l labels) label(i int) string {
	if i < 0 || i >= len(l.rows) {
		return "?"
	}
	return l.rows[i][0]
}

func (l labels) lookup(s string) (int, error) {
	s = strings.TrimSpace(s)
	for i, row := range l.rows {
		for _, alias := range row {
			if strings.EqualFold(s, alias) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown %s label %q", l.field, s)
}

var (
	modeLabels  = labels{field: "mode", rows: [][]string{{"WOM", "wait"}, {"CBM", "calibration"}, {"SBM", "standby"}, {"ROM", "receive-only"}}}
	twtLabels   = labels{field: "TWT", rows: [][]string{{"On", "1"}, {"Off", "0"}}}
	twtaLabels  = labels{field: "TWTA", rows: [][]string{{"#1", "1"}, {"#2", "2"}}}
	frameLabels = labels{field: "frame", rows: [][]string{{"Sci", "science"}, {"Cal", "calibration"}}}
)

func (m Mode) String() string      { return modeLabels.label(int(m)) }
func (t TWT) String() string       { return twtLabels.label(int(t)) }
func (t TWTA) String() string      { return twtaLabels.label(int(t)) }
func (f FrameType) String() string { return frameLabels.label(int(f)) }

// ParseMode maps a mode label to a Mode, ignoring case
func ParseMode(s string) (Mode, error) {
	i, err := modeLabels.lookup(s)
	return Mode(i), err
}

// ParseTWT maps a TWT label to a TWT, ignoring case
func ParseTWT(s string) (TWT, error) {
	i, err := twtLabels.lookup(s)
	return TWT(i), err
}

// ParseTWTA maps a TWTA label to a TWTA, ignoring case
func ParseTWTA(s string) (TWTA, error) {
	i, err := twtaLabels.lookup(s)
	return TWTA(i), err
}

// ParseFrameType maps a frame label to a FrameType, ignoring case
func ParseFrameType(s string) (FrameType, error) {
	i, err := frameLabels.lookup(s)
	return FrameType(i), err
}
