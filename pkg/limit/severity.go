package limit

// Severity is the outcome of checking one value against one set of bounds
type Severity uint8

// Severities in increasing order of concern
const (
	OK Severity = iota
	CautionLow
	CautionHigh
	ActionLow
	ActionHigh
)

var severityNames = [...]string{"OK", "CAUTION LOW", "CAUTION HIGH", "ACTION LOW", "ACTION HIGH"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// Level collapses the direction of s
func (s Severity) Level() Level {
	switch s {
	case CautionLow, CautionHigh:
		return LevelCaution
	case ActionLow, ActionHigh:
		return LevelAction
	default:
		return LevelOK
	}
}

// High reports whether s is an exceedance of an upper bound
func (s Severity) High() bool {
	return s == CautionHigh || s == ActionHigh
}

// Level is the aggregated status of a frame or a run
type Level uint8

// Levels, ordered OK < CAUTION < ACTION
const (
	LevelOK Level = iota
	LevelCaution
	LevelAction
)

func (l Level) String() string {
	switch l {
	case LevelOK:
		return "OK"
	case LevelCaution:
		return "CAUTION"
	case LevelAction:
		return "ACTION"
	default:
		return "UNKNOWN"
	}
}

// Fold merges a level into a running worst.  ACTION always wins; CAUTION is
// recorded only over OK; nothing lowers the running value.
func Fold(running, l Level) Level {
	switch l {
	case LevelAction:
		return LevelAction
	case LevelCaution:
		if running == LevelOK {
			return LevelCaution
		}
	}
	return running
}
