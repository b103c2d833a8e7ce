// Package logging builds the zerolog diagnostic logger used by limitcheck.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Environment overrides, applied over the configured level
const (
	EnvLogLevel   = "LIMITCHECK_LOG_LEVEL"
	EnvLogNoColor = "LIMITCHECK_LOG_NOCOLOR"
	EnvLogJSON    = "LIMITCHECK_LOG_JSON"
)

// New returns a console logger writing to w at level.  The environment
// overrides take precedence over level.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, ok := ParseLevel(level)
	if !ok {
		lvl = zerolog.InfoLevel
	}
	if env, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		lvl = env
	}

	out := w
	if asJSON, _ := parseBool(os.Getenv(EnvLogJSON)); !asJSON {
		noColor, _ := parseBool(os.Getenv(EnvLogNoColor))
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    noColor,
		}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("app", "limitcheck").Logger()
}

// ParseLevel maps a level name to a zerolog level
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
