package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tt := []struct {
		In     string
		Expect zerolog.Level
		OK     bool
	}{
		{In: "debug", Expect: zerolog.DebugLevel, OK: true},
		{In: " WARNING ", Expect: zerolog.WarnLevel, OK: true},
		{In: "off", Expect: zerolog.Disabled, OK: true},
		{In: "", Expect: zerolog.InfoLevel, OK: false},
		{In: "loud", Expect: zerolog.InfoLevel, OK: false},
	}
	for _, tc := range tt {
		t.Run(tc.In, func(t *testing.T) {
			lvl, ok := ParseLevel(tc.In)
			assert.Equal(t, tc.Expect, lvl)
			assert.Equal(t, tc.OK, ok)
		})
	}
}

func TestNewRespectsEnvironment(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogJSON, "true")
	var b bytes.Buffer
	logger := New(&b, "debug")
	logger.Info().Msg("hidden")
	assert.Empty(t, b.String())
	logger.Error().Msg("shown")
	assert.Contains(t, b.String(), `"message":"shown"`)
	assert.Contains(t, b.String(), `"app":"limitcheck"`)
}

func TestNewConsole(t *testing.T) {
	t.Setenv(EnvLogNoColor, "1")
	var b bytes.Buffer
	logger := New(&b, "info")
	logger.Warn().Str("param", "TWT Body Current").Msg("unrecognized enable flag")
	assert.Contains(t, b.String(), "unrecognized enable flag")
	assert.Contains(t, b.String(), "WRN")
}
