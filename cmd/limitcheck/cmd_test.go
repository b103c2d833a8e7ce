package main

import (
	"bytes"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/BTBurke/limits/pkg/runstore"
)

const testLimits = "[TWT Body Current] [mA] [Enabled]\n" +
	"Caution:(0, 10)  Action:(-5, 15)\n" +
	"Mode:WOM  TWT:On  TWTA:#1  Frame:Sci\n" +
	"\f\n" +
	"[Receiver Gain] [dB] [Disabled]\n" +
	"Caution:(0, 1)  Action:(0, 1)\n" +
	"Mode:WOM  TWT:On  TWTA:#1  Frame:Sci\n"

// writeFixtures creates a limit file and a telemetry database of three WOM
// science frames with body currents 5, 12 and 20 mA
func writeFixtures(t *testing.T) (limits, frames string) {
	t.Helper()
	dir := t.TempDir()
	limits = filepath.Join(dir, "limits.txt")
	require.NoError(t, os.WriteFile(limits, []byte(testLimits), 0644))

	frames = filepath.Join(dir, "frames.db")
	db, err := sql.Open("sqlite", frames)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE frames (
		operational_mode INTEGER, k9_twta_power INTEGER, k10_twta_power INTEGER,
		k11_twta_select INTEGER, k12_twta_select INTEGER, true_cal_pulse_pos INTEGER,
		twt_body_current REAL)`)
	require.NoError(t, err)
	for _, current := range []float64{5, 12, 20} {
		_, err = db.Exec(`INSERT INTO frames VALUES (14, 0, 0, 0, 0, 0, ?)`, current)
		require.NoError(t, err)
	}
	return limits, frames
}

func execute(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "limitcheck", root.Use)
	assert.NotEmpty(t, root.Short)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"check", "fmt", "runs"})
}

func TestSubcommandFlags(t *testing.T) {
	for _, cmd := range []*cobra.Command{checkCmd(), fmtCmd(), runsCmd()} {
		assert.NotNil(t, cmd.RunE, cmd.Use)
		for _, name := range []string{"config", "limits", "telemetry", "source", "run-store"} {
			assert.NotNil(t, cmd.Flags().Lookup(name), "%s --%s", cmd.Use, name)
		}
	}
	assert.NotNil(t, fmtCmd().Flags().Lookup("stdout"))
	assert.NotNil(t, runsCmd().Flags().Lookup("last"))
}

func TestCheckRequiresInputs(t *testing.T) {
	_, err := execute("check", "--log-level", "off")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limits")
	assert.Contains(t, err.Error(), "telemetry")
}

func TestCheck(t *testing.T) {
	limits, frames := writeFixtures(t)
	events := filepath.Join(t.TempDir(), "events.log")
	metricsFile := filepath.Join(t.TempDir(), "limitcheck.prom")

	out, err := execute("check", "-l", limits, "-t", frames, "--event-log", events,
		"--metrics-file", metricsFile, "--keep-disabled", "--log-level", "off")

	var exit exitError
	require.True(t, errors.As(err, &exit), "got %v", err)
	assert.Equal(t, 3, exit.code)
	assert.Contains(t, out, "3 frames checked, 0 failed, worst status ACTION")
	assert.Contains(t, out, "ACTION HIGH")
	assert.Contains(t, out, "disabled")

	data, err := os.ReadFile(events)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "record=1 event=enter")
	assert.Contains(t, lines[0], `severity="CAUTION HIGH"`)
	assert.Contains(t, lines[1], "record=2 event=enter")
	assert.Contains(t, lines[1], `severity="ACTION HIGH"`)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "limitcheck_frames_checked_total 3")
}

func TestCheckCaution(t *testing.T) {
	limits, frames := writeFixtures(t)

	out, err := execute("check", "-l", limits, "-t", frames, "--count", "2",
		"--event-log", filepath.Join(t.TempDir(), "events.log"), "--log-level", "off")

	var exit exitError
	require.True(t, errors.As(err, &exit), "got %v", err)
	assert.Equal(t, 2, exit.code)
	assert.Contains(t, out, "2 frames checked")
}

func TestCheckRecordsRun(t *testing.T) {
	limits, frames := writeFixtures(t)
	runs := filepath.Join(t.TempDir(), "runs.db")

	_, err := execute("check", "-l", limits, "-t", frames, "--run-store", runs,
		"--event-log", filepath.Join(t.TempDir(), "events.log"), "--log-level", "off")
	var exit exitError
	require.True(t, errors.As(err, &exit), "got %v", err)

	store, err := runstore.Open(runs)
	require.NoError(t, err)
	defer store.Close()
	recorded, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, 3, recorded[0].Frames)
	assert.Equal(t, "ACTION", recorded[0].Worst)

	run, err := store.Get(recorded[0].ID)
	require.NoError(t, err)
	require.Len(t, run.Exceedances, 1)
	assert.Equal(t, "TWT Body Current", run.Exceedances[0].Param)
	assert.Equal(t, "20", run.Exceedances[0].Extreme)
	assert.Equal(t, 2, run.Exceedances[0].Record)

	out, err := execute("runs", "--run-store", runs)
	require.NoError(t, err)
	assert.Contains(t, out, recorded[0].ID)

	out, err = execute("runs", "--run-store", runs, recorded[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "TWT Body Current")
}

func TestFmt(t *testing.T) {
	limits, _ := writeFixtures(t)

	out, err := execute("fmt", "-l", limits, "--stdout", "--log-level", "off")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[TWT Body Current] [mA] [Enabled]\n"))
	assert.Contains(t, out, "Caution:(0, 10)  Action:(-5, 15)\nMode:WOM  TWT:On   TWTA:#1   Frame:Sci\n")
	assert.Contains(t, out, "\n\f\n[Receiver Gain] [dB] [Disabled]\n")
	assert.True(t, strings.HasSuffix(out, "\n"))

	_, err = execute("fmt", "-l", limits, "--log-level", "off")
	require.NoError(t, err)
	data, err := os.ReadFile(limits)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}
