package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/BTBurke/limits/pkg/config"
	"github.com/BTBurke/limits/pkg/eventlog"
	"github.com/BTBurke/limits/pkg/limit"
	"github.com/BTBurke/limits/pkg/limitlist"
	"github.com/BTBurke/limits/pkg/logging"
	"github.com/BTBurke/limits/pkg/metrics"
	"github.com/BTBurke/limits/pkg/reporting"
	"github.com/BTBurke/limits/pkg/runstore"
	"github.com/BTBurke/limits/pkg/telemetry"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a telemetry database against a limit file",
		Long: `Check every frame of a telemetry database against the limits for the
instrument state of the frame.  State transitions and limit status changes are
written to the event log and a summary per parameter is printed at the end.

Examples:
  # Check primary telemetry
  limitcheck check -l limits.txt -t frames.db

  # Check housekeeping telemetry and record the run
  limitcheck check -s housekeeping -l hk_limits.txt -t hk.db --run-store runs.db`,
		RunE: runCheck,
	}
	config.AddFlags(cmd.Flags())
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "limits", "telemetry")
	if err != nil {
		return err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	reporter := reporting.New(cfg.RollbarToken, cfg.Environment, cfg.NoErrorReports)
	defer reporter.Wait()

	worst, err := check(cfg, logger, cmd.OutOrStdout())
	if err != nil {
		if !isInputError(err) {
			reporter.ReportError(err)
		}
		return err
	}
	switch worst {
	case limit.LevelAction:
		return exitError{code: 3, msg: "worst status ACTION"}
	case limit.LevelCaution:
		return exitError{code: 2, msg: "worst status CAUTION"}
	default:
		return nil
	}
}

func check(cfg config.Config, logger zerolog.Logger, out io.Writer) (limit.Level, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return limit.LevelOK, err
	}
	src, err := telemetry.OpenSQLite(cfg.Telemetry, cfg.Table)
	if err != nil {
		return limit.LevelOK, err
	}
	defer src.Close()

	events := out
	if cfg.EventLog != "" && cfg.EventLog != "-" {
		f, err := os.Create(cfg.EventLog)
		if err != nil {
			return limit.LevelOK, err
		}
		defer f.Close()
		events = f
	}

	m := metrics.New("limitcheck")
	opts := []limitlist.Option{
		limitlist.WithEventLog(eventlog.New(events)),
		limitlist.WithMetrics(m),
		limitlist.WithLogger(logger),
	}
	if cfg.KeepDisabled {
		opts = append(opts, limitlist.KeepDisabled())
	}
	list, err := limitlist.Open(cfg.LimitFile, reg, cfg.Source, opts...)
	if err != nil {
		return limit.LevelOK, err
	}

	started := time.Now()
	if err := list.OpenDatasets(src); err != nil {
		return limit.LevelOK, err
	}
	end := src.RecordCount()
	if cfg.Count > 0 && cfg.Start+cfg.Count < end {
		end = cfg.Start + cfg.Count
	}
	logger.Info().Str("limits", cfg.LimitFile).Str("telemetry", cfg.Telemetry).
		Int("checkers", len(list.Checkers())).Int("start", cfg.Start).Int("end", end).Msg("checking frames")
	for record := cfg.Start; record < end; record++ {
		if _, err := list.CheckFrame(src, record); err != nil {
			logger.Warn().Err(err).Int("record", record).Msg("frame skipped")
		}
	}
	closeErr := list.CloseDatasets(src)
	if closeErr != nil {
		logger.Error().Err(closeErr).Msg("releasing datasets")
	}

	fmt.Fprintln(out)
	if err := list.FinalReport(out); err != nil {
		return list.Worst(), err
	}

	if cfg.RunStore != "" {
		if err := saveRun(cfg, list, started); err != nil {
			return list.Worst(), err
		}
	}
	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			return list.Worst(), fmt.Errorf("write metrics: %w", err)
		}
	}
	return list.Worst(), closeErr
}

func saveRun(cfg config.Config, list *limitlist.List, started time.Time) error {
	store, err := runstore.Open(cfg.RunStore)
	if err != nil {
		return err
	}
	defer store.Close()

	run := &runstore.Run{
		LimitFile:  cfg.LimitFile,
		Source:     cfg.Source.String(),
		Telemetry:  cfg.Telemetry,
		Frames:     list.Frames(),
		Failures:   list.Failures(),
		Worst:      list.Worst().String(),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	for _, s := range list.Summaries() {
		if s.Exceedances == 0 {
			continue
		}
		run.Exceedances = append(run.Exceedances, runstore.Exceedance{
			Param:    s.Param,
			Unit:     s.Unit,
			Severity: s.Worst.String(),
			Extreme:  s.Extreme.String(),
			Record:   s.Record,
			Count:    s.Exceedances,
		})
	}
	if err := store.Save(run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}
