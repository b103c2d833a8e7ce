package main

import (
	"github.com/spf13/cobra"

	"github.com/BTBurke/limits/pkg/config"
	"github.com/BTBurke/limits/pkg/limitfile"
	"github.com/BTBurke/limits/pkg/limitlist"
	"github.com/BTBurke/limits/pkg/logging"
)

func fmtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt",
		Short: "Rewrite a limit file in canonical form",
		Long: `Read a limit file and write it back with one block per distinct set of
bounds.  Disabled entries are kept.  With --stdout the file is left unchanged
and the canonical text is printed instead.`,
		RunE: runFmt,
	}
	config.AddFlags(cmd.Flags())
	cmd.Flags().Bool("stdout", false, "Print the canonical text instead of rewriting the file")
	return cmd
}

func runFmt(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "limits")
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	list, err := limitlist.Open(cfg.LimitFile, reg, cfg.Source,
		limitlist.KeepDisabled(), limitlist.WithLogger(logger))
	if err != nil {
		return err
	}

	stdout, _ := cmd.Flags().GetBool("stdout")
	if stdout {
		return limitfile.Format(cmd.OutOrStdout(), list.Checkers())
	}
	if err := list.WriteLimitText(); err != nil {
		return err
	}
	logger.Info().Str("limits", cfg.LimitFile).Int("checkers", len(list.Checkers())).Msg("limit file rewritten")
	return nil
}
