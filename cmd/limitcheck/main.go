// limitcheck checks telemetry frames against state dependent caution and action
// limits.
//
// Usage:
//
//	limitcheck check -l limits.txt -t frames.db
//	limitcheck check -c limitcheck.yaml --run-store runs.db
//	limitcheck fmt -l limits.txt
//	limitcheck runs --run-store runs.db
//
// check exits 0 when every value was inside its limits, 2 for a caution, 3 for
// an action and 1 on error.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BTBurke/limits/pkg/config"
	"github.com/BTBurke/limits/pkg/limitfile"
	"github.com/BTBurke/limits/pkg/limitlist"
	"github.com/BTBurke/limits/pkg/registry"
	"github.com/BTBurke/limits/pkg/telemetry"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "limitcheck",
		Short: "Check telemetry against state dependent limits",
		Long: `limitcheck reads a limit definition file and a telemetry frame database
and reports every parameter value outside its caution or action limits for the
instrument state of its frame.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(fmtCmd())
	rootCmd.AddCommand(runsCmd())
	return rootCmd
}

// exitError carries a non-zero exit status that is not a failure of limitcheck
type exitError struct {
	code int
	msg  string
}

func (e exitError) Error() string { return e.msg }

func loadConfig(cmd *cobra.Command, required ...string) (config.Config, error) {
	opts, err := config.FromFlags(cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	cfg, errs := config.New(opts...)
	if len(errs) == 0 {
		errs = cfg.Missing(required...)
	}
	if len(errs) > 0 {
		return config.Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// isInputError reports whether err was caused by the files given to limitcheck
// rather than by limitcheck itself
func isInputError(err error) bool {
	var (
		malformed limitfile.MalformedLineError
		unknown   limitfile.UnknownParameterError
		file      limitlist.FileError
	)
	return errors.As(err, &malformed) || errors.As(err, &unknown) || errors.As(err, &file) ||
		errors.Is(err, os.ErrNotExist) || errors.Is(err, telemetry.ErrUnknownDataset) ||
		errors.Is(err, registry.ErrNotFound) || errors.Is(err, registry.ErrDuplicate)
}
