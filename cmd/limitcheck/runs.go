package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/BTBurke/limits/pkg/config"
	"github.com/BTBurke/limits/pkg/runstore"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show recorded check runs",
		Long: `List the most recent runs recorded with --run-store, or show the
exceedances of a single run when its ID is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRuns,
	}
	config.AddFlags(cmd.Flags())
	cmd.Flags().IntP("last", "n", 20, "Number of runs to list")
	return cmd
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "run-store")
	if err != nil {
		return err
	}
	store, err := runstore.Open(cfg.RunStore)
	if err != nil {
		return err
	}
	defer store.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	if len(args) == 1 {
		run, err := store.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Run %s: %s against %s (%s), %d frames, %d failures, worst %s\n",
			run.ID, run.Telemetry, run.LimitFile, run.Source, run.Frames, run.Failures, run.Worst)
		fmt.Fprintln(w, "PARAMETER\tUNIT\tSEVERITY\tEXTREME\tRECORD\tCOUNT")
		for _, e := range run.Exceedances {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n", e.Param, e.Unit, e.Severity, e.Extreme, e.Record, e.Count)
		}
		return nil
	}

	last, _ := cmd.Flags().GetInt("last")
	runs, err := store.List(last)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "ID\tFINISHED\tSOURCE\tTELEMETRY\tFRAMES\tFAILURES\tWORST")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.FinishedAt.Local().Format(time.DateTime), r.Source, r.Telemetry, r.Frames, r.Failures, r.Worst)
	}
	return nil
}
