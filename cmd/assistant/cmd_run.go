package main

import (
	"fmt"

	"assistant_scheduler/internal/app"

	"github.com/spf13/cobra"
)

// runCmd evaluates the schedule once
var runCmd = &cobra.Command{
	Use:   "run [entry]",
	Short: "Evaluate the schedule once and materialize what is due",
	Long: `Without arguments, every entry whose time window contains the current
instant is materialized. With an entry name, only that entry is evaluated: its
day rule is checked but not its time, for use from an external trigger that
already fired at the right moment.

Re-running within the same period is a no-op.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchedule,
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	svc, err := buildServices(ctx, buildOptions{})
	if err != nil {
		return err
	}
	defer svc.Close()

	var summary *app.RunSummary
	if len(args) == 1 {
		summary, err = svc.runner.RunEntry(ctx, args[0])
	} else {
		summary, err = svc.runner.RunDue(ctx)
	}
	if summary != nil {
		fmt.Fprint(cmd.OutOrStdout(), summary.String())
	}
	return err
}
