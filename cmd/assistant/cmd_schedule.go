package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"assistant_scheduler/internal/domain/schedule"
	"assistant_scheduler/internal/infra/reminders"

	"github.com/spf13/cobra"
)

// scheduleCmd prints the loaded table
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the scheduling table and what is due now",
	Args:  cobra.NoArgs,
	RunE:  runSchedulePrint,
}

// remindersCmd manages the simple-trigger queue file
var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Inspect the pending reminder queue",
}

var remindersPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List reminders waiting to be picked up",
	Args:  cobra.NoArgs,
	RunE:  runRemindersPending,
}

var remindersClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the reminder queue",
	Args:  cobra.NoArgs,
	RunE:  runRemindersClear,
}

func init() {
	remindersCmd.AddCommand(remindersPendingCmd, remindersClearCmd)
}

func runSchedulePrint(cmd *cobra.Command, args []string) error {
	clk, err := clock()
	if err != nil {
		return err
	}
	printTable(cmd.OutOrStdout(), schedCfg.Table, clk.Now(), schedCfg.Tolerance)
	return nil
}

func printTable(w io.Writer, table schedule.Table, now time.Time, tolerance time.Duration) {
	due := map[string]bool{}
	for _, e := range schedule.Due(now, table, tolerance) {
		due[e.Name] = true
	}
	fmt.Fprintf(w, "Schedule (%s, now %s)\n", now.Location(), now.Format("Mon 2006-01-02 15:04"))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, e := range table.Entries {
		marker := " "
		if due[e.Name] {
			marker = "▶"
		}
		fmt.Fprintf(w, "%s %-16s %s %-22s %-8s %s\n", marker, e.Name, e.At, describeDays(e.Recurrence), e.Period, e.Channel)
	}
}

func describeDays(r schedule.Recurrence) string {
	names := make([]string, 0, len(r.Days))
	for _, d := range r.Days {
		names = append(names, d.String()[:3])
	}
	s := strings.Join(names, ",")
	if r.WeekOfMonth > 0 {
		s = fmt.Sprintf("%s #%d of month", s, r.WeekOfMonth)
	}
	return s
}

func runRemindersPending(cmd *cobra.Command, args []string) error {
	q := reminders.NewQueue(cfg.ReminderQueueFile, cfg.ReminderList)
	pending, err := q.Pending()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(pending) == 0 {
		fmt.Fprintln(out, "No pending reminders.")
		return nil
	}
	for _, r := range pending {
		fmt.Fprintf(out, "  %s  %s [%s]\n", r.Due.Format("2006-01-02 15:04"), r.Title, r.List)
	}
	fmt.Fprintf(out, "Total: %d reminders\n", len(pending))
	return nil
}

func runRemindersClear(cmd *cobra.Command, args []string) error {
	n, err := reminders.NewQueue(cfg.ReminderQueueFile, cfg.ReminderList).Clear()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d reminders.\n", n)
	return nil
}
