package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"assistant_scheduler/internal/domain/followup"

	"github.com/spf13/cobra"
)

// planCmd plans a month of follow-ups
var planCmd = &cobra.Command{
	Use:   "plan [YYYY-MM]",
	Short: "Plan shepherding follow-ups for a month (default: current month)",
	Long: `Picks one adult per household and spreads the households evenly over
the month's eligible days. Existing assignments are kept; re-running only adds
households that joined since.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

// followupsCmd groups the follow-up tracker commands
var followupsCmd = &cobra.Command{
	Use:   "followups",
	Short: "Inspect and update shepherding follow-ups",
}

var followupsTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List follow-ups due today",
	Args:  cobra.NoArgs,
	RunE:  runFollowupsToday,
}

var followupsNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next open follow-up",
	Args:  cobra.NoArgs,
	RunE:  runFollowupsNext,
}

var followupsCompleteCmd = &cobra.Command{
	Use:   "complete <name|id> [notes...]",
	Short: "Mark a follow-up completed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFollowupsComplete,
}

var followupsSummaryCmd = &cobra.Command{
	Use:   "summary [YYYY-MM]",
	Short: "Show completion progress for a month",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFollowupsSummary,
}

func init() {
	followupsCmd.AddCommand(followupsTodayCmd, followupsNextCmd, followupsCompleteCmd, followupsSummaryCmd)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	svc, err := buildServices(ctx, buildOptions{})
	if err != nil {
		return err
	}
	defer svc.Close()

	period := followup.PeriodOf(svc.clock.Now())
	if len(args) == 1 {
		period = args[0]
	}
	plan, err := svc.planner.PlanPeriod(ctx, period)
	if err != nil {
		return err
	}
	printPlan(cmd.OutOrStdout(), plan)
	return nil
}

func printPlan(w io.Writer, plan *followup.Plan) {
	fmt.Fprintf(w, "📅 Follow-up plan for %s (%d eligible days)\n", plan.Period, len(plan.EligibleDays))
	fmt.Fprintln(w, strings.Repeat("─", 50))
	for _, a := range plan.Assignments {
		fmt.Fprintf(w, "  %s  %-24s %-20s %s\n", a.AssignedDate.Format("Mon Jan 02"), a.SubjectName, a.GroupName, a.State)
	}
	fmt.Fprintln(w, strings.Repeat("─", 50))
	fmt.Fprintf(w, "Total: %d households\n", len(plan.Assignments))
	for _, warn := range plan.Warnings {
		fmt.Fprintf(w, "⚠️  %s\n", warn)
	}
}

func runFollowupsToday(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	svc, err := buildServices(ctx, buildOptions{})
	if err != nil {
		return err
	}
	defer svc.Close()

	due, err := svc.followups.Today(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(due) == 0 {
		fmt.Fprintln(out, "No follow-ups due today.")
		return nil
	}
	today := followup.Day(svc.clock.Now())
	for _, a := range due {
		printAssignment(out, a, today)
	}
	return nil
}

func runFollowupsNext(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	svc, err := buildServices(ctx, buildOptions{})
	if err != nil {
		return err
	}
	defer svc.Close()

	a, err := svc.followups.Next(ctx)
	if err != nil {
		return err
	}
	if a == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "All follow-ups are completed.")
		return nil
	}
	printAssignment(cmd.OutOrStdout(), a, followup.Day(svc.clock.Now()))
	return nil
}

func runFollowupsComplete(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	svc, err := buildServices(ctx, buildOptions{})
	if err != nil {
		return err
	}
	defer svc.Close()

	a, changed, err := svc.followups.Complete(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) was already completed.\n", a.SubjectName, a.GroupName)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Marked %s (%s) completed.\n", a.SubjectName, a.GroupName)
	return nil
}

func runFollowupsSummary(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	svc, err := buildServices(ctx, buildOptions{})
	if err != nil {
		return err
	}
	defer svc.Close()

	period := ""
	if len(args) == 1 {
		period = args[0]
	}
	s, err := svc.followups.Summary(ctx, period)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "📊 %s: %d/%d completed (%.0f%%), %d remaining\n", s.Period, s.Completed, s.Total, s.Rate(), s.Remaining())
	return nil
}

func printAssignment(w io.Writer, a *followup.Assignment, today time.Time) {
	line := fmt.Sprintf("  #%d %s (%s) assigned %s [%s]", a.ID, a.SubjectName, a.GroupName, a.AssignedDate.Format("Mon Jan 02"), a.State)
	if d := followup.DaysBetween(a.AssignedDate, today); d > 0 && !a.Completed() {
		line += fmt.Sprintf(" ⚠️ %dd overdue", d)
	}
	if a.Phone != "" {
		line += " 📞 " + a.Phone
	}
	if a.Email != "" {
		line += " 📧 " + a.Email
	}
	fmt.Fprintln(w, line)
}
