package main

import (
	"fmt"
	"os"
	"time"

	"assistant_scheduler/internal/domain/schedule"
	"assistant_scheduler/internal/infra/config"
	"assistant_scheduler/internal/infra/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	scheduleFile string
	atFlag       string

	cfg      *config.AppConfig
	schedCfg *config.ScheduleConfig
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Review scheduler: timed reviews, shepherding follow-ups, reminders",
	Long: `assistant evaluates a static review schedule against the clock and
materializes each due entry at most once per period.

Interactive reviews go to Telegram; simple reminders go to a queue file that
an external shortcut drains. Shepherding follow-ups are planned monthly, one
adult per household, spread evenly over the eligible days.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("could not load application configuration: %w", err)
		}
		logger.Init(cfg.LogLevel, cfg.Environment)

		if scheduleFile != "" {
			cfg.ScheduleFile = scheduleFile
		}
		schedCfg, err = config.LoadSchedule(cfg.ScheduleFile)
		if err != nil {
			return err
		}
		logger.Log.WithFields(logrus.Fields{
			"environment": cfg.Environment,
			"driver":      cfg.DatabaseDriver,
			"entries":     len(schedCfg.Table.Entries),
		}).Debug("Configuration loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&scheduleFile, "schedule", "", "schedule file (overrides SCHEDULE_FILE)")
	rootCmd.PersistentFlags().StringVar(&atFlag, "at", "", "evaluate as if the time were this (2006-01-02T15:04, schedule timezone)")

	rootCmd.AddCommand(runCmd, serveCmd, planCmd, followupsCmd, scheduleCmd, remindersCmd)
}

// clock returns the wall clock in the schedule timezone, or a fixed clock when --at is set.
func clock() (schedule.Clock, error) {
	if atFlag == "" {
		return schedule.SystemClock{Location: schedCfg.Location}, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04", atFlag, schedCfg.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid --at %q: %w", atFlag, err)
	}
	return schedule.FixedClock{T: t}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
