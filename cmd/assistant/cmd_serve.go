package main

import (
	"context"
	"os/signal"
	"syscall"

	"assistant_scheduler/internal/infra/logger"
	"assistant_scheduler/internal/infra/scheduler"
	"assistant_scheduler/internal/infra/telegram"

	"github.com/spf13/cobra"
)

// serveCmd runs the long-lived daemon
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the cron daemon, the Telegram bot and the metrics endpoint",
	Long: `Fires every schedule entry at its time of day, plans the month's
follow-ups on CRON_SPEC_MONTHLY_PLAN, answers /today, /next, /done and /summary
from the owner chat, and exposes /metrics on METRICS_ADDR when set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	mainLogger := logger.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx, buildOptions{online: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	reviewScheduler := scheduler.NewReviewScheduler(
		svc.runner,
		svc.planner,
		schedCfg.Table,
		schedCfg.Location,
		cfg.CronSpecMonthlyPlan,
		logger.Component("scheduler"),
	)
	if err := reviewScheduler.Start(); err != nil {
		return err
	}

	if svc.bot != nil {
		telegram.RegisterBotCommands(ctx, svc.bot, svc.followups, cfg.TelegramChatID, logger.Component("telegram"))
		mainLogger.Info("Bot command handlers registered.")
		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go svc.bot.Start()
	}

	metricsDone := make(chan error, 1)
	if cfg.MetricsAddr != "" {
		go func() { metricsDone <- svc.metrics.Serve(ctx, cfg.MetricsAddr, logger.Component("metrics")) }()
	} else {
		close(metricsDone)
	}

	mainLogger.Info("Application setup complete. Scheduler is running.")
	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	reviewScheduler.Stop()
	if svc.bot != nil {
		svc.bot.Stop()
	}
	if err := <-metricsDone; err != nil {
		mainLogger.WithError(err).Warn("Metrics endpoint stopped with error")
	}
	mainLogger.Info("Application shut down gracefully.")
	return nil
}
