package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"assistant_scheduler/internal/app"
	"assistant_scheduler/internal/domain/delivery"
	"assistant_scheduler/internal/domain/schedule"
	idb "assistant_scheduler/internal/infra/database"
	"assistant_scheduler/internal/infra/directory"
	"assistant_scheduler/internal/infra/logger"
	"assistant_scheduler/internal/infra/metrics"
	"assistant_scheduler/internal/infra/reminders"
	"assistant_scheduler/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

// services is everything a command may need, built from cfg and schedCfg.
type services struct {
	db          *sql.DB
	clock       schedule.Clock
	events      *idb.EventRepository
	assignments *idb.AssignmentRepository
	followups   *app.FollowupService
	planner     *app.PlannerService
	runner      *app.Runner
	queue       *reminders.Queue
	metrics     *metrics.Metrics
	bot         *telebot.Bot // nil without TELEGRAM_TOKEN
}

type buildOptions struct {
	// online makes the bot verify its token and poll for updates.
	online bool
}

func buildServices(ctx context.Context, opts buildOptions) (*services, error) {
	clk, err := clock()
	if err != nil {
		return nil, err
	}

	db, err := idb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	logger.Log.WithField("driver", cfg.DatabaseDriver).Info("Database connection established successfully.")

	s := &services{
		db:          db,
		clock:       clk,
		events:      idb.NewEventRepository(db),
		assignments: idb.NewAssignmentRepository(db, schedCfg.Location),
		queue:       reminders.NewQueue(cfg.ReminderQueueFile, cfg.ReminderList),
		metrics:     metrics.New(),
	}

	s.followups = app.NewFollowupService(s.assignments, clk, cfg.ResurfaceThresholdDays, logger.Component("followups"))
	s.planner = app.NewPlannerService(
		directory.NewFileDirectory(cfg.DirectoryFile),
		s.assignments,
		schedCfg.Blackout,
		cfg.RotationLookbackPeriods,
		schedCfg.Location,
		logger.Component("planner"),
	)

	router := delivery.Router{schedule.ChannelSimpleTrigger: s.queue}
	if cfg.TelegramToken != "" {
		s.bot, err = telebot.NewBot(telebot.Settings{
			Token:   cfg.TelegramToken,
			Poller:  &telebot.LongPoller{Timeout: 10 * time.Second},
			Offline: !opts.online,
			OnError: func(err error, c telebot.Context) { // Global error handler
				entry := logger.Component("telegram").WithError(err)
				if c != nil && c.Sender() != nil && c.Chat() != nil {
					entry = entry.WithField("sender_id", c.Sender().ID).WithField("chat_id", c.Chat().ID)
				}
				entry.Error("Telegram handler error")
			},
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("could not create Telegram bot: %w", err)
		}
		router[schedule.ChannelInteractive] = telegram.NewTelebotAdapter(s.bot, cfg.TelegramChatID)
	} else {
		logger.Log.Warn("TELEGRAM_TOKEN is not set; interactive reviews cannot be delivered")
	}

	renderer, err := app.NewRenderer(schedCfg.Templates)
	if err != nil {
		db.Close()
		return nil, err
	}
	content := app.NewContentBuilder(s.followups, s.planner, schedCfg.Themes)
	materializer := app.NewMaterializer(
		s.events,
		content,
		renderer,
		router,
		s.followups,
		app.RetryPolicy{MaxAttempts: cfg.DeliveryMaxAttempts, InitialInterval: app.DefaultRetryPolicy.InitialInterval},
		s.metrics,
		logger.Component("materializer"),
	)
	s.runner = app.NewRunner(schedCfg.Table, schedCfg.Tolerance, clk, materializer, logger.Component("runner"))
	return s, nil
}

func (s *services) Close() {
	if err := s.db.Close(); err != nil {
		logger.Log.WithError(err).Warn("Failed to close database")
	}
}
