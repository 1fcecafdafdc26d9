package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseDriver          string // "postgres" or "sqlite"
	DatabaseURL             string
	ScheduleFile            string
	DirectoryFile           string
	ReminderQueueFile       string
	ReminderList            string
	TelegramToken           string
	TelegramChatID          int64
	LogLevel                string
	Environment             string
	ResurfaceThresholdDays  int
	RotationLookbackPeriods int
	DeliveryMaxAttempts     int
	MetricsAddr             string
	CronSpecMonthlyPlan     string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseDriver = strings.ToLower(envOr("DATABASE_DRIVER", "sqlite"))
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return nil, fmt.Errorf("invalid DATABASE_DRIVER %q: want postgres or sqlite", cfg.DatabaseDriver)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseDriver == "postgres" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
		cfg.DatabaseURL = "data/assistant.db"
	}

	cfg.ScheduleFile = envOr("SCHEDULE_FILE", "config/schedule.yaml")
	cfg.DirectoryFile = envOr("DIRECTORY_FILE", "data/directory.yaml")
	cfg.ReminderQueueFile = envOr("REMINDER_QUEUE_FILE", "data/pending_reminders.json")
	cfg.ReminderList = envOr("REMINDER_LIST", "Reminders")

	// Telegram is optional for one-shot runs; interactive artifacts fail delivery without it.
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	if cfg.ResurfaceThresholdDays, err = envInt("RESURFACE_THRESHOLD_DAYS", 7, 1); err != nil {
		return nil, err
	}
	if cfg.RotationLookbackPeriods, err = envInt("ROTATION_LOOKBACK_PERIODS", 1, 0); err != nil {
		return nil, err
	}
	if cfg.DeliveryMaxAttempts, err = envInt("DELIVERY_MAX_ATTEMPTS", 2, 1); err != nil {
		return nil, err
	}

	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.CronSpecMonthlyPlan = envOr("CRON_SPEC_MONTHLY_PLAN", "0 5 1 * *") // Default: 05:00 on the 1st
	if _, err := cron.ParseStandard(cfg.CronSpecMonthlyPlan); err != nil {
		return nil, fmt.Errorf("invalid CRON_SPEC_MONTHLY_PLAN: %w", err)
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def, min int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v < min {
		return 0, fmt.Errorf("invalid %s: must be >= %d", key, min)
	}
	return v, nil
}
