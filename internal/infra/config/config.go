package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the engine.
type AppConfig struct {
	DatabaseURL string
	LogLevel    string
	Environment string

	// RulesPath points at the lifecycle rule YAML file.
	RulesPath string

	// CronSpecSweep triggers the lifecycle sweep, e.g. "0 3 * * *".
	CronSpecSweep string
	ChunkSize     int

	// Mail transport.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Notification settings.
	NotificationsDisabled bool
	ContactMail           string
	FallbackRecipients    []string

	// Optional operations alert channel.
	TelegramToken string
	AdminChatID   int64
	MetricsAddr   string
}

// Load reads configuration from environment variables and .env file (if
// present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.RulesPath = os.Getenv("LIFECYCLE_RULES_PATH")
	if cfg.RulesPath == "" {
		cfg.RulesPath = "lifecycle.yaml"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecSweep = os.Getenv("CRON_SPEC_SWEEP")
	if cfg.CronSpecSweep == "" {
		cfg.CronSpecSweep = "0 3 * * *" // Default: 03:00 daily
	}

	cfg.ChunkSize = 500
	if raw := os.Getenv("SWEEP_CHUNK_SIZE"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return nil, fmt.Errorf("invalid SWEEP_CHUNK_SIZE: %q", raw)
		}
		cfg.ChunkSize = size
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = 25
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT: %q", raw)
		}
		cfg.SMTPPort = port
	}
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	cfg.MailFrom = os.Getenv("MAIL_FROM")
	if cfg.MailFrom == "" {
		cfg.MailFrom = "noreply@localhost"
	}

	cfg.NotificationsDisabled = parseBool(os.Getenv("NOTIFICATIONS_DISABLED"))
	cfg.ContactMail = os.Getenv("CONTACT_MAIL")
	if raw := os.Getenv("FALLBACK_RECIPIENTS"); raw != "" {
		for _, mail := range strings.Split(raw, ",") {
			if mail = strings.TrimSpace(mail); mail != "" {
				cfg.FallbackRecipients = append(cfg.FallbackRecipients, mail)
			}
		}
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if raw := os.Getenv("ADMIN_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_CHAT_ID: %w", err)
		}
		cfg.AdminChatID = id
	}

	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	return cfg, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
