package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"content_lifecycle_engine/internal/app"
	"content_lifecycle_engine/internal/domain/lifecycle"
	"content_lifecycle_engine/internal/infra/config"
	idb "content_lifecycle_engine/internal/infra/database"
	"content_lifecycle_engine/internal/infra/httpapi"
	"content_lifecycle_engine/internal/infra/logger"
	"content_lifecycle_engine/internal/infra/mailer"
	"content_lifecycle_engine/internal/infra/metrics"
	"content_lifecycle_engine/internal/infra/scheduler"
	"content_lifecycle_engine/internal/infra/telegram"
)

const sweepTimeout = 30 * time.Minute

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("FATAL: Could not load application configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		log.WithError(err).Fatal("Could not load lifecycle rules.")
	}
	log.Infof("Lifecycle rules loaded from %s (%d type/bundle pairs).", cfg.RulesPath, len(rules.TypeBundles()))

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database.")
	}
	defer db.Close()
	if err := idb.InitSchema(db); err != nil {
		log.WithError(err).Fatal("Could not initialize database schema.")
	}
	log.Info("Database connection established successfully.")

	sweepMetrics := metrics.NewSweepMetrics()

	contentRepo := idb.NewPostgresContentRepository(db)
	ledger := idb.NewPostgresNotificationLedger(db)
	directory := idb.NewPostgresRecipientDirectory(db)
	scheduleStore := idb.NewPostgresScheduleStore(db)
	times := app.NewItemTimes(contentRepo, rules)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())

		editorial := httpapi.NewEditorialAPI(
			contentRepo,
			app.NewModerationMessage(times, rules),
			app.NewSchedulingService(contentRepo, scheduleStore, rules, log),
			log,
		)
		editorial.Register(mux)

		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.WithError(err).Error("HTTP listener stopped.")
			}
		}()
		log.Infof("Metrics and editorial API exposed on %s.", cfg.MetricsAddr)
	}

	mailClient := mailer.NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.MailFrom, cfg.SMTPUser, cfg.SMTPPass)
	notifService := app.NewNotificationService(ledger, directory, mailClient, times, app.NotificationConfig{
		Disabled:           cfg.NotificationsDisabled,
		ContactMail:        cfg.ContactMail,
		FallbackRecipients: cfg.FallbackRecipients,
	}, log, sweepMetrics)

	lifecycleService := app.NewLifecycleService(
		contentRepo, rules, times,
		[]lifecycle.Handler{notifService},
		log, sweepMetrics,
	)
	lifecycleService.SetChunkSize(cfg.ChunkSize)

	var alerter scheduler.Alerter
	if cfg.TelegramToken != "" && cfg.AdminChatID != 0 {
		alertClient, err := telegram.NewAlertClient(cfg.TelegramToken, cfg.AdminChatID)
		if err != nil {
			log.WithError(err).Warn("Could not create Telegram alert client, alerts disabled.")
		} else {
			alerter = alertClient
			log.Info("Telegram alert channel initialized.")
		}
	}

	sweepScheduler := scheduler.NewSweepScheduler(lifecycleService, log, cfg.CronSpecSweep, sweepTimeout, alerter)

	if *once {
		log.Info("Running a single lifecycle sweep.")
		sweepScheduler.RunSweep()
		return
	}

	if err := sweepScheduler.Start(); err != nil {
		log.WithError(err).Fatal("Could not start sweep scheduler.")
	}
	log.Info("Application setup complete. Scheduler is running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	sweepScheduler.Stop()
	log.Info("Application shut down gracefully.")
}
