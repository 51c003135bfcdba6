// Command reminder runs the daily SMS reminder job once and exits.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"saveit/internal/config"
	"saveit/internal/database"
	"saveit/internal/logger"
	"saveit/internal/notifier"
	"saveit/internal/queue"
	"saveit/internal/reminder"
	"saveit/internal/remote"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Reminder job failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ValidateReminders(); err != nil {
		return fmt.Errorf("invalid reminder configuration: %w", err)
	}

	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() { _ = dbManager.Close() }()

	var sender notifier.Notifier
	if cfg.AMQPURL != "" {
		client, err := queue.NewClient(cfg.AMQPURL, cfg.AMQPExchangeName, cfg.AMQPQueueName)
		if err != nil {
			return fmt.Errorf("failed to connect to AMQP: %w", err)
		}
		defer func() { _ = client.Close() }()
		sender = queue.NewNotifier(client)
	} else {
		sender = notifier.NewTwilioClient(cfg.TwilioBaseURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken,
			cfg.TwilioPhoneNumber, &http.Client{Timeout: cfg.RequestTimeout})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job := reminder.New(remote.NewGormStore(dbManager.DB()), sender, reminder.Options{
		AppURL:      cfg.AppURL,
		PageSize:    cfg.ReminderPageSize,
		Concurrency: cfg.ReminderConcurrency,
		Location:    cfg.Location(),
	})
	result, err := job.Run(ctx)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d reminders failed", result.Failed, result.Total)
	}
	return nil
}
