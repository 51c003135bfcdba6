// Command reminder-worker delivers queued SMS messages through Twilio.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"saveit/internal/config"
	"saveit/internal/logger"
	"saveit/internal/notifier"
	"saveit/internal/queue"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Worker error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required")
	}
	if err := cfg.ValidateTwilio(); err != nil {
		return fmt.Errorf("invalid Twilio configuration: %w", err)
	}

	client, err := queue.NewClient(cfg.AMQPURL, cfg.AMQPExchangeName, cfg.AMQPQueueName)
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	defer func() { _ = client.Close() }()

	twilio := notifier.NewTwilioClient(cfg.TwilioBaseURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken,
		cfg.TwilioPhoneNumber, &http.Client{Timeout: cfg.RequestTimeout})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Get().Infow("Reminder worker started", "queue", cfg.AMQPQueueName)
	err = queue.RunConsumer(ctx, client, queue.Deliver(twilio))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
