package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saveit/internal/config"
	"saveit/internal/database"
	"saveit/internal/logger"
	"saveit/internal/notifier"
	"saveit/internal/queue"
	"saveit/internal/reminder"
	"saveit/internal/remote"
	"saveit/internal/server"
	"saveit/internal/services"
	"saveit/internal/session"
	"saveit/internal/validator"

	_ "saveit/internal/docs" // Import swagger docs
)

// @title           Save It API
// @version         1.0
// @description     SMS reminder settings and scheduled jobs for the Save It weekly budget app.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a JWT access token (or the cron secret for /cron routes).

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

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

	if err := dbManager.RunMigrations(database.DefaultMigrationsURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	sender, closeSender, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	defer closeSender()

	store := remote.NewGormStore(dbManager.DB())
	validator.Register()

	router := server.NewRouter(server.Dependencies{
		Issuer: session.NewIssuer(cfg.JWTSecret),
		SMS:    services.NewSMSService(store, sender),
		Reminders: reminder.New(store, sender, reminder.Options{
			AppURL:      cfg.AppURL,
			PageSize:    cfg.ReminderPageSize,
			Concurrency: cfg.ReminderConcurrency,
			Location:    cfg.Location(),
		}),
		DB:         dbManager,
		CronSecret: cfg.CronSecret,
		Swagger:    cfg.Env != "production",
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Save It API on port %s", cfg.Port)
		if cfg.Env != "production" {
			log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newNotifier queues messages when AMQP is configured and otherwise sends
// straight through Twilio.
func newNotifier(cfg *config.Config) (notifier.Notifier, func(), error) {
	if cfg.AMQPURL != "" {
		client, err := queue.NewClient(cfg.AMQPURL, cfg.AMQPExchangeName, cfg.AMQPQueueName)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to AMQP: %w", err)
		}
		return queue.NewNotifier(client), func() { _ = client.Close() }, nil
	}
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	twilio := notifier.NewTwilioClient(cfg.TwilioBaseURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, httpClient)
	return twilio, func() {}, nil
}
