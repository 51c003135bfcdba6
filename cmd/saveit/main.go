// Command saveit is the command-line budgeting app. State lives in a local
// SQLite cache; with REMOTE_SYNC=true it is mirrored to the postgres store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"saveit/internal/cli"
	"saveit/internal/config"
	"saveit/internal/database"
	"saveit/internal/localcache"
	"saveit/internal/logger"
	"saveit/internal/remote"
	"saveit/internal/services"
	"saveit/internal/session"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := localcache.OpenSQLite(cfg.LocalCachePath)
	if err != nil {
		return fmt.Errorf("failed to open local cache: %w", err)
	}
	defer func() { _ = store.Close() }()

	var (
		remoteStore remote.Store
		sessions    session.Provider
		signIn      cli.SignInFunc
	)
	if cfg.RemoteSync {
		dbManager, err := database.NewManager(cfg)
		if err != nil {
			return fmt.Errorf("failed to create database manager: %w", err)
		}
		defer func() { _ = dbManager.Close() }()

		provider := session.NewTokenProvider(session.NewIssuer(cfg.JWTSecret), store)
		remoteStore = remote.NewGormStore(dbManager.DB())
		sessions = provider
		signIn = func(ctx context.Context, userID, email string) error {
			_, err := provider.SignIn(ctx, userID, email)
			return err
		}
	}

	loc := cfg.Location()
	engine := services.NewEngine(services.NewWorkspace(localcache.New(store)), remoteStore, sessions, services.Options{
		SyncTimeout:    cfg.SyncTimeout,
		SessionTimeout: cfg.SessionTimeout,
		RetryDelay:     cfg.RetryDelay,
		Location:       loc,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Sync.Bootstrap(ctx); err != nil {
		logger.Get().Warnw("Bootstrap failed, using cached data", "error", err)
	}

	app := &cli.App{
		Engine:   engine,
		SignIn:   signIn,
		Location: loc,
		Out:      os.Stdout,
	}
	return app.Run(ctx, args)
}
