package main

import (
	"context"
	"errors"
	"os"

	"github.com/scribeworks/scribe/internal/api"
	"github.com/scribeworks/scribe/internal/auth"
	"github.com/scribeworks/scribe/internal/services"
	"github.com/scribeworks/scribe/internal/shared"
	"github.com/scribeworks/scribe/internal/tokens"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	// Tokens live in the local database so sessions survive restarts. When
	// the database is unavailable, fall back to a memory store and run as a
	// fresh session.
	var store tokens.Store
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		logger.Warn("database unavailable, tokens will not persist", "error", err)
		store = tokens.NewMemoryStore()
	} else {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warn("migrations failed, tokens will not persist", "error", err)
			db.Close()
			db = nil
			store = tokens.NewMemoryStore()
		} else {
			store = tokens.NewSQLiteStore(db)
		}
	}
	if db != nil {
		defer db.Close()
	}

	client := api.NewClient(api.Options{
		BaseURL:   config.API.BaseURL,
		AuthRoot:  config.API.AuthRoot,
		Tokens:    store,
		RateLimit: config.API.RateLimit,
		Logger:    logger,
		OnUnauthorized: func() {
			logger.Warn("session expired, please log in again")
		},
	})

	manager := auth.NewManager(auth.Options{Client: client, Logger: logger})

	runner := NewRunner(RunnerOpts{
		Config:        config,
		Client:        client,
		Auth:          manager,
		Audio:         services.NewAudioService(client, config.API.AudioRoot),
		Templates:     services.NewTemplateService(client, config.API.TemplatesRoot),
		Notifications: services.NewNotificationService(client, config.API.NotificationsRoot),
		DB:            db,
		Logger:        logger,
	})

	app := &cli.Command{
		Name:     "scribe",
		Usage:    "Manage transcriptions from the command line",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
