package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmcdole/shelf/internal/adapter"
	"github.com/mmcdole/shelf/internal/adapter/source/openlibrary"
	"github.com/mmcdole/shelf/internal/collection"
	"github.com/mmcdole/shelf/internal/search"
	"github.com/mmcdole/shelf/internal/store"
)

// app holds the wired stores shared by every command
type app struct {
	cfg        *adapter.Config
	logger     *slog.Logger
	logCloser  io.Closer
	store      *store.Store
	collection *collection.Store
	search     *search.Orchestrator
	launcher   *adapter.Launcher
}

// openApp loads configuration and wires storage, the catalog client and
// both stores.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger, closer = adapter.NullLogger(), io.NopCloser(nil)
	}
	slog.SetDefault(logger)
	logger.Info("starting shelf", "version", Version)

	st, err := store.New(cfg.Storage.Path)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	client := openlibrary.NewClient(openlibrary.Options{
		BaseURL:           cfg.Catalog.BaseURL,
		CoversURL:         cfg.Catalog.CoversURL,
		UserAgent:         cfg.Catalog.UserAgent,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
	}, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		logCloser: closer,
		store:     st,
		collection: collection.New(st,
			collection.WithStorageKey(cfg.Storage.Key),
			collection.WithLogger(logger),
		),
		search: search.New(client,
			search.WithPageSize(cfg.Catalog.PageSize),
			search.WithTimeout(cfg.Catalog.Timeout),
			search.WithLogger(logger),
			search.WithCoverCache(st),
		),
		launcher: adapter.NewLauncher(cfg.UI.Browser, logger),
	}, nil
}

// Close detaches the stores and releases storage
func (a *app) Close() error {
	a.logger.Info("shutting down")
	return errors.Join(
		a.search.Close(),
		a.collection.Close(),
		a.store.Close(),
		a.logCloser.Close(),
	)
}

func loadConfig() (*adapter.Config, error) {
	if configDir != "" {
		return adapter.LoadConfigFrom(configDir)
	}
	return adapter.LoadConfig()
}
