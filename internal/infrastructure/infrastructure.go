// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, token verification,
// model clients, rasterization and status events) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/trackerzenith/docpipe/internal/config"
	"github.com/trackerzenith/docpipe/pkg/auth"
	"github.com/trackerzenith/docpipe/pkg/database"
	"github.com/trackerzenith/docpipe/pkg/events"
	"github.com/trackerzenith/docpipe/pkg/lifecycle"
	"github.com/trackerzenith/docpipe/pkg/render"
	"github.com/trackerzenith/docpipe/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, file storage and the external model providers.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Database   database.System
	Storage    storage.System
	Auth       auth.Verifier
	Events     events.Publisher
	Models     *Models
	Rasterizer render.Rasterizer
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(lc.Context(), &cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	verifier, err := auth.New(lc.Context(), &cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}

	publisher, err := events.New(&cfg.Events, logger)
	if err != nil {
		return nil, fmt.Errorf("events init failed: %w", err)
	}

	models, err := NewModels(lc.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("model init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle:  lc,
		Logger:     logger,
		Database:   db,
		Storage:    store,
		Auth:       verifier,
		Events:     publisher,
		Models:     models,
		Rasterizer: render.New(cfg.Pipeline.RasterDPI),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database and storage hooks are registered for startup and shutdown coordination,
// the database is registered as a readiness check, and model clients are closed on shutdown.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	i.Lifecycle.AddCheck("database", i.Database.Ping)

	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		if err := i.Models.Close(); err != nil {
			i.Logger.Error("model client close failed", "error", err)
		}
	})

	return nil
}
