package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/docsum-api/internal/config"
	"github.com/phrazzld/docsum-api/internal/extraction"
	"github.com/phrazzld/docsum-api/internal/ingestion"
	"github.com/phrazzld/docsum-api/internal/platform/memory"
	"github.com/phrazzld/docsum-api/internal/platform/postgres"
	"github.com/phrazzld/docsum-api/internal/store"
	"github.com/phrazzld/docsum-api/internal/summarize"
	"github.com/phrazzld/docsum-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when the in-memory store is selected.
	db *sql.DB

	taskStore store.TaskStore

	ingestSvc *ingestion.Service
	engine    *extraction.Engine
	processor *task.Processor
}

// newApplication creates a new application instance with all dependencies
// initialized. The task store backend follows the configuration: a
// Postgres store (with migrations applied) when a database URL is set,
// the in-memory store otherwise.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	if cfg.Database.URL != "" {
		db, err := setupDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		app.db = db
		app.taskStore = postgres.NewTaskStore(db, logger)
		logger.Info("using postgres task store")
	} else {
		app.taskStore = memory.NewTaskStore(logger)
		logger.Info("using in-memory task store; tasks will not survive restarts")
	}

	var err error
	app.ingestSvc, err = ingestion.NewService(app.taskStore, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestion service: %w", err)
	}

	app.engine, err = extraction.NewEngine(
		extraction.NewTextLayerExtractor(),
		extraction.NewTesseractExtractor(cfg.Extraction.OCRLanguage),
		cfg.Extraction,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction engine: %w", err)
	}

	client, err := summarize.NewClient(cfg.Summarizer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create summarizer client: %w", err)
	}

	orchestrator, err := summarize.NewOrchestrator(client, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	app.processor, err = task.NewProcessor(
		app.taskStore,
		app.ingestSvc,
		app.engine,
		orchestrator,
		cfg.Summarizer.MaxChunkSize,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task processor: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
