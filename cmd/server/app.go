package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/chengzhnag/taskboard/internal/config"
	"github.com/chengzhnag/taskboard/internal/platform/postgres"
	"github.com/chengzhnag/taskboard/internal/service"
	"github.com/chengzhnag/taskboard/internal/service/auth"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskService    service.TaskService
	contentService service.ContentService
	mailService    service.MailService
	verifier       auth.Verifier
}

// newApplication wires stores and services onto the given database
// connection. Script execution for scheduled_js tasks stays a log-only hook;
// an external executor owns the real side effect.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) *application {
	taskStore := postgres.NewPostgresTaskStore(db, logger)
	categoryStore := postgres.NewPostgresCategoryStore(db, logger)
	questionStore := postgres.NewPostgresQuestionStore(db, logger)

	return &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		taskService:    service.NewTaskService(taskStore, nil, logger),
		contentService: service.NewContentService(categoryStore, questionStore, logger),
		mailService:    service.NewMailService(cfg.Mail.ResendAPIKey, cfg.Mail.FromAddress, logger),
		verifier:       auth.NewStaticVerifier(cfg.Auth.Username, cfg.Auth.Password),
	}
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}

// initializeApp loads configuration, sets up logging, connects to the
// database, and runs pending migrations.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupAppDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return newApplication(cfg, logger, db), nil
}
