package main

import (
	"log/slog"

	"github.com/chengzhnag/taskboard/internal/config"
	"github.com/chengzhnag/taskboard/internal/platform/logger"
)

// setupLogger configures the application's structured logger from config and
// installs it as the process default.
func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	return logger.Setup(cfg.Server)
}
