package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/romaninsh/vantage/internal/catalog"
	"github.com/romaninsh/vantage/internal/config"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	Catalog *catalog.Catalog
}

// NewCommandContext opens the configured sources for a command.
// Returns the context and a cleanup function that must be called
// (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, nil, fmt.Errorf("no configuration loaded")
	}
	logger := config.LoggerFromContext(cmd.Context())

	cat, err := catalog.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = cat.Close()
	}

	return &CommandContext{
		Cfg:     cfg,
		Logger:  logger,
		Catalog: cat,
	}, cleanup, nil
}
