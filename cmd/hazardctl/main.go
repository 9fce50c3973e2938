package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/hazard-risk-service/internal/bootstrap"
	"github.com/couchcryptid/hazard-risk-service/internal/config"
	"github.com/couchcryptid/hazard-risk-service/internal/observability"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openBackend).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// openBackend assembles the real provider stack from the environment.
func openBackend(cmd *cobra.Command, verbose bool) (*backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := observability.NewCLILogger(cmd.ErrOrStderr(), level)

	app := bootstrap.New(cmd.Context(), cfg, logger, nil)
	return &backend{queries: app.Orchestrator, events: app.Events, close: app.Close}, nil
}
