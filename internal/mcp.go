package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/changsongyang/markerd/internal/markerservice"
	"github.com/changsongyang/markerd/internal/mcpserver"
)

// RunMCP starts the MCP server on stdin/stdout with the given options and
// blocks until the client disconnects. Logs go to stderr because stdout
// carries the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.SlogLevel(),
	}))
	slog.SetDefault(logger)

	sess, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer sess.db.Close()

	// No change listeners in stdio mode, so the service runs without a notifier.
	svc := markerservice.NewService(sess.store, sess.db, nil)
	srv := mcpserver.New(svc)

	logger.Info("MCP server starting on stdio",
		slog.String("state_path", cfg.State.Path),
		slog.String("sqlite_path", cfg.SQLite.Path))

	// Stdin EOF and interrupt signals both count as a clean disconnect.
	if err := srv.ServeStdio(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server error: %w", err)
	}

	sess.saveState(logger)

	logger.Info("MCP server stopped")
	return nil
}
