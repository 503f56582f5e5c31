package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/healthboard"
	"github.com/jpalmerr/healthboard/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for server use.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the board server",
		Long: `Start the HealthBoard server.

The server will:
  - Load configuration from the specified YAML file
  - Restore the last checkpoint if restore_on_start is set
  - Seed the configured categories and start any probes
  - Serve the API and dashboard on the configured port

On Ctrl+C or SIGTERM the server stops accepting requests and, when
checkpoint_interval is set, writes a final checkpoint.

Example:
  healthboard serve -c healthboard.yaml
  healthboard serve --config /etc/healthboard/healthboard.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			return a.runServe(cmd, configFile)
		},
	}

	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, configFile string) error {
	logger := newLogger(a.errOut, a.v.GetBool(keyVerbose))

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"probes", len(cfg.Probes),
		"grids", len(cfg.Grids),
		"seed", len(cfg.Seed),
	)

	opts, err := config.Build(cfg)
	if err != nil {
		return fmt.Errorf("failed to build board: %w", err)
	}
	opts = append(opts, healthboard.WithLogger(logger))

	board, err := healthboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	ctx := cmd.Context()

	// Start blocks until ctx is cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- board.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, give the final checkpoint time to finish
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
