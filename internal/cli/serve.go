package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sharkusmanch/rethinkdb-backup/internal/config"
	"github.com/sharkusmanch/rethinkdb-backup/internal/platform"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daily backup scheduler in the foreground",
		Long: `Run the scheduler loop, starting a backup every day at trigger_hour.

Stop with Ctrl+C or SIGTERM; both exit cleanly. This is the mode to use in a
container or under systemd.`,
		RunE: runServe,
	}

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger)
}

// serve runs the scheduler until ctx is cancelled. Cancellation is a clean exit.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting rethinkdb-backup scheduler",
		"trigger_hour", cfg.TriggerHour,
		"timezone", cfg.Timezone,
		"service", cfg.Database.Service,
	)

	a, err := newAgent(ctx, cfg, logger, true)
	if err != nil {
		return err
	}

	if err := a.scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler error: %w", err)
	}

	logger.Info("rethinkdb-backup stopped")
	return nil
}

// RunService runs the scheduler under the platform service manager.
func RunService() error {
	return platform.RunAsService(func(ctx context.Context) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}

		logger, err := setupLogging(cfg)
		if err != nil {
			return err
		}

		return serve(ctx, cfg, logger)
	})
}
