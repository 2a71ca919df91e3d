// Package cli provides the command-line interface.
package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sharkusmanch/rethinkdb-backup/internal/config"
	"github.com/sharkusmanch/rethinkdb-backup/pkg/version"
)

var (
	cfgFile  string
	envFile  string
	dryRun   bool
	logLevel string
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rethinkdb-backup",
		Short: "Scheduled RethinkDB backups to S3",
		Long: `rethinkdb-backup dumps a RethinkDB database once a day, uploads the
archive to S3-compatible storage, retries transient failures, and reports
every run to Datadog (and optionally Apprise and a Prometheus Pushgateway).

It can run a one-shot backup, a foreground scheduler, or a Windows service.`,
		Version: version.Get().String(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initLogging()
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.EnvFileName, "dotenv file to read (empty to disable)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "log what would happen without dumping or uploading")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// initLogging installs a stderr logger until the config is loaded.
func initLogging() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogging configures logging based on the loaded config.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	level := parseLevel(cfg.Log.Level)
	if logLevel != "" {
		level = parseLevel(logLevel)
	}

	var output io.Writer = os.Stderr
	if cfg.Log.Output != "" {
		dir := filepath.Dir(cfg.Log.Output)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, err
		}

		output = &lumberjack.Logger{
			Filename:   cfg.Log.Output,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}

	handler := slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, nil
}

// loadConfig loads the application configuration. overrides are applied on
// top of every other source.
func loadConfig(overrides map[string]interface{}) (*config.Config, error) {
	loader := config.NewLoader().WithEnvFile(envFile)

	if cfgFile != "" {
		loader = loader.WithConfigPath(cfgFile)
	}

	if dryRun {
		loader.Set("dry_run", true)
	}
	if logLevel != "" {
		loader.Set("log.level", logLevel)
	}
	for key, value := range overrides {
		loader.Set(key, value)
	}

	return loader.Load()
}
