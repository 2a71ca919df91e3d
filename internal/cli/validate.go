package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sharkusmanch/rethinkdb-backup/internal/config"
	"github.com/sharkusmanch/rethinkdb-backup/internal/http"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and test connectivity",
		Long: `Validate the configuration and test connectivity to external services.

This checks:
- Configuration values
- rethinkdb binary availability
- S3 bucket access (unless local_only)
- Datadog API key
- Apprise server connectivity (if enabled)
- Pushgateway connectivity (if enabled)`,
		RunE: runValidate,
	}

	return cmd
}

// check prints one result line and reports whether it passed.
func check(w io.Writer, name string, err error, okDetail string) bool {
	if err != nil {
		fmt.Fprintf(w, "  ✗ %s: %v\n", name, err)
		return false
	}
	fmt.Fprintf(w, "  ✓ %s%s\n", name, okDetail)
	return true
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	fmt.Fprintln(out, "Configuration:")
	cfg, err := loadConfig(nil)
	if err != nil {
		fmt.Fprintf(out, "  ✗ %v\n", err)
		return err
	}
	fmt.Fprintln(out, "  ✓ Configuration valid")

	configPath, _ := config.DefaultConfigPath()
	if cfgFile != "" {
		configPath = cfgFile
	}
	fmt.Fprintf(out, "  Config file: %s\n", configPath)
	fmt.Fprintf(out, "  Trigger: daily at %02d:00 (%s)\n", cfg.TriggerHour, cfg.Timezone)
	fmt.Fprintf(out, "  Database: %s (%s)\n", cfg.Database.Host, cfg.Database.Service)
	if dest := cfg.Destination(); dest != "" {
		fmt.Fprintf(out, "  Destination: s3://%s (%s)\n", dest, cfg.S3.Region)
	} else {
		fmt.Fprintf(out, "  Destination: local only (%s)\n", cfg.OutputDir)
	}
	fmt.Fprintf(out, "  Retry: %d attempt(s), %s apart\n", cfg.Backup.MaxAttempts, cfg.Backup.RetryDelay)
	fmt.Fprintf(out, "  Notify on: %s\n", cfg.Notify.On)
	fmt.Fprintln(out)

	logger, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	// Single attempt per check so an outage is reported quickly.
	httpClient := http.NewClient(
		http.WithRetryConfig(http.RetryConfig{
			MaxAttempts:  1,
			InitialDelay: time.Second,
			MaxDelay:     time.Second,
		}),
		http.WithLogger(logger),
	)

	fmt.Fprintln(out, "Checks:")
	ok := true

	dumper := newDumper(cfg, logger)
	dumpErr := dumper.Validate(ctx)
	detail := ""
	if dumpErr == nil {
		v, _ := dumper.Version(ctx)
		detail = " found: " + v
	}
	ok = check(out, "rethinkdb binary", dumpErr, detail) && ok

	if cfg.Destination() != "" {
		uploader, err := newUploader(ctx, cfg, logger)
		if err == nil {
			err = uploader.Validate(ctx, cfg.Destination())
		}
		ok = check(out, "S3 bucket", err, " accessible") && ok
	}

	ok = check(out, "Datadog API key", newDatadog(cfg, httpClient, logger).Validate(ctx), " valid") && ok

	if cfg.Apprise.Enabled {
		ok = check(out, "Apprise server", newApprise(cfg, httpClient, logger).Validate(ctx), " reachable") && ok
	}

	if cfg.Metrics.Enabled {
		ok = check(out, "Pushgateway", newPusher(cfg, httpClient, logger).Validate(ctx), " reachable") && ok
	}

	fmt.Fprintln(out)
	if !ok {
		return fmt.Errorf("one or more checks failed")
	}
	fmt.Fprintln(out, "Validation complete.")
	return nil
}
