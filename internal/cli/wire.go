package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharkusmanch/rethinkdb-backup/internal/app"
	"github.com/sharkusmanch/rethinkdb-backup/internal/config"
	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
	"github.com/sharkusmanch/rethinkdb-backup/internal/executor"
	"github.com/sharkusmanch/rethinkdb-backup/internal/http"
	"github.com/sharkusmanch/rethinkdb-backup/internal/metrics"
	"github.com/sharkusmanch/rethinkdb-backup/internal/notify"
	"github.com/sharkusmanch/rethinkdb-backup/internal/storage"
)

// agent is the fully wired backup pipeline.
type agent struct {
	runner    *app.Runner
	scheduler *app.Scheduler
}

// newAgent wires every component from cfg. With scheduled set, a daily
// scheduler is built and the next run is reported in metrics.
func newAgent(ctx context.Context, cfg *config.Config, logger *slog.Logger, scheduled bool) (*agent, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	httpClient := newHTTPClient(cfg, logger)

	var uploader domain.Uploader
	if cfg.Destination() != "" {
		s3, err := newUploader(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		uploader = s3
	}

	operation := app.NewBackupOperation(newDumper(cfg, logger), uploader, app.OperationConfig{
		Service:     cfg.Database.Service,
		OutputDir:   cfg.OutputDir,
		Bucket:      cfg.Destination(),
		RemoveLocal: cfg.RemoveLocal,
	}, app.WithOperationLogger(logger))

	a := &agent{}

	runnerOpts := []app.RunnerOption{
		app.WithOperation(operation),
		app.WithNotifier(newNotifier(cfg, httpClient, logger)),
		app.WithLogger(logger),
	}
	if cfg.Metrics.Enabled {
		runnerOpts = append(runnerOpts, app.WithMetricsPusher(newPusher(cfg, httpClient, logger)))
	}
	if scheduled {
		runnerOpts = append(runnerOpts, app.WithNextRun(func() time.Time {
			return a.scheduler.NextRun()
		}))
	}

	a.runner = app.NewRunner(cfg, runnerOpts...)

	if scheduled {
		a.scheduler = app.NewScheduler(a.runner,
			app.WithTriggerHour(cfg.TriggerHour),
			app.WithLocation(loc),
			app.WithSchedulerLogger(logger),
		)
	}

	return a, nil
}

func newHTTPClient(cfg *config.Config, logger *slog.Logger) *http.Client {
	return http.NewClient(
		http.WithRetryConfig(http.RetryConfig{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
		}),
		http.WithLogger(logger),
	)
}

func newDumper(cfg *config.Config, logger *slog.Logger) *executor.RethinkDBDumper {
	opts := []executor.RethinkDBOption{
		executor.WithLogger(logger),
	}
	if cfg.Database.DumpPath != "" {
		opts = append(opts, executor.WithBinaryPath(cfg.Database.DumpPath))
	}
	if cfg.Database.AuthKey != "" {
		opts = append(opts, executor.WithAuthKey(cfg.Database.AuthKey))
	}
	return executor.NewRethinkDBDumper(cfg.Database.Host, opts...)
}

func newUploader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage.S3Uploader, error) {
	uploader, err := storage.NewS3Uploader(ctx, storage.S3Options{
		Region:          cfg.S3.Region,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		Endpoint:        cfg.S3.Endpoint,
		UsePathStyle:    cfg.S3.UsePathStyle,
	}, storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 uploader: %w", err)
	}
	return uploader, nil
}

func newDatadog(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) *notify.DatadogClient {
	return notify.NewDatadogClient(cfg.Datadog.APIKey, cfg.Datadog.AppKey,
		notify.WithDatadogSite(cfg.Datadog.Site),
		notify.WithTags(cfg.Datadog.Tags...),
		notify.WithDatadogHTTPClient(httpClient),
		notify.WithDatadogLogger(logger),
	)
}

func newApprise(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) *notify.AppriseClient {
	return notify.NewAppriseClient(cfg.Apprise.URL, cfg.Apprise.Key,
		notify.WithHTTPClient(httpClient),
		notify.WithLogger(logger),
	)
}

// newNotifier fans out to Datadog and, when enabled, Apprise. Each sink sits
// behind its own circuit breaker.
func newNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) domain.Notifier {
	breaker := func(name string, sink domain.Notifier) domain.Notifier {
		return notify.NewBreakerNotifier(sink, notify.BreakerConfig{
			Name:                name,
			ConsecutiveFailures: uint32(cfg.Notify.BreakerFailures),
			Timeout:             cfg.Notify.BreakerTimeout,
		}, logger)
	}

	sinks := []domain.Notifier{
		breaker("datadog", newDatadog(cfg, httpClient, logger)),
	}
	if cfg.Apprise.Enabled {
		sinks = append(sinks, breaker("apprise", newApprise(cfg, httpClient, logger)))
	}

	multi := notify.NewMultiNotifier(logger, sinks...)
	logger.Debug("alert sinks configured", "count", multi.Len(), "apprise", cfg.Apprise.Enabled)
	return multi
}

func newPusher(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) *metrics.PushgatewayClient {
	return metrics.NewPushgatewayClient(cfg.Metrics.PushgatewayURL,
		metrics.WithHTTPClient(httpClient),
		metrics.WithLogger(logger),
	)
}
