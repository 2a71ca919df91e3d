// Package metrics pushes backup metrics to a Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
	"github.com/sharkusmanch/rethinkdb-backup/internal/http"
	"github.com/sharkusmanch/rethinkdb-backup/pkg/version"
)

const (
	jobName   = "rethinkdb_backup"
	namespace = "rethinkdb_backup"
)

// PushgatewayClient pushes metrics to a Prometheus Pushgateway.
type PushgatewayClient struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// PushgatewayOption configures a PushgatewayClient.
type PushgatewayOption func(*PushgatewayClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) PushgatewayOption {
	return func(p *PushgatewayClient) {
		p.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PushgatewayOption {
	return func(p *PushgatewayClient) {
		p.logger = logger
	}
}

// NewPushgatewayClient creates a new PushgatewayClient.
func NewPushgatewayClient(url string, opts ...PushgatewayOption) *PushgatewayClient {
	p := &PushgatewayClient{
		url:        strings.TrimSuffix(url, "/"),
		httpClient: http.NewClient(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Push replaces the metric group for this host with a fresh snapshot.
func (p *PushgatewayClient) Push(ctx context.Context, metrics *domain.Metrics) error {
	reg := buildRegistry(metrics)

	p.logger.Debug("pushing metrics to pushgateway",
		"url", p.url,
		"instance", metrics.Hostname,
		"service_up", metrics.ServiceUp,
	)

	err := push.New(p.url, jobName).
		Gatherer(reg).
		Grouping("instance", metrics.Hostname).
		Client(p.httpClient.Doer()).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}

	p.logger.Debug("metrics pushed successfully")
	return nil
}

// Validate checks if the Pushgateway is reachable.
func (p *PushgatewayClient) Validate(ctx context.Context) error {
	readyURL := fmt.Sprintf("%s/-/ready", p.url)

	if err := p.httpClient.CheckConnectivity(ctx, readyURL); err != nil {
		if err2 := p.httpClient.CheckConnectivity(ctx, p.url); err2 != nil {
			return fmt.Errorf("pushgateway not reachable at %s: %w", p.url, err)
		}
	}

	return nil
}

// buildRegistry renders a metrics snapshot into a throwaway registry.
func buildRegistry(m *domain.Metrics) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	gauge := func(name, help string, value float64) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
		g.Set(value)
		reg.MustRegister(g)
	}

	gauge("up", "Whether the backup agent is running.", boolToFloat(m.ServiceUp))

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "info",
		Help:      "Build information.",
	}, []string{"version", "go_version"})
	info.WithLabelValues(version.Get().Version, runtime.Version()).Set(1)
	reg.MustRegister(info)

	if o := m.Outcome; o != nil {
		gauge("last_run_timestamp_seconds", "Unix time the last run finished.", float64(o.EndTime.Unix()))
		gauge("last_run_success", "Whether the last run succeeded.", boolToFloat(o.Succeeded))
		gauge("last_run_duration_seconds", "Duration of the last run.", o.Duration.Seconds())
		gauge("last_run_attempts", "Attempts made by the last run.", float64(o.AttemptsMade))
	}

	if !m.NextRun.IsZero() {
		gauge("next_run_timestamp_seconds", "Unix time of the next scheduled run.", float64(m.NextRun.Unix()))
	}

	return reg
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Ensure PushgatewayClient implements domain.MetricsPusher.
var _ domain.MetricsPusher = (*PushgatewayClient)(nil)
