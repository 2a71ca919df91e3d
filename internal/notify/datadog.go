// Package notify delivers backup outcomes to alerting sinks.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
	"github.com/sharkusmanch/rethinkdb-backup/internal/http"
)

const (
	datadogSourceType = "rethinkdb-backup"
	// Datadog rejects event text above 4000 characters.
	maxEventTextLength = 4000
)

// DatadogClient posts events to the Datadog Events API.
type DatadogClient struct {
	site       string
	tags       []string
	httpClient *http.Client
	logger     *slog.Logger
}

// DatadogOption configures a DatadogClient.
type DatadogOption func(*DatadogClient)

// WithDatadogSite sets the API base URL, e.g. https://api.datadoghq.eu.
func WithDatadogSite(site string) DatadogOption {
	return func(d *DatadogClient) {
		d.site = strings.TrimSuffix(site, "/")
	}
}

// WithTags sets tags attached to every event.
func WithTags(tags ...string) DatadogOption {
	return func(d *DatadogClient) {
		d.tags = tags
	}
}

// WithDatadogHTTPClient sets the base HTTP client. Auth headers are added on top.
func WithDatadogHTTPClient(client *http.Client) DatadogOption {
	return func(d *DatadogClient) {
		d.httpClient = client
	}
}

// WithDatadogLogger sets the logger.
func WithDatadogLogger(logger *slog.Logger) DatadogOption {
	return func(d *DatadogClient) {
		d.logger = logger
	}
}

// NewDatadogClient creates a client authenticated with an API key and an
// application key.
func NewDatadogClient(apiKey, appKey string, opts ...DatadogOption) *DatadogClient {
	d := &DatadogClient{
		site:       "https://api.datadoghq.com",
		httpClient: http.NewClient(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.httpClient = d.httpClient.With(
		http.WithHeader("DD-API-KEY", apiKey),
		http.WithHeader("DD-APPLICATION-KEY", appKey),
	)

	return d
}

// datadogEvent is the JSON body of POST /api/v1/events.
type datadogEvent struct {
	Title          string   `json:"title"`
	Text           string   `json:"text"`
	AlertType      string   `json:"alert_type"`
	Priority       string   `json:"priority,omitempty"`
	SourceTypeName string   `json:"source_type_name,omitempty"`
	AggregationKey string   `json:"aggregation_key,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// Notify posts the notification as a Datadog event.
func (d *DatadogClient) Notify(ctx context.Context, notification *domain.Notification) error {
	text := notification.Body
	if len(text) > maxEventTextLength {
		text = truncateText(text, maxEventTextLength)
	}

	event := datadogEvent{
		Title:          notification.Title,
		Text:           text,
		AlertType:      d.mapLevel(notification.Level),
		Priority:       "normal",
		SourceTypeName: datadogSourceType,
		AggregationKey: notification.RunID,
		Tags:           d.tags,
	}

	eventsURL := d.site + "/api/v1/events"

	d.logger.Debug("sending event to datadog",
		"url", eventsURL,
		"title", notification.Title,
		"alert_type", event.AlertType,
	)

	resp, err := d.httpClient.PostJSON(ctx, eventsURL, event)
	if err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}

	if !resp.OK() {
		return fmt.Errorf("datadog returned status %d: %s", resp.StatusCode, string(resp.Body))
	}

	d.logger.Debug("event sent successfully")
	return nil
}

// Validate checks the API key against /api/v1/validate.
func (d *DatadogClient) Validate(ctx context.Context) error {
	resp, err := d.httpClient.Get(ctx, d.site+"/api/v1/validate")
	if err != nil {
		return fmt.Errorf("datadog not reachable at %s: %w", d.site, err)
	}
	if !resp.OK() {
		return fmt.Errorf("datadog rejected credentials: status %d", resp.StatusCode)
	}

	var body struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return fmt.Errorf("failed to parse validate response: %w", err)
	}
	if !body.Valid {
		return fmt.Errorf("datadog API key is not valid")
	}
	return nil
}

// mapLevel maps domain notification level to a Datadog alert_type.
func (d *DatadogClient) mapLevel(level domain.NotificationLevel) string {
	switch level {
	case domain.NotificationLevelSuccess:
		return "success"
	case domain.NotificationLevelWarning:
		return "warning"
	case domain.NotificationLevelError:
		return "error"
	default:
		return "info"
	}
}

// truncateText shortens s to at most max bytes, ending in "..." and never
// splitting a multi-byte rune.
func truncateText(s string, max int) string {
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Ensure DatadogClient implements domain.Notifier.
var _ domain.Notifier = (*DatadogClient)(nil)
