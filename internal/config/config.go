package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	TriggerHour int    `mapstructure:"trigger_hour"`
	Timezone    string `mapstructure:"timezone"`
	OutputDir   string `mapstructure:"output_dir"`
	RemoveLocal bool   `mapstructure:"remove_local"`
	LocalOnly   bool   `mapstructure:"local_only"`
	DryRun      bool   `mapstructure:"dry_run"`

	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Datadog  DatadogConfig  `mapstructure:"datadog"`
	Apprise  AppriseConfig  `mapstructure:"apprise"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig describes the database to dump.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	AuthKey  string `mapstructure:"auth_key"`
	Service  string `mapstructure:"service"`
	DumpPath string `mapstructure:"dump_path"`
}

// S3Config holds the remote storage destination and credentials.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// BackupConfig holds the per-run retry budget.
type BackupConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// RetryConfig holds HTTP retry configuration.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
}

// DatadogConfig holds the alerting sink credentials.
type DatadogConfig struct {
	APIKey string   `mapstructure:"api_key"`
	AppKey string   `mapstructure:"app_key"`
	Site   string   `mapstructure:"site"`
	Tags   []string `mapstructure:"tags"`
}

// AppriseConfig holds the optional Apprise relay configuration.
type AppriseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Key     string `mapstructure:"key"`
}

// NotifyConfig controls when and how alerts are delivered.
type NotifyConfig struct {
	On              NotifyLevel   `mapstructure:"on"`
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configPath string
	envFile    string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:       viper.New(),
		envFile: EnvFileName,
	}
}

// WithConfigPath sets a specific config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvFile sets the dotenv file to read. An empty path disables it.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// Load reads configuration from all sources and returns the merged config.
// Precedence (highest to lowest): CLI flags > environment > .env file > config file > defaults.
func (l *Loader) Load() (*Config, error) {
	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}

	l.setDefaults()
	if err := l.setupEnvBindings(); err != nil {
		return nil, err
	}

	if err := l.loadConfigFile(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	l.v.SetDefault("trigger_hour", DefaultTriggerHour)
	l.v.SetDefault("timezone", DefaultTimezone)
	l.v.SetDefault("output_dir", DefaultOutputDir)
	l.v.SetDefault("remove_local", DefaultRemoveLocal)
	l.v.SetDefault("local_only", DefaultLocalOnly)
	l.v.SetDefault("dry_run", false)

	l.v.SetDefault("database.host", "")
	l.v.SetDefault("database.auth_key", "")
	l.v.SetDefault("database.service", DefaultDatabaseService)
	l.v.SetDefault("database.dump_path", "")

	l.v.SetDefault("s3.bucket", "")
	l.v.SetDefault("s3.region", DefaultS3Region)
	l.v.SetDefault("s3.access_key_id", "")
	l.v.SetDefault("s3.secret_access_key", "")
	l.v.SetDefault("s3.endpoint", "")
	l.v.SetDefault("s3.use_path_style", false)

	l.v.SetDefault("backup.max_attempts", DefaultBackupMaxAttempts)
	l.v.SetDefault("backup.retry_delay", DefaultBackupRetryDelay)

	l.v.SetDefault("retry.max_attempts", DefaultRetryMaxAttempts)
	l.v.SetDefault("retry.initial_delay", DefaultRetryInitialDelay)
	l.v.SetDefault("retry.max_delay", DefaultRetryMaxDelay)

	l.v.SetDefault("datadog.api_key", "")
	l.v.SetDefault("datadog.app_key", "")
	l.v.SetDefault("datadog.site", DefaultDatadogSite)
	l.v.SetDefault("datadog.tags", []string{})

	l.v.SetDefault("apprise.enabled", DefaultAppriseEnabled)
	l.v.SetDefault("apprise.url", "")
	l.v.SetDefault("apprise.key", "")

	l.v.SetDefault("notify.on", string(DefaultNotifyOn))
	l.v.SetDefault("notify.breaker_failures", DefaultNotifyBreakerFailures)
	l.v.SetDefault("notify.breaker_timeout", DefaultNotifyBreakerTimeout)

	l.v.SetDefault("metrics.enabled", DefaultMetricsEnabled)
	l.v.SetDefault("metrics.pushgateway_url", "")

	l.v.SetDefault("log.level", DefaultLogLevel)
	l.v.SetDefault("log.output", "")
	l.v.SetDefault("log.max_size_mb", DefaultLogMaxSizeMB)
}

// setupEnvBindings configures environment variable bindings.
func (l *Loader) setupEnvBindings() error {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	// Explicit names bypass the prefix, so the prefixed form is listed first.
	for key, alias := range envAliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := l.v.BindEnv(key, prefixed, alias); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// loadEnvFile exports variables from the dotenv file without overriding the
// real environment.
func (l *Loader) loadEnvFile() error {
	if l.envFile == "" {
		return nil
	}
	if err := godotenv.Load(l.envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", l.envFile, err)
	}
	return nil
}

// loadConfigFile loads configuration from a file.
func (l *Loader) loadConfigFile() error {
	if l.configPath != "" {
		l.v.SetConfigFile(l.configPath)
	} else {
		configDir, err := DefaultConfigDir()
		if err != nil {
			// Can't determine config dir, proceed without file config
			return nil
		}

		l.v.SetConfigName("config")
		l.v.SetConfigType("toml")
		l.v.AddConfigPath(configDir)
		l.v.AddConfigPath(".")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// Set sets a configuration value (for CLI flag overrides).
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// ConfigFileUsed returns the path of the config file used, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Destination returns the bucket to upload to, or "" for a local-only backup.
func (c *Config) Destination() string {
	if c.LocalOnly {
		return ""
	}
	return c.S3.Bucket
}

func required(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return &domain.ConfigurationError{Key: key, Reason: "is required"}
	}
	return nil
}

func invalid(key, format string, args ...interface{}) error {
	return &domain.ConfigurationError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks if the configuration is valid. Every error it returns is a
// *domain.ConfigurationError.
func (c *Config) Validate() error {
	if c.TriggerHour < 0 || c.TriggerHour > 23 {
		return invalid("trigger_hour", "must be between 0 and 23, got %d", c.TriggerHour)
	}

	if _, err := c.Location(); err != nil {
		return invalid("timezone", "is not a known location: %s", c.Timezone)
	}

	if err := required("output_dir", c.OutputDir); err != nil {
		return err
	}

	if err := required("database.host", c.Database.Host); err != nil {
		return err
	}
	if err := required("database.service", c.Database.Service); err != nil {
		return err
	}
	if c.Database.DumpPath != "" {
		if _, err := os.Stat(c.Database.DumpPath); err != nil {
			return invalid("database.dump_path", "does not exist: %s", c.Database.DumpPath)
		}
	}

	if !c.LocalOnly {
		for _, kv := range [][2]string{
			{"s3.bucket", c.S3.Bucket},
			{"s3.region", c.S3.Region},
			{"s3.access_key_id", c.S3.AccessKeyID},
			{"s3.secret_access_key", c.S3.SecretAccessKey},
		} {
			if err := required(kv[0], kv[1]); err != nil {
				return err
			}
		}
	}

	if err := required("datadog.api_key", c.Datadog.APIKey); err != nil {
		return err
	}
	if err := required("datadog.app_key", c.Datadog.AppKey); err != nil {
		return err
	}
	if err := required("datadog.site", c.Datadog.Site); err != nil {
		return err
	}

	if c.Backup.MaxAttempts < 1 {
		return invalid("backup.max_attempts", "must be at least 1")
	}
	if c.Backup.RetryDelay <= 0 {
		return invalid("backup.retry_delay", "must be positive")
	}

	if c.Retry.MaxAttempts < 1 {
		return invalid("retry.max_attempts", "must be at least 1")
	}
	if c.Retry.InitialDelay < 0 {
		return invalid("retry.initial_delay", "cannot be negative")
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		return invalid("retry.max_delay", "must be >= retry.initial_delay")
	}

	if c.Apprise.Enabled {
		if err := required("apprise.url", c.Apprise.URL); err != nil {
			return err
		}
		if err := required("apprise.key", c.Apprise.Key); err != nil {
			return err
		}
	}

	if !c.Notify.On.IsValid() {
		return invalid("notify.on", "must be one of: error, always")
	}
	if c.Notify.BreakerFailures < 1 {
		return invalid("notify.breaker_failures", "must be at least 1")
	}
	if c.Notify.BreakerTimeout < 0 {
		return invalid("notify.breaker_timeout", "cannot be negative")
	}

	if c.Metrics.Enabled {
		if err := required("metrics.pushgateway_url", c.Metrics.PushgatewayURL); err != nil {
			return err
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return invalid("log.level", "must be one of: debug, info, warn, error")
	}

	if c.Log.MaxSizeMB < 1 {
		return invalid("log.max_size_mb", "must be at least 1")
	}

	return nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// WriteExampleConfig writes an example config file to the given path.
// Secrets are left to the environment.
func WriteExampleConfig(path string) error {
	content := `# RethinkDB backup agent configuration
#
# Secrets are normally supplied through the environment:
#   RETHINKDB_HOST, RETHINKDB_AUTH_KEY, S3_BUCKET,
#   AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
#   DATADOG_API_KEY, DATADOG_APP_KEY

# Hour of day (0-23) at which the daily backup starts
trigger_hour = 18

# Time zone for trigger_hour ("Local" or an IANA name)
timezone = "Local"

# Directory where dump archives are written
output_dir = "."

# Delete the local archive after a successful upload
remove_local = false

# Skip the upload and keep archives locally only
local_only = false

[database]
service = "rethinkdb"
# Path to the rethinkdb binary (looked up in PATH if empty)
dump_path = ""

[s3]
region = "eu-central-1"
# Custom endpoint for S3-compatible stores
endpoint = ""
use_path_style = false

# Attempts per scheduled run
[backup]
max_attempts = 3
retry_delay = "1s"

# HTTP retry configuration for alerting and metrics
[retry]
max_attempts = 3
initial_delay = "5s"
max_delay = "30s"

[datadog]
site = "https://api.datadoghq.com"
tags = ["service:rethinkdb-backup"]

# Apprise relay (optional, disabled by default)
[apprise]
enabled = false
url = "http://localhost:8000"
key = "rethinkdb-backup"

[notify]
# "always" or "error"
on = "always"
breaker_failures = 3
breaker_timeout = "10m"

# Prometheus metrics (optional, disabled by default)
[metrics]
enabled = false
pushgateway_url = "http://pushgateway:9091"

[log]
# Level: debug, info, warn, error
level = "info"
# Output file path (stderr if empty)
# output = ""
max_size_mb = 10
`
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0600)
}
