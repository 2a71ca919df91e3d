package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName is the application name used for config directories.
	AppName = "rethinkdb-backup"
	// ConfigFileName is the default config file name.
	ConfigFileName = "config.toml"
	// EnvFileName is the dotenv file read from the working directory.
	EnvFileName = ".env"
	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "RETHINKDB_BACKUP"
)

// envAliases maps config keys to well-known environment variables that are
// honoured in addition to the prefixed form.
var envAliases = map[string]string{
	"database.host":        "RETHINKDB_HOST",
	"database.auth_key":    "RETHINKDB_AUTH_KEY",
	"s3.bucket":            "S3_BUCKET",
	"s3.access_key_id":     "AWS_ACCESS_KEY_ID",
	"s3.secret_access_key": "AWS_SECRET_ACCESS_KEY",
	"datadog.api_key":      "DATADOG_API_KEY",
	"datadog.app_key":      "DATADOG_APP_KEY",
}

// DefaultConfigDir returns the default configuration directory for the current OS.
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, AppName), nil

	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", AppName), nil

	default:
		// $XDG_CONFIG_HOME/rethinkdb-backup or ~/.config/rethinkdb-backup
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, AppName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
}

// DefaultConfigPath returns the full path to the default config file.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}
