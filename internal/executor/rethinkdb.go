// Package executor runs the external database dump tool.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
)

const binaryName = "rethinkdb"

// RethinkDBDumper implements domain.Dumper with `rethinkdb dump`.
type RethinkDBDumper struct {
	host       string
	authKey    string
	binaryPath string
	logger     *slog.Logger
}

// RethinkDBOption configures a RethinkDBDumper.
type RethinkDBOption func(*RethinkDBDumper)

// WithBinaryPath sets the path to the rethinkdb binary.
func WithBinaryPath(path string) RethinkDBOption {
	return func(d *RethinkDBDumper) {
		d.binaryPath = path
	}
}

// WithAuthKey sets the authentication key passed with -a.
func WithAuthKey(key string) RethinkDBOption {
	return func(d *RethinkDBDumper) {
		d.authKey = key
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RethinkDBOption {
	return func(d *RethinkDBDumper) {
		d.logger = logger
	}
}

// NewRethinkDBDumper creates a dumper for the cluster reachable at host.
func NewRethinkDBDumper(host string, opts ...RethinkDBOption) *RethinkDBDumper {
	d := &RethinkDBDumper{
		host:   host,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dump writes a dump archive to path.
func (d *RethinkDBDumper) Dump(ctx context.Context, path string) error {
	if d.authKey != "" {
		d.logger.Info("using RethinkDB authentication key")
	} else {
		d.logger.Info("not using any RethinkDB authentication key")
	}
	d.logger.Info("backing up database", "host", d.host, "file", path)

	if _, err := d.run(ctx, d.dumpArgs(path)...); err != nil {
		return err
	}

	d.logger.Debug("finished making backup file", "file", path)
	return nil
}

// dumpArgs builds the argument list for a dump to path.
func (d *RethinkDBDumper) dumpArgs(path string) []string {
	args := []string{"dump", "-c", d.host, "-f", path}
	if d.authKey != "" {
		args = append(args, "-a", d.authKey)
	}
	return args
}

// Version returns the rethinkdb version.
func (d *RethinkDBDumper) Version(ctx context.Context) (string, error) {
	output, err := d.run(ctx, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// Validate checks that the rethinkdb binary is available and runs.
func (d *RethinkDBDumper) Validate(ctx context.Context) error {
	path, err := d.getBinaryPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("rethinkdb binary not found at %s: %w", path, err)
	}

	if _, err := d.Version(ctx); err != nil {
		return fmt.Errorf("rethinkdb binary failed to execute: %w", err)
	}

	return nil
}

// run executes rethinkdb with the given arguments.
func (d *RethinkDBDumper) run(ctx context.Context, args ...string) ([]byte, error) {
	path, err := d.getBinaryPath()
	if err != nil {
		return nil, err
	}

	d.logger.Debug("executing rethinkdb", "path", path, "args", redact(args))

	// #nosec G204 -- path is from config or PATH lookup, args are built internally
	cmd := exec.CommandContext(ctx, path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return nil, fmt.Errorf("rethinkdb failed: %s: %w", errMsg, err)
		}
		return nil, fmt.Errorf("rethinkdb failed: %w", err)
	}

	return stdout.Bytes(), nil
}

// redact hides the value following -a so auth keys never reach the logs.
func redact(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == "-a" {
			out[i+1] = "********"
		}
	}
	return out
}

// getBinaryPath returns the path to the rethinkdb binary.
func (d *RethinkDBDumper) getBinaryPath() (string, error) {
	if d.binaryPath != "" {
		return d.binaryPath, nil
	}

	path, err := exec.LookPath(binaryName)
	if err == nil {
		return path, nil
	}

	for _, candidate := range d.getCommonPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("rethinkdb not found in PATH or common locations")
}

// getCommonPaths returns common installation paths for rethinkdb.
func (d *RethinkDBDumper) getCommonPaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(os.Getenv("ProgramFiles"), "RethinkDB", "rethinkdb.exe"),
			`C:\RethinkDB\rethinkdb.exe`,
		}
	case "darwin":
		return []string{
			"/usr/local/bin/rethinkdb",
			"/opt/homebrew/bin/rethinkdb",
		}
	default:
		home, _ := os.UserHomeDir()
		return []string{
			"/usr/bin/rethinkdb",
			"/usr/local/bin/rethinkdb",
			filepath.Join(home, ".local", "bin", "rethinkdb"),
		}
	}
}

// Ensure RethinkDBDumper implements domain.Dumper.
var _ domain.Dumper = (*RethinkDBDumper)(nil)
