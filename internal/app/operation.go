package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
)

// artifactTimeLayout is minute resolution, so two attempts in the same minute
// share a file name.
const artifactTimeLayout = "2006-01-02T15:04"

// ArtifactName returns the archive file name for a dump taken at t.
func ArtifactName(service string, t time.Time) string {
	return fmt.Sprintf("%s-dump-%s.tar.gz", service, t.UTC().Format(artifactTimeLayout))
}

// Operation is one attempt of the backup.
type Operation interface {
	Run(ctx context.Context) error
}

// OperationFunc adapts a function to Operation.
type OperationFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f OperationFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// OperationConfig describes what one backup attempt produces and where it goes.
type OperationConfig struct {
	// Service prefixes the artifact name.
	Service string
	// OutputDir receives the local archive.
	OutputDir string
	// Bucket is the upload destination. Empty means local only.
	Bucket string
	// RemoveLocal deletes the archive after it is safely stored.
	RemoveLocal bool
}

// BackupOperation dumps the database, uploads the archive, and optionally
// removes the local copy. It never retries on its own.
type BackupOperation struct {
	dumper   domain.Dumper
	uploader domain.Uploader
	cfg      OperationConfig
	clock    clock.Clock
	logger   *slog.Logger

	mu       sync.Mutex
	artifact string
}

// OperationOption configures a BackupOperation.
type OperationOption func(*BackupOperation)

// WithOperationClock sets the clock used to name artifacts.
func WithOperationClock(c clock.Clock) OperationOption {
	return func(o *BackupOperation) {
		o.clock = c
	}
}

// WithOperationLogger sets the logger.
func WithOperationLogger(l *slog.Logger) OperationOption {
	return func(o *BackupOperation) {
		o.logger = l
	}
}

// NewBackupOperation creates a new BackupOperation. uploader may be nil when
// cfg.Bucket is empty.
func NewBackupOperation(dumper domain.Dumper, uploader domain.Uploader, cfg OperationConfig, opts ...OperationOption) *BackupOperation {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	o := &BackupOperation{
		dumper:   dumper,
		uploader: uploader,
		cfg:      cfg,
		clock:    clock.WallClock,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run performs one backup attempt.
func (o *BackupOperation) Run(ctx context.Context) error {
	name := ArtifactName(o.cfg.Service, o.clock.Now())
	path := filepath.Join(o.cfg.OutputDir, name)

	if err := os.MkdirAll(o.cfg.OutputDir, 0o755); err != nil {
		return &domain.OperationError{Stage: domain.StagePrepare, Err: err}
	}
	if err := removeIfExists(path); err != nil {
		return &domain.OperationError{Stage: domain.StagePrepare, Err: err}
	}

	o.logger.Info("dumping database", "artifact", path)

	if err := o.dumper.Dump(ctx, path); err != nil {
		if rmErr := removeIfExists(path); rmErr != nil {
			o.logger.Warn("failed to remove partial artifact", "artifact", path, "error", rmErr)
		}
		return &domain.OperationError{Stage: domain.StageDump, Err: err}
	}
	o.setArtifact(path)

	if o.cfg.Bucket != "" {
		if o.uploader == nil {
			return &domain.OperationError{Stage: domain.StageUpload, Err: errors.New("no uploader configured")}
		}

		o.logger.Info("uploading artifact", "bucket", o.cfg.Bucket, "key", name)

		if err := o.uploader.Upload(ctx, o.cfg.Bucket, name, path); err != nil {
			// The local archive is the only copy now; keep it.
			return &domain.OperationError{Stage: domain.StageUpload, Err: err}
		}
	}

	if o.cfg.RemoveLocal {
		if err := removeIfExists(path); err != nil {
			o.logger.Warn("failed to remove local artifact", "artifact", path, "error", err)
		} else {
			o.logger.Debug("removed local artifact", "artifact", path)
		}
	}

	return nil
}

// Artifact returns the path of the most recently dumped archive.
func (o *BackupOperation) Artifact() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.artifact
}

func (o *BackupOperation) setArtifact(path string) {
	o.mu.Lock()
	o.artifact = path
	o.mu.Unlock()
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Ensure BackupOperation implements Operation.
var _ Operation = (*BackupOperation)(nil)
