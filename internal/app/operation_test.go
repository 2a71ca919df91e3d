package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
	"github.com/sharkusmanch/rethinkdb-backup/internal/executor"
	"github.com/sharkusmanch/rethinkdb-backup/internal/storage"
)

func TestArtifactName(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	tests := []struct {
		name    string
		service string
		at      time.Time
		want    string
	}{
		{
			name:    "utc",
			service: "rethinkdb",
			at:      time.Date(2024, 3, 1, 18, 0, 30, 0, time.UTC),
			want:    "rethinkdb-dump-2024-03-01T18:00.tar.gz",
		},
		{
			name:    "converted to utc",
			service: "orders",
			at:      time.Date(2024, 7, 1, 1, 5, 0, 0, berlin),
			want:    "orders-dump-2024-06-30T23:05.tar.gz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ArtifactName(tt.service, tt.at))
		})
	}
}

func newTestOperation(t *testing.T, dumper *executor.MockDumper, uploader *storage.MockUploader, cfg OperationConfig) (*BackupOperation, string) {
	t.Helper()
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	if cfg.Service == "" {
		cfg.Service = "rethinkdb"
	}
	clk := testclock.NewClock(time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC))
	var up domain.Uploader
	if uploader != nil {
		up = uploader
	}
	op := NewBackupOperation(dumper, up, cfg, WithOperationClock(clk))
	return op, filepath.Join(cfg.OutputDir, "rethinkdb-dump-2024-03-01T18:00.tar.gz")
}

func TestBackupOperation_DumpAndUpload(t *testing.T) {
	dumper := &executor.MockDumper{}
	uploader := &storage.MockUploader{}
	op, path := newTestOperation(t, dumper, uploader, OperationConfig{Bucket: "backups"})

	require.NoError(t, op.Run(context.Background()))

	assert.Equal(t, []string{path}, dumper.Paths)
	require.Len(t, uploader.Uploads, 1)
	assert.Equal(t, storage.Upload{
		Bucket: "backups",
		Key:    "rethinkdb-dump-2024-03-01T18:00.tar.gz",
		Path:   path,
	}, uploader.Uploads[0])
	assert.FileExists(t, path)
	assert.Equal(t, path, op.Artifact())
}

func TestBackupOperation_RemovesLocalAfterUpload(t *testing.T) {
	uploader := &storage.MockUploader{}
	op, path := newTestOperation(t, &executor.MockDumper{}, uploader, OperationConfig{
		Bucket:      "backups",
		RemoveLocal: true,
	})

	require.NoError(t, op.Run(context.Background()))

	assert.Len(t, uploader.Uploads, 1)
	assert.NoFileExists(t, path)
}

func TestBackupOperation_LocalOnly(t *testing.T) {
	op, path := newTestOperation(t, &executor.MockDumper{}, nil, OperationConfig{})

	require.NoError(t, op.Run(context.Background()))

	assert.FileExists(t, path)
}

func TestBackupOperation_LocalOnlyWithRemove(t *testing.T) {
	op, path := newTestOperation(t, &executor.MockDumper{}, nil, OperationConfig{RemoveLocal: true})

	require.NoError(t, op.Run(context.Background()))

	assert.NoFileExists(t, path)
}

func TestBackupOperation_ReplacesExistingArtifact(t *testing.T) {
	dumper := &executor.MockDumper{
		DumpFunc: func(_ context.Context, path string) error {
			if _, err := os.Stat(path); err == nil {
				return errors.New("rethinkdb dump refuses to overwrite")
			}
			return os.WriteFile(path, []byte("fresh"), 0o600)
		},
	}
	op, path := newTestOperation(t, dumper, nil, OperationConfig{})
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	require.NoError(t, op.Run(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestBackupOperation_DumpFailureRemovesPartial(t *testing.T) {
	uploader := &storage.MockUploader{}
	dumper := &executor.MockDumper{
		DumpFunc: func(_ context.Context, path string) error {
			_ = os.WriteFile(path, []byte("partial"), 0o600)
			return errors.New("connection refused")
		},
	}
	op, path := newTestOperation(t, dumper, uploader, OperationConfig{Bucket: "backups"})

	err := op.Run(context.Background())

	var opErr *domain.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, domain.StageDump, opErr.Stage)
	assert.NoFileExists(t, path)
	assert.Empty(t, uploader.Uploads)
}

func TestBackupOperation_UploadFailureKeepsLocal(t *testing.T) {
	uploader := &storage.MockUploader{
		UploadFunc: func(context.Context, string, string, string) error {
			return errors.New("AccessDenied")
		},
	}
	op, path := newTestOperation(t, &executor.MockDumper{}, uploader, OperationConfig{
		Bucket:      "backups",
		RemoveLocal: true,
	})

	err := op.Run(context.Background())

	var opErr *domain.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, domain.StageUpload, opErr.Stage)
	assert.Contains(t, err.Error(), "AccessDenied")
	assert.FileExists(t, path, "local copy must survive a failed upload")
}

func TestBackupOperation_BucketWithoutUploader(t *testing.T) {
	op, _ := newTestOperation(t, &executor.MockDumper{}, nil, OperationConfig{Bucket: "backups"})

	err := op.Run(context.Background())

	var opErr *domain.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, domain.StageUpload, opErr.Stage)
}

func TestBackupOperation_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dumps")
	op, path := newTestOperation(t, &executor.MockDumper{}, nil, OperationConfig{OutputDir: dir})

	require.NoError(t, op.Run(context.Background()))

	assert.FileExists(t, path)
}
