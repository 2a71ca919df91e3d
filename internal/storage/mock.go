package storage

import (
	"context"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
)

// Upload records a single Upload call.
type Upload struct {
	Bucket string
	Key    string
	Path   string
}

// MockUploader is a mock implementation of domain.Uploader for testing.
type MockUploader struct {
	UploadFunc   func(ctx context.Context, bucket, key, path string) error
	ValidateFunc func(ctx context.Context, bucket string) error

	// Uploads stores every upload request.
	Uploads []Upload
}

// Upload calls the mock UploadFunc and records the request.
func (m *MockUploader) Upload(ctx context.Context, bucket, key, path string) error {
	m.Uploads = append(m.Uploads, Upload{Bucket: bucket, Key: key, Path: path})
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, bucket, key, path)
	}
	return nil
}

// Validate calls the mock ValidateFunc.
func (m *MockUploader) Validate(ctx context.Context, bucket string) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, bucket)
	}
	return nil
}

// Ensure MockUploader implements domain.Uploader.
var _ domain.Uploader = (*MockUploader)(nil)
