package domain

import "context"

// Dumper produces a database archive at the given local path.
type Dumper interface {
	// Dump writes the archive to path. It must not retry internally.
	Dump(ctx context.Context, path string) error

	// Version returns the dump tool version string.
	Version(ctx context.Context) (string, error)

	// Validate checks that the dump tool is available.
	Validate(ctx context.Context) error
}

// Uploader copies a local artifact to remote object storage.
type Uploader interface {
	// Upload stores the file at path under key in bucket.
	Upload(ctx context.Context, bucket, key, path string) error

	// Validate checks that the bucket is reachable with the configured credentials.
	Validate(ctx context.Context, bucket string) error
}
