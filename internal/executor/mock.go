package executor

import (
	"context"
	"os"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
)

// MockDumper is a mock implementation of domain.Dumper for testing.
// Without a DumpFunc it writes a small placeholder archive.
type MockDumper struct {
	DumpFunc     func(ctx context.Context, path string) error
	VersionFunc  func(ctx context.Context) (string, error)
	ValidateFunc func(ctx context.Context) error

	// Paths records every path passed to Dump.
	Paths []string
}

// Dump calls the mock DumpFunc.
func (m *MockDumper) Dump(ctx context.Context, path string) error {
	m.Paths = append(m.Paths, path)
	if m.DumpFunc != nil {
		return m.DumpFunc(ctx, path)
	}
	return os.WriteFile(path, []byte("dump"), 0600)
}

// Version calls the mock VersionFunc.
func (m *MockDumper) Version(ctx context.Context) (string, error) {
	if m.VersionFunc != nil {
		return m.VersionFunc(ctx)
	}
	return "rethinkdb mock", nil
}

// Validate calls the mock ValidateFunc.
func (m *MockDumper) Validate(ctx context.Context) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx)
	}
	return nil
}

// Ensure MockDumper implements domain.Dumper.
var _ domain.Dumper = (*MockDumper)(nil)
