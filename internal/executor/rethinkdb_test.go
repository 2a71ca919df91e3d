package executor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript creates a fake rethinkdb binary that runs body under /bin/sh.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "rethinkdb")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0700))
	return path
}

func TestRethinkDBDumper_DumpArgs(t *testing.T) {
	d := NewRethinkDBDumper("db:28015")
	assert.Equal(t,
		[]string{"dump", "-c", "db:28015", "-f", "/tmp/out.tar.gz"},
		d.dumpArgs("/tmp/out.tar.gz"))

	d = NewRethinkDBDumper("db:28015", WithAuthKey("s3cr3t"))
	assert.Equal(t,
		[]string{"dump", "-c", "db:28015", "-f", "/tmp/out.tar.gz", "-a", "s3cr3t"},
		d.dumpArgs("/tmp/out.tar.gz"))
}

func TestRedact(t *testing.T) {
	args := []string{"dump", "-c", "h", "-a", "s3cr3t"}
	out := redact(args)

	assert.Equal(t, "********", out[4])
	assert.Equal(t, "s3cr3t", args[4], "input must not be modified")
}

func TestRethinkDBDumper_Dump_Success(t *testing.T) {
	// Writes the file named after -f, like the real tool.
	script := writeScript(t, `while [ $# -gt 0 ]; do
  if [ "$1" = "-f" ]; then shift; echo archive > "$1"; fi
  shift
done`)

	target := filepath.Join(t.TempDir(), "rethinkdb-dump.tar.gz")
	d := NewRethinkDBDumper("localhost:28015", WithBinaryPath(script))

	require.NoError(t, d.Dump(context.Background(), target))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "archive\n", string(data))
}

func TestRethinkDBDumper_Dump_FailureIncludesStderr(t *testing.T) {
	script := writeScript(t, `echo "could not connect to localhost:28015" >&2; exit 1`)

	d := NewRethinkDBDumper("localhost:28015", WithBinaryPath(script))
	err := d.Dump(context.Background(), filepath.Join(t.TempDir(), "out.tar.gz"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not connect")
}

func TestRethinkDBDumper_Dump_ContextCancelled(t *testing.T) {
	script := writeScript(t, `sleep 5`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewRethinkDBDumper("localhost:28015", WithBinaryPath(script))
	err := d.Dump(ctx, filepath.Join(t.TempDir(), "out.tar.gz"))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRethinkDBDumper_VersionAndValidate(t *testing.T) {
	script := writeScript(t, `echo "rethinkdb 2.4.4 (GCC 12.2.0)"`)

	d := NewRethinkDBDumper("localhost:28015", WithBinaryPath(script))

	version, err := d.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rethinkdb 2.4.4 (GCC 12.2.0)", version)
	assert.NoError(t, d.Validate(context.Background()))
}

func TestRethinkDBDumper_Validate_MissingBinary(t *testing.T) {
	d := NewRethinkDBDumper("localhost:28015", WithBinaryPath("/non/existent/rethinkdb"))

	err := d.Validate(context.Background())
	assert.ErrorContains(t, err, "not found")
}

func TestRethinkDBDumper_GetCommonPaths(t *testing.T) {
	d := NewRethinkDBDumper("localhost:28015")
	assert.NotEmpty(t, d.getCommonPaths())
}
