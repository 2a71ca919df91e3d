// Package main is the entry point for rethinkdb-backup.
package main

import (
	"log/slog"
	"os"

	"github.com/sharkusmanch/rethinkdb-backup/internal/cli"
	"github.com/sharkusmanch/rethinkdb-backup/internal/platform"
)

func main() {
	if platform.IsRunningAsService() {
		if err := cli.RunService(); err != nil {
			slog.Error("service failed", "error", err)
			os.Exit(1)
		}
		return
	}

	cli.Execute()
}
