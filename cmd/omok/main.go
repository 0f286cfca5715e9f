// Package main is the entry point for the omok server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (file, env vars, flags)
// 2. Create dependencies (logger, store)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/service, etc.).
//
// COMMANDS:
//
//	omok serve          start the HTTP API
//	omok migrate up     apply PostgreSQL migrations
//	omok hash-password  hash a password read from stdin
package main

import (
	"fmt"
	"os"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
