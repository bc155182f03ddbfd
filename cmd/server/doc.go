// Package main is the entry point for the minicode playground server.
//
// The server keeps one HTML/CSS/JavaScript workspace, assembles it into a
// preview document after each quiet period, runs that document in a fresh
// sandbox and relays its console output back to connected host UIs.
//
// Configuration:
//   - Defaults for development
//   - Optional TOML or YAML file (-config)
//   - Environment variables (12-factor)
//   - CLI flags (override everything)
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -config minicode.toml
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown (pending edits are saved)
package main
