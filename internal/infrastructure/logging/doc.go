// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Each server component logs through a named child logger obtained with
// Component, so entries carry "minicode.workspace", "minicode.sandbox" and so on.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	ws := logger.Component(logging.ComponentWorkspace)
//	ws.Warn("Saved record is malformed", zap.Error(err))
package logging
