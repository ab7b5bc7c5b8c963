// Package logging provides structured logging utilities for the graphdrive server.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Consistent attribute naming across the codebase
//   - Terminal-aware handler selection (text on a TTY, JSON otherwise)
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "graph.search")
//	logger.Info("search completed",
//	    logging.Status("success"))
//
// # Security Considerations
//
// Tokens are never logged directly; use SanitizeToken when a log line
// must reference one.
package logging
