// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package heat

import (
	"log/slog"

	"github.com/gogpu/heat/internal/logger"
)

// SetLogger configures the logger for heat and all its sub-packages.
// By default, heat produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by heat:
//   - [slog.LevelDebug]: internal diagnostics (pipelines, buffer sizes, kernel graphs)
//   - [slog.LevelInfo]: important lifecycle events (device opened, simulation built)
//   - [slog.LevelWarn]: non-fatal issues (backend fallback, errors while releasing)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	heat.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	heat.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logger.Set(l)
}

// Logger returns the current logger used by heat.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logger.Get()
}
