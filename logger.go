package batch2d

import (
	"log/slog"

	"github.com/gogpu/batch2d/internal/logging"
)

// SetLogger configures the logger for batch2d and all its sub-packages.
// By default, batch2d produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the silent
// default. Renderers created with WithLogger keep their own logger.
//
// Log levels used by batch2d:
//   - [slog.LevelDebug]: frame and batch diagnostics (draw calls, resizes)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, context restored)
//   - [slog.LevelWarn]: non-fatal issues (incomplete render targets, unknown
//     blend modes, lost contexts)
//
// Example:
//
//	batch2d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current shared logger.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Get()
}
