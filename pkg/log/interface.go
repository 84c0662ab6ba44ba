// Package log provides the structured logging interface used across
// fraudflow's pipeline steps, strategies and estimators.
//
// The interface is slog-compatible so any slog.Handler can back it. Fields
// are passed as alternating key/value pairs and should use the keys defined
// in attributes.go.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("feature").With(
//	    log.StrategyKey, "normalize",
//	)
//	logger.Info("Feature engineering completed",
//	    log.SamplesKey, df.Nrow(),
//	    log.FeaturesKey, len(features),
//	)

package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If the first field is an error it is logged under ErrAttrKey, which
	// lets ErrFmtHandler attach its stacktrace.
	//
	// Example:
	//   logger.Error("Step failed", err, log.StepKey, "feature_engineering")
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
