// Package logger defines the structured logging interface used by every
// component of the identity core. The production implementation lives in
// internal/monitoring and is backed by zap; tests use the noop logger.
package logger

import "context"

// Fields is a bag of structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is the logging interface accepted by all components. Implementations
// must be safe for concurrent use and must never panic: auth outcome logging
// is best-effort and runs inside the request path.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	Error(ctx context.Context, msg string, err error, fields ...Fields)
	Fatal(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields returns a logger that attaches the given fields to every entry.
	WithFields(fields Fields) Logger

	// WithComponent returns a logger scoped to a named component.
	WithComponent(component string) Logger
}
