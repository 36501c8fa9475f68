package ports

import "context"

// Fields carries structured key/value pairs attached to a log entry.
type Fields = map[string]interface{}

// Logger is the structured logging interface used across the service.
// Adapters live in internal/adapters/logger.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	// Error logs err together with msg at Error level.
	Error(ctx context.Context, err error, msg string, fields ...Fields)
	// With returns a child logger that adds fields to every entry.
	With(fields Fields) Logger
}
