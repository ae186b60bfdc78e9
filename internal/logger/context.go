package logger

import (
	"context"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// loggerKey is the key used to store logger in context
var loggerKey = contextKey{}

// WithContext returns a new context with the logger attached.
// Parameters:
//   - ctx: existing context to wrap.
// Returns:
//   - context.Context: context containing the logger.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Parameters:
//   - ctx: context to inspect.
// Returns:
//   - *Logger: logger stored in ctx, or nil when none was attached.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*Logger); ok {
			return l
		}
	}
	return nil
}

// Or returns the context logger when present, otherwise fallback.
func Or(ctx context.Context, fallback *Logger) *Logger {
	if l := FromContext(ctx); l != nil {
		return l
	}
	return fallback
}

// WithFields creates a new context whose logger carries additional fields.
// The fallback logger is used as the base when ctx has no logger yet.
func WithFields(ctx context.Context, fallback *Logger, fields Fields) context.Context {
	base := Or(ctx, fallback)
	if base == nil {
		return ctx
	}
	return base.WithFields(fields).WithContext(ctx)
}

// SetRunID sets the run ID field in context.
func SetRunID(ctx context.Context, fallback *Logger, id string) context.Context {
	return WithFields(ctx, fallback, Fields{FieldRunID: id})
}

// GetField extracts a field value from the context's logger.
func GetField(ctx context.Context, key string) (interface{}, bool) {
	log := FromContext(ctx)
	if log == nil {
		return nil, false
	}
	val, ok := log.Data[key]
	return val, ok
}

// GetRunID extracts the run ID from context.
func GetRunID(ctx context.Context) string {
	val, ok := GetField(ctx, FieldRunID)
	if !ok {
		return ""
	}
	str, _ := val.(string)
	return str
}
