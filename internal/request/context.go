// Package request carries request-scoped values across the async/sync
// boundary: correlation id, authenticated account id, and the per-request
// logger.
package request

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	accountIDKey contextKey = "account_id"
	loggerKey    contextKey = "logger"
)

// WithRequestID annotates ctx with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithAccountID annotates ctx with the authenticated account identifier.
func WithAccountID(ctx context.Context, id int64) context.Context {
	if id == 0 {
		return ctx
	}
	return context.WithValue(ctx, accountIDKey, id)
}

// AccountIDFromContext extracts the account identifier if present.
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	if v, ok := ctx.Value(accountIDKey).(int64); ok && v != 0 {
		return v, true
	}
	return 0, false
}

// WithLogger stores the request-scoped logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the request-scoped logger, or nil when absent.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if v, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return v
	}
	return nil
}
