package logging

import (
	"context"
	"log/slog"

	"chorus/internal/request"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := request.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, id))
	}
	if id, ok := request.AccountIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldAccountID, id))
	}
	return fields
}

// WithContext returns a logger augmented with fields derived from ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		args = append(args, field)
	}
	return logger.With(args...)
}
