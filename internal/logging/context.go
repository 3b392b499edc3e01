package logging

import (
	"context"
	"log/slog"

	"scribe/internal/services"
)

// Attribute keys shared by every scribe component.
const (
	FieldComponent     = "component"
	FieldCorrelationID = "correlation_id" // X-Request-ID of the HTTP request
	FieldModel         = "model"          // model file name, not its path
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
)

// ContextFields returns the request correlation id and selected model carried
// by ctx, in that order, skipping whichever is absent.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	var fields []Attr
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, String(FieldCorrelationID, rid))
	}
	if model, ok := services.ModelFromContext(ctx); ok {
		fields = append(fields, String(FieldModel, model))
	}
	return fields
}

// WithContext returns logger with the fields from ContextFields attached.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(Args(fields...)...)
	}
	return logger
}
