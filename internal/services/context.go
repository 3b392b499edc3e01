package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	modelKey     contextKey = "model"
)

// WithRequestID annotates context with a correlation identifier.
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

// WithModel annotates context with the model file selected for a request.
func WithModel(ctx context.Context, model string) context.Context {
	if model == "" {
		return ctx
	}
	return context.WithValue(ctx, modelKey, model)
}

// ModelFromContext returns the selected model file name if present.
func ModelFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(modelKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
