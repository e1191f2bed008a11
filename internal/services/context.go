package services

import "context"

type contextKey string

const (
	sceneIDKey   contextKey = "scene_id"
	requestIDKey contextKey = "request_id"
)

// WithSceneID annotates context with the catalog scene identifier.
func WithSceneID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, sceneIDKey, id)
}

// SceneIDFromContext extracts the scene identifier if present.
func SceneIDFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(sceneIDKey)
	if id, ok := v.(int); ok {
		return id, true
	}
	return 0, false
}

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
