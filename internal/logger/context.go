package logger

import "context"

type contextKey struct{}

var requestIDKey = contextKey{}

// WithRequestID stores a request ID in the context so log lines emitted
// anywhere below the HTTP layer can be correlated to one request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the stored request ID, or "" outside a request scope.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
