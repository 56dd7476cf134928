// Package requestmeta carries per-request identifiers through context.Context.
package requestmeta

import "context"

// contextKey is unexported so keys cannot collide with other packages.
type contextKey string

const (
	HeaderXRequestId  = "X-Request-Id"
	SessionCookieName = "braider_session"

	ContextKeyRequestID contextKey = "request_id"
	ContextKeySessionID contextKey = "session_id"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

// RequestID returns the request ID or "" when none was attached.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, id)
}

func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeySessionID).(string)
	return id
}
