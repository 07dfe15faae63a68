package authsync

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a correlation identifier to ctx. The Engine copies
// it into every audit event it emits for the call, so a caller-side request
// can be traced through login, refresh, and cache activity.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}
