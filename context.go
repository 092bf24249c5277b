package goSession

import "context"

type originContextKey struct{}

// WithOrigin attaches a caller label (for example "cli" or "profile-screen") to
// ctx. The Manager copies it into every audit event the call produces.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originContextKey{}, origin)
}

func originFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	origin, _ := ctx.Value(originContextKey{}).(string)
	return origin
}
