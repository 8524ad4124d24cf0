package authcore

import "context"

type contextKey int

const clientIPKey contextKey = iota

// WithClientIP annotates ctx with the caller's IP for operation events. The
// engine never branches on it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
