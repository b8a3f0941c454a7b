package httpx

import "context"

type ctxKey string

// CtxKeyUserID holds the authenticated subject once the guard has run. Rate
// limiters key on it.
const CtxKeyUserID ctxKey = "user_id"

// WithUserID stores the authenticated user id on ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyUserID).(string)
	return v, ok && v != ""
}

// CtxKeyClientIP holds the caller address resolved by the ClientIP middleware.
const CtxKeyClientIP ctxKey = "client_ip"

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, CtxKeyClientIP, ip)
}

// ClientIPFromContext returns the caller address or "" outside a request.
func ClientIPFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyClientIP).(string)
	return v
}
