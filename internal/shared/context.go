package shared

import "context"

type ctxKeySession struct{}

// ContextWithSession stores the request session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKeySession{}, sess)
}

// SessionFromContext extracts the session from context, nil when absent.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKeySession{}).(*Session)
	return sess
}
