package session

import "context"

type ctxKey string

const sessionKey ctxKey = "portal.session"

// WithSession stores the session in context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext extracts an authenticated session if present.
func FromContext(ctx context.Context) (*Session, bool) {
	val := ctx.Value(sessionKey)
	if val == nil {
		return nil, false
	}
	s, ok := val.(*Session)
	return s, ok && s.IsAuthenticated()
}

// TokenFromContext returns the bearer token of the session in ctx, or "".
func TokenFromContext(ctx context.Context) string {
	s, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return s.Token
}
