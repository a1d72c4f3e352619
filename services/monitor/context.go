package monitor

import "context"

type sessionKey struct{}

// SessionInfo identifies the session a sink call belongs to.
type SessionInfo struct {
	ID      string
	Subject string
}

func WithSession(ctx context.Context, info SessionInfo) context.Context {
	return context.WithValue(ctx, sessionKey{}, info)
}

func SessionFromContext(ctx context.Context) (SessionInfo, bool) {
	info, ok := ctx.Value(sessionKey{}).(SessionInfo)
	return info, ok
}
