// Package session carries the authenticated user through a request or
// pipeline run as an explicit value instead of ambient process state.
package session

import "context"

// State is the lifecycle of an authentication handshake.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Failed
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return "unauthenticated"
	}
}

// Session identifies the owner every persisted record is scoped to. All
// mutating operations require an authenticated session.
type Session struct {
	Owner string
	State State
}

// Authenticated reports whether the session may perform mutating actions.
func (s *Session) Authenticated() bool {
	return s != nil && s.State == Authenticated && s.Owner != ""
}

type contextKey string

const sessionKey contextKey = "session"

// WithContext adds the session to the context.
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext retrieves the session from the context. A missing session is
// returned as an unauthenticated one, never nil.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey).(*Session); ok && s != nil {
		return s
	}
	return &Session{State: Unauthenticated}
}
