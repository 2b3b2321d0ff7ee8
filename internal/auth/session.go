package auth

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var ErrInvalidSession = errors.New("invalid session")

// Session is an authenticated admin.
type Session struct {
	Subject   string
	ExpiresAt time.Time
}

// SessionProvider resolves the caller's session. A request without
// credentials yields nil, nil.
type SessionProvider interface {
	Session(r *http.Request) (*Session, error)
}

type contextKey string

const sessionKey contextKey = "session"

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// Subject returns the session subject stored in ctx, or "".
func Subject(ctx context.Context) string {
	if s := FromContext(ctx); s != nil {
		return s.Subject
	}
	return ""
}
