package middleware

import (
	"context"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
)

// ContextKey is the type of request context keys set by this package.
type ContextKey string

const (
	// SessionCtxKey holds the *entity.Session loaded for the request.
	SessionCtxKey = ContextKey("session")

	// PrincipalCtxKey holds the *entity.Principal of an authenticated request.
	PrincipalCtxKey = ContextKey("principal")
)

func SessionFromContext(ctx context.Context) (*entity.Session, bool) {
	sess, ok := ctx.Value(SessionCtxKey).(*entity.Session)
	return sess, ok && sess != nil
}

func PrincipalFromContext(ctx context.Context) (*entity.Principal, bool) {
	p, ok := ctx.Value(PrincipalCtxKey).(*entity.Principal)
	return p, ok && p != nil
}

func WithSession(ctx context.Context, sess *entity.Session) context.Context {
	return context.WithValue(ctx, SessionCtxKey, sess)
}
