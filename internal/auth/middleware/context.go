package auth

import (
	"context"

	"github.com/smepro/smepro-gateway/internal/lti"
)

type ctxKey string

const (
	ctxKeySub     ctxKey = "sub"
	ctxKeySession ctxKey = "lti_session"
)

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func WithSession(ctx context.Context, s lti.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// SessionFromContext returns the resolved launch session, if
// SessionMiddleware ran on this request.
func SessionFromContext(ctx context.Context) (lti.Session, bool) {
	v := ctx.Value(ctxKeySession)
	if v == nil {
		return lti.Session{}, false
	}
	s, ok := v.(lti.Session)
	return s, ok
}
