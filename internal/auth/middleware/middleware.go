package auth

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/smepro/smepro-gateway/internal/lti"
	"github.com/smepro/smepro-gateway/internal/rbac"
)

// SessionMiddleware resolves the launch session presented via
// X-LTI-Token (or Bearer) and attaches it, plus the normalized role,
// to the request context. Unknown or expired tokens get a 401; the
// caller must re-launch from the LMS.
func SessionMiddleware(sessions *lti.SessionIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Resolve(r.Context(), lti.TokenFromRequest(r))
			if err != nil {
				http.Error(w, "lti authentication required", http.StatusUnauthorized)
				return
			}
			ctx := WithSession(r.Context(), sess)
			ctx = WithSubject(ctx, sess.Context.UserID)
			ctx = rbac.WithRole(ctx, string(sess.Context.UserRole))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireInstructor guards a route for instructors and admins. Compose
// after SessionMiddleware.
func RequireInstructor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch rbac.RoleFromContext(r.Context()) {
		case string(lti.RoleInstructor), string(lti.RoleAdmin):
			next.ServeHTTP(w, r)
		default:
			http.Error(w, "instructor role required", http.StatusForbidden)
		}
	})
}

// AdminBasicAuth guards the registration API with HTTP basic auth
// against a bcrypt password hash.
func AdminBasicAuth(user, passHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				bcrypt.CompareHashAndPassword([]byte(passHash), []byte(p)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
