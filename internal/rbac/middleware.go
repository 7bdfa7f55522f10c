package rbac

import "net/http"

// Require guards a route with a single permission from the default
// policy. Compose after the session middleware that put the role in
// the request context.
func Require(perm string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return Default.Allows(role, perm) })
}

// RequireAny admits the request when the role holds at least one of
// the permissions, e.g. report:view-own or report:view-all on the
// report listing.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return Default.AllowsAny(role, perms...) })
}

func guard(allowed func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !allowed(role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
