package rbac

import (
	"context"
	"strings"
)

// Policy maps a normalized launch role to its permission grants. A
// grant is an exact permission, a prefix pattern like "dataset:*", or
// the full wildcard "*".
type Policy map[string][]string

// Default is the gateway policy over the roles derived from a launch
// (student, instructor, admin). Expand as the business endpoints grow.
var Default = Policy{
	"student": {
		"report:view-own",
		"dataset:analyze",
		"mapping:resolve",
	},
	"instructor": {
		"report:generate",
		"report:view-own",
		"report:view-all",
		"dataset:analyze",
		"dataset:upload",
		"mapping:resolve",
		"app:generate",
	},
	"admin": {
		"*",
	},
}

// Allows reports whether role holds perm under this policy.
func (p Policy) Allows(role, perm string) bool {
	for _, grant := range p[role] {
		if grantMatches(grant, perm) {
			return true
		}
	}
	return false
}

// AllowsAny reports whether role holds at least one of perms.
func (p Policy) AllowsAny(role string, perms ...string) bool {
	for _, perm := range perms {
		if p.Allows(role, perm) {
			return true
		}
	}
	return false
}

func grantMatches(grant, perm string) bool {
	if grant == "*" || grant == perm {
		return true
	}
	if strings.HasSuffix(grant, "*") {
		return strings.HasPrefix(perm, strings.TrimSuffix(grant, "*"))
	}
	return false
}

// ---- role in context ----

type ctxKey struct{}

var ctxKeyRole = ctxKey{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

func RoleFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeyRole); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
