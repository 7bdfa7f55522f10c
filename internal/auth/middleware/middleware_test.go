package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	auth "github.com/smepro/smepro-gateway/internal/auth/middleware"
	"github.com/smepro/smepro-gateway/internal/lti"
	"github.com/smepro/smepro-gateway/internal/rbac"
)

func issuerWithSession(t *testing.T, role lti.Role) (*lti.SessionIssuer, string) {
	t.Helper()
	iss := lti.NewSessionIssuer(lti.NewMemSessionStore())
	token, _, err := iss.Create(context.Background(), lti.LaunchContext{UserID: "u42", UserRole: role}, lti.Services{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return iss, token
}

func TestSessionMiddleware(t *testing.T) {
	iss, token := issuerWithSession(t, lti.RoleStudent)

	var gotSubject, gotRole string
	handler := auth.SessionMiddleware(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = auth.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-LTI-Token", token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if gotSubject != "u42" || gotRole != "student" {
		t.Fatalf("context: subject=%q role=%q", gotSubject, gotRole)
	}

	// No token, bogus token: both 401.
	for _, token := range []string{"", "bogus"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		if token != "" {
			req.Header.Set("X-LTI-Token", token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: status %d, want 401", token, rec.Code)
		}
	}
}

func TestRequireInstructor(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	cases := []struct {
		role lti.Role
		want int
	}{
		{lti.RoleStudent, http.StatusForbidden},
		{lti.RoleInstructor, http.StatusOK},
		{lti.RoleAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		iss, token := issuerWithSession(t, tc.role)
		handler := auth.SessionMiddleware(iss)(auth.RequireInstructor(next))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != tc.want {
			t.Fatalf("role %s: status %d, want %d", tc.role, rec.Code, tc.want)
		}
	}
}

func TestRbacRequireOverSession(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	cases := []struct {
		role lti.Role
		perm string
		want int
	}{
		{lti.RoleStudent, "report:generate", http.StatusForbidden},
		{lti.RoleInstructor, "report:generate", http.StatusOK},
		{lti.RoleStudent, "dataset:analyze", http.StatusOK},
		{lti.RoleAdmin, "report:generate", http.StatusOK},
	}
	for _, tc := range cases {
		iss, token := issuerWithSession(t, tc.role)
		handler := auth.SessionMiddleware(iss)(rbac.Require(tc.perm)(next))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", nil)
		req.Header.Set("X-LTI-Token", token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != tc.want {
			t.Fatalf("role %s perm %s: status %d, want %d", tc.role, tc.perm, rec.Code, tc.want)
		}
	}
}
