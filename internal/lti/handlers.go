package lti

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Mount attaches the LTI flow endpoints. The tool's own JWKS endpoint
// is mounted separately by the gateway (internal/auth/jwks).
func Mount(r chi.Router, svc *Service) {
	r.Post("/login", LoginHandler(svc))
	r.Post("/launch", LaunchHandler(svc))
	r.Get("/session", SessionHandler(svc.Sessions))
}

// LoginHandler accepts an OIDC login initiation, form- or JSON-encoded.
func LoginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeLoginRequest(r)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		redir, err := svc.InitiateLogin(r.Context(), req)
		if err != nil {
			code := ReasonCode(err)
			log.Printf("lti: login initiation rejected (%s): %v", code, err)
			if code == CodeInvalidRequest {
				WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "missing required parameters"})
				return
			}
			WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown platform issuer"})
			return
		}
		WriteJSON(w, http.StatusOK, redir)
	}
}

func decodeLoginRequest(r *http.Request) (LoginRequest, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body struct {
			Iss            string `json:"iss"`
			LoginHint      string `json:"login_hint"`
			TargetLinkURI  string `json:"target_link_uri"`
			LTIMessageHint string `json:"lti_message_hint"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return LoginRequest{}, err
		}
		return LoginRequest{
			Issuer:        body.Iss,
			LoginHint:     body.LoginHint,
			TargetLinkURI: body.TargetLinkURI,
			MessageHint:   body.LTIMessageHint,
		}, nil
	}
	if err := r.ParseForm(); err != nil {
		return LoginRequest{}, err
	}
	return LoginRequest{
		Issuer:        r.FormValue("iss"),
		LoginHint:     r.FormValue("login_hint"),
		TargetLinkURI: r.FormValue("target_link_uri"),
		MessageHint:   r.FormValue("lti_message_hint"),
	}, nil
}

// launchSummary is the compact context echo returned on success.
type launchSummary struct {
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name,omitempty"`
	UserRole   Role   `json:"user_role"`
	CourseID   string `json:"course_id,omitempty"`
	CourseName string `json:"course_name,omitempty"`
}

// LaunchHandler receives the platform's form_post authentication
// response. Failures answer with a generic body: the reason code is
// logged but never returned, so the validator can't be probed as an
// oracle.
func LaunchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		token, sess, err := svc.HandleLaunch(r.Context(), r.PostFormValue("id_token"), r.PostFormValue("state"))
		if err != nil {
			log.Printf("lti: launch rejected (%s): %v", ReasonCode(err), err)
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "launch failed"})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"session_token": token,
			"context": launchSummary{
				UserID:     sess.Context.UserID,
				UserName:   sess.Context.UserName,
				UserRole:   sess.Context.UserRole,
				CourseID:   sess.Context.CourseID,
				CourseName: sess.Context.CourseName,
			},
		})
	}
}

// SessionHandler resolves the presented session token and returns the
// stored launch context and service descriptors.
func SessionHandler(issuer *SessionIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := issuer.Resolve(r.Context(), TokenFromRequest(r))
		if err != nil {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "session expired or unknown"})
			return
		}
		WriteJSON(w, http.StatusOK, sess)
	}
}

// TokenFromRequest extracts the session token from the X-LTI-Token
// header, falling back to a Bearer Authorization header.
func TokenFromRequest(r *http.Request) string {
	if t := r.Header.Get("X-LTI-Token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
