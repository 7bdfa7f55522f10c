package lti

import (
	"context"
	"net/url"
	"time"
)

// Service drives the two-step login/launch flow over the injected
// leaves. It holds no per-flow state itself; everything a launch needs
// to find its login lives in the StateStore.
type Service struct {
	Registry  Registry
	States    StateStore
	Validator *Validator
	Sessions  *SessionIssuer

	// RedirectURI is this tool's launch endpoint as registered with the
	// platforms, e.g. PUBLIC_URL + "/lti/launch".
	RedirectURI string

	StateTTL time.Duration
	Now      func() time.Time
}

// LoginRequest is an inbound OIDC login initiation from a platform.
type LoginRequest struct {
	Issuer        string
	LoginHint     string
	TargetLinkURI string
	MessageHint   string
}

// Redirect tells the caller where to bounce the browser to continue
// the OIDC flow at the platform's authorization endpoint.
type Redirect struct {
	URL   string `json:"redirect_url"`
	State string `json:"state"`
}

// InitiateLogin handles step 1: look up the platform by issuer, mint
// state and nonce, persist the pending login, and build the
// authorization redirect.
func (s *Service) InitiateLogin(ctx context.Context, req LoginRequest) (Redirect, error) {
	if req.Issuer == "" || req.LoginHint == "" {
		return Redirect{}, flowErr(CodeInvalidRequest, "iss and login_hint are required")
	}
	p, err := s.Registry.LookupByIssuer(ctx, req.Issuer)
	if err != nil {
		return Redirect{}, err
	}

	state := RandToken()
	nonce := RandToken()

	entry := StateEntry{
		PlatformID:    p.ID,
		Issuer:        p.Issuer,
		Nonce:         nonce,
		TargetLinkURI: req.TargetLinkURI,
		CreatedAt:     s.now(),
	}
	if err := s.States.Put(ctx, state, entry, s.stateTTL()); err != nil {
		return Redirect{}, err
	}

	// Merge onto the registered endpoint: some platforms carry fixed
	// query parameters on their auth URL already.
	u, err := url.Parse(p.AuthLoginURL)
	if err != nil {
		return Redirect{}, flowErr(CodeConfigError, "platform auth_login_url %q: %v", p.AuthLoginURL, err)
	}
	q := u.Query()
	q.Set("scope", "openid")
	q.Set("response_type", "id_token")
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", s.RedirectURI)
	q.Set("login_hint", req.LoginHint)
	q.Set("state", state)
	q.Set("response_mode", "form_post")
	q.Set("nonce", nonce)
	q.Set("prompt", "none")
	if req.MessageHint != "" {
		q.Set("lti_message_hint", req.MessageHint)
	}
	u.RawQuery = q.Encode()

	return Redirect{URL: u.String(), State: state}, nil
}

// HandleLaunch handles step 2: consume the login state exactly once,
// validate the id_token against the platform's keys and config, extract
// the launch context, and mint a session. Any failure aborts the flow;
// nothing is partially trusted.
func (s *Service) HandleLaunch(ctx context.Context, idToken, state string) (string, Session, error) {
	if idToken == "" || state == "" {
		return "", Session{}, flowErr(CodeInvalidRequest, "id_token and state are required")
	}

	entry, err := s.States.TakeOnce(ctx, state)
	if err != nil {
		return "", Session{}, flowWrap(CodeInvalidState, err)
	}

	p, err := s.Registry.LookupByIssuer(ctx, entry.Issuer)
	if err != nil {
		return "", Session{}, err
	}

	claims, err := s.Validator.Validate(ctx, idToken, p, entry.Nonce)
	if err != nil {
		return "", Session{}, err
	}

	lc, svcs := ExtractLaunch(claims)
	if lc.TargetLinkURI == "" {
		lc.TargetLinkURI = entry.TargetLinkURI
	}

	token, sess, err := s.Sessions.Create(ctx, lc, svcs)
	if err != nil {
		return "", Session{}, err
	}
	return token, sess, nil
}

func (s *Service) stateTTL() time.Duration {
	if s.StateTTL > 0 {
		return s.StateTTL
	}
	return DefaultStateTTL
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
