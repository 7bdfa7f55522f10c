package lti

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultSessionTTL is how long a launched session stays resolvable.
const DefaultSessionTTL = 24 * time.Hour

// Session is the stored outcome of one completed launch. Bound 1:1 to
// that launch; re-authentication always mints a fresh token.
type Session struct {
	Context   LaunchContext `json:"context"`
	Services  Services      `json:"services"`
	CreatedAt time.Time     `json:"created_at"`
}

// SessionStore persists sessions keyed by opaque token, with TTL.
type SessionStore interface {
	Put(ctx context.Context, token string, s Session, ttl time.Duration) error
	// Get returns the session or ErrNotFound when absent or expired.
	Get(ctx context.Context, token string) (Session, error)
}

// SessionIssuer mints and resolves opaque session tokens. Sessions are
// never renewed in place.
type SessionIssuer struct {
	Store SessionStore
	TTL   time.Duration
	Now   func() time.Time
}

func NewSessionIssuer(store SessionStore) *SessionIssuer {
	return &SessionIssuer{Store: store, TTL: DefaultSessionTTL, Now: time.Now}
}

// Create stores the launch outcome under a fresh random token and
// returns both the token and the stored session, so callers echo
// exactly what a later Resolve will return.
func (i *SessionIssuer) Create(ctx context.Context, lc LaunchContext, svcs Services) (string, Session, error) {
	token := RandToken()
	s := Session{Context: lc, Services: svcs, CreatedAt: i.now()}
	if err := i.Store.Put(ctx, token, s, i.ttl()); err != nil {
		return "", Session{}, err
	}
	return token, s, nil
}

// Resolve returns the session for token, or a session_expired_or_unknown
// flow error; the caller must re-authenticate through a new launch.
func (i *SessionIssuer) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, flowErr(CodeSessionExpired, "empty session token")
	}
	s, err := i.Store.Get(ctx, token)
	if err != nil {
		return Session{}, flowWrap(CodeSessionExpired, err)
	}
	return s, nil
}

func (i *SessionIssuer) ttl() time.Duration {
	if i.TTL > 0 {
		return i.TTL
	}
	return DefaultSessionTTL
}

func (i *SessionIssuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// RandToken returns a fresh opaque token with 256 bits of entropy,
// base64url-encoded. Used for state, nonce and session tokens.
func RandToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// MemSessionStore is a process-local SessionStore over an expiring
// cache (offline mode and tests).
type MemSessionStore struct {
	c *gocache.Cache
}

func NewMemSessionStore() *MemSessionStore {
	return &MemSessionStore{c: gocache.New(DefaultSessionTTL, 10*time.Minute)}
}

func (s *MemSessionStore) Put(_ context.Context, token string, sess Session, ttl time.Duration) error {
	s.c.Set(token, sess, ttl)
	return nil
}

func (s *MemSessionStore) Get(_ context.Context, token string) (Session, error) {
	v, ok := s.c.Get(token)
	if !ok {
		return Session{}, ErrNotFound
	}
	sess, ok := v.(Session)
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}
