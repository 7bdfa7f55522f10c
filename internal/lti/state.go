package lti

import (
	"context"
	"sync"
	"time"
)

// DefaultStateTTL bounds how long a pending login may wait for its
// launch before the state entry becomes unusable.
const DefaultStateTTL = 10 * time.Minute

// StateEntry binds a login initiation to the launch that must consume
// it: the nonce the id_token has to echo, and the platform it belongs to.
type StateEntry struct {
	PlatformID    string    `json:"platform_id"`
	Issuer        string    `json:"issuer"`
	Nonce         string    `json:"nonce"`
	TargetLinkURI string    `json:"target_link_uri,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// StateStore keeps pending login states. TakeOnce is the anti-replay
// primitive: read and delete must be one atomic operation so that two
// concurrent launches can never both consume the same state.
type StateStore interface {
	Put(ctx context.Context, state string, e StateEntry, ttl time.Duration) error
	// TakeOnce removes and returns the entry, or ErrNotFound when the
	// state is absent, already consumed, or past its TTL.
	TakeOnce(ctx context.Context, state string) (StateEntry, error)
}

// MemStateStore is a process-local StateStore (offline mode and tests).
type MemStateStore struct {
	mu  sync.Mutex
	m   map[string]memState
	now func() time.Time
}

type memState struct {
	entry   StateEntry
	expires time.Time
}

func NewMemStateStore() *MemStateStore {
	return &MemStateStore{m: make(map[string]memState), now: time.Now}
}

func (s *MemStateStore) Put(_ context.Context, state string, e StateEntry, ttl time.Duration) error {
	s.mu.Lock()
	// Collisions are overwritten silently; state tokens carry >=128 bits
	// of entropy so a collision means the caller generated it twice.
	s.m[state] = memState{entry: e, expires: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemStateStore) TakeOnce(_ context.Context, state string) (StateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.m[state]
	if !ok {
		return StateEntry{}, ErrNotFound
	}
	delete(s.m, state)
	if s.now().After(st.expires) {
		return StateEntry{}, ErrNotFound
	}
	return st.entry, nil
}
