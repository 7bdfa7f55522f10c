package lti

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Registry stores trusted platform configurations. It performs no
// network or cryptographic work.
type Registry interface {
	// Register stores or overwrites a platform keyed by issuer.
	Register(ctx context.Context, p Platform) (Platform, error)
	// LookupByIssuer returns the matching configuration or ErrNotFound.
	LookupByIssuer(ctx context.Context, issuer string) (Platform, error)
}

// RegistryStore extends Registry with the operations the admin API
// needs. Both the in-memory and SQL implementations satisfy it.
type RegistryStore interface {
	Registry
	Get(ctx context.Context, id string) (Platform, error)
	List(ctx context.Context) ([]Platform, error)
	Delete(ctx context.Context, id string) error
}

// MemRegistry is a process-local Registry (offline mode and tests).
type MemRegistry struct {
	mu       sync.RWMutex
	byIssuer map[string]Platform
}

func NewMemRegistry() *MemRegistry {
	return &MemRegistry{byIssuer: make(map[string]Platform)}
}

func (r *MemRegistry) Register(_ context.Context, p Platform) (Platform, error) {
	if err := p.Validate(); err != nil {
		return Platform{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.mu.Lock()
	r.byIssuer[p.Issuer] = p
	r.mu.Unlock()
	return p, nil
}

func (r *MemRegistry) LookupByIssuer(_ context.Context, issuer string) (Platform, error) {
	r.mu.RLock()
	p, ok := r.byIssuer[issuer]
	r.mu.RUnlock()
	if !ok {
		return Platform{}, flowWrap(CodeUnknownPlatform, ErrNotFound)
	}
	return p, nil
}

func (r *MemRegistry) Get(_ context.Context, id string) (Platform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.byIssuer {
		if p.ID == id {
			return p, nil
		}
	}
	return Platform{}, ErrNotFound
}

func (r *MemRegistry) List(_ context.Context) ([]Platform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Platform, 0, len(r.byIssuer))
	for _, p := range r.byIssuer {
		out = append(out, p)
	}
	return out, nil
}

func (r *MemRegistry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for iss, p := range r.byIssuer {
		if p.ID == id {
			delete(r.byIssuer, iss)
			return nil
		}
	}
	return ErrNotFound
}
