package lti

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	jose "github.com/go-jose/go-jose/v4"
)

const (
	// DefaultJWKSTTL is how long a fetched platform key set stays fresh.
	DefaultJWKSTTL = time.Hour
	// DefaultJWKSFetchTimeout bounds the outbound JWKS request.
	DefaultJWKSFetchTimeout = 10 * time.Second
)

// JWKSCache fetches platform key sets over HTTPS and caches them per
// URL. Policy on refetch failure: an expired-but-present entry is
// served stale rather than failing the launch. That is a deliberate
// availability-over-freshness tradeoff: a key set that was valid an
// hour ago is overwhelmingly likely still valid, while hard-failing
// every launch during a platform outage is certain breakage. With no
// cached entry at all a fetch failure is a hard key_fetch_error.
type JWKSCache struct {
	HTTP *http.Client
	TTL  time.Duration
	Now  func() time.Time

	mu      sync.Mutex
	entries map[string]jwksEntry
}

type jwksEntry struct {
	set       jose.JSONWebKeySet
	fetchedAt time.Time
	expires   time.Time
}

func NewJWKSCache() *JWKSCache {
	return &JWKSCache{
		HTTP:    &http.Client{Timeout: DefaultJWKSFetchTimeout},
		TTL:     DefaultJWKSTTL,
		Now:     time.Now,
		entries: make(map[string]jwksEntry),
	}
}

// Keys returns the current key set for jwksURL, fetching on a cold or
// expired entry. Concurrent refetches of the same URL are allowed;
// last writer wins, which is safe because near-simultaneous fetches of
// one URL converge on the same key set.
func (c *JWKSCache) Keys(ctx context.Context, jwksURL string) (jose.JSONWebKeySet, error) {
	now := c.now()

	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[string]jwksEntry)
	}
	cached, ok := c.entries[jwksURL]
	c.mu.Unlock()
	if ok && now.Before(cached.expires) {
		return cached.set, nil
	}

	set, err := c.fetch(ctx, jwksURL)
	if err != nil {
		if ok {
			// Stale entry available; serve it (see policy note above).
			return cached.set, nil
		}
		return jose.JSONWebKeySet{}, flowWrap(CodeKeyFetchError, err)
	}

	c.mu.Lock()
	c.entries[jwksURL] = jwksEntry{set: set, fetchedAt: now, expires: now.Add(c.ttl())}
	c.mu.Unlock()
	return set, nil
}

func (c *JWKSCache) fetch(ctx context.Context, jwksURL string) (jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return jose.JSONWebKeySet{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return jose.JSONWebKeySet{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return jose.JSONWebKeySet{}, fmt.Errorf("jwks fetch %s: status %d", jwksURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return jose.JSONWebKeySet{}, err
	}
	var set jose.JSONWebKeySet
	if err := json.Unmarshal(body, &set); err != nil {
		return jose.JSONWebKeySet{}, fmt.Errorf("jwks parse %s: %w", jwksURL, err)
	}
	return set, nil
}

func (c *JWKSCache) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: DefaultJWKSFetchTimeout}
}

func (c *JWKSCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *JWKSCache) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultJWKSTTL
}
