package lti

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemStateStoreTakeOnce(t *testing.T) {
	s := NewMemStateStore()
	ctx := context.Background()

	entry := StateEntry{Issuer: "https://lms.example.edu", Nonce: "n-1", CreatedAt: time.Now()}
	if err := s.Put(ctx, "state-1", entry, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.TakeOnce(ctx, "state-1")
	if err != nil {
		t.Fatalf("first take: %v", err)
	}
	if got.Nonce != "n-1" || got.Issuer != entry.Issuer {
		t.Fatalf("wrong entry returned: %+v", got)
	}

	if _, err := s.TakeOnce(ctx, "state-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second take should be ErrNotFound, got %v", err)
	}
}

func TestMemStateStoreUnknownState(t *testing.T) {
	s := NewMemStateStore()
	if _, err := s.TakeOnce(context.Background(), "never-stored"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemStateStoreExpiry(t *testing.T) {
	s := NewMemStateStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	if err := s.Put(context.Background(), "state-1", StateEntry{Nonce: "n"}, 10*time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Entry still present but past its TTL must be unusable.
	now = now.Add(11 * time.Minute)
	if _, err := s.TakeOnce(context.Background(), "state-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired take should be ErrNotFound, got %v", err)
	}
}

func TestMemStateStoreConcurrentTake(t *testing.T) {
	s := NewMemStateStore()
	ctx := context.Background()
	if err := s.Put(ctx, "contested", StateEntry{Nonce: "n"}, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.TakeOnce(ctx, "contested"); err == nil {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("exactly one launch may consume a state, got %d", wins)
	}
}
