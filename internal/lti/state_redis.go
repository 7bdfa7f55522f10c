package lti

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStateStore shares pending login states across gateway instances.
// GETDEL makes the take-once read-and-delete a single atomic command,
// so concurrent launches racing on the same state see exactly one win.
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: "lti:state:"}
}

func (s *RedisStateStore) Put(ctx context.Context, state string, e StateEntry, ttl time.Duration) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+state, b, ttl).Err()
}

func (s *RedisStateStore) TakeOnce(ctx context.Context, state string) (StateEntry, error) {
	b, err := s.client.GetDel(ctx, s.prefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return StateEntry{}, ErrNotFound
	}
	if err != nil {
		return StateEntry{}, err
	}
	var e StateEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return StateEntry{}, err
	}
	return e, nil
}
