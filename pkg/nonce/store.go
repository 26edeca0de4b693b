package nonce

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// MemoryStore keeps consumed ids in process. Suitable for a single replica.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) MarkUsed(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.seen {
		if !now.Before(exp) {
			delete(s.seen, k)
		}
	}

	if _, ok := s.seen[id]; ok {
		return false, nil
	}
	s.seen[id] = now.Add(ttl)
	return true, nil
}

// RedisStore shares consumed ids across replicas with SET NX.
type RedisStore struct {
	client goredis.UniversalClient
	prefix string
}

func NewRedisStore(client goredis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "support_widget:nonce:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) MarkUsed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+id, 1, ttl).Result()
}
