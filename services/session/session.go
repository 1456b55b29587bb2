package sessionsvc

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/ratiba/core"
)

// Store keeps the ids of revoked session tokens until the tokens expire.
type Store interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryStore is the single-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(now ...func() time.Time) *MemoryStore {
	clock := core.NowUTC
	if len(now) > 0 && now[0] != nil {
		clock = now[0]
	}
	return &MemoryStore{revoked: make(map[string]time.Time), now: clock}
}

func (s *MemoryStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purge()
	if expiresAt.After(s.now()) {
		s.revoked[tokenID] = expiresAt
	}
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.revoked[tokenID]
	return ok && exp.After(s.now()), nil
}

// purge drops the ids of expired tokens. Must hold mu.
func (s *MemoryStore) purge() {
	now := s.now()
	for id, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, id)
		}
	}
}

// RedisStore shares revocations between API instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to redis with short timeouts.
func NewRedisStore(conf *core.Config) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         conf.Redis.Addr,
		Password:     conf.Redis.Password,
		DB:           conf.Redis.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &RedisStore{client: client, prefix: core.CleanString(conf.AppName, true) + ":revoked:"}
}

func (s *RedisStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	err := s.client.Set(ctx, s.prefix+tokenID, 1, ttl).Err()
	return errors.Wrap(err, "storing revoked token")
}

func (s *RedisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking revoked token")
	}
	return n > 0, nil
}

// Healthy verifies redis connectivity.
func (s *RedisStore) Healthy(ctx context.Context) bool {
	return s.client.Ping(ctx).Err() == nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
