package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/summit-hub/booking-api/internal/utils"
)

// TokenStore issues random tokens and lets each be consumed exactly once
// before it expires.
type TokenStore interface {
	Issue(ctx context.Context) (token string, expires time.Time, err error)
	Consume(ctx context.Context, token string) (bool, error)
}

// tokenBytes is the amount of randomness per token (64 hex chars).
const tokenBytes = 32

// NewTokenStore returns a Redis-backed store when rdb is non-nil, else an
// in-memory one.
func NewTokenStore(rdb *redis.Client, ttl time.Duration) TokenStore {
	if rdb != nil {
		return &redisTokens{rdb: rdb, ttl: ttl, prefix: "csrf:"}
	}
	return NewMemoryTokenStore(ttl, time.Now)
}

type redisTokens struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func (r *redisTokens) Issue(ctx context.Context) (string, time.Time, error) {
	tok, err := utils.RandomHex(tokenBytes)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := r.rdb.Set(ctx, r.prefix+tok, 1, r.ttl).Err(); err != nil {
		return "", time.Time{}, err
	}
	return tok, time.Now().Add(r.ttl), nil
}

// Consume deletes the key; only the caller whose DEL removed it wins, so a
// token cannot be replayed against two instances.
func (r *redisTokens) Consume(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := r.rdb.Del(ctx, r.prefix+token).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MemoryTokenStore is a process-local TokenStore.
type MemoryTokenStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	tokens map[string]time.Time
}

func NewMemoryTokenStore(ttl time.Duration, now func() time.Time) *MemoryTokenStore {
	return &MemoryTokenStore{ttl: ttl, now: now, tokens: map[string]time.Time{}}
}

func (m *MemoryTokenStore) Issue(context.Context) (string, time.Time, error) {
	tok, err := utils.RandomHex(tokenBytes)
	if err != nil {
		return "", time.Time{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	exp := now.Add(m.ttl)
	m.tokens[tok] = exp
	return tok, exp, nil
}

func (m *MemoryTokenStore) Consume(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.tokens[token]
	if !ok {
		return false, nil
	}
	delete(m.tokens, token)
	return m.now().Before(exp), nil
}

// sweep drops expired tokens; callers hold mu.
func (m *MemoryTokenStore) sweep(now time.Time) {
	for k, exp := range m.tokens {
		if !now.Before(exp) {
			delete(m.tokens, k)
		}
	}
}
