// Package cache holds the short-lived state shared by API instances: the
// authenticated-user cache and the single-use CSRF token store.  Both are
// backed by Redis when a client is available and by process memory
// otherwise.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/summit-hub/booking-api/internal/model"
)

// UserCache stores users by id for a fixed TTL.
type UserCache interface {
	Get(ctx context.Context, id string) (*model.User, bool)
	Set(ctx context.Context, u *model.User)
	Delete(ctx context.Context, id string)
}

// NewUserCache returns a Redis cache when rdb is non-nil, else an in-memory
// one.
func NewUserCache(rdb *redis.Client, ttl time.Duration) UserCache {
	if rdb != nil {
		return &redisUsers{rdb: rdb, ttl: ttl, prefix: "user:"}
	}
	return NewMemoryUserCache(ttl, time.Now)
}

// encodeUser serialises u for Redis.  model.User hides PasswordHash from
// JSON, so the hash never leaves the process.
func encodeUser(u *model.User) ([]byte, error) {
	return json.Marshal(u)
}

type redisUsers struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func (r *redisUsers) Get(ctx context.Context, id string) (*model.User, bool) {
	bs, err := r.rdb.Get(ctx, r.prefix+id).Bytes()
	if err != nil {
		return nil, false
	}
	var u model.User
	if err := json.Unmarshal(bs, &u); err != nil {
		return nil, false
	}
	return &u, true
}

func (r *redisUsers) Set(ctx context.Context, u *model.User) {
	bs, err := encodeUser(u)
	if err != nil {
		return
	}
	_ = r.rdb.Set(ctx, r.prefix+u.ID, bs, r.ttl).Err()
}

func (r *redisUsers) Delete(ctx context.Context, id string) {
	_ = r.rdb.Del(ctx, r.prefix+id).Err()
}

type memEntry struct {
	user    model.User
	expires time.Time
}

// MemoryUserCache is a process-local UserCache.
type MemoryUserCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memEntry
}

func NewMemoryUserCache(ttl time.Duration, now func() time.Time) *MemoryUserCache {
	return &MemoryUserCache{ttl: ttl, now: now, items: map[string]memEntry{}}
}

func (m *MemoryUserCache) Get(_ context.Context, id string) (*model.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expires) {
		delete(m.items, id)
		return nil, false
	}
	u := e.user
	return &u, true
}

func (m *MemoryUserCache) Set(_ context.Context, u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	cp.PasswordHash = ""
	m.items[u.ID] = memEntry{user: cp, expires: m.now().Add(m.ttl)}
}

func (m *MemoryUserCache) Delete(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
}

// UserSource is the backing store behind the cache.
type UserSource interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// UserLoader reads users through the cache, filling it on a miss.
type UserLoader struct {
	src   UserSource
	cache UserCache
}

func NewUserLoader(src UserSource, c UserCache) *UserLoader {
	return &UserLoader{src: src, cache: c}
}

// ErrNoSource is returned when the loader has no backing store.
var ErrNoSource = errors.New("cache: no user source")

func (l *UserLoader) GetByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := l.cache.Get(ctx, id); ok {
		return u, nil
	}
	if l.src == nil {
		return nil, ErrNoSource
	}
	u, err := l.src.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	l.cache.Set(ctx, u)
	return u, nil
}
