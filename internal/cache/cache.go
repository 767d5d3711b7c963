// Package cache memoizes solve results keyed by a hash of the request body.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"vrpsolve/internal/model"
)

// Cache stores solved jobs keyed by request fingerprint.
type Cache interface {
	Get(ctx context.Context, key string) (model.SolveJob, bool)
	Set(ctx context.Context, key string, job model.SolveJob)
}

// Key returns a stable fingerprint for a solve request. Two requests with
// identical JSON-visible fields share a key.
func Key(req model.SolveRequest) string {
	b, _ := json.Marshal(req)
	sum := sha256.Sum256(b)
	return "solve:" + hex.EncodeToString(sum[:])
}

// Redis caches solutions in Redis with a TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

func (c *Redis) Get(ctx context.Context, key string) (model.SolveJob, bool) {
	var job model.SolveJob
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return job, false
	}
	if err := json.Unmarshal(data, &job); err != nil {
		return job, false
	}
	return job, true
}

func (c *Redis) Set(ctx context.Context, key string, job model.SolveJob) {
	data, err := json.Marshal(job)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// Memory is the in-process fallback used when no REDIS_URL is configured.
type Memory struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memItem
}

type memItem struct {
	job     model.SolveJob
	expires time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, items: make(map[string]memItem)}
}

func (c *Memory) Get(ctx context.Context, key string) (model.SolveJob, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if !ok {
		return model.SolveJob{}, false
	}
	if time.Now().After(it.expires) {
		delete(c.items, key)
		return model.SolveJob{}, false
	}
	return it.job, true
}

func (c *Memory) Set(ctx context.Context, key string, job model.SolveJob) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = memItem{job: job, expires: time.Now().Add(c.ttl)}
}
