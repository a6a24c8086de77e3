package canonical

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

// Cache stores ranked candidates by normalized query.
type Cache interface {
	Get(ctx context.Context, key string) ([]Candidate, bool)
	Set(ctx context.Context, key string, value []Candidate)
}

const (
	DefaultLocalSize = 1024
	DefaultSharedTTL = time.Hour
	redisKeyPrefix   = "whitespace:assignee:"
	redisOpTimeout   = 2 * time.Second
)

// TieredCache keeps a process-local LRU in front of an optional Redis. Redis
// failures are logged and treated as misses.
type TieredCache struct {
	local *lru.Cache[string, []Candidate]
	redis *goredis.Client
	ttl   time.Duration
	log   *logger.Logger
}

func NewTieredCache(log *logger.Logger, size int, rdb *goredis.Client, ttl time.Duration) (*TieredCache, error) {
	if size <= 0 {
		size = DefaultLocalSize
	}
	if ttl <= 0 {
		ttl = DefaultSharedTTL
	}
	local, err := lru.New[string, []Candidate](size)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &TieredCache{local: local, redis: rdb, ttl: ttl, log: log.With("component", "AssigneeCache")}, nil
}

// Get returns a private copy of the cached candidates; callers may reorder or
// edit it freely.
func (c *TieredCache) Get(ctx context.Context, key string) ([]Candidate, bool) {
	if v, ok := c.local.Get(key); ok {
		return slices.Clone(v), true
	}
	if c.redis == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	raw, err := c.redis.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("redis get failed", "error", err)
		}
		return nil, false
	}
	var out []Candidate
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("redis entry undecodable", "error", err)
		return nil, false
	}
	c.local.Add(key, out)
	return slices.Clone(out), true
}

func (c *TieredCache) Set(ctx context.Context, key string, value []Candidate) {
	c.local.Add(key, slices.Clone(value))
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := c.redis.Set(ctx, redisKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("redis set failed", "error", err)
	}
}
