package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-balancer/pkg/cache"
	appErrors "github.com/noah-isme/timetable-balancer/pkg/errors"
)

// scanBatch bounds both the SCAN hint and the size of each UNLINK pipeline.
const scanBatch = 200

// CacheRepository keeps JSON documents (class-time views, balance proposals)
// in Redis. Without a client reads miss and writes are dropped, so the API
// keeps serving when Redis is down at boot.
type CacheRepository struct {
	rdb    redis.UniversalClient
	prefix string
	log    *zap.Logger
}

func NewCacheRepository(client *redis.Client, prefix string, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo := &CacheRepository{prefix: prefix, log: logger.Named("redis")}
	if client != nil {
		repo.rdb = client
	}
	return repo
}

func (r *CacheRepository) Key(parts ...string) string {
	return cache.Key(r.prefix, parts...)
}

func (r *CacheRepository) online() bool { return r.rdb != nil }

// Get decodes the document at key into dest. Absent keys yield ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if !r.online() {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return appErrors.ErrCacheMiss
	case err != nil:
		return fmt.Errorf("cache get %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A document written by an older build is treated as absent and evicted.
		r.log.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = r.rdb.Unlink(ctx, key).Err()
		return appErrors.ErrCacheMiss
	}
	return nil
}

// Set stores value under key. A zero ttl keeps the key until it is invalidated.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !r.online() {
		return nil
	}
	doc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}
	return wrapRedis("set", key, r.rdb.Set(ctx, key, doc, ttl).Err())
}

func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if !r.online() {
		return nil
	}
	return wrapRedis("unlink", key, r.rdb.Unlink(ctx, key).Err())
}

// DeleteByPattern unlinks every key matching pattern, pipelining the
// removals in batches as the scan proceeds.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if !r.online() {
		return nil
	}

	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return wrapRedis("scan", pattern, err)
		}
		n, err := r.unlinkAll(ctx, keys)
		removed += n
		if err != nil {
			return wrapRedis("unlink", pattern, err)
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	r.log.Debug("cache invalidated", zap.String("pattern", pattern), zap.Int64("keys", removed))
	return nil
}

func (r *CacheRepository) unlinkAll(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	cmds, err := r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for start := 0; start < len(keys); start += scanBatch {
			end := start + scanBatch
			if end > len(keys) {
				end = len(keys)
			}
			p.Unlink(ctx, keys[start:end]...)
		}
		return nil
	})
	var total int64
	for _, cmd := range cmds {
		if c, ok := cmd.(*redis.IntCmd); ok {
			total += c.Val()
		}
	}
	return total, err
}

func (r *CacheRepository) Close() error {
	if !r.online() {
		return nil
	}
	return r.rdb.Close()
}

func wrapRedis(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("cache %s %q: %w", op, key, err)
}
