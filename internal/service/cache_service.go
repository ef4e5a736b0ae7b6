package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/timetable-balancer/pkg/errors"
)

// CacheRepository is the key/value store behind CacheService.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheObserver interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveCacheWrite(duration time.Duration)
}

// CacheService fronts Redis for balance proposals and schedule reads. A
// disabled service answers every read as a miss and drops every write.
type CacheService struct {
	repo       CacheRepository
	observer   cacheObserver
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService builds the service; metrics may be nil.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CacheService{repo: repo, defaultTTL: defaultTTL, logger: logger.Named("cache"), enabled: enabled}
	if metrics != nil {
		svc.observer = metrics
	}
	return svc
}

// Enabled reports whether reads and writes reach the store.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get decodes key into dest and reports a hit. A miss is not an error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	if s.observer != nil {
		s.observer.RecordCacheOperation(hit, time.Since(start))
	}
	switch {
	case hit:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// Set stores value under key; ttl <= 0 uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	if s.observer != nil {
		s.observer.ObserveCacheWrite(time.Since(start))
	}
	if err != nil {
		s.logger.Warn("set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Delete drops one key.
func (s *CacheService) Delete(ctx context.Context, key string) error {
	return s.drop(ctx, key, s.repoDelete)
}

// Invalidate drops every key matching a glob pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	return s.drop(ctx, pattern, s.repoDeletePattern)
}

func (s *CacheService) repoDelete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

func (s *CacheService) repoDeletePattern(ctx context.Context, pattern string) error {
	return s.repo.DeleteByPattern(ctx, pattern)
}

func (s *CacheService) drop(ctx context.Context, target string, del func(context.Context, string) error) error {
	if !s.Enabled() {
		return nil
	}
	if err := del(ctx, target); err != nil {
		s.logger.Warn("delete failed", zap.String("target", target), zap.Error(err))
		return err
	}
	return nil
}

type readThroughCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// readThrough serves key from c when present, otherwise calls load and stores
// its result. Cache failures never fail the read. The bool reports a hit.
func readThrough[T any](ctx context.Context, c readThroughCache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	active := c != nil && c.Enabled()
	if active {
		var cached T
		if hit, err := c.Get(ctx, key, &cached); err == nil && hit {
			return cached, true, nil
		}
	}
	value, err := load(ctx)
	if err != nil {
		return value, false, err
	}
	if active {
		_ = c.Set(ctx, key, value, ttl)
	}
	return value, false, nil
}
