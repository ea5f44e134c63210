package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ug1-portal-api/internal/models"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
)

const (
	statsKeyPrefix    = "ugform:stats:"
	statsCachePattern = statsKeyPrefix + "*"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService keeps per-scope UG-1 status counts in Redis. Every read is a
// read-through; every transition or submission drops the whole stats namespace.
// A nil or disabled service always loads from the database.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs the stats cache.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// StatusCounts returns the counts cached for scope, calling load on a miss.
// Cache failures degrade to load and are only logged.
func (s *CacheService) StatusCounts(ctx context.Context, scope string, load func(context.Context) (models.UGFormStatusCounts, error)) (models.UGFormStatusCounts, error) {
	if !s.Enabled() {
		return load(ctx)
	}

	key := statsKeyPrefix + scope
	var cached models.UGFormStatusCounts
	start := time.Now()
	err := s.repo.Get(ctx, key, &cached)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, appErrors.ErrCacheMiss):
		s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
	}

	counts, err := load(ctx)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	if err := s.repo.Set(ctx, key, counts, s.ttl); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
	s.metrics.ObserveCacheWrite(time.Since(start))
	return counts, nil
}

// InvalidateStats drops every cached scope.
func (s *CacheService) InvalidateStats(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, statsCachePattern); err != nil {
		s.logger.Warn("stats cache invalidate failed", zap.Error(err))
	}
}
