package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/ug1-portal-api/internal/models"
)

type brokenCacheRepo struct{}

func (brokenCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection refused")
}

func (brokenCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (brokenCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	return errors.New("connection refused")
}

func countingLoader(calls *int) func(context.Context) (models.UGFormStatusCounts, error) {
	return func(context.Context) (models.UGFormStatusCounts, error) {
		*calls++
		return models.UGFormStatusCounts{models.UGFormStatusSubmitted: 3}, nil
	}
}

func TestCacheServiceStatusCountsReadThrough(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()
	calls := 0

	first, err := cache.StatusCounts(ctx, "tutor:t@uni.edu", countingLoader(&calls))
	require.NoError(t, err)
	second, err := cache.StatusCounts(ctx, "tutor:t@uni.edu", countingLoader(&calls))
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Contains(t, repo.entries, "ugform:stats:tutor:t@uni.edu")

	cache.InvalidateStats(ctx)
	_, err = cache.StatusCounts(ctx, "tutor:t@uni.edu", countingLoader(&calls))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"ugform:stats:*"}, repo.deletes)
}

func TestCacheServiceDisabledAlwaysLoads(t *testing.T) {
	repo := newMemoryCacheRepo()
	calls := 0

	for _, cache := range []*CacheService{nil, NewCacheService(repo, nil, 0, nil, false)} {
		_, err := cache.StatusCounts(context.Background(), "global", countingLoader(&calls))
		require.NoError(t, err)
		cache.InvalidateStats(context.Background())
	}

	assert.Equal(t, 2, calls)
	assert.Empty(t, repo.entries)
	assert.Empty(t, repo.deletes)
}

func TestCacheServiceDegradesWhenRedisFails(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cache := NewCacheService(brokenCacheRepo{}, nil, time.Minute, zap.New(core), true)
	calls := 0

	counts, err := cache.StatusCounts(context.Background(), "global", countingLoader(&calls))
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.UGFormStatusSubmitted])
	cache.InvalidateStats(context.Background())

	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, logs.Len())
}

func TestCacheServiceLoadErrorPropagates(t *testing.T) {
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	_, err := cache.StatusCounts(context.Background(), "global", func(context.Context) (models.UGFormStatusCounts, error) {
		return nil, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
}
