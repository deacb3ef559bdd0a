package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/scraprates/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, 50*time.Second, defaultBucketTTL(0.2, 5))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 5))
}

func TestCastHelpers(t *testing.T) {
	assert.EqualValues(t, 1, castToInt(int64(1)))
	assert.EqualValues(t, 7, castToInt("7"))
	assert.EqualValues(t, 0, castToInt(nil))
	assert.InDelta(t, 0.4, castToFloat("0.4"), 1e-9)
	assert.InDelta(t, 3, castToFloat(int64(3)), 1e-9)
	assert.Zero(t, castToFloat("nope"))
}

func TestBuildResultRetryAfter(t *testing.T) {
	denied := buildResult(false, 0.5, 1_700_000_000_000, 0.2, 5)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 2500*time.Millisecond, denied.RetryAfter)
	assert.Equal(t, 0, denied.Remaining)
	assert.Equal(t, 5, denied.Limit)

	allowed := buildResult(true, 3.7, 1_700_000_000_000, 0.2, 5)
	assert.True(t, allowed.Allowed)
	assert.Zero(t, allowed.RetryAfter)
	assert.Equal(t, 3, allowed.Remaining)
}

func TestNilBucketIsNotConfigured(t *testing.T) {
	var bucket *TokenBucket
	res, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, res.Allowed)
	assert.Nil(t, NewTokenBucket(nil))
}

func TestDisabledActivationLimiterAllows(t *testing.T) {
	limiter, err := NewActivationLimiter(config.Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNilLocker(t *testing.T) {
	locker := NewLocker(nil)
	_, ok, err := locker.TryLock(context.Background(), "seed", time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, locker.Release(context.Background(), "seed", "t"))
}
