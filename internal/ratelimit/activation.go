package ratelimit

import (
	"context"
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/scraprates/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyActivateClient = "activate:client:"

// NewRedisClient returns nil when rate limiting is disabled.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*redis.Client, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("rate limit redis unreachable", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// ActivationLimiter throttles activation attempts per client address so
// codes cannot be guessed by brute force.
type ActivationLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

// NewActivationLimiter returns nil when no Redis client is configured. A
// nil limiter allows every request.
func NewActivationLimiter(cfg config.Config, client *redis.Client) (*ActivationLimiter, error) {
	if client == nil {
		return nil, nil
	}
	if cfg.RateLimit.ActivateRate <= 0 || cfg.RateLimit.ActivateBurst <= 0 {
		return nil, errors.New("activation rate limit must be positive")
	}
	return &ActivationLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.RateLimit.ActivateRate,
		burst:  cfg.RateLimit.ActivateBurst,
	}, nil
}

func (l *ActivationLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *ActivationLimiter) Allow(ctx context.Context, clientIP string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	ip := strings.TrimSpace(clientIP)
	if ip == "" {
		ip = "unknown"
	}
	return l.bucket.Allow(ctx, keyActivateClient+ip, l.rate, l.burst)
}
