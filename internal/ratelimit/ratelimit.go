// Package ratelimit provides anonymous, per-source-IP rate limiting using
// Redis and a fixed-window counter: 60 requests per 60-second window per
// source identity.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rate_limit:"

// Limiter enforces a fixed requests-per-window budget per source identity.
type Limiter struct {
	rdb           *redis.Client
	maxRequests   int
	windowSeconds int
}

// New builds a Limiter allowing maxRequests per windowSeconds.
func New(rdb *redis.Client, maxRequests, windowSeconds int) *Limiter {
	return &Limiter{rdb: rdb, maxRequests: maxRequests, windowSeconds: windowSeconds}
}

// Allow reports whether source may proceed, consuming a token if so. On
// Redis errors it fails open (allows the request) rather than blocking
// traffic on a transport hiccup.
func (l *Limiter) Allow(ctx context.Context, source string) bool {
	key := keyPrefix + source
	now := time.Now().Unix()

	count, errCount := l.rdb.HGet(ctx, key, "count").Int()
	resetTime, errReset := l.rdb.HGet(ctx, key, "reset_time").Int64()

	if errCount != nil || errReset != nil || now >= resetTime {
		pipe := l.rdb.Pipeline()
		pipe.HSet(ctx, key, "count", 1)
		pipe.HSet(ctx, key, "reset_time", now+int64(l.windowSeconds))
		pipe.Expire(ctx, key, time.Duration(l.windowSeconds+10)*time.Second)
		if _, err := pipe.Exec(ctx); err != nil {
			return true
		}
		return true
	}

	if count < l.maxRequests {
		if err := l.rdb.HIncrBy(ctx, key, "count", 1).Err(); err != nil {
			return true
		}
		return true
	}
	return false
}

// Remaining returns the number of requests left in the current window for
// source.
func (l *Limiter) Remaining(ctx context.Context, source string) int64 {
	key := keyPrefix + source
	now := time.Now().Unix()

	count, errCount := l.rdb.HGet(ctx, key, "count").Int()
	resetTime, errReset := l.rdb.HGet(ctx, key, "reset_time").Int64()
	if errCount != nil || errReset != nil || now >= resetTime {
		return int64(l.maxRequests)
	}
	remaining := int64(l.maxRequests - count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
