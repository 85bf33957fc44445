// Package queuestore provides the Redis-backed ephemeral primitives the
// scheduling core relies on: the FIFO job queue, the image blob cache, the
// submission dedup cache, per-job retry counters, and the dead-letter list.
//
// All key names and TTLs of the scheduling core live in this file, and no
// cross-prefix keys or pub/sub channels are used. The HTTP rate limiter
// (internal/ratelimit) keeps its own rate_limit: keys in the same Redis.
package queuestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey          = "queue:inference"
	dlqKey            = "dlq:failed_jobs"
	dlqMaxEntries      = 1000
	imageTTL          = 600 * time.Second
	dedupTTL          = 600 * time.Second
	retryTTL          = 3600 * time.Second
)

// ErrUnreachable wraps any transport-level failure talking to Redis.
var ErrUnreachable = errors.New("queuestore: backing store unreachable")

// Store wraps a Redis client with the operations QueueStore exposes.
type Store struct {
	rdb *redis.Client
}

// New wraps an already-configured Redis client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func wrapErr(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// Enqueue appends a job id to the tail of the FIFO queue.
func (s *Store) Enqueue(ctx context.Context, jobID int64) error {
	return wrapErr(s.rdb.LPush(ctx, queueKey, jobID).Err())
}

// CollectBatch blocks up to firstWait for the first job id; once one
// arrives, it drains the queue non-blockingly until either window elapses
// or maxSize ids have been collected. FIFO order is preserved. Returns an
// empty, nil-error slice on a first-wait timeout.
func (s *Store) CollectBatch(ctx context.Context, firstWait, window time.Duration, maxSize int) ([]int64, error) {
	first, err := s.rdb.BRPop(ctx, firstWait, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err)
	}

	var id int64
	if _, scanErr := fmt.Sscanf(first[1], "%d", &id); scanErr != nil {
		return nil, fmt.Errorf("queuestore: malformed queue entry %q: %w", first[1], scanErr)
	}
	batch := []int64{id}

	deadline := time.Now().Add(window)
	for len(batch) < maxSize {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		v, popErr := s.rdb.RPop(ctx, queueKey).Result()
		if errors.Is(popErr, redis.Nil) {
			break
		}
		if popErr != nil {
			return batch, wrapErr(popErr)
		}
		var nextID int64
		if _, scanErr := fmt.Sscanf(v, "%d", &nextID); scanErr != nil {
			continue
		}
		batch = append(batch, nextID)
	}
	return batch, nil
}

func imageKey(sha string) string { return "image:" + sha }
func dedupKey(sha string) string { return "cache:sha256:" + sha }
func retryKey(jobID int64) string { return fmt.Sprintf("retry:%d", jobID) }

// StoreImage caches the raw image bytes for sha with a 600s TTL.
func (s *Store) StoreImage(ctx context.Context, sha string, data []byte) error {
	return wrapErr(s.rdb.Set(ctx, imageKey(sha), data, imageTTL).Err())
}

// FetchImage returns the cached bytes for sha, or (nil, nil) on a miss.
func (s *Store) FetchImage(ctx context.Context, sha string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, imageKey(sha)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	return data, nil
}

// GetCachedJob returns the job id last associated with sha, or (0, false) on
// a miss.
func (s *Store) GetCachedJob(ctx context.Context, sha string) (int64, bool, error) {
	v, err := s.rdb.Get(ctx, dedupKey(sha)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrapErr(err)
	}
	return v, true, nil
}

// SetCachedJob records jobID as the most recent job for sha, TTL 600s.
func (s *Store) SetCachedJob(ctx context.Context, sha string, jobID int64) error {
	return wrapErr(s.rdb.Set(ctx, dedupKey(sha), jobID, dedupTTL).Err())
}

// IncrRetry increments and returns the attempt counter for jobID, resetting
// its TTL to 3600s on every call.
func (s *Store) IncrRetry(ctx context.Context, jobID int64) (int, error) {
	key := retryKey(jobID)
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, retryTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, wrapErr(err)
	}
	return int(incr.Val()), nil
}

// ClearRetry deletes the attempt counter for jobID. Called on the terminal
// FAILED transition; a job that completes keeps its counter until the TTL
// expires.
func (s *Store) ClearRetry(ctx context.Context, jobID int64) error {
	return wrapErr(s.rdb.Del(ctx, retryKey(jobID)).Err())
}

// PushDLQ appends jobID to the dead-letter list, trimming it to the most
// recent 1000 entries.
func (s *Store) PushDLQ(ctx context.Context, jobID int64) error {
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, dlqKey, jobID)
	pipe.LTrim(ctx, dlqKey, 0, dlqMaxEntries-1)
	_, err := pipe.Exec(ctx)
	return wrapErr(err)
}

// ListDLQ returns the full dead-letter list, most recently failed first.
func (s *Store) ListDLQ(ctx context.Context) ([]int64, error) {
	raw, err := s.rdb.LRange(ctx, dlqKey, 0, -1).Result()
	if err != nil {
		return nil, wrapErr(err)
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		var id int64
		if _, scanErr := fmt.Sscanf(v, "%d", &id); scanErr == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Ping checks the Redis connection is alive, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return wrapErr(s.rdb.Ping(ctx).Err())
}
