package queuestore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb), mr
}

func TestEnqueueAndCollectBatchPreservesFIFO(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Enqueue(ctx, 1))
	require.NoError(t, store.Enqueue(ctx, 2))
	require.NoError(t, store.Enqueue(ctx, 3))

	batch, err := store.CollectBatch(ctx, time.Second, 50*time.Millisecond, 8)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, batch)
}

func TestCollectBatchRespectsMaxSize(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 10; i++ {
		require.NoError(t, store.Enqueue(ctx, i))
	}

	batch, err := store.CollectBatch(ctx, time.Second, time.Second, 4)
	require.NoError(t, err)
	require.Len(t, batch, 4)
	require.Equal(t, []int64{1, 2, 3, 4}, batch)
}

func TestCollectBatchTimesOutEmptyOnNoJobs(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	batch, err := store.CollectBatch(ctx, 20*time.Millisecond, 50*time.Millisecond, 8)
	require.NoError(t, err)
	require.Empty(t, batch)
}

func TestCollectBatchSizeOneWhenWindowIsZero(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Enqueue(ctx, 1))
	require.NoError(t, store.Enqueue(ctx, 2))

	batch, err := store.CollectBatch(ctx, time.Second, 0, 8)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, batch)
}

func TestImageRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sha := "abc123"
	data := []byte("fake image bytes")

	got, err := store.FetchImage(ctx, sha)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, store.StoreImage(ctx, sha, data))
	got, err = store.FetchImage(ctx, sha)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestDedupCacheRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sha := "def456"

	_, hit, err := store.GetCachedJob(ctx, sha)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, store.SetCachedJob(ctx, sha, 42))

	id, hit, err := store.GetCachedJob(ctx, sha)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, int64(42), id)
}

func TestRetryCounterIncrementsAndClears(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	attempt, err := store.IncrRetry(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 1, attempt)

	attempt, err = store.IncrRetry(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 2, attempt)

	ttl := mr.TTL(retryKey(7))
	require.InDelta(t, retryTTL.Seconds(), ttl.Seconds(), 2)

	require.NoError(t, store.ClearRetry(ctx, 7))
	attempt, err = store.IncrRetry(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 1, attempt, "counter should restart after clear")
}

func TestDLQPushAndTrim(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, store.PushDLQ(ctx, i))
	}

	ids, err := store.ListDLQ(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{3, 2, 1}, ids)
}

func TestDLQTrimsToMaxEntries(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= dlqMaxEntries+5; i++ {
		require.NoError(t, store.PushDLQ(ctx, i))
	}

	ids, err := store.ListDLQ(ctx)
	require.NoError(t, err)
	require.Len(t, ids, dlqMaxEntries)
	require.Equal(t, int64(dlqMaxEntries+5), ids[0], "most recently pushed stays at the head")
}

func TestPingReportsUnreachableStore(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()
	store := New(rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := store.Ping(ctx)
	require.Error(t, err)
}
