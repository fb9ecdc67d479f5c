package cache_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transsync/schedule-api/internal/cache"
	"github.com/transsync/schedule-api/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// failingStore errors on every call, to prove cache failures never surface.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}
func (failingStore) Delete(context.Context, ...string) error { return errors.New("cache down") }

func countingFetch(calls *int, routes []domain.Route) func(context.Context) ([]domain.Route, error) {
	return func(context.Context) ([]domain.Route, error) {
		*calls++
		return routes, nil
	}
}

func TestReadThrough_HitsCacheAfterFirstFetch(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute)
	want := []domain.Route{{ID: 7, Name: "Ruta 7"}}
	calls := 0
	ctx := context.Background()

	first, err := cache.ReadThrough(ctx, store, discard, cache.Key(domain.CollectionRoutes), time.Minute, countingFetch(&calls, want))
	require.NoError(t, err)
	second, err := cache.ReadThrough(ctx, store, discard, cache.Key(domain.CollectionRoutes), time.Minute, countingFetch(&calls, nil))
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
}

func TestReadThrough_InvalidateForcesRefetch(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute)
	calls := 0
	ctx := context.Background()
	key := cache.Key(domain.CollectionRoutes)

	_, err := cache.ReadThrough(ctx, store, discard, key, time.Minute, countingFetch(&calls, nil))
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, store, domain.CollectionRoutes))
	_, err = cache.ReadThrough(ctx, store, discard, key, time.Minute, countingFetch(&calls, nil))
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestReadThrough_ExpiredEntryRefetches(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute)
	calls := 0
	ctx := context.Background()
	key := cache.Key(domain.CollectionVehicles)

	_, err := cache.ReadThrough(ctx, store, discard, key, time.Millisecond, countingFetch(&calls, nil))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = cache.ReadThrough(ctx, store, discard, key, time.Millisecond, countingFetch(&calls, nil))
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestReadThrough_StoreFailureFallsBackToFetch(t *testing.T) {
	want := []domain.Route{{ID: 1}}
	calls := 0

	got, err := cache.ReadThrough(context.Background(), failingStore{}, discard, "k", time.Minute, countingFetch(&calls, want))

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, calls)
}

func TestReadThrough_FetchErrorIsReturnedAndNotCached(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute)
	fetchErr := errors.New("upstream down")

	_, err := cache.ReadThrough(context.Background(), store, discard, "k", time.Minute,
		func(context.Context) ([]domain.Route, error) { return nil, fetchErr })

	assert.ErrorIs(t, err, fetchErr)
	_, ok, _ := store.Get(context.Background(), "k")
	assert.False(t, ok)
}

// TestRedisStore exercises the Redis backend against a live server.
// It is skipped unless TEST_REDIS_URL is set.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set; skipping Redis integration test")
	}
	ctx := context.Background()
	store, err := cache.NewRedisStore(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	key := cache.Key("test-" + time.Now().Format("150405.000000000"))
	t.Cleanup(func() { _ = store.Delete(ctx, key) })

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, key, []byte(`[1,2]`), time.Minute))
	raw, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1,2]`, string(raw))
	assert.NoError(t, store.HealthCheck(ctx))
}
