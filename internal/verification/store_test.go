package verification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/tradelink-backend/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Replace(_ context.Context, key string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		f.data[key] = string(value.([]byte))
	}
	return nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
		delete(f.ttls, k)
	}
	return nil
}

func (f *fakeRedis) VerificationKey(email string) string {
	return "tl:verification:" + email
}

func TestRedisStoreRoundTrip(t *testing.T) {
	client := newFakeRedis()
	store, err := NewRedisStore(client)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Get(ctx, "a@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	expires := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, "a@example.com", Record{Hash: "h", ExpiresAt: expires}, 10*time.Minute))
	assert.Equal(t, 10*time.Minute, client.ttls["tl:verification:a@example.com"])

	require.NoError(t, store.Update(ctx, "a@example.com", Record{Hash: "h", Attempts: 2, ExpiresAt: expires}))
	rec, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Attempts)
	assert.True(t, rec.ExpiresAt.Equal(expires))

	require.NoError(t, store.Delete(ctx, "a@example.com"))
	_, err = store.Get(ctx, "a@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = NewRedisStore(nil)
	require.Error(t, err)
}

func TestMemoryStoreExpiresAndSweeps(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "B@Example.com", Record{Hash: "h"}, time.Minute))
	rec, err := store.Get(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, "h", rec.Hash)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "b@example.com")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Update(ctx, "b@example.com", Record{Hash: "other"}))

	assert.Equal(t, 1, store.sweep())
	assert.Equal(t, 0, store.sweep())
}

func TestMemoryStoreCloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
