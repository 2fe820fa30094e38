package hold

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ""), mr
}

func TestRedisStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	m := NewManager(store, 15*time.Minute, nil)

	h, ok := m.Hold(ctx, "s1", 3, pkg("09:00", "11:00"))
	require.True(t, ok)
	assert.True(t, mr.Exists("hold:3:s1"))
	assert.Equal(t, 15*time.Minute, mr.TTL("hold:3:s1"))

	got, found, err := store.Get(ctx, "s1", 3)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, h.Package, got.Package)
	assert.True(t, h.ExpiresAt.Equal(got.ExpiresAt))

	m.Release(ctx, "s1", 3)
	_, found, err = store.Get(ctx, "s1", 3)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_ListByFacilityAndExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	m := NewManager(store, 15*time.Minute, nil)

	m.Hold(ctx, "s1", 3, pkg("09:00", "11:00"))
	m.Hold(ctx, "s2", 3, pkg("12:00", "13:00"))
	m.Hold(ctx, "s3", 4, pkg("09:00", "11:00"))

	holds, err := store.ListByFacility(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, holds, 2)
	assert.Len(t, m.ActiveHoldsFor(ctx, 3, "s1"), 1)

	mr.FastForward(16 * time.Minute)
	holds, err = store.ListByFacility(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, holds)

	n, err := store.Sweep(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}
