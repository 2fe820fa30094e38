package hold

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func pkg(start, end string) model.Package {
	d := model.MustParseDate("2024-03-05")
	return model.Package{Type: model.PackageHourly, StartDate: d, EndDate: d, StartTime: model.MustParseClock(start), EndTime: model.MustParseClock(end)}
}

func TestManager_HoldAndActiveHolds(t *testing.T) {
	ctx := context.Background()
	clock := newMockClock()
	m := NewManager(NewMemoryStore(), 0, clock.Now)

	h, ok := m.Hold(ctx, "s1", 7, pkg("09:00", "11:00"))
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(DefaultTTL), h.ExpiresAt)

	assert.Empty(t, m.ActiveHoldsFor(ctx, 7, "s1"), "own hold is excluded")
	others := m.ActiveHoldsFor(ctx, 7, "s2")
	require.Len(t, others, 1)
	assert.Equal(t, "s1", others[0].SessionID)
	assert.Empty(t, m.ActiveHoldsFor(ctx, 8, "s2"), "other facility")
}

func TestManager_HoldOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store, time.Minute, newMockClock().Now)

	m.Hold(ctx, "s1", 7, pkg("09:00", "11:00"))
	m.Hold(ctx, "s1", 7, pkg("13:00", "14:00"))
	assert.Equal(t, 1, store.Len())

	h, ok := m.Current(ctx, "s1", 7)
	require.True(t, ok)
	assert.Equal(t, model.Clock(13, 0), h.Package.StartTime)
}

func TestManager_ExpiredHoldsAreNeverActive(t *testing.T) {
	ctx := context.Background()
	clock := newMockClock()
	store := NewMemoryStore()
	m := NewManager(store, 15*time.Minute, clock.Now)

	m.Hold(ctx, "s1", 7, pkg("09:00", "11:00"))
	clock.Advance(15 * time.Minute)
	assert.Len(t, m.ActiveHoldsFor(ctx, 7, "s2"), 1, "alive at exactly expiresAt")

	clock.Advance(time.Second)
	assert.Empty(t, m.ActiveHoldsFor(ctx, 7, "s2"))
	_, ok := m.Current(ctx, "s1", 7)
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len(), "not purged until swept")

	m.SweepExpired(ctx)
	assert.Equal(t, 0, store.Len())
}

func TestManager_Release(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), 0, newMockClock().Now)
	m.Release(ctx, "nobody", 7)

	m.Hold(ctx, "s1", 7, pkg("09:00", "11:00"))
	m.Release(ctx, "s1", 7)
	assert.Empty(t, m.ActiveHoldsFor(ctx, 7, "s2"))
}

type failingStore struct{ MemoryStore }

var errBackend = errors.New("backend down")

func (*failingStore) Put(context.Context, model.TemporaryHold) error { return errBackend }
func (*failingStore) ListByFacility(context.Context, int64) ([]model.TemporaryHold, error) {
	return nil, errBackend
}
func (*failingStore) Sweep(context.Context, time.Time) (int, error) { return 0, errBackend }

func TestManager_BackendErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&failingStore{}, 0, nil)
	_, ok := m.Hold(ctx, "s1", 7, pkg("09:00", "11:00"))
	assert.False(t, ok)
	assert.Nil(t, m.ActiveHoldsFor(ctx, 7, "s2"))
	assert.NotPanics(t, func() { m.SweepExpired(ctx) })
}
