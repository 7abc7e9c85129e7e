package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCast/internal/model"
)

var (
	d1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

func series(sym string) *model.PriceSeries {
	return &model.PriceSeries{Symbol: sym, Start: d1, End: d2, Bars: []model.OHLCV{{Time: d1, Close: 1}}}
}

func TestNewKey_Normalizes(t *testing.T) {
	k := NewKey(" goog ", d1.Add(5*time.Hour), d2)
	assert.Equal(t, Key{Ticker: "GOOG", Start: d1, End: d2}, k)
	assert.Equal(t, "GOOG:2024-01-01:2024-06-01", k.String())
}

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4, time.Hour)

	_, ok, err := m.Get(ctx, NewKey("GOOG", d1, d2))
	require.NoError(t, err)
	assert.False(t, ok)

	s := series("GOOG")
	require.NoError(t, m.Set(ctx, NewKey("GOOG", d1, d2), s))
	got, ok, err := m.Get(ctx, NewKey("goog", d1, d2))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, 0)

	require.NoError(t, m.Set(ctx, NewKey("A", d1, d2), series("A")))
	require.NoError(t, m.Set(ctx, NewKey("B", d1, d2), series("B")))
	// Touch A so B becomes the oldest.
	_, ok, _ := m.Get(ctx, NewKey("A", d1, d2))
	require.True(t, ok)
	require.NoError(t, m.Set(ctx, NewKey("C", d1, d2), series("C")))

	assert.Equal(t, 2, m.Len())
	_, ok, _ = m.Get(ctx, NewKey("B", d1, d2))
	assert.False(t, ok, "B should have been evicted")
	_, ok, _ = m.Get(ctx, NewKey("A", d1, d2))
	assert.True(t, ok)
	_, ok, _ = m.Get(ctx, NewKey("C", d1, d2))
	assert.True(t, ok)
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10, 100*time.Millisecond)

	require.NoError(t, m.Set(ctx, NewKey("A", d1, d2), series("A")))
	require.NoError(t, m.Set(ctx, NewKey("B", d1, d2), series("B")))

	_, ok, _ := m.Get(ctx, NewKey("A", d1, d2))
	assert.True(t, ok)

	time.Sleep(150 * time.Millisecond)
	_, ok, _ = m.Get(ctx, NewKey("A", d1, d2))
	assert.False(t, ok, "entry must not outlive its ttl")

	_, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_SetRefreshesExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10, 300*time.Millisecond)

	key := NewKey("A", d1, d2)
	require.NoError(t, m.Set(ctx, key, series("A")))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, m.Set(ctx, key, series("A")))
	time.Sleep(200 * time.Millisecond)

	_, ok, _ := m.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_SweepKeepsFreshEntries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10, time.Hour)
	require.NoError(t, m.Set(ctx, NewKey("A", d1, d2), series("A")))

	removed, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, 1, m.Len())
}

func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	r, err := NewRedis(addr, os.Getenv("REDIS_PASSWORD"), 15, time.Minute)
	require.NoError(t, err)
	defer r.Close()

	key := NewKey("TESTONLY", d1, d2)
	require.NoError(t, r.Set(ctx, key, series("TESTONLY")))
	got, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "TESTONLY", got.Symbol)
	assert.Len(t, got.Bars, 1)
}
