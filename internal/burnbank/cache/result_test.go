package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache() (*ResultCache, *MemoryStore) {
	store := NewMemoryStore()
	return NewResultCache(store, zap.NewNop()), store
}

func TestKey(t *testing.T) {
	require.Equal(t, "burnbank_cache_shi_stakers", Key("shi", MetricStakers))
	require.Equal(t, "burnbank_cache_global_ethprice", Key(GlobalTokenID, MetricEthPrice))
}

func TestResultCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()

	Put(ctx, c, "shi", MetricStats, map[string]float64{"total": 42.5}, 12345)

	entry := Get[map[string]float64](ctx, c, "shi", MetricStats)
	require.NotNil(t, entry)
	require.Equal(t, 42.5, entry.Data["total"])
	require.Equal(t, uint64(12345), entry.LastBlock)
}

func TestResultCache_MissingKey(t *testing.T) {
	c, _ := newTestCache()
	require.Nil(t, Get[string](context.Background(), c, "shi", MetricStats))
}

func TestResultCache_TTLBoundary(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()

	base := time.Now()
	c.now = func() time.Time { return base }
	Put(ctx, c, "shi", MetricStats, "value", 0)

	// TTL 内命中
	c.now = func() time.Time { return base.Add(TTL(MetricStats) - time.Millisecond) }
	require.NotNil(t, Get[string](ctx, c, "shi", MetricStats))

	// 年龄恰好等于 TTL 也算过期
	c.now = func() time.Time { return base.Add(TTL(MetricStats)) }
	require.Nil(t, Get[string](ctx, c, "shi", MetricStats))
}

func TestResultCache_MetricTTLsIndependent(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()

	base := time.Now()
	c.now = func() time.Time { return base }
	Put(ctx, c, "shi", MetricStats, "stats", 0)   // 5 分钟
	Put(ctx, c, "shi", MetricWinners, "wins", 0)  // 24 小时

	c.now = func() time.Time { return base.Add(10 * time.Minute) }
	require.Nil(t, Get[string](ctx, c, "shi", MetricStats))
	require.NotNil(t, Get[string](ctx, c, "shi", MetricWinners))
}

func TestResultCache_CorruptedEntry(t *testing.T) {
	ctx := context.Background()
	c, store := newTestCache()

	require.NoError(t, store.Put(ctx, Key("shi", MetricStats), []byte("not json")))
	require.Nil(t, Get[string](ctx, c, "shi", MetricStats))
}

func TestResultCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()

	Put(ctx, c, "shi", MetricStats, "a", 0)
	Put(ctx, c, "shi", MetricStakers, "b", 0)
	Put(ctx, c, "shib", MetricStats, "c", 0)

	c.Invalidate(ctx, "shi")

	require.Nil(t, Get[string](ctx, c, "shi", MetricStats))
	require.Nil(t, Get[string](ctx, c, "shi", MetricStakers))
	// 其他代币不受影响
	require.NotNil(t, Get[string](ctx, c, "shib", MetricStats))
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "k", []byte("v")))
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Delete(ctx, "k"))
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}
