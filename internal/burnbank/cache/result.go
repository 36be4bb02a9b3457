package cache

import (
	"context"
	"time"

	"burnbank-stats/internal/burnbank/monitor"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const keyPrefix = "burnbank_cache_"

// GlobalTokenID 不属于具体代币的全局指标（如 ETH/USD 价格）
const GlobalTokenID = "global"

// Metric 缓存指标类型，连同代币 ID 构成缓存 key
type Metric string

const (
	MetricStakers  Metric = "stakers"
	MetricDonors   Metric = "donors"
	MetricWinners  Metric = "winners"
	MetricStats    Metric = "stats"
	MetricBurns    Metric = "burns"
	MetricEthPrice Metric = "ethprice"
	MetricHolders  Metric = "holders"
)

// TTL 各指标的缓存时长
func TTL(m Metric) time.Duration {
	switch m {
	case MetricStakers, MetricDonors:
		return 30 * time.Minute
	case MetricWinners:
		return 24 * time.Hour
	case MetricStats, MetricBurns, MetricEthPrice:
		return 5 * time.Minute
	case MetricHolders:
		return time.Hour
	default:
		return 5 * time.Minute
	}
}

// Entry 缓存条目。新鲜度只看墙钟年龄，LastBlock 仅作观测记录。
type Entry[T any] struct {
	Data      T      `json:"data"`
	Timestamp int64  `json:"timestamp"` // 毫秒
	LastBlock uint64 `json:"last_block"`
}

// ResultCache 按 (tokenID, metric) 组 key 的结果缓存。
// 读写失败一律当 miss / 静默吞掉，缓存不可用时系统仍然正确。
type ResultCache struct {
	store Store
	tl    *zap.Logger
	now   func() time.Time
}

func NewResultCache(store Store, logger *zap.Logger) *ResultCache {
	return &ResultCache{
		store: store,
		tl:    logger,
		now:   time.Now,
	}
}

func Key(tokenID string, metric Metric) string {
	return keyPrefix + tokenID + "_" + string(metric)
}

// Get 返回未过期的缓存条目；缺失或年龄达到 TTL 时返回 nil。
// 年龄恰好等于 TTL 也算过期。
func Get[T any](ctx context.Context, c *ResultCache, tokenID string, metric Metric) *Entry[T] {
	raw, ok, err := c.store.Get(ctx, Key(tokenID, metric))
	if err != nil {
		c.tl.Debug("cache read failed", zap.String("metric", string(metric)), zap.Error(err))
		monitor.CacheRequests.WithLabelValues(string(metric), "miss").Inc()
		return nil
	}
	if !ok {
		monitor.CacheRequests.WithLabelValues(string(metric), "miss").Inc()
		return nil
	}

	var entry Entry[T]
	if err := sonic.Unmarshal(raw, &entry); err != nil {
		c.tl.Debug("cache entry corrupted", zap.String("metric", string(metric)), zap.Error(err))
		monitor.CacheRequests.WithLabelValues(string(metric), "miss").Inc()
		return nil
	}

	age := c.now().UnixMilli() - entry.Timestamp
	if age >= TTL(metric).Milliseconds() {
		monitor.CacheRequests.WithLabelValues(string(metric), "expired").Inc()
		return nil
	}

	monitor.CacheRequests.WithLabelValues(string(metric), "hit").Inc()
	return &entry
}

// Put 无条件覆盖写入，序列化或存储失败静默忽略
func Put[T any](ctx context.Context, c *ResultCache, tokenID string, metric Metric, data T, lastBlock uint64) {
	entry := Entry[T]{
		Data:      data,
		Timestamp: c.now().UnixMilli(),
		LastBlock: lastBlock,
	}
	raw, err := sonic.Marshal(entry)
	if err != nil {
		c.tl.Debug("cache marshal failed", zap.String("metric", string(metric)), zap.Error(err))
		return
	}
	if err := c.store.Put(ctx, Key(tokenID, metric), raw); err != nil {
		c.tl.Debug("cache write failed", zap.String("metric", string(metric)), zap.Error(err))
	}
}

// Invalidate 清掉某代币的全部缓存条目（手动刷新用）
func (c *ResultCache) Invalidate(ctx context.Context, tokenID string) {
	for _, metric := range []Metric{MetricStakers, MetricDonors, MetricWinners, MetricStats, MetricBurns, MetricHolders} {
		if err := c.store.Delete(ctx, Key(tokenID, metric)); err != nil {
			c.tl.Debug("cache delete failed", zap.String("metric", string(metric)), zap.Error(err))
		}
	}
}
