package service

import (
	"context"
	"strings"
	"time"

	"burnbank-stats/internal/burnbank/chain"
	"burnbank-stats/internal/burnbank/monitor"

	"github.com/ethereum/go-ethereum/common"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// 批量反解时相邻请求间的固定间隔，避免触发节点限流
const ensRequestDelay = 50 * time.Millisecond

// Resolver 尽力而为的 ENS 反向解析，仅用于展示。
// 解析结果（包括“查不到”）在进程生命周期内缓存，失败不会影响外层请求。
type Resolver struct {
	contracts *chain.ContractReader
	cache     *gocache.Cache
	tl        *zap.Logger
}

func NewResolver(contracts *chain.ContractReader, logger *zap.Logger) *Resolver {
	return &Resolver{
		contracts: contracts,
		cache:     gocache.New(gocache.NoExpiration, 0),
		tl:        logger,
	}
}

// Resolve 反解单个地址，查不到或失败返回空串，从不报错
func (r *Resolver) Resolve(ctx context.Context, addr common.Address) string {
	key := strings.ToLower(addr.Hex())

	if cached, found := r.cache.Get(key); found {
		monitor.ENSLookups.WithLabelValues("cached").Inc()
		if name, ok := cached.(string); ok {
			return name
		}
		return ""
	}

	name, err := r.contracts.ResolveName(ctx, addr)
	if err != nil {
		// 失败也缓存空结果，同一地址不再重复失败的网络调用
		r.tl.Debug("ens lookup failed", zap.String("address", key), zap.Error(err))
		r.cache.SetDefault(key, "")
		monitor.ENSLookups.WithLabelValues("miss").Inc()
		return ""
	}

	r.cache.SetDefault(key, name)
	if name == "" {
		monitor.ENSLookups.WithLabelValues("miss").Inc()
	} else {
		monitor.ENSLookups.WithLabelValues("resolved").Inc()
	}
	return name
}

// ResolveBatch 顺序反解一组地址（去重、限速），返回小写地址到名字的映射
func (r *Resolver) ResolveBatch(ctx context.Context, addrs []common.Address) map[string]string {
	results := make(map[string]string)
	seen := make(map[common.Address]bool)

	for _, addr := range addrs {
		if seen[addr] {
			continue
		}
		seen[addr] = true

		key := strings.ToLower(addr.Hex())
		if cached, found := r.cache.Get(key); found {
			if name, ok := cached.(string); ok {
				results[key] = name
			}
			continue
		}

		select {
		case <-time.After(ensRequestDelay):
		case <-ctx.Done():
			return results
		}
		results[key] = r.Resolve(ctx, addr)
	}

	return results
}
