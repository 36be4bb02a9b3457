package service

import (
	"context"

	"burnbank-stats/internal/burnbank/cache"
	"burnbank-stats/internal/burnbank/chain"
	"burnbank-stats/internal/burnbank/config"
	"burnbank-stats/internal/burnbank/model"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// PriceService 把链上代币金额换算成 USD。
// 任一步读取失败或代币没有配置流动性池时返回 nil（不是错误）——
// 调用方应把 nil 当作“无法换算”，省略 USD 展示而不是显示 0。
type PriceService struct {
	contracts  *chain.ContractReader
	rcache     *cache.ResultCache
	oracle     common.Address
	ethUsdFeed common.Address
	tl         *zap.Logger
}

func NewPriceService(cfg config.OracleConfig, contracts *chain.ContractReader, rcache *cache.ResultCache, logger *zap.Logger) *PriceService {
	return &PriceService{
		contracts:  contracts,
		rcache:     rcache,
		oracle:     common.HexToAddress(cfg.PriceOracleAddress),
		ethUsdFeed: common.HexToAddress(cfg.EthUsdFeedAddress),
		tl:         logger,
	}
}

// TokenPriceUSD 代币 USD 价格：price(pool) 得到 WETH 计价，再乘 ETH/USD
func (s *PriceService) TokenPriceUSD(ctx context.Context, token *model.Token) *float64 {
	if !token.HasPool() {
		return nil
	}

	priceInWeth, err := s.contracts.PoolPrice(ctx, s.oracle, token.Pool())
	if err != nil {
		s.tl.Debug("pool price read failed", zap.String("token", token.ID), zap.Error(err))
		return nil
	}

	ethUsd := s.EthPriceUSD(ctx)
	if ethUsd == nil {
		return nil
	}

	price := toEth(priceInWeth) * (*ethUsd)
	return &price
}

// EthPriceUSD Chainlink ETH/USD 喂价（8 位小数），全局缓存 5 分钟
func (s *PriceService) EthPriceUSD(ctx context.Context) *float64 {
	if cached := cache.Get[float64](ctx, s.rcache, cache.GlobalTokenID, cache.MetricEthPrice); cached != nil {
		return &cached.Data
	}

	answer, err := s.contracts.LatestAnswer(ctx, s.ethUsdFeed)
	if err != nil {
		s.tl.Debug("eth/usd feed read failed", zap.Error(err))
		return nil
	}

	price := toUnits(answer, 8)
	cache.Put(ctx, s.rcache, cache.GlobalTokenID, cache.MetricEthPrice, price, 0)
	return &price
}
