package service

import (
	"context"
	"fmt"
	"time"

	"burnbank-stats/internal/burnbank/cache"
	"burnbank-stats/internal/burnbank/config"
	"burnbank-stats/internal/burnbank/model"
	"burnbank-stats/internal/burnbank/monitor"
	"burnbank-stats/pkg/httpclient"

	"go.uber.org/zap"
)

// ethplorerTokenInfo Ethplorer getTokenInfo 响应（只取需要的字段）
type ethplorerTokenInfo struct {
	Address      string `json:"address"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	HoldersCount int64  `json:"holdersCount"`
}

// HolderService 通过 Ethplorer API 查询代币持有人数量。
// 未配置 API key 或查询失败时返回 nil（持有人数量是可选展示项）。
type HolderService struct {
	cfg    config.EthplorerConfig
	http   *httpclient.HTTPClient
	rcache *cache.ResultCache
	tl     *zap.Logger
}

func NewHolderService(cfg config.EthplorerConfig, rcache *cache.ResultCache, logger *zap.Logger) *HolderService {
	httpClient := httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
		Timeout:    time.Duration(cfg.Timeout) * time.Second,
		RateLimit:  cfg.RateLimit,
		MaxRetries: 2,
	}, logger)

	return &HolderService{
		cfg:    cfg,
		http:   httpClient,
		rcache: rcache,
		tl:     logger,
	}
}

// HolderCount 当前持有人数量，1 小时缓存
func (s *HolderService) HolderCount(ctx context.Context, token *model.Token) *int64 {
	if s.cfg.APIKey == "" {
		return nil
	}

	if cached := cache.Get[int64](ctx, s.rcache, token.ID, cache.MetricHolders); cached != nil {
		return &cached.Data
	}

	url := fmt.Sprintf("%s/getTokenInfo/%s", s.cfg.BaseURL, token.ContractAddress)
	var info ethplorerTokenInfo
	err := s.http.Get(ctx, url, map[string]string{"apiKey": s.cfg.APIKey}, nil, &info)
	if err != nil {
		monitor.HolderAPIRequests.WithLabelValues("error").Inc()
		s.tl.Debug("holder count fetch failed", zap.String("token", token.ID), zap.Error(err))
		return nil
	}

	if info.HoldersCount <= 0 {
		monitor.HolderAPIRequests.WithLabelValues("empty").Inc()
		return nil
	}

	monitor.HolderAPIRequests.WithLabelValues("ok").Inc()
	cache.Put(ctx, s.rcache, token.ID, cache.MetricHolders, info.HoldersCount, 0)
	return &info.HoldersCount
}
