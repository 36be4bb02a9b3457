package burnbank

import (
	"context"
	"fmt"
	"time"

	"burnbank-stats/internal/burnbank/cache"
	"burnbank-stats/internal/burnbank/chain"
	"burnbank-stats/internal/burnbank/config"
	"burnbank-stats/internal/burnbank/job"
	"burnbank-stats/internal/burnbank/model"
	"burnbank-stats/internal/burnbank/monitor"
	"burnbank-stats/internal/burnbank/server"
	"burnbank-stats/internal/burnbank/service"

	"go.uber.org/zap"
)

// 缓存预热周期与统计类指标的 TTL 对齐
const refreshInterval = 5 * time.Minute

type Core struct {
	cfg       config.Config
	tl        *zap.Logger
	provider  *chain.Provider
	store     cache.Store
	scheduler *job.Scheduler
	api       *server.Server
	metrics   *monitor.MetricsServer
}

func New(cfg config.Config, logger *zap.Logger) (*Core, error) {
	// 代币注册表，配置即全集
	tokens := make([]model.Token, 0, len(cfg.Tokens))
	for _, tc := range cfg.Tokens {
		tokens = append(tokens, model.Token{
			ID:              tc.ID,
			Name:            tc.Name,
			Symbol:          tc.Symbol,
			ContractAddress: tc.ContractAddress,
			BurnAddresses:   tc.BurnAddresses,
			Decimals:        tc.Decimals,
			TotalSupply:     tc.TotalSupply,
			ChainID:         tc.ChainID,
			BankAddress:     tc.BankAddress,
			BankStartBlock:  tc.BankStartBlock,
			PoolAddress:     tc.PoolAddress,
		})
	}
	registry := model.NewRegistry(tokens)

	// 链上访问层
	provider := chain.NewProvider(cfg.RPC, logger)
	contracts := chain.NewContractReader(provider)
	fetcher := chain.NewLogFetcher(provider, cfg.RPC.ChunkSizes, logger)

	// 结果缓存，后端按配置选择
	store, err := newStore(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("init cache store: %w", err)
	}
	rcache := cache.NewResultCache(store, logger)

	// 聚合服务层
	ens := service.NewResolver(contracts, logger)
	price := service.NewPriceService(cfg.Oracle, contracts, rcache, logger)
	holders := service.NewHolderService(cfg.Ethplorer, rcache, logger)
	burns := service.NewBurnStatsService(cfg.Features, provider, contracts, fetcher, ens, price, rcache, logger)
	bank := service.NewBankService(provider, contracts, fetcher, ens, price, rcache, logger)

	// 缓存预热作业
	scheduler := job.NewScheduler(logger)
	if cfg.Refresh.Enable {
		refresh := job.NewRefresh(registry, burns, bank, logger)
		scheduler.RegisterJob("burns_refresh", refreshInterval, refresh.RunBurns)
		scheduler.RegisterJob("bank_refresh", refreshInterval, refresh.RunBank)
	}

	api := server.New(cfg.Server, registry, burns, bank, holders, rcache, logger)

	return &Core{
		cfg:       cfg,
		tl:        logger,
		provider:  provider,
		store:     store,
		scheduler: scheduler,
		api:       api,
		metrics:   monitor.NewMetricsServer(cfg.Monitor),
	}, nil
}

func newStore(cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return cache.NewMemoryStore(), nil
	case "redis":
		return cache.NewRedisStore(cfg.Redis), nil
	case "postgres":
		return cache.NewPostgresStore(cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting burnbank core...")

	// 启动监控服务
	if c.metrics != nil {
		c.metrics.Run()
	}

	// 启动调度器
	c.scheduler.Start(ctx)

	// 启动 HTTP API
	go func() {
		if err := c.api.Run(); err != nil {
			c.tl.Error("API server exited", zap.Error(err))
		}
	}()

	c.tl.Info("Burnbank core started successfully")

	// 等待外部关闭信号
	<-ctx.Done()
	c.tl.Info("Shutting down due to context cancellation...")
}

// Stop 优雅关闭 Core 的所有资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping burnbank core...")

	if err := c.api.Stop(ctx); err != nil {
		c.tl.Error("API server shutdown failed", zap.Error(err))
	}

	if c.scheduler != nil {
		c.scheduler.Stop(ctx)
	}

	if c.metrics != nil {
		_ = c.metrics.Stop(ctx)
	}

	if closer, ok := c.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	c.provider.Close()

	c.tl.Info("Burnbank core stopped.")
}
