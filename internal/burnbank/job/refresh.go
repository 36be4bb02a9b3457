package job

import (
	"context"

	"burnbank-stats/internal/burnbank/model"
	"burnbank-stats/internal/burnbank/service"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Refresh 缓存预热作业：周期性重算各代币的燃烧与银行聚合，
// 让页面请求大多命中温缓存。缓存 TTL 未到时重算直接命中缓存返回，开销很小。
type Refresh struct {
	registry *model.Registry
	burns    *service.BurnStatsService
	bank     *service.BankService
	tl       *zap.Logger
}

func NewRefresh(registry *model.Registry, burns *service.BurnStatsService, bank *service.BankService, logger *zap.Logger) *Refresh {
	return &Refresh{
		registry: registry,
		burns:    burns,
		bank:     bank,
		tl:       logger,
	}
}

// RunBurns 预热燃烧统计（默认 7 天窗口）
func (r *Refresh) RunBurns(ctx context.Context) error {
	p := pool.New().WithErrors().WithContext(ctx)
	for _, token := range r.registry.All() {
		token := token
		p.Go(func(ctx context.Context) error {
			_, err := r.burns.FetchAllBurnData(ctx, &token, 7)
			return err
		})
	}
	return p.Wait()
}

// RunBank 预热银行数据
func (r *Refresh) RunBank(ctx context.Context) error {
	p := pool.New().WithErrors().WithContext(ctx)
	for _, token := range r.registry.All() {
		token := token
		if !token.HasBank() {
			continue
		}
		p.Go(func(ctx context.Context) error {
			_, err := r.bank.All(ctx, &token)
			return err
		})
	}
	return p.Wait()
}
