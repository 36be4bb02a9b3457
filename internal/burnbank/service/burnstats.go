package service

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"burnbank-stats/internal/burnbank/cache"
	"burnbank-stats/internal/burnbank/chain"
	"burnbank-stats/internal/burnbank/config"
	"burnbank-stats/internal/burnbank/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// 按固定出块时间近似换算区块距离与时间跨度（12 秒一块）。
// 这是刻意保留的近似：桶边界随真实出块间隔漂移，
// 换成逐块时间戳会改变桶边界、破坏历史图表的一致性。
const (
	blocksPerDay  uint64 = 7200
	blocksPerHour uint64 = blocksPerDay / 24
)

const (
	dayKeyFormat    = "Jan 2"
	hourKeyFormat   = "2006-01-02T15"
	hourLabelFormat = "03:04 PM"
	txDateFormat    = "01/02/2006, 03:04 PM"
	recentTxLimit   = 20
	minStatsWindow  = 7 // 统计口径至少看 7 天，与图表窗口无关
)

// BurnStatsService 燃烧统计引擎：实时余额快照 + 历史日志聚合
type BurnStatsService struct {
	reader    chain.Reader
	contracts *chain.ContractReader
	fetcher   *chain.LogFetcher
	ens       *Resolver
	price     *PriceService
	rcache    *cache.ResultCache
	features  config.FeatureConfig
	tl        *zap.Logger
	now       func() time.Time
}

func NewBurnStatsService(
	features config.FeatureConfig,
	reader chain.Reader,
	contracts *chain.ContractReader,
	fetcher *chain.LogFetcher,
	ens *Resolver,
	price *PriceService,
	rcache *cache.ResultCache,
	logger *zap.Logger,
) *BurnStatsService {
	return &BurnStatsService{
		reader:    reader,
		contracts: contracts,
		fetcher:   fetcher,
		ens:       ens,
		price:     price,
		rcache:    rcache,
		features:  features,
		tl:        logger,
		now:       time.Now,
	}
}

// BurnedBalance 当前已燃烧余额：各燃烧地址 balanceOf 之和（并发读取）
func (s *BurnStatsService) BurnedBalance(ctx context.Context, token *model.Token) (*big.Int, error) {
	var (
		mu    sync.Mutex
		total = new(big.Int)
	)

	p := pool.New().WithErrors().WithContext(ctx)
	for _, addr := range token.BurnAddrs() {
		addr := addr
		p.Go(func(ctx context.Context) error {
			balance, err := s.contracts.BalanceOf(ctx, token.Contract(), addr)
			if err != nil {
				return err
			}
			mu.Lock()
			total.Add(total, balance)
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("fetch burned balance: %w", err)
	}
	return total, nil
}

// fetchBurnLogs 抓取窗口内所有燃烧地址的 Transfer 入账日志
func (s *BurnStatsService) fetchBurnLogs(ctx context.Context, token *model.Token, latestBlock uint64, days int) ([]model.BurnTransfer, error) {
	totalBlocks := blocksPerDay * uint64(days)
	var fromBlock uint64
	if latestBlock > totalBlocks {
		fromBlock = latestBlock - totalBlocks
	}

	var all []model.BurnTransfer
	for _, burnAddr := range token.BurnAddrs() {
		logs, err := s.fetcher.FetchRange(ctx, chain.TransferToQuery(token.Contract(), burnAddr), fromBlock, latestBlock)
		if err != nil {
			return nil, fmt.Errorf("fetch burn logs for %s: %w", burnAddr.Hex(), err)
		}
		for _, log := range logs {
			transfer, err := chain.DecodeBurnTransfer(log)
			if err != nil {
				s.tl.Warn("skipping undecodable transfer log", zap.Error(err))
				continue
			}
			all = append(all, transfer)
		}
	}
	return all, nil
}

// aggregateByDay 按自然日分桶（桶内累计保持 big.Int 精确）
func (s *BurnStatsService) aggregateByDay(transfers []model.BurnTransfer, latestBlock uint64, days int) map[string]*big.Int {
	now := s.now()
	buckets := make(map[string]*big.Int, days)
	for i := 0; i < days; i++ {
		key := now.AddDate(0, 0, -i).Format(dayKeyFormat)
		buckets[key] = new(big.Int)
	}

	for _, t := range transfers {
		blocksAgo := latestBlock - t.BlockNumber
		daysAgo := int(blocksAgo / blocksPerDay)
		if daysAgo >= days {
			continue
		}
		key := now.AddDate(0, 0, -daysAgo).Format(dayKeyFormat)
		if bucket, ok := buckets[key]; ok {
			bucket.Add(bucket, t.Value)
		}
	}
	return buckets
}

// aggregateByHour 1 天窗口按小时分桶
func (s *BurnStatsService) aggregateByHour(transfers []model.BurnTransfer, latestBlock uint64) map[string]*big.Int {
	now := s.now()
	buckets := make(map[string]*big.Int, 24)
	for i := 0; i < 24; i++ {
		key := now.Add(-time.Duration(i) * time.Hour).Truncate(time.Hour).Format(hourKeyFormat)
		buckets[key] = new(big.Int)
	}

	for _, t := range transfers {
		blocksAgo := latestBlock - t.BlockNumber
		hoursAgo := int(blocksAgo / blocksPerHour)
		if hoursAgo >= 24 {
			continue
		}
		key := now.Add(-time.Duration(hoursAgo) * time.Hour).Truncate(time.Hour).Format(hourKeyFormat)
		if bucket, ok := buckets[key]; ok {
			bucket.Add(bucket, t.Value)
		}
	}
	return buckets
}

// chartData 组装图表序列：1 天窗口按小时、其余按自然日，缺桶补零
func (s *BurnStatsService) chartData(daily, hourly map[string]*big.Int, days int, decimals int32) []model.BurnDataPoint {
	now := s.now()
	var points []model.BurnDataPoint

	if days == 1 {
		for i := 23; i >= 0; i-- {
			t := now.Add(-time.Duration(i) * time.Hour).Truncate(time.Hour)
			value := hourly[t.Format(hourKeyFormat)]
			points = append(points, model.BurnDataPoint{
				Date:        t.Format(hourLabelFormat),
				TotalBurned: toUnits(value, decimals),
			})
		}
		return points
	}

	for i := days - 1; i >= 0; i-- {
		key := now.AddDate(0, 0, -i).Format(dayKeyFormat)
		points = append(points, model.BurnDataPoint{
			Date:        key,
			TotalBurned: toUnits(daily[key], decimals),
		})
	}
	return points
}

// transactions 最近的燃烧转账，补上区块时间戳与 ENS 名字
func (s *BurnStatsService) transactions(ctx context.Context, transfers []model.BurnTransfer, token *model.Token, limit int) []model.BurnTransaction {
	sorted := make([]model.BurnTransfer, len(transfers))
	copy(sorted, transfers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BlockNumber > sorted[j].BlockNumber
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	if len(sorted) == 0 {
		return nil
	}

	// 并发取各区块时间戳，单块失败只影响对应条目
	uniqueBlocks := make(map[uint64]bool)
	for _, t := range sorted {
		uniqueBlocks[t.BlockNumber] = true
	}

	var mu sync.Mutex
	timestamps := make(map[uint64]time.Time)
	p := pool.New().WithContext(ctx)
	for block := range uniqueBlocks {
		block := block
		p.Go(func(ctx context.Context) error {
			header, err := s.reader.HeaderByNumber(ctx, new(big.Int).SetUint64(block))
			if err != nil {
				s.tl.Debug("block header fetch failed", zap.Uint64("block", block), zap.Error(err))
				return nil
			}
			mu.Lock()
			timestamps[block] = time.Unix(int64(header.Time), 0)
			mu.Unlock()
			return nil
		})
	}
	_ = p.Wait()

	var fromAddrs []common.Address
	for _, t := range sorted {
		fromAddrs = append(fromAddrs, t.From)
	}
	ensNames := s.ens.ResolveBatch(ctx, fromAddrs)

	var txs []model.BurnTransaction
	for _, t := range sorted {
		ts, ok := timestamps[t.BlockNumber]
		if !ok {
			continue
		}
		txs = append(txs, model.BurnTransaction{
			TxHash:  t.TxHash.Hex(),
			Date:    ts.Format(txDateFormat),
			Amount:  toUnits(t.Value, token.Decimals),
			From:    strings.ToLower(t.From.Hex()),
			FromENS: ensNames[strings.ToLower(t.From.Hex())],
		})
	}
	return txs
}

// FetchAllBurnData 单代币燃烧数据全量聚合：统计 + 图表 + 交易 + USD 价格。
// days 为图表窗口；统计口径固定至少 7 天。默认 7 天窗口的结果缓存 5 分钟。
func (s *BurnStatsService) FetchAllBurnData(ctx context.Context, token *model.Token, days int) (*model.BurnData, error) {
	if days <= 0 {
		days = minStatsWindow
	}

	if days == minStatsWindow {
		if cached := cache.Get[model.BurnData](ctx, s.rcache, token.ID, cache.MetricBurns); cached != nil {
			return &cached.Data, nil
		}
	}

	burnedBalance, err := s.BurnedBalance(ctx, token)
	if err != nil {
		return nil, err
	}
	totalBurned := toUnits(burnedBalance, token.Decimals)

	fetchDays := days
	if fetchDays < minStatsWindow {
		fetchDays = minStatsWindow
	}

	latestBlock, err := s.reader.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch latest block: %w", err)
	}

	transfers, err := s.fetchBurnLogs(ctx, token, latestBlock, fetchDays)
	if err != nil {
		return nil, err
	}

	daily := s.aggregateByDay(transfers, latestBlock, fetchDays)
	var hourly map[string]*big.Int
	if days == 1 {
		hourly = s.aggregateByHour(transfers, latestBlock)
	}

	var txs []model.BurnTransaction
	if s.features.FetchTransactions {
		txs = s.transactions(ctx, transfers, token, recentTxLimit)
	}

	var priceUSD *float64
	if s.features.FetchPrices {
		priceUSD = s.price.TokenPriceUSD(ctx, token)
	}

	now := s.now()
	burnedToday := toUnits(daily[now.Format(dayKeyFormat)], token.Decimals)

	burned7d := new(big.Int)
	for i := 0; i < minStatsWindow; i++ {
		key := now.AddDate(0, 0, -i).Format(dayKeyFormat)
		if bucket, ok := daily[key]; ok {
			burned7d.Add(burned7d, bucket)
		}
	}

	burnedYesterday := toUnits(daily[now.AddDate(0, 0, -1).Format(dayKeyFormat)], token.Decimals)
	var burnRateChange *float64
	if burnedYesterday > 0 {
		change := (burnedToday - burnedYesterday) / burnedYesterday * 100
		burnRateChange = &change
	}

	totalSupply := float64(token.TotalSupply)
	var burnPercentage float64
	if totalSupply > 0 {
		burnPercentage = totalBurned / totalSupply * 100
	}

	data := &model.BurnData{
		Stats: model.BurnStats{
			TotalBurned:    totalBurned,
			TotalSupply:    totalSupply,
			BurnedToday:    burnedToday,
			Burned7d:       toUnits(burned7d, token.Decimals),
			BurnPercentage: burnPercentage,
			BurnRateChange: burnRateChange,
		},
		ChartData:    s.chartData(daily, hourly, days, token.Decimals),
		Transactions: txs,
		PriceUSD:     priceUSD,
	}

	if days == minStatsWindow {
		cache.Put(ctx, s.rcache, token.ID, cache.MetricBurns, *data, latestBlock)
	}
	return data, nil
}
