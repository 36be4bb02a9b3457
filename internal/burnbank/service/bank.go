package service

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"burnbank-stats/internal/burnbank/aggregate"
	"burnbank-stats/internal/burnbank/cache"
	"burnbank-stats/internal/burnbank/chain"
	"burnbank-stats/internal/burnbank/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	defaultLeaderboardLimit = 10
	winnerDateFormat        = "Jan 2, 2006"
)

// BankService 质押/捐赠/奖励（燃烧银行）数据服务。
// 排行榜从合约部署块起回放事件流重建，结果按指标 TTL 缓存。
type BankService struct {
	reader    chain.Reader
	contracts *chain.ContractReader
	fetcher   *chain.LogFetcher
	ens       *Resolver
	price     *PriceService
	rcache    *cache.ResultCache
	tl        *zap.Logger
}

func NewBankService(
	reader chain.Reader,
	contracts *chain.ContractReader,
	fetcher *chain.LogFetcher,
	ens *Resolver,
	price *PriceService,
	rcache *cache.ResultCache,
	logger *zap.Logger,
) *BankService {
	return &BankService{
		reader:    reader,
		contracts: contracts,
		fetcher:   fetcher,
		ens:       ens,
		price:     price,
		rcache:    rcache,
		tl:        logger,
	}
}

// Stats 银行合约视图函数快照，5 分钟缓存。未配置银行合约返回 nil。
func (s *BankService) Stats(ctx context.Context, token *model.Token) (*model.BankStats, error) {
	if !token.HasBank() {
		return nil, nil
	}

	if cached := cache.Get[model.BankStats](ctx, s.rcache, token.ID, cache.MetricStats); cached != nil {
		return &cached.Data, nil
	}

	views, err := s.contracts.ReadBankViews(ctx, token.Bank())
	if err != nil {
		return nil, fmt.Errorf("read bank views for %s: %w", token.ID, err)
	}

	stats := model.BankStats{
		TotalStaked:        toUnits(views.TotalStk, token.Decimals),
		TotalGiven:         toEth(views.TotalGvn),
		TotalBurnedViaBank: toUnits(views.TotalBurned, token.Decimals),
		EpochInterval:      views.EpochInterval,
		CurrentEpochStart:  views.StartBlock,
		CharityAddress:     views.Dest.Hex(),
	}

	latestBlock, _ := s.reader.BlockNumber(ctx)
	cache.Put(ctx, s.rcache, token.ID, cache.MetricStats, stats, latestBlock)
	return &stats, nil
}

func (s *BankService) fetchBankEvents(ctx context.Context, token *model.Token, topic common.Hash, latestBlock uint64) ([]types.Log, error) {
	return s.fetcher.FetchRange(ctx, chain.EventQuery(token.Bank(), topic), token.BankStartBlock, latestBlock)
}

// TopStakers 质押排行榜：Staked 累加、Withdrew 扣减，30 分钟缓存
func (s *BankService) TopStakers(ctx context.Context, token *model.Token, limit int) (*model.Leaderboard[model.TopStaker], error) {
	if !token.HasBank() {
		return &model.Leaderboard[model.TopStaker]{}, nil
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	if cached := cache.Get[model.Leaderboard[model.TopStaker]](ctx, s.rcache, token.ID, cache.MetricStakers); cached != nil {
		return &cached.Data, nil
	}

	latestBlock, err := s.reader.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch latest block: %w", err)
	}

	// Staked 与 Withdrew 两条事件流并发抓取
	var stakedLogs, withdrewLogs []types.Log
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) (err error) {
		stakedLogs, err = s.fetchBankEvents(ctx, token, chain.StakedTopic, latestBlock)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		withdrewLogs, err = s.fetchBankEvents(ctx, token, chain.WithdrewTopic, latestBlock)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("fetch staking events for %s: %w", token.ID, err)
	}

	increments := make([]aggregate.Delta, 0, len(stakedLogs))
	for _, log := range stakedLogs {
		ev, err := chain.DecodeStaked(log)
		if err != nil {
			s.tl.Warn("skipping undecodable staked log", zap.Error(err))
			continue
		}
		increments = append(increments, aggregate.Delta{Address: ev.User, Amount: ev.Amount})
	}
	decrements := make([]aggregate.Delta, 0, len(withdrewLogs))
	for _, log := range withdrewLogs {
		ev, err := chain.DecodeWithdrew(log)
		if err != nil {
			s.tl.Warn("skipping undecodable withdrew log", zap.Error(err))
			continue
		}
		decrements = append(decrements, aggregate.Delta{Address: ev.User, Amount: ev.Amount})
	}

	ranked, activeCount := aggregate.Rank(aggregate.Fold(increments, decrements), limit)

	var addrs []common.Address
	for _, r := range ranked {
		addrs = append(addrs, r.Address)
	}
	ensNames := s.ens.ResolveBatch(ctx, addrs)

	board := model.Leaderboard[model.TopStaker]{ActiveCount: activeCount}
	for _, r := range ranked {
		addr := strings.ToLower(r.Address.Hex())
		board.Entries = append(board.Entries, model.TopStaker{
			Rank:         r.Rank,
			Address:      addr,
			ENSName:      ensNames[addr],
			StakedAmount: toUnits(r.Amount, token.Decimals),
			StakeCount:   r.Count,
		})
	}

	cache.Put(ctx, s.rcache, token.ID, cache.MetricStakers, board, latestBlock)
	return &board, nil
}

// TopDonors 捐赠排行榜（Gave 事件，无扣减流），金额单位 ETH，30 分钟缓存
func (s *BankService) TopDonors(ctx context.Context, token *model.Token, limit int) (*model.Leaderboard[model.TopDonor], error) {
	if !token.HasBank() {
		return &model.Leaderboard[model.TopDonor]{}, nil
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	if cached := cache.Get[model.Leaderboard[model.TopDonor]](ctx, s.rcache, token.ID, cache.MetricDonors); cached != nil {
		return &cached.Data, nil
	}

	latestBlock, err := s.reader.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch latest block: %w", err)
	}

	gaveLogs, err := s.fetchBankEvents(ctx, token, chain.GaveTopic, latestBlock)
	if err != nil {
		return nil, fmt.Errorf("fetch donation events for %s: %w", token.ID, err)
	}

	increments := make([]aggregate.Delta, 0, len(gaveLogs))
	for _, log := range gaveLogs {
		ev, err := chain.DecodeGave(log)
		if err != nil {
			s.tl.Warn("skipping undecodable gave log", zap.Error(err))
			continue
		}
		increments = append(increments, aggregate.Delta{Address: ev.User, Amount: ev.Amount})
	}

	ranked, activeCount := aggregate.Rank(aggregate.Fold(increments, nil), limit)

	var addrs []common.Address
	for _, r := range ranked {
		addrs = append(addrs, r.Address)
	}
	ensNames := s.ens.ResolveBatch(ctx, addrs)

	board := model.Leaderboard[model.TopDonor]{ActiveCount: activeCount}
	for _, r := range ranked {
		addr := strings.ToLower(r.Address.Hex())
		board.Entries = append(board.Entries, model.TopDonor{
			Rank:          r.Rank,
			Address:       addr,
			ENSName:       ensNames[addr],
			TotalGiven:    toEth(r.Amount),
			DonationCount: r.Count,
		})
	}

	cache.Put(ctx, s.rcache, token.ID, cache.MetricDonors, board, latestBlock)
	return &board, nil
}

// RecentWinners 最近的奖励获得者（Rwd 事件），按区块号降序，24 小时缓存
func (s *BankService) RecentWinners(ctx context.Context, token *model.Token, limit int) ([]model.Winner, error) {
	if !token.HasBank() {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	if cached := cache.Get[[]model.Winner](ctx, s.rcache, token.ID, cache.MetricWinners); cached != nil {
		return cached.Data, nil
	}

	latestBlock, err := s.reader.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch latest block: %w", err)
	}

	rwdLogs, err := s.fetchBankEvents(ctx, token, chain.RwdTopic, latestBlock)
	if err != nil {
		return nil, fmt.Errorf("fetch reward events for %s: %w", token.ID, err)
	}

	events := make([]model.RwdEvent, 0, len(rwdLogs))
	for _, log := range rwdLogs {
		ev, err := chain.DecodeRwd(log)
		if err != nil {
			s.tl.Warn("skipping undecodable rwd log", zap.Error(err))
			continue
		}
		events = append(events, ev)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].BlockNumber > events[j].BlockNumber
	})
	if len(events) > limit {
		events = events[:limit]
	}
	if len(events) == 0 {
		return nil, nil
	}

	// 并发取区块时间戳，单块失败只缺对应条目的日期
	uniqueBlocks := make(map[uint64]bool)
	for _, ev := range events {
		uniqueBlocks[ev.BlockNumber] = true
	}
	var mu sync.Mutex
	timestamps := make(map[uint64]time.Time)
	bp := pool.New().WithContext(ctx)
	for block := range uniqueBlocks {
		block := block
		bp.Go(func(ctx context.Context) error {
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
	_ = bp.Wait()

	var addrs []common.Address
	for _, ev := range events {
		addrs = append(addrs, ev.User)
	}
	ensNames := s.ens.ResolveBatch(ctx, addrs)

	var winners []model.Winner
	for _, ev := range events {
		addr := strings.ToLower(ev.User.Hex())
		winner := model.Winner{
			Address:     addr,
			ENSName:     ensNames[addr],
			Reward:      toEth(ev.Amount),
			BlockNumber: ev.BlockNumber,
			TxHash:      ev.TxHash.Hex(),
		}
		if ts, ok := timestamps[ev.BlockNumber]; ok {
			winner.Date = ts.Format(winnerDateFormat)
		}
		winners = append(winners, winner)
	}

	cache.Put(ctx, s.rcache, token.ID, cache.MetricWinners, winners, latestBlock)
	return winners, nil
}

// RewardsPoolETH 银行合约当前的 ETH 余额（奖池），失败按 0 处理
func (s *BankService) RewardsPoolETH(ctx context.Context, token *model.Token) float64 {
	if !token.HasBank() {
		return 0
	}
	balance, err := s.reader.BalanceAt(ctx, token.Bank(), nil)
	if err != nil {
		s.tl.Debug("bank eth balance fetch failed", zap.String("token", token.ID), zap.Error(err))
		return 0
	}
	return toEth(balance)
}

// All 并发聚合单代币的全部银行数据。未配置银行合约返回 nil。
func (s *BankService) All(ctx context.Context, token *model.Token) (*model.BankData, error) {
	if !token.HasBank() {
		return nil, nil
	}

	latestBlock, err := s.reader.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch latest block: %w", err)
	}

	var (
		stats      *model.BankStats
		stakers    *model.Leaderboard[model.TopStaker]
		donors     *model.Leaderboard[model.TopDonor]
		winners    []model.Winner
		ethPrice   *float64
		rewardsETH float64
	)

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) (err error) {
		stats, err = s.Stats(ctx, token)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		stakers, err = s.TopStakers(ctx, token, defaultLeaderboardLimit)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		donors, err = s.TopDonors(ctx, token, defaultLeaderboardLimit)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		winners, err = s.RecentWinners(ctx, token, defaultLeaderboardLimit)
		return err
	})
	p.Go(func(ctx context.Context) error {
		ethPrice = s.price.EthPriceUSD(ctx) // 失败时为 nil，可选项
		return nil
	})
	p.Go(func(ctx context.Context) error {
		rewardsETH = s.RewardsPoolETH(ctx, token)
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return &model.BankData{
		Stats:             stats,
		TopStakers:        stakers.Entries,
		StakerCount:       stakers.ActiveCount,
		TopDonors:         donors.Entries,
		DonorCount:        donors.ActiveCount,
		RecentWinners:     winners,
		EthPriceUSD:       ethPrice,
		CurrentBlock:      latestBlock,
		CurrentRewardsETH: rewardsETH,
	}, nil
}
