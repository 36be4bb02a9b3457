package chain

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"burnbank-stats/internal/burnbank/monitor"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// 提供商对单次 getLogs 的区块跨度限制未知且可能很小，
// 整段失败时按递减的块大小阶梯分块重试。
var defaultChunkSizes = []uint64{10_000, 2_000, 500}

// LogQuery 一次日志抓取的合约地址与 topic 过滤条件
type LogQuery struct {
	Address common.Address
	Topics  [][]common.Hash
}

// LogFetcher 带分块降级的日志抓取器
type LogFetcher struct {
	reader     Reader
	chunkSizes []uint64
	tl         *zap.Logger
}

func NewLogFetcher(reader Reader, chunkSizes []uint64, logger *zap.Logger) *LogFetcher {
	if len(chunkSizes) == 0 {
		chunkSizes = defaultChunkSizes
	}
	return &LogFetcher{
		reader:     reader,
		chunkSizes: chunkSizes,
		tl:         logger,
	}
}

func (f *LogFetcher) buildQuery(q LogQuery, fromBlock, toBlock uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{q.Address},
		Topics:    q.Topics,
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
	}
}

// FetchRange 抓取 [fromBlock, toBlock] 内与查询匹配的全部日志。
// 先尝试整段；失败则按块大小阶梯分块，块内仍失败就二分后用下一级大小重试；
// 最小块大小仍失败时整个抓取失败——绝不静默丢弃子区间。
// 成功时结果为各子区间的并集，区间连续不重叠，无重复无缺口。
func (f *LogFetcher) FetchRange(ctx context.Context, q LogQuery, fromBlock, toBlock uint64) ([]types.Log, error) {
	if fromBlock > toBlock {
		return nil, nil
	}

	logs, err := f.reader.FilterLogs(ctx, f.buildQuery(q, fromBlock, toBlock))
	if err == nil {
		return logs, nil
	}

	f.tl.Debug("full-range getLogs failed, falling back to chunked fetch",
		zap.Uint64("from", fromBlock),
		zap.Uint64("to", toBlock),
		zap.Error(err),
	)
	return f.fetchChunked(ctx, q, fromBlock, toBlock, 0)
}

// fetchChunked 以阶梯第 level 级的块大小顺序扫过区间
func (f *LogFetcher) fetchChunked(ctx context.Context, q LogQuery, fromBlock, toBlock uint64, level int) ([]types.Log, error) {
	if fromBlock > toBlock {
		return nil, nil
	}

	size := f.chunkSizes[level]
	sizeLabel := strconv.FormatUint(size, 10)

	var all []types.Log
	for cur := fromBlock; cur <= toBlock; {
		chunkEnd := toBlock
		if cur+size-1 < toBlock {
			chunkEnd = cur + size - 1
		}

		logs, err := f.reader.FilterLogs(ctx, f.buildQuery(q, cur, chunkEnd))
		if err != nil {
			monitor.LogFetchChunks.WithLabelValues(sizeLabel, "error").Inc()
			logs, err = f.bisect(ctx, q, cur, chunkEnd, level)
			if err != nil {
				return nil, err
			}
		} else {
			monitor.LogFetchChunks.WithLabelValues(sizeLabel, "ok").Inc()
		}
		all = append(all, logs...)

		cur = chunkEnd + 1
	}

	return all, nil
}

// bisect 把失败的块一分为二，用下一级更小的块大小并发重试两半
func (f *LogFetcher) bisect(ctx context.Context, q LogQuery, fromBlock, toBlock uint64, level int) ([]types.Log, error) {
	if level >= len(f.chunkSizes)-1 {
		return nil, fmt.Errorf("getLogs failed for range [%d, %d] at minimum chunk size %d", fromBlock, toBlock, f.chunkSizes[level])
	}

	monitor.LogFetchBisections.Inc()
	mid := fromBlock + (toBlock-fromBlock)/2

	halves := [][2]uint64{{fromBlock, mid}, {mid + 1, toBlock}}
	p := pool.NewWithResults[[]types.Log]().WithContext(ctx)
	for _, h := range halves {
		h := h
		p.Go(func(ctx context.Context) ([]types.Log, error) {
			return f.fetchChunked(ctx, q, h[0], h[1], level+1)
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	var all []types.Log
	for _, logs := range results {
		all = append(all, logs...)
	}
	return all, nil
}
