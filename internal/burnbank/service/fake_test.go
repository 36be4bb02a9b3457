package service

import (
	"bytes"
	"context"
	"math/big"
	"sync/atomic"

	"burnbank-stats/internal/burnbank/cache"
	"burnbank-stats/internal/burnbank/chain"
	"burnbank-stats/internal/burnbank/config"
	"burnbank-stats/internal/burnbank/model"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// 32 字节零字。ENS 注册表查询命中它时解析为空 resolver，反解安静失败。
var zeroWord = make([]byte, 32)

// fakeReader 测试用链上读取实现，各方法可按用例注入
type fakeReader struct {
	blockNumber    uint64
	blockNumberErr error
	logs           func(q ethereum.FilterQuery) ([]types.Log, error)
	call           func(msg ethereum.CallMsg) ([]byte, error)
	balance        func(account common.Address) (*big.Int, error)
	header         func(number *big.Int) (*types.Header, error)

	filterCalls int64
	callCalls   int64
}

func (f *fakeReader) BlockNumber(ctx context.Context) (uint64, error) {
	return f.blockNumber, f.blockNumberErr
}

func (f *fakeReader) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	atomic.AddInt64(&f.filterCalls, 1)
	if f.logs == nil {
		return nil, nil
	}
	return f.logs(q)
}

func (f *fakeReader) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	atomic.AddInt64(&f.callCalls, 1)
	if f.call == nil {
		return zeroWord, nil
	}
	return f.call(msg)
}

func (f *fakeReader) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if f.balance == nil {
		return new(big.Int), nil
	}
	return f.balance(account)
}

func (f *fakeReader) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if f.header == nil {
		return &types.Header{Number: number, Time: 1_700_000_000}, nil
	}
	return f.header(number)
}

func selectorOf(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

func hasSelector(msg ethereum.CallMsg, signature string) bool {
	return len(msg.Data) >= 4 && bytes.Equal(msg.Data[:4], selectorOf(signature))
}

func uint256Ret(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func tokens18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func transferLog(from, to common.Address, value *big.Int, block uint64) types.Log {
	return types.Log{
		Topics: []common.Hash{
			chain.TransferTopic,
			common.BytesToHash(common.LeftPadBytes(from.Bytes(), 32)),
			common.BytesToHash(common.LeftPadBytes(to.Bytes(), 32)),
		},
		Data:        common.LeftPadBytes(value.Bytes(), 32),
		BlockNumber: block,
		TxHash:      crypto.Keccak256Hash(big.NewInt(int64(block)).Bytes(), value.Bytes()),
	}
}

func userAmountLog(topic common.Hash, user common.Address, amount *big.Int, block uint64) types.Log {
	return types.Log{
		Topics: []common.Hash{
			topic,
			common.BytesToHash(common.LeftPadBytes(user.Bytes(), 32)),
		},
		Data:        common.LeftPadBytes(amount.Bytes(), 32),
		BlockNumber: block,
		TxHash:      crypto.Keccak256Hash(topic.Bytes(), user.Bytes(), big.NewInt(int64(block)).Bytes()),
	}
}

func testToken() *model.Token {
	return &model.Token{
		ID:              "shi",
		Name:            "Shina Inu",
		Symbol:          "SHI",
		ContractAddress: "0x243cacb4d1227a1e7d3a3d8a8ef047d50d7b0303",
		BurnAddresses:   []string{"0x000000000000000000000000000000000000dead"},
		Decimals:        18,
		TotalSupply:     100_000,
		ChainID:         1,
	}
}

func testBankToken() *model.Token {
	token := testToken()
	token.BankAddress = "0xb1511dfe1ad2406de19109350d172fe1d7bbcdd9"
	token.BankStartBlock = 100
	return token
}

func newTestBurnStats(reader chain.Reader, features config.FeatureConfig) *BurnStatsService {
	logger := zap.NewNop()
	contracts := chain.NewContractReader(reader)
	fetcher := chain.NewLogFetcher(reader, nil, logger)
	rcache := cache.NewResultCache(cache.NewMemoryStore(), logger)
	ens := NewResolver(contracts, logger)
	price := NewPriceService(config.OracleConfig{
		PriceOracleAddress: "0xf86bff1a3ec62175de2c6395214323c566354315",
		EthUsdFeedAddress:  "0x5f4ec3df9cbd43714fe2740f5e3616155c5b8419",
	}, contracts, rcache, logger)
	return NewBurnStatsService(features, reader, contracts, fetcher, ens, price, rcache, logger)
}

func newTestBank(reader chain.Reader) *BankService {
	logger := zap.NewNop()
	contracts := chain.NewContractReader(reader)
	fetcher := chain.NewLogFetcher(reader, nil, logger)
	rcache := cache.NewResultCache(cache.NewMemoryStore(), logger)
	ens := NewResolver(contracts, logger)
	price := NewPriceService(config.OracleConfig{
		PriceOracleAddress: "0xf86bff1a3ec62175de2c6395214323c566354315",
		EthUsdFeedAddress:  "0x5f4ec3df9cbd43714fe2740f5e3616155c5b8419",
	}, contracts, rcache, logger)
	return NewBankService(reader, contracts, fetcher, ens, price, rcache, logger)
}
