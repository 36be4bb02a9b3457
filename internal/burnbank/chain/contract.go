package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sourcegraph/conc/pool"
)

// 视图函数选择器（函数签名 keccak 前 4 字节）
var (
	selBalanceOf     = methodID("balanceOf(address)")
	selTotalSupply   = methodID("totalSupply()")
	selPrice         = methodID("price(address)")
	selLatestAnswer  = methodID("latestAnswer()")
	selTotalStk      = methodID("totalStk()")
	selTotalGvn      = methodID("totalGvn()")
	selTotalBurned   = methodID("totalBurned()")
	selEpochInterval = methodID("epochInterval()")
	selStartBlock    = methodID("startBlock()")
	selDest          = methodID("dest()")
)

func methodID(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// callData 拼接选择器与 32 字节对齐的参数
func callData(selector []byte, args ...[]byte) []byte {
	data := make([]byte, 0, 4+32*len(args))
	data = append(data, selector...)
	for _, arg := range args {
		data = append(data, common.LeftPadBytes(arg, 32)...)
	}
	return data
}

// parseUint256 取返回数据最后 32 字节作为无符号整数
func parseUint256(data []byte) (*big.Int, error) {
	if len(data) < 32 {
		return nil, fmt.Errorf("invalid return data length: %d", len(data))
	}
	return new(big.Int).SetBytes(data[len(data)-32:]), nil
}

// parseAddress 取返回数据末尾 20 字节作为地址
func parseAddress(data []byte) (common.Address, error) {
	if len(data) < 32 {
		return common.Address{}, fmt.Errorf("invalid return data length: %d", len(data))
	}
	return common.BytesToAddress(data[len(data)-20:]), nil
}

// ContractReader 合约视图函数读取器
type ContractReader struct {
	reader Reader
}

func NewContractReader(reader Reader) *ContractReader {
	return &ContractReader{reader: reader}
}

func (r *ContractReader) call(ctx context.Context, contract common.Address, data []byte) ([]byte, error) {
	result, err := r.reader.CallContract(ctx, ethereum.CallMsg{
		To:   &contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("call contract %s failed: %w", contract.Hex(), err)
	}
	return result, nil
}

func (r *ContractReader) callUint256(ctx context.Context, contract common.Address, data []byte) (*big.Int, error) {
	result, err := r.call(ctx, contract, data)
	if err != nil {
		return nil, err
	}
	return parseUint256(result)
}

// BalanceOf ERC-20 balanceOf(account)
func (r *ContractReader) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	return r.callUint256(ctx, token, callData(selBalanceOf, account.Bytes()))
}

// TotalSupply ERC-20 totalSupply()
func (r *ContractReader) TotalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	return r.callUint256(ctx, token, callData(selTotalSupply))
}

// PoolPrice 价格预言机 price(pool)，返回 WETH 计价（1e18）
func (r *ContractReader) PoolPrice(ctx context.Context, oracle, pool common.Address) (*big.Int, error) {
	return r.callUint256(ctx, oracle, callData(selPrice, pool.Bytes()))
}

// LatestAnswer Chainlink 风格喂价 latestAnswer()（ETH/USD 为 1e8）
func (r *ContractReader) LatestAnswer(ctx context.Context, feed common.Address) (*big.Int, error) {
	return r.callUint256(ctx, feed, callData(selLatestAnswer))
}

// BankViews 银行合约视图函数快照（原始整数值）
type BankViews struct {
	TotalStk      *big.Int
	TotalGvn      *big.Int
	TotalBurned   *big.Int
	EpochInterval uint16
	StartBlock    uint64
	Dest          common.Address
}

// ReadBankViews 并发读取银行合约的全部视图函数
func (r *ContractReader) ReadBankViews(ctx context.Context, bank common.Address) (*BankViews, error) {
	var (
		views         BankViews
		epochInterval *big.Int
		startBlock    *big.Int
	)

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) (err error) {
		views.TotalStk, err = r.callUint256(ctx, bank, callData(selTotalStk))
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		views.TotalGvn, err = r.callUint256(ctx, bank, callData(selTotalGvn))
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		views.TotalBurned, err = r.callUint256(ctx, bank, callData(selTotalBurned))
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		epochInterval, err = r.callUint256(ctx, bank, callData(selEpochInterval))
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		startBlock, err = r.callUint256(ctx, bank, callData(selStartBlock))
		return err
	})
	p.Go(func(ctx context.Context) error {
		destData, err := r.call(ctx, bank, callData(selDest))
		if err != nil {
			return err
		}
		views.Dest, err = parseAddress(destData)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	views.EpochInterval = uint16(epochInterval.Uint64())
	views.StartBlock = startBlock.Uint64()
	return &views, nil
}
