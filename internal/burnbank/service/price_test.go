package service

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"burnbank-stats/internal/burnbank/cache"
	"burnbank-stats/internal/burnbank/chain"
	"burnbank-stats/internal/burnbank/config"

	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPrice(reader chain.Reader) *PriceService {
	logger := zap.NewNop()
	contracts := chain.NewContractReader(reader)
	rcache := cache.NewResultCache(cache.NewMemoryStore(), logger)
	return NewPriceService(config.OracleConfig{
		PriceOracleAddress: "0xf86bff1a3ec62175de2c6395214323c566354315",
		EthUsdFeedAddress:  "0x5f4ec3df9cbd43714fe2740f5e3616155c5b8419",
	}, contracts, rcache, logger)
}

func TestEthPriceUSD(t *testing.T) {
	reader := &fakeReader{
		call: func(msg ethereum.CallMsg) ([]byte, error) {
			// 2500 USD，8 位小数
			return uint256Ret(big.NewInt(2500_0000_0000)), nil
		},
	}
	svc := newTestPrice(reader)

	price := svc.EthPriceUSD(context.Background())
	require.NotNil(t, price)
	require.InDelta(t, 2500.0, *price, 1e-9)

	// 第二次命中缓存
	calls := reader.callCalls
	price = svc.EthPriceUSD(context.Background())
	require.NotNil(t, price)
	require.Equal(t, calls, reader.callCalls)
}

func TestEthPriceUSD_FailureIsNil(t *testing.T) {
	reader := &fakeReader{
		call: func(msg ethereum.CallMsg) ([]byte, error) {
			return nil, errors.New("execution reverted")
		},
	}
	svc := newTestPrice(reader)

	require.Nil(t, svc.EthPriceUSD(context.Background()))
}

func TestTokenPriceUSD(t *testing.T) {
	reader := &fakeReader{
		call: func(msg ethereum.CallMsg) ([]byte, error) {
			switch {
			case hasSelector(msg, "price(address)"):
				// 0.0005 WETH
				return uint256Ret(big.NewInt(5e14)), nil
			case hasSelector(msg, "latestAnswer()"):
				return uint256Ret(big.NewInt(2000_0000_0000)), nil
			}
			return zeroWord, nil
		},
	}
	svc := newTestPrice(reader)

	token := testToken()
	token.PoolAddress = "0x959c7d5706ac0b5a29ea3e2a4dd5a7a2b2b7f0b5"

	price := svc.TokenPriceUSD(context.Background(), token)
	require.NotNil(t, price)
	require.InDelta(t, 1.0, *price, 1e-9)
}

func TestTokenPriceUSD_NoPool(t *testing.T) {
	svc := newTestPrice(&fakeReader{})
	require.Nil(t, svc.TokenPriceUSD(context.Background(), testToken()))
}

func TestTokenPriceUSD_OracleFailureIsNil(t *testing.T) {
	reader := &fakeReader{
		call: func(msg ethereum.CallMsg) ([]byte, error) {
			return nil, errors.New("execution reverted")
		},
	}
	svc := newTestPrice(reader)

	token := testToken()
	token.PoolAddress = "0x959c7d5706ac0b5a29ea3e2a4dd5a7a2b2b7f0b5"
	require.Nil(t, svc.TokenPriceUSD(context.Background(), token))
}

func TestToUnits(t *testing.T) {
	require.InDelta(t, 1000.0, toUnits(tokens18(1000), 18), 1e-9)
	require.InDelta(t, 0.5, toEth(big.NewInt(5e17)), 1e-9)
	require.Zero(t, toUnits(nil, 18))

	// 8 位小数的喂价
	require.InDelta(t, 2500.0, toUnits(big.NewInt(2500_0000_0000), 8), 1e-9)
}
