package server

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"burnbank-stats/internal/burnbank/cache"
	"burnbank-stats/internal/burnbank/chain"
	"burnbank-stats/internal/burnbank/config"
	"burnbank-stats/internal/burnbank/model"
	"burnbank-stats/internal/burnbank/service"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// downReader 模拟链上完全不可用
type downReader struct{}

func (downReader) BlockNumber(ctx context.Context) (uint64, error) {
	return 0, errors.New("rpc down")
}

func (downReader) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return nil, errors.New("rpc down")
}

func (downReader) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return nil, errors.New("rpc down")
}

func (downReader) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return nil, errors.New("rpc down")
}

func (downReader) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return nil, errors.New("rpc down")
}

func newTestServer() *Server {
	logger := zap.NewNop()
	reader := downReader{}
	contracts := chain.NewContractReader(reader)
	fetcher := chain.NewLogFetcher(reader, nil, logger)
	rcache := cache.NewResultCache(cache.NewMemoryStore(), logger)
	ens := service.NewResolver(contracts, logger)
	price := service.NewPriceService(config.OracleConfig{}, contracts, rcache, logger)
	holders := service.NewHolderService(config.EthplorerConfig{RateLimit: 6000}, rcache, logger)
	burns := service.NewBurnStatsService(config.FeatureConfig{}, reader, contracts, fetcher, ens, price, rcache, logger)
	bank := service.NewBankService(reader, contracts, fetcher, ens, price, rcache, logger)

	registry := model.NewRegistry([]model.Token{
		{
			ID:              "shi",
			Name:            "Shina Inu",
			Symbol:          "SHI",
			ContractAddress: "0x243cacb4d1227a1e7d3a3d8a8ef047d50d7b0303",
			BurnAddresses:   []string{"0x000000000000000000000000000000000000dead"},
			Decimals:        18,
			TotalSupply:     100_000,
			ChainID:         1,
		},
	})

	return New(config.ServerConfig{ListenAddr: ":0"}, registry, burns, bank, holders, rcache, logger)
}

func doRequest(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestGetStatus(t *testing.T) {
	rec := doRequest(newTestServer(), http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok"`)
	require.Contains(t, rec.Body.String(), `"shi"`)
}

func TestGetTokens(t *testing.T) {
	rec := doRequest(newTestServer(), http.MethodGet, "/tokens")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"shi"`)
	require.Contains(t, rec.Body.String(), "0x243cacb4d1227a1e7d3a3d8a8ef047d50d7b0303")
}

func TestGetBurns_UnknownToken(t *testing.T) {
	rec := doRequest(newTestServer(), http.MethodGet, "/tokens/doge/burns")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBurns_InvalidDays(t *testing.T) {
	s := newTestServer()
	for _, days := range []string{"0", "-1", "91", "abc"} {
		rec := doRequest(s, http.MethodGet, "/tokens/shi/burns?days="+days)
		require.Equal(t, http.StatusBadRequest, rec.Code, "days=%s", days)
	}
}

func TestGetBurns_ChainFailure(t *testing.T) {
	rec := doRequest(newTestServer(), http.MethodGet, "/tokens/shi/burns?days=7")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetBank_NoBankConfigured(t *testing.T) {
	rec := doRequest(newTestServer(), http.MethodGet, "/tokens/shi/bank")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetHolders_NoAPIKey(t *testing.T) {
	rec := doRequest(newTestServer(), http.MethodGet, "/tokens/shi/holders")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"holders_count":null`)
}

func TestClearCache(t *testing.T) {
	rec := doRequest(newTestServer(), http.MethodDelete, "/tokens/shi/cache")
	require.Equal(t, http.StatusNoContent, rec.Code)
}
