package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"burnbank-stats/internal/burnbank/config"
	"burnbank-stats/internal/burnbank/monitor"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Reader 聚合层需要的链上只读操作。Provider 是生产实现，测试里用假实现。
type Reader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// endpoint 单个上游节点及其重试策略
type endpoint struct {
	url     string
	retries int
	delay   time.Duration

	mu     sync.Mutex
	client *ethclient.Client
}

// Provider 按优先级组合多个上游节点的只读客户端。
// 每个节点各自做有限次重试，全部失败才把错误抛给调用方。
type Provider struct {
	endpoints   []*endpoint
	dialTimeout time.Duration
	tl          *zap.Logger
}

func NewProvider(cfg config.RPCConfig, logger *zap.Logger) *Provider {
	var endpoints []*endpoint
	for _, url := range cfg.PrimaryURLs {
		endpoints = append(endpoints, &endpoint{
			url:     url,
			retries: cfg.RetryCount,
			delay:   time.Duration(cfg.RetryDelayMs) * time.Millisecond,
		})
	}
	for _, url := range cfg.FallbackURLs {
		endpoints = append(endpoints, &endpoint{
			url:     url,
			retries: cfg.FallbackRetryCount,
			delay:   time.Duration(cfg.FallbackRetryDelayMs) * time.Millisecond,
		})
	}

	dialTimeout := time.Duration(cfg.DialTimeoutSec) * time.Second
	if dialTimeout == 0 {
		dialTimeout = 5 * time.Second
	}

	return &Provider{
		endpoints:   endpoints,
		dialTimeout: dialTimeout,
		tl:          logger,
	}
}

// dial 惰性建立连接，失败时下次调用重新拨号
func (e *endpoint) dial(ctx context.Context, timeout time.Duration) (*ethclient.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		return e.client, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, e.url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", e.url, err)
	}
	e.client = client
	return client, nil
}

// do 依次尝试各节点，单节点内做固定间隔重试
func (p *Provider) do(ctx context.Context, method string, fn func(*ethclient.Client) error) error {
	if len(p.endpoints) == 0 {
		return fmt.Errorf("%s: no rpc endpoints configured", method)
	}

	start := time.Now()
	defer func() {
		monitor.RPCRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for _, ep := range p.endpoints {
		for attempt := 0; attempt <= ep.retries; attempt++ {
			if attempt > 0 {
				select {
				case <-time.After(ep.delay):
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			client, err := ep.dial(ctx, p.dialTimeout)
			if err != nil {
				lastErr = err
				monitor.RPCRequestErrors.WithLabelValues(method, ep.url).Inc()
				continue
			}

			monitor.RPCRequests.WithLabelValues(method, ep.url).Inc()
			if err := fn(client); err != nil {
				lastErr = err
				monitor.RPCRequestErrors.WithLabelValues(method, ep.url).Inc()
				continue
			}
			return nil
		}
		p.tl.Debug("rpc endpoint exhausted, trying next",
			zap.String("method", method),
			zap.String("endpoint", ep.url),
			zap.Error(lastErr),
		)
	}

	return fmt.Errorf("%s: all rpc endpoints failed: %w", method, lastErr)
}

func (p *Provider) BlockNumber(ctx context.Context) (uint64, error) {
	var out uint64
	err := p.do(ctx, "eth_blockNumber", func(c *ethclient.Client) error {
		n, err := c.BlockNumber(ctx)
		if err != nil {
			return err
		}
		out = n
		return nil
	})
	return out, err
}

func (p *Provider) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var out []types.Log
	err := p.do(ctx, "eth_getLogs", func(c *ethclient.Client) error {
		logs, err := c.FilterLogs(ctx, q)
		if err != nil {
			return err
		}
		out = logs
		return nil
	})
	return out, err
}

func (p *Provider) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := p.do(ctx, "eth_call", func(c *ethclient.Client) error {
		res, err := c.CallContract(ctx, msg, blockNumber)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

func (p *Provider) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	var out *big.Int
	err := p.do(ctx, "eth_getBalance", func(c *ethclient.Client) error {
		bal, err := c.BalanceAt(ctx, account, blockNumber)
		if err != nil {
			return err
		}
		out = bal
		return nil
	})
	return out, err
}

func (p *Provider) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var out *types.Header
	err := p.do(ctx, "eth_getBlockByNumber", func(c *ethclient.Client) error {
		h, err := c.HeaderByNumber(ctx, number)
		if err != nil {
			return err
		}
		out = h
		return nil
	})
	return out, err
}

// Close 释放所有已建立的连接
func (p *Provider) Close() {
	for _, ep := range p.endpoints {
		ep.mu.Lock()
		if ep.client != nil {
			ep.client.Close()
			ep.client = nil
		}
		ep.mu.Unlock()
	}
}
