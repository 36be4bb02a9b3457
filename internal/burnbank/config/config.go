package config

import (
	"fmt"

	"burnbank-stats/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config 定义整个配置的结构
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	RPC       RPCConfig       `mapstructure:"rpc"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Ethplorer EthplorerConfig `mapstructure:"ethplorer"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Server    ServerConfig    `mapstructure:"server"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	Features  FeatureConfig   `mapstructure:"features"`
	Tokens    []TokenConfig   `mapstructure:"tokens"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RPCConfig 以太坊 JSON-RPC 节点配置。
// primary_urls 为付费节点（按序优先），fallback_urls 为公共节点兜底。
type RPCConfig struct {
	PrimaryURLs          []string `mapstructure:"primary_urls"`
	FallbackURLs         []string `mapstructure:"fallback_urls"`
	RetryCount           int      `mapstructure:"retry_count"`
	RetryDelayMs         int      `mapstructure:"retry_delay_ms"`
	FallbackRetryCount   int      `mapstructure:"fallback_retry_count"`
	FallbackRetryDelayMs int      `mapstructure:"fallback_retry_delay_ms"`
	DialTimeoutSec       int      `mapstructure:"dial_timeout_sec"`
	ChunkSizes           []uint64 `mapstructure:"chunk_sizes"`
}

// CacheConfig 结果缓存配置。backend 可选 memory / redis / postgres。
type CacheConfig struct {
	Backend  string        `mapstructure:"backend"`
	Redis    RedisConfig   `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// EthplorerConfig 持有人数量 API 配置
type EthplorerConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	RateLimit int    `mapstructure:"rate_limit"`
	Timeout   int    `mapstructure:"timeout"`
}

// OracleConfig 链上价格预言机配置
type OracleConfig struct {
	PriceOracleAddress string `mapstructure:"price_oracle_address"`
	EthUsdFeedAddress  string `mapstructure:"eth_usd_feed_address"`
}

// ServerConfig HTTP API 配置
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

// RefreshConfig 缓存预热作业配置
type RefreshConfig struct {
	Enable bool `mapstructure:"enable"`
}

// FeatureConfig 功能开关
type FeatureConfig struct {
	FetchTransactions bool `mapstructure:"fetch_transactions"`
	FetchPrices       bool `mapstructure:"fetch_prices"`
}

// TokenConfig 燃烧银行代币描述，进程启动时加载且不再变更
type TokenConfig struct {
	ID              string   `mapstructure:"id"`
	Name            string   `mapstructure:"name"`
	Symbol          string   `mapstructure:"symbol"`
	ContractAddress string   `mapstructure:"contract_address"`
	BurnAddresses   []string `mapstructure:"burn_addresses"`
	Decimals        int32    `mapstructure:"decimals"`
	TotalSupply     int64    `mapstructure:"total_supply"`
	ChainID         int64    `mapstructure:"chain_id"`
	BankAddress     string   `mapstructure:"bank_address"`
	BankStartBlock  uint64   `mapstructure:"bank_start_block"`
	PoolAddress     string   `mapstructure:"pool_address"`
}

func InitConfig() Config {
	var config Config

	viper.SetConfigName("config.server")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config/")

	setDefaults()

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	if err := mapstructure.Decode(viper.AllSettings(), &config); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	return config
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("rpc.fallback_urls", []string{
		"https://eth.llamarpc.com",
		"https://rpc.ankr.com/eth",
		"https://ethereum.publicnode.com",
	})
	viper.SetDefault("rpc.retry_count", 2)
	viper.SetDefault("rpc.retry_delay_ms", 1000)
	viper.SetDefault("rpc.fallback_retry_count", 1)
	viper.SetDefault("rpc.fallback_retry_delay_ms", 500)
	viper.SetDefault("rpc.dial_timeout_sec", 5)
	viper.SetDefault("rpc.chunk_sizes", []uint64{10_000, 2_000, 500})
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("ethplorer.base_url", "https://api.ethplorer.io")
	viper.SetDefault("ethplorer.rate_limit", 120)
	viper.SetDefault("ethplorer.timeout", 10)
	viper.SetDefault("oracle.price_oracle_address", "0xf86bff1a3ec62175de2c6395214323c566354315")
	viper.SetDefault("oracle.eth_usd_feed_address", "0x5f4ec3df9cbd43714fe2740f5e3616155c5b8419")
	viper.SetDefault("server.listen_addr", ":8080")
	viper.SetDefault("features.fetch_transactions", true)
	viper.SetDefault("features.fetch_prices", true)
}

func WatchConfig(config *Config) {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := InitConfig()
		*config = newConfig
		logger.SetLogLevel(config.Log.Level)
	})
}
