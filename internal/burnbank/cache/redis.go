package cache

import (
	"context"
	"errors"
	"time"

	"burnbank-stats/internal/burnbank/config"

	"github.com/redis/go-redis/v9"
)

// Redis 后端同时设置一个宽松的兜底 TTL，防止废弃 key 永久残留；
// 真正的过期判断在 ResultCache 按指标 TTL 做。
const redisFallbackTTL = 48 * time.Hour

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, key, value, redisFallbackTTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
