package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"trackviz/logger"
)

// ChartCache stores rendered SVG frames.
type ChartCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, svg []byte) error
}

// ChartKey identifies an initial chart frame. command is any stable encoding
// of the chart's command; version is the dataset version.
func ChartKey(chart string, command []byte, version uint64) string {
	sum := blake2b.Sum256(command)
	return fmt.Sprintf("trackviz:chart:%s:%s:v%d", chart, hex.EncodeToString(sum[:8]), version)
}

// RedisChartCache 基于 Redis 的图表缓存
type RedisChartCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisChartCache wraps client; entries expire after ttl.
func NewRedisChartCache(client *redis.Client, ttl time.Duration) *RedisChartCache {
	return &RedisChartCache{client: client, ttl: ttl}
}

// Get 获取图表缓存，最多重试2次
func (c *RedisChartCache) Get(ctx context.Context, key string) ([]byte, error) {
	const maxRetries = 2
	retryDelay := 50 * time.Millisecond

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		var data []byte
		data, err = c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			logger.Debug("图表缓存不存在", logger.String("key", key))
			return nil, nil
		}
		if err == nil {
			logger.Debug("图表缓存命中",
				logger.String("key", key),
				logger.Int("dataSize", len(data)))
			return data, nil
		}
		if attempt < maxRetries-1 {
			logger.Warn("获取图表缓存失败，准备重试",
				logger.String("key", key),
				logger.Int("attempt", attempt+1),
				logger.ErrorField(err))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
			retryDelay *= 2 // 指数退避
		}
	}
	return nil, fmt.Errorf("failed to get chart cache %s: %w", key, err)
}

// Set 设置图表缓存
func (c *RedisChartCache) Set(ctx context.Context, key string, svg []byte) error {
	if err := c.client.Set(ctx, key, svg, c.ttl).Err(); err != nil {
		logger.Error("设置图表缓存失败",
			logger.String("key", key),
			logger.Int("dataSize", len(svg)),
			logger.ErrorField(err))
		return err
	}
	logger.Debug("图表缓存设置成功",
		logger.String("key", key),
		logger.Int("dataSize", len(svg)),
		logger.Duration("expiration", c.ttl))
	return nil
}
