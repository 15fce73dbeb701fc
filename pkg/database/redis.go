package database

import (
	"context"
	"fmt"
	"time"

	"mochi_forums/internal/pkg/config"
	"mochi_forums/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedis 初始化 Redis 连接，供共享查询缓存使用
func InitRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		// CLI 进程生命周期短，连接池保持较小
		PoolSize:     4,
		MinIdleConns: 0,
		MaxRetries:   2,
		DialTimeout:  time.Second * 3,
		ReadTimeout:  time.Second * 2,
		WriteTimeout: time.Second * 2,
		PoolTimeout:  time.Second * 3,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Addr, err)
	}

	logger.Log.Debug("Redis connection established", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return rdb, nil
}
