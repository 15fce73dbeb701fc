package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"mochi_forums/pkg/logger"
	"mochi_forums/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultQueryTTL 查询缓存默认有效期
const DefaultQueryTTL = 30 * time.Second

// Key 语义化查询键，例如 {"forums", "detail", "abc", "new"}
type Key []string

// NewKey 创建查询键，空片段会被忽略
func NewKey(parts ...string) Key {
	key := make(Key, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			key = append(key, p)
		}
	}
	return key
}

// String 使用 ":" 拼接的存储键
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Prefix 指标标签使用的前缀（前两段）
func (k Key) Prefix() string {
	if len(k) > 2 {
		return strings.Join(k[:2], ":")
	}
	return k.String()
}

// With 追加片段
func (k Key) With(parts ...string) Key {
	out := make(Key, len(k), len(k)+len(parts))
	copy(out, k)
	return append(out, NewKey(parts...)...)
}

// QueryCache 进程级查询缓存：读穿透 + 并发相同请求合并 + 变更后按前缀失效
type QueryCache struct {
	store   CacheService
	group   singleflight.Group
	ttl     time.Duration
	metrics *metrics.MetricsCollector
}

// Option 查询缓存选项
type Option func(*QueryCache)

// WithTTL 设置缓存有效期
func WithTTL(ttl time.Duration) Option {
	return func(q *QueryCache) {
		if ttl > 0 {
			q.ttl = ttl
		}
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(m *metrics.MetricsCollector) Option {
	return func(q *QueryCache) {
		q.metrics = m
	}
}

// NewQueryCache 创建查询缓存，store 为空时使用内存缓存
func NewQueryCache(store CacheService, opts ...Option) *QueryCache {
	if store == nil {
		store = NewMemoryCache()
	}
	q := &QueryCache{
		store: store,
		ttl:   DefaultQueryTTL,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Store 底层存储
func (q *QueryCache) Store() CacheService {
	return q.store
}

// Query 读穿透查询。相同 key 的并发请求只回源一次，返回值在调用方之间共享，不应修改。
func Query[T any](ctx context.Context, q *QueryCache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	storeKey := key.String()

	err := q.store.Get(ctx, storeKey, &cached)
	if err == nil {
		q.recordLookup(key, true)
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		// 存储异常不影响查询，直接回源
		logger.Log.Warn("query cache read failed", zap.String("key", storeKey), zap.Error(err))
	}
	q.recordLookup(key, false)

	v, err, shared := q.group.Do(storeKey, func() (interface{}, error) {
		start := time.Now()
		result, err := fetch(ctx)
		if q.metrics != nil {
			q.metrics.RecordCacheFetch(key.Prefix(), time.Since(start))
		}
		if err != nil {
			return result, err
		}
		if err := q.store.Set(ctx, storeKey, result, q.ttl); err != nil {
			logger.Log.Warn("query cache write failed", zap.String("key", storeKey), zap.Error(err))
		}
		return result, nil
	})
	if shared {
		logger.Log.Debug("query cache fetch shared", zap.String("key", storeKey))
	}
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

// Invalidate 使 key 及其所有子键失效
func (q *QueryCache) Invalidate(ctx context.Context, key Key) error {
	storeKey := key.String()
	if err := q.store.Delete(ctx, storeKey); err != nil {
		return err
	}
	if err := q.store.InvalidatePrefix(ctx, storeKey+":"); err != nil {
		return err
	}
	if q.metrics != nil {
		q.metrics.RecordCacheInvalidation(key.Prefix())
	}
	logger.Log.Debug("query cache invalidated", zap.String("key", storeKey))
	return nil
}

// InvalidateAll 批量失效，出错时继续处理剩余键并返回第一个错误
func (q *QueryCache) InvalidateAll(ctx context.Context, keys ...Key) error {
	var first error
	for _, key := range keys {
		if err := q.Invalidate(ctx, key); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Refetch 失效后立即重新查询
func Refetch[T any](ctx context.Context, q *QueryCache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	if err := q.Invalidate(ctx, key); err != nil {
		var zero T
		return zero, err
	}
	return Query(ctx, q, key, fetch)
}

func (q *QueryCache) recordLookup(key Key, hit bool) {
	if q.metrics != nil {
		q.metrics.RecordCacheLookup(q.store.Name(), key.Prefix(), hit)
	}
}
