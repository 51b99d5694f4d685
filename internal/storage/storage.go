package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"jump-backtester/pkg/types"
)

const keyPrefix = "jumpbt:day:"

// DayKey 单日结果缓存键：标的 + 日期 + 参数指纹 + 数据源指纹
func DayKey(ticker string, date time.Time, params types.TradingParams, source string) string {
	return fmt.Sprintf("%s%s:%s:%s:%s", keyPrefix, ticker, date.Format("2006-01-02"), params.Fingerprint(), source)
}

// memoryEntry 内存缓存项
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// ResultCache 单日回测结果缓存
// 配置了 Redis 且连接成功时写入 Redis，否则退化为纯内存模式
type ResultCache struct {
	memory      map[string]memoryEntry
	mutex       sync.RWMutex
	ttl         time.Duration
	redisClient *redis.Client
	useRedis    bool
}

// NewResultCache 创建缓存
func NewResultCache(redisConfig types.RedisConfig) *ResultCache {
	rc := &ResultCache{
		memory: make(map[string]memoryEntry),
		ttl:    redisConfig.TTL,
	}

	if redisConfig.URL == "" {
		zap.L().Info("🔧 未配置Redis，结果缓存使用纯内存模式")
		return rc
	}

	rc.redisClient = redis.NewClient(&redis.Options{
		Addr:     redisConfig.URL,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rc.redisClient.Ping(ctx).Err(); err != nil {
		zap.L().Warn("⚠️ Redis连接失败，使用纯内存模式", zap.Error(err))
		_ = rc.redisClient.Close()
		rc.redisClient = nil
		return rc
	}

	zap.L().Info("✅ Redis连接成功", zap.String("addr", redisConfig.URL))
	rc.useRedis = true
	return rc
}

// Get 读取缓存，未命中或反序列化失败返回 false
func (rc *ResultCache) Get(ctx context.Context, key string) (*types.DayResult, bool) {
	data, ok := rc.getBytes(ctx, key)
	if !ok {
		return nil, false
	}

	var result types.DayResult
	if err := json.Unmarshal(data, &result); err != nil {
		zap.L().Warn("缓存数据反序列化失败", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &result, true
}

// Put 写入缓存，失败只记录日志
func (rc *ResultCache) Put(ctx context.Context, key string, result *types.DayResult) {
	data, err := json.Marshal(result)
	if err != nil {
		zap.L().Warn("序列化单日结果失败", zap.String("key", key), zap.Error(err))
		return
	}

	if rc.useRedis {
		if err := rc.redisClient.Set(ctx, key, data, rc.ttl).Err(); err != nil {
			zap.L().Warn("Redis写入失败", zap.String("key", key), zap.Error(err))
		}
		return
	}

	entry := memoryEntry{value: data}
	if rc.ttl > 0 {
		entry.expiresAt = time.Now().Add(rc.ttl)
	}

	rc.mutex.Lock()
	rc.memory[key] = entry
	rc.mutex.Unlock()
}

func (rc *ResultCache) getBytes(ctx context.Context, key string) ([]byte, bool) {
	if rc.useRedis {
		data, err := rc.redisClient.Get(ctx, key).Bytes()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				zap.L().Warn("Redis读取失败", zap.String("key", key), zap.Error(err))
			}
			return nil, false
		}
		return data, true
	}

	rc.mutex.RLock()
	entry, ok := rc.memory[key]
	rc.mutex.RUnlock()
	if !ok {
		return nil, false
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		rc.mutex.Lock()
		delete(rc.memory, key)
		rc.mutex.Unlock()
		return nil, false
	}
	return entry.value, true
}

// GetStats 获取缓存统计信息
func (rc *ResultCache) GetStats(ctx context.Context) map[string]interface{} {
	rc.mutex.RLock()
	memoryKeys := len(rc.memory)
	rc.mutex.RUnlock()

	stats := map[string]interface{}{
		"redis_enabled": rc.useRedis,
		"memory_keys":   memoryKeys,
	}

	if rc.useRedis {
		keys, err := rc.redisClient.Keys(ctx, keyPrefix+"*").Result()
		if err == nil {
			stats["redis_keys"] = len(keys)
		} else {
			stats["redis_error"] = err.Error()
		}
	}

	return stats
}

// Close 关闭 Redis 连接
func (rc *ResultCache) Close() error {
	if rc.redisClient != nil {
		return rc.redisClient.Close()
	}
	return nil
}
