// Package cache 提供基于 go-cache 的进程内类型化缓存
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Config 缓存配置
type Config struct {
	// 默认缓存过期时间
	DefaultTTL time.Duration
	// 自动清理间隔时间
	CleanupInterval time.Duration
}

// DefaultConfig 返回默认缓存配置
func DefaultConfig() Config {
	return Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 10 * time.Minute,
	}
}

// Cache 只保存 V 类型值的内存缓存
type Cache[V any] struct {
	cache *gocache.Cache
}

// New 创建内存缓存
func New[V any](config Config) *Cache[V] {
	defaultExpiration := config.DefaultTTL
	if defaultExpiration == 0 {
		defaultExpiration = 10 * time.Minute
	}
	cleanupInterval := config.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &Cache[V]{cache: gocache.New(defaultExpiration, cleanupInterval)}
}

// Get 获取缓存内容
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	value, found := c.cache.Get(key)
	if !found {
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// Set 设置缓存内容，ttl 为0时使用默认过期时间
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
}

// Delete 删除缓存项
func (c *Cache[V]) Delete(key string) {
	c.cache.Delete(key)
}

// Clear 清空所有缓存
func (c *Cache[V]) Clear() {
	c.cache.Flush()
}

// Len 当前缓存项数量（含未清理的过期项）
func (c *Cache[V]) Len() int {
	return c.cache.ItemCount()
}

// GenerateCacheKey 生成标准化的缓存键
func GenerateCacheKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}
	return prefix + ":" + strings.Join(parts, ":")
}
