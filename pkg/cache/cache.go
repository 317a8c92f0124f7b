// Package cache 提供基于键值存储的泛型缓存.
//
// 值用 sonic 编码后写入 KV，键统一加命名空间前缀. GetOrSet 对同一键的并发回源做合并，
// 缓存写失败只降级为直读，不影响调用方.
//
//	profiles := cache.NewCache(kvStore, cache.WithNamespace("profile"))
//	p, err := cache.GetOrSet(ctx, profiles, uid, func() (model.UserProfile, error) {
//		return store.EnsureProfile(ctx, uid)
//	}, 30*time.Second)
//
// 缓存未命中不会被视为错误，由 getter 回源.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/kv"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore   kv.KVStore
	namespace string
	group     singleflight.Group
}

// Option 缓存选项.
type Option func(*Cache)

// WithNamespace 为所有键加上 "<ns>:" 前缀.
func WithNamespace(ns string) Option {
	return func(c *Cache) { c.namespace = ns }
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore, opts ...Option) *Cache {
	c := &Cache{kvStore: kvStore}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) key(k string) string {
	if c.namespace == "" {
		return k
	}

	return c.namespace + ":" + k
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.kvStore.Delete(ctx, c.key(key))
	if kv.IsNotFound(err) {
		return nil
	}

	return err
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, c.key(key))
}

// GetOrSet 获取缓存值，不存在时调用 getter 回源并写回.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := getter()
		if err != nil {
			return value, err
		}

		// 写缓存失败时仍返回回源值
		_ = Set(ctx, c, key, value, ttl)

		return value, nil
	})
	if err != nil {
		var zero T

		return zero, err
	}

	return v.(T), nil
}

// Clear 清空当前命名空间下的所有键.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.kvStore.Keys(ctx, c.key("*"))
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil && !kv.IsNotFound(delErr) {
			return delErr
		}
	}

	return nil
}
