package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// MultiLevelCache 实现多级缓存 (L1: Memory, L2: Redis)
type MultiLevelCache struct {
	local  Cache
	remote Cache
	log    *zap.Logger
}

func NewMultiLevelCache(local, remote Cache, log *zap.Logger) *MultiLevelCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &MultiLevelCache{
		local:  local,
		remote: remote,
		log:    log,
	}
}

func (m *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	// L1 的 TTL 取 L2 的一半，减少多实例下的脏读窗口
	if err := m.local.Set(ctx, key, value, ttl/2); err != nil {
		m.log.Warn("[Cache] L1 写入失败", zap.String("key", key), zap.Error(err))
	}
	return m.remote.Set(ctx, key, value, ttl)
}

func (m *MultiLevelCache) Get(ctx context.Context, key string, target interface{}) error {
	// 1. 查 L1
	if err := m.local.Get(ctx, key, target); err == nil {
		return nil
	}

	// 2. 查 L2
	err := m.remote.Get(ctx, key, target)
	if err == nil {
		// L2 Hit -> 回写 L1，TTL 不宜太长
		_ = m.local.Set(ctx, key, target, time.Minute)
		return nil
	}
	if errors.Is(err, ErrCacheMiss) {
		return ErrCacheMiss
	}
	return err
}

func (m *MultiLevelCache) Delete(ctx context.Context, key string) error {
	_ = m.local.Delete(ctx, key)
	return m.remote.Delete(ctx, key)
}
