package session

import (
	"context"
	"errors"
	"time"

	"node-wallet/pkg/cache"
)

const storeKey = "wallet:session"

// Store 持久化当前会话，便于进程内复用 (Redis 后端时跨进程复用)
type Store interface {
	// Load 没有会话时返回 (nil, nil)
	Load(ctx context.Context) (*WalletSession, error)
	Save(ctx context.Context, s *WalletSession) error
	Delete(ctx context.Context) error
}

// CacheStore 基于 pkg/cache 的实现
type CacheStore struct {
	cache cache.Cache
}

func NewCacheStore(c cache.Cache) *CacheStore {
	return &CacheStore{cache: c}
}

func (s *CacheStore) Load(ctx context.Context) (*WalletSession, error) {
	var ws WalletSession
	err := s.cache.Get(ctx, storeKey, &ws)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (s *CacheStore) Save(ctx context.Context, ws *WalletSession) error {
	ttl := time.Until(ws.Expiry)
	if ws.Expiry.IsZero() || ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return s.cache.Set(ctx, storeKey, ws, ttl)
}

func (s *CacheStore) Delete(ctx context.Context) error {
	return s.cache.Delete(ctx, storeKey)
}
