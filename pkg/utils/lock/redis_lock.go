package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"node-wallet/pkg/safe_random"

	"github.com/redis/go-redis/v9"
)

var ErrNotHeld = errors.New("lock not held")

// DistributedLock 定义分布式锁接口
type DistributedLock interface {
	// Acquire 尝试获取锁
	// key: 锁的唯一标识
	// ttl: 锁的过期时间
	// 返回: (是否成功, error)
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release 释放锁，只释放自己持有的锁
	Release(ctx context.Context, key string) error
}

// 值匹配才删除，防止误删他人在过期后重新获取的锁
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock 基于 Redis SET NX 的实现
type RedisLock struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client, tokens: make(map[string]string)}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token, err := safe_random.GenerateRandomHexString(16)
	if err != nil {
		return false, err
	}
	// SET lock:key token NX PX ttl
	ok, err := l.client.SetNX(ctx, "lock:"+key, token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

func (l *RedisLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return ErrNotHeld
	}

	n, err := releaseScript.Run(ctx, l.client, []string{"lock:" + key}, token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		// 已过期并被他人获取
		return ErrNotHeld
	}
	return nil
}

// LocalLock 单进程内的实现，未启用 Redis 时使用
type LocalLock struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{held: make(map[string]time.Time)}
}

func (l *LocalLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if exp, ok := l.held[key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	l.held[key] = time.Now().Add(ttl)
	return true, nil
}

func (l *LocalLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; !ok {
		return ErrNotHeld
	}
	delete(l.held, key)
	return nil
}
