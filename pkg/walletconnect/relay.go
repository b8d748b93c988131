package walletconnect

import (
	"context"
	"errors"
	"sync"
)

var ErrRelayClosed = errors.New("relay closed")

// Handler 接收某个 topic 上的原始信封 (已 base64 编码的密文)
type Handler func(envelope string)

// Relay 是消息中继的抽象: 只负责按 topic 转发不透明的信封
type Relay interface {
	Publish(ctx context.Context, topic, envelope string) error
	// Subscribe 返回取消订阅函数，可重复调用
	Subscribe(ctx context.Context, topic string, h Handler) (func(), error)
	Close() error
}

// MemoryRelay 进程内中继，用于本地开发与测试
type MemoryRelay struct {
	mu     sync.Mutex
	subs   map[string]map[uint64]Handler
	nextID uint64
	closed bool
}

func NewMemoryRelay() *MemoryRelay {
	return &MemoryRelay{subs: make(map[string]map[uint64]Handler)}
}

func (r *MemoryRelay) Publish(ctx context.Context, topic, envelope string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRelayClosed
	}
	handlers := make([]Handler, 0, len(r.subs[topic]))
	for _, h := range r.subs[topic] {
		handlers = append(handlers, h)
	}
	r.mu.Unlock()

	// 锁外回调，允许 handler 内再次 Publish
	for _, h := range handlers {
		h(envelope)
	}
	return nil
}

func (r *MemoryRelay) Subscribe(ctx context.Context, topic string, h Handler) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRelayClosed
	}

	r.nextID++
	id := r.nextID
	if r.subs[topic] == nil {
		r.subs[topic] = make(map[uint64]Handler)
	}
	r.subs[topic][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs[topic], id)
			if len(r.subs[topic]) == 0 {
				delete(r.subs, topic)
			}
		})
	}, nil
}

// SubscriptionCount 当前所有 topic 上的订阅总数
func (r *MemoryRelay) SubscriptionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, hs := range r.subs {
		n += len(hs)
	}
	return n
}

func (r *MemoryRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.subs = make(map[string]map[uint64]Handler)
	return nil
}
