package walletconnect

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"node-wallet/pkg/safe_random"

	"go.uber.org/zap"
)

type listener struct {
	topic string
	key   []byte
	fn    func(*Message)
}

type topicSub struct {
	refs        int
	unsubscribe func()
}

// Client 在 Relay 之上提供加解密与监听器管理。
// 所有监听器都通过 Listen 注册，并由返回的 off 函数注销。
type Client struct {
	relay Relay
	log   *zap.Logger

	mu        sync.Mutex
	listeners map[uint64]*listener
	topics    map[string]*topicSub
	nextID    uint64
}

func NewClient(relay Relay, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		relay:     relay,
		log:       log,
		listeners: make(map[uint64]*listener),
		topics:    make(map[string]*topicSub),
	}
}

// Listen 在 topic 上注册监听器，消息用 key 解密后回调 fn。
// fn 在中继的回调 goroutine 中执行，不应阻塞。
func (c *Client) Listen(ctx context.Context, topic string, key []byte, fn func(*Message)) (func(), error) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = &listener{topic: topic, key: key, fn: fn}

	sub, ok := c.topics[topic]
	if !ok {
		sub = &topicSub{}
		c.topics[topic] = sub
	}
	sub.refs++
	needSubscribe := sub.unsubscribe == nil
	c.mu.Unlock()

	if needSubscribe {
		unsub, err := c.relay.Subscribe(ctx, topic, func(envelope string) {
			c.dispatch(topic, envelope)
		})
		if err != nil {
			c.release(id)
			return nil, fmt.Errorf("subscribe %s: %w", topic, err)
		}
		c.mu.Lock()
		if s, ok := c.topics[topic]; ok && s.unsubscribe == nil {
			s.unsubscribe = unsub
			unsub = nil
		}
		c.mu.Unlock()
		// 并发情况下已有他人完成订阅 (或已全部注销)
		if unsub != nil {
			unsub()
		}
	}

	var once sync.Once
	return func() { once.Do(func() { c.release(id) }) }, nil
}

// release 注销监听器，topic 无监听器时同时取消中继订阅
func (c *Client) release(id uint64) {
	c.mu.Lock()
	l, ok := c.listeners[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.listeners, id)

	var unsub func()
	if sub, ok := c.topics[l.topic]; ok {
		sub.refs--
		if sub.refs <= 0 {
			unsub = sub.unsubscribe
			delete(c.topics, l.topic)
		}
	}
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (c *Client) dispatch(topic, envelope string) {
	c.mu.Lock()
	targets := make([]*listener, 0)
	for _, l := range c.listeners {
		if l.topic == topic {
			targets = append(targets, l)
		}
	}
	c.mu.Unlock()

	for _, l := range targets {
		plaintext, err := Open(l.key, envelope)
		if err != nil {
			c.log.Debug("[WalletConnect] 无法解密消息，忽略", zap.String("topic", topic), zap.Error(err))
			continue
		}
		var msg Message
		if err := json.Unmarshal(plaintext, &msg); err != nil {
			c.log.Debug("[WalletConnect] 消息格式错误，忽略", zap.String("topic", topic), zap.Error(err))
			continue
		}
		l.fn(&msg)
	}
}

// ListenerCount 当前注册的监听器数量
func (c *Client) ListenerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// Publish 加密并发送一条消息
func (c *Client) Publish(ctx context.Context, topic string, key []byte, msg *Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	envelope, err := Seal(key, raw)
	if err != nil {
		return err
	}
	return c.relay.Publish(ctx, topic, envelope)
}

// Request 发送 session_request 并等待同 ID 的 session_response。
// 超时由 ctx 控制；钱包拒绝 (5000) 时返回的错误满足 errors.Is(err, ErrUserRejected)。
func (c *Client) Request(ctx context.Context, topic string, key []byte, method string, params any) (json.RawMessage, error) {
	id, err := safe_random.GenerateMessageID()
	if err != nil {
		return nil, err
	}
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	respCh := make(chan *Message, 1)
	off, err := c.Listen(ctx, topic, key, func(msg *Message) {
		if msg.Type != TypeSessionResponse || msg.ID != id {
			return
		}
		select {
		case respCh <- msg:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	defer off()

	req := &Message{ID: id, Type: TypeSessionRequest, Method: method, Params: rawParams}
	if err := c.Publish(ctx, topic, key, req); err != nil {
		return nil, fmt.Errorf("publish request: %w", err)
	}

	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close 关闭底层中继
func (c *Client) Close() error {
	return c.relay.Close()
}
