package walletconnect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// relayFrame 中继服务器的 JSON 帧
type relayFrame struct {
	Method  string `json:"method"` // publish / subscribe / unsubscribe / message
	Topic   string `json:"topic"`
	Message string `json:"message,omitempty"`
	TTL     int64  `json:"ttl,omitempty"`
}

const (
	relayMessageTTL = 300 // 秒
	writeTimeout    = 10 * time.Second
)

// WSRelay 基于 WebSocket 的中继客户端
type WSRelay struct {
	conn *websocket.Conn
	log  *zap.Logger

	writeMu sync.Mutex

	mu     sync.RWMutex
	subs   map[string]map[uint64]Handler
	nextID uint64

	closeCh   chan struct{}
	closeOnce sync.Once
}

// DialRelay 连接中继服务器
// relayURL: wss://relay.walletconnect.com, projectID 以 query 参数携带
func DialRelay(ctx context.Context, relayURL, projectID string, log *zap.Logger) (*WSRelay, error) {
	if log == nil {
		log = zap.NewNop()
	}

	u, err := url.Parse(relayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay url: %w", err)
	}
	if projectID != "" {
		q := u.Query()
		q.Set("projectId", projectID)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Proxy:            http.ProxyFromEnvironment,
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	// 关闭握手响应体
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	r := &WSRelay{
		conn:    conn,
		log:     log,
		subs:    make(map[string]map[uint64]Handler),
		closeCh: make(chan struct{}),
	}
	go r.readLoop()

	log.Info("[Relay] 已连接", zap.String("host", u.Host))
	return r, nil
}

func (r *WSRelay) readLoop() {
	for {
		var f relayFrame
		if err := r.conn.ReadJSON(&f); err != nil {
			select {
			case <-r.closeCh:
			default:
				r.log.Error("[Relay] 读取失败，连接中断", zap.Error(err))
				r.Close()
			}
			return
		}

		if f.Method != "message" {
			continue
		}

		r.mu.RLock()
		handlers := make([]Handler, 0, len(r.subs[f.Topic]))
		for _, h := range r.subs[f.Topic] {
			handlers = append(handlers, h)
		}
		r.mu.RUnlock()

		for _, h := range handlers {
			h(f.Message)
		}
	}
}

func (r *WSRelay) write(f relayFrame) error {
	select {
	case <-r.closeCh:
		return ErrRelayClosed
	default:
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := r.conn.WriteJSON(f); err != nil {
		return fmt.Errorf("relay write: %w", err)
	}
	return nil
}

func (r *WSRelay) Publish(ctx context.Context, topic, envelope string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.write(relayFrame{Method: "publish", Topic: topic, Message: envelope, TTL: relayMessageTTL})
}

func (r *WSRelay) Subscribe(ctx context.Context, topic string, h Handler) (func(), error) {
	r.mu.Lock()
	first := len(r.subs[topic]) == 0
	r.nextID++
	id := r.nextID
	if r.subs[topic] == nil {
		r.subs[topic] = make(map[uint64]Handler)
	}
	r.subs[topic][id] = h
	r.mu.Unlock()

	// 同一 topic 只向服务器订阅一次
	if first {
		if err := r.write(relayFrame{Method: "subscribe", Topic: topic}); err != nil {
			r.remove(topic, id)
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if last := r.remove(topic, id); last {
				if err := r.write(relayFrame{Method: "unsubscribe", Topic: topic}); err != nil {
					r.log.Debug("[Relay] 取消订阅失败", zap.String("topic", topic), zap.Error(err))
				}
			}
		})
	}, nil
}

// remove 删除一个 handler，返回该 topic 是否已无订阅者
func (r *WSRelay) remove(topic string, id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs[topic], id)
	if len(r.subs[topic]) == 0 {
		delete(r.subs, topic)
		return true
	}
	return false
}

func (r *WSRelay) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.closeCh)
		r.writeMu.Lock()
		_ = r.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		r.writeMu.Unlock()
		err = r.conn.Close()
	})
	return err
}
