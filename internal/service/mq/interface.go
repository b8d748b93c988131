package mq

import "context"

// Message 代表一条事件消息
type Message struct {
	ID       string            // Redis Stream ID 或 Kafka partition/offset
	Topic    string            // 主题 (例如 "node_events_tx")
	Key      string            // 分区键，交易事件为账户 ID，部署事件为合约名
	Payload  []byte            // 消息体 (JSON)
	Metadata map[string]string // 元数据
}

// Producer 生产者接口
type Producer interface {
	// Publish 发送消息
	// key: 用于分区排序 (Partition Key). 传空字符串则随机分区.
	Publish(ctx context.Context, topic string, key string, payload []byte) error
}

// Consumer 消费者接口
type Consumer interface {
	// Subscribe 订阅主题
	// handler: 消息处理函数，返回 error 时消息不确认
	Subscribe(ctx context.Context, topic string, handler func(msg *Message) error) error

	// Close 关闭消费者
	Close() error
}
