package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 单个 Stream 保留的大致条数
const streamMaxLen = 10000

// RedisProducer 基于 Redis Stream 的 Producer
type RedisProducer struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisProducer(client *redis.Client, log *zap.Logger) *RedisProducer {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisProducer{client: client, log: log}
}

// Publish XADD <topic> MAXLEN ~ 10000 * key <key> payload <payload>
func (p *RedisProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"key":     key,
			"payload": payload,
		},
	}).Err()
	if err != nil {
		p.log.Error("[MQ] Publish Error", zap.String("topic", topic), zap.Error(err))
		return fmt.Errorf("redis xadd error: %w", err)
	}
	return nil
}

// RedisConsumer 基于消费者组的 Consumer
type RedisConsumer struct {
	client *redis.Client
	group  string
	name   string
	log    *zap.Logger
}

func NewRedisConsumer(client *redis.Client, group, name string, log *zap.Logger) *RedisConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisConsumer{client: client, group: group, name: name, log: log}
}

// Subscribe 阻塞直到 ctx 结束
func (c *RedisConsumer) Subscribe(ctx context.Context, topic string, handler func(msg *Message) error) error {
	// XGROUP CREATE <stream> <group> $ MKSTREAM
	err := c.client.XGroupCreateMkStream(ctx, topic, c.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("创建消费者组失败: %w", err)
	}

	c.log.Info("[Redis MQ] 开始监听主题", zap.String("topic", topic), zap.String("group", c.group))

	for {
		if ctx.Err() != nil {
			return nil
		}
		// XREADGROUP GROUP <group> <consumer> BLOCK 2000 COUNT 10 STREAMS <topic> >
		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.name,
			Streams:  []string{topic, ">"},
			Count:    10,
			Block:    2 * time.Second,
		}).Result()

		if errors.Is(err, redis.Nil) {
			continue // 超时无消息
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("[Redis MQ] 读取消息错误", zap.Error(err))
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, x := range stream.Messages {
				c.handle(ctx, topic, x, handler)
			}
		}
	}
}

func (c *RedisConsumer) handle(ctx context.Context, topic string, x redis.XMessage, handler func(msg *Message) error) {
	val, ok := x.Values["payload"].(string)
	if !ok {
		c.log.Warn("[Redis MQ] 消息格式错误: payload 缺失", zap.String("id", x.ID))
		c.ack(ctx, topic, x.ID)
		return
	}
	key, _ := x.Values["key"].(string)

	msg := &Message{ID: x.ID, Topic: topic, Key: key, Payload: []byte(val)}
	if err := handler(msg); err != nil {
		// 不 ACK，留在 PEL 中等待人工处理
		c.log.Warn("[Redis MQ] 消息处理失败", zap.String("id", x.ID), zap.Error(err))
		return
	}
	c.ack(ctx, topic, x.ID)
}

func (c *RedisConsumer) ack(ctx context.Context, topic, id string) {
	if err := c.client.XAck(ctx, topic, c.group, id).Err(); err != nil {
		c.log.Warn("[Redis MQ] ACK 失败", zap.String("id", id), zap.Error(err))
	}
}

func (c *RedisConsumer) Close() error {
	return c.client.Close()
}
