package mq

import (
	"errors"
	"fmt"

	"node-wallet/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrRedisRequired = errors.New("redis stream mq requires redis.enabled")

// NewProducer 按 redis.mq_type 选择实现，返回 (nil, nil) 表示不发事件
func NewProducer(cfg config.Config, client *redis.Client, log *zap.Logger) (Producer, error) {
	switch cfg.Redis.MQType {
	case "":
		return nil, nil
	case "redis":
		if client == nil {
			return nil, ErrRedisRequired
		}
		return NewRedisProducer(client, log), nil
	case "kafka":
		return NewKafkaProducer(cfg.Kafka.Brokers, log), nil
	default:
		return nil, fmt.Errorf("unknown mq type %q", cfg.Redis.MQType)
	}
}

// NewConsumer 同 NewProducer，group 为消费者组名
func NewConsumer(cfg config.Config, client *redis.Client, group, name string, log *zap.Logger) (Consumer, error) {
	switch cfg.Redis.MQType {
	case "redis":
		if client == nil {
			return nil, ErrRedisRequired
		}
		return NewRedisConsumer(client, group, name, log), nil
	case "kafka":
		return NewKafkaConsumer(cfg.Kafka.Brokers, group, log), nil
	default:
		return nil, fmt.Errorf("mq type %q has no consumer", cfg.Redis.MQType)
	}
}
