package mq

import (
	"context"
	"os"
	"testing"
	"time"

	"node-wallet/pkg/config"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer(t *testing.T) {
	var cfg config.Config

	p, err := NewProducer(cfg, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	cfg.Redis.MQType = "redis"
	_, err = NewProducer(cfg, nil, nil)
	assert.ErrorIs(t, err, ErrRedisRequired)

	cfg.Redis.MQType = "kafka"
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	p, err = NewProducer(cfg, nil, nil)
	require.NoError(t, err)
	kp, ok := p.(*KafkaProducer)
	require.True(t, ok)
	assert.NoError(t, kp.Close())

	cfg.Redis.MQType = "nats"
	_, err = NewProducer(cfg, nil, nil)
	assert.Error(t, err)

	_, err = NewConsumer(config.Config{}, nil, "g", "c", nil)
	assert.Error(t, err)
}

// 需要本地 Redis，未设置 NODE_TEST_REDIS_ADDR 时跳过
func TestRedisStream(t *testing.T) {
	addr := os.Getenv("NODE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("NODE_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	topic := "node:test:events:" + time.Now().Format("150405.000000")
	defer client.Del(context.Background(), topic)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan *Message, 1)
	c := NewRedisConsumer(client, "test-group", "c1", nil)
	go func() {
		_ = c.Subscribe(ctx, topic, func(m *Message) error {
			got <- m
			cancel()
			return nil
		})
	}()

	// 等消费者组建好再发
	require.Eventually(t, func() bool {
		groups, err := client.XInfoGroups(ctx, topic).Result()
		return err == nil && len(groups) == 1
	}, 5*time.Second, 50*time.Millisecond)

	p := NewRedisProducer(client, nil)
	require.NoError(t, p.Publish(context.Background(), topic, "0.0.1234", []byte(`{"tx_id":"0x1"}`)))

	select {
	case m := <-got:
		assert.Equal(t, "0.0.1234", m.Key)
		assert.JSONEq(t, `{"tx_id":"0x1"}`, string(m.Payload))
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}
}
