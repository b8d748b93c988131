package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"node-wallet/internal/event"
	"node-wallet/internal/service/mq"
	"node-wallet/pkg/config"
	"node-wallet/pkg/database"
	"node-wallet/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "订阅交易执行与合约部署事件",
	Long:  `按 redis.mq_type 从 Redis Stream 或 Kafka 读取事件并逐条打印，Ctrl+C 退出。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		group, _ := cmd.Flags().GetString("group")
		cfg := config.Global
		if cfg.Redis.MQType == "" {
			return fmt.Errorf("redis.mq_type is empty, no events are published")
		}

		ctx, stop := signalContext()
		defer stop()

		var rdb *redis.Client
		if cfg.Redis.MQType == "redis" {
			var err error
			if rdb, err = database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
				return err
			}
			defer rdb.Close()
		}

		host, _ := os.Hostname()
		topics := []string{event.TopicTransactionExecuted, event.TopicContractDeployed}

		var wg sync.WaitGroup
		errs := make(chan error, len(topics))
		for _, topic := range topics {
			consumer, err := mq.NewConsumer(cfg, rdb, group, host, logger.Named("mq"))
			if err != nil {
				return err
			}
			wg.Add(1)
			go func(topic string, c mq.Consumer) {
				defer wg.Done()
				if err := c.Subscribe(ctx, topic, printEvent); err != nil {
					errs <- err
					stop()
				}
			}(topic, consumer)
		}

		fmt.Printf("正在监听 %v (Ctrl+C 退出)...\n", topics)
		<-ctx.Done()
		wg.Wait()
		close(errs)
		return <-errs
	},
}

func printEvent(msg *mq.Message) error {
	switch msg.Topic {
	case event.TopicTransactionExecuted:
		var ev event.TransactionExecutedEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return err
		}
		fmt.Printf("[tx]     %s  %s.%s  by %s  (%s)\n",
			ev.ExecutedAt.Format("15:04:05"), ev.ContractID, ev.FunctionName, ev.AccountID, ev.TxID)
	case event.TopicContractDeployed:
		var ev event.ContractDeployedEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return err
		}
		fmt.Printf("[deploy] %s  %s -> %s  attempts=%d gas=%d  (%s)\n",
			ev.DeployedAt.Format("15:04:05"), ev.ContractName, ev.ContractID, ev.Attempts, ev.GasUsed, ev.TxID)
	default:
		logger.Debug("[Events] unknown topic", zap.String("topic", msg.Topic))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().String("group", "node-cli", "消费者组")
}
