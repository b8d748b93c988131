// Package bootstrap 按配置组装运行时依赖，node-server 与 node-cli 共用
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"node-wallet/internal/service/mq"
	"node-wallet/internal/service/session"
	"node-wallet/internal/service/tx"
	"node-wallet/pkg/cache"
	"node-wallet/pkg/config"
	"node-wallet/pkg/database"
	"node-wallet/pkg/deployinfo"
	"node-wallet/pkg/hedera"
	"node-wallet/pkg/ledger"
	"node-wallet/pkg/logger"
	"node-wallet/pkg/walletconnect"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 本地开发用，配对消息不出进程
const memoryRelayURL = "memory://"

// Core 钱包核心的全部依赖
type Core struct {
	Config   config.Config
	Redis    *redis.Client // redis.enabled=false 时为空
	Relay    walletconnect.Relay
	Client   *walletconnect.Client
	Mirror   *hedera.MirrorClient
	Network  ledger.Network
	Book     *deployinfo.Book
	Producer mq.Producer // 可为空
	Sessions *session.Manager
	Executor *tx.Executor

	closers []func()
}

// Build 依次连接 Redis、中继、JSON-RPC，失败时释放已建立的连接
func Build(ctx context.Context, cfg config.Config, prompter session.Prompter) (_ *Core, err error) {
	c := &Core{Config: cfg}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	var sessionCache cache.Cache = cache.NewMemoryCache(24*time.Hour, 10*time.Minute)
	if cfg.Redis.Enabled {
		c.Redis, err = database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		c.onClose(func() { _ = c.Redis.Close() })
		sessionCache = cache.NewMultiLevelCache(sessionCache, cache.NewRedisCache(c.Redis, "node:"), logger.Named("cache"))
	}

	c.Producer, err = mq.NewProducer(cfg, c.Redis, logger.Named("mq"))
	if err != nil {
		return nil, err
	}
	if kp, ok := c.Producer.(*mq.KafkaProducer); ok {
		c.onClose(func() { _ = kp.Close() })
	}

	if err = c.dialRelay(ctx, cfg.WalletConnect); err != nil {
		return nil, err
	}
	c.Client = walletconnect.NewClient(c.Relay, logger.Named("walletconnect"))

	c.Mirror = hedera.NewMirrorClient(cfg.Ledger.MirrorUrl, logger.Named("mirror"))

	network, err := ledger.Dial(ctx, cfg.Ledger.RpcUrl, cfg.Ledger.ReceiptInterval, cfg.Ledger.ReceiptTimeout, logger.Named("ledger"))
	if err != nil {
		return nil, err
	}
	c.Network = network
	c.onClose(network.Close)

	c.Book, err = deployinfo.Load(cfg.Ledger.DeploymentFile)
	if err != nil {
		return nil, err
	}
	abis, missing, err := tx.LoadABIRegistry(cfg.Ledger.AbiDir, c.Book.All())
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		// 没有 ABI 的合约按参数类型推导函数签名
		logger.Warn("[Bootstrap] ABI not found, falling back to typed signatures", zap.Strings("contracts", missing))
	}

	c.Sessions = session.NewManager(c.Client, session.NewCacheStore(sessionCache), prompter, session.Options{
		Network:         cfg.Ledger.Network,
		ApprovalTimeout: cfg.WalletConnect.ApprovalTimeout,
		Metadata: walletconnect.PeerMetadata{
			Name:        "N.O.D.E.",
			Description: "N.O.D.E. Protocol",
			URL:         "https://node-protocol.io",
		},
		Balance: c.Mirror,
		Logger:  logger.Named("session"),
	})
	if err = c.Sessions.Open(ctx); err != nil {
		return nil, err
	}
	c.onClose(func() { _ = c.Sessions.Close() })

	c.Executor = tx.NewExecutor(
		tx.NewPreparer(c.Network, abis),
		tx.NewBridge(cfg.WalletConnect.SignTimeout, logger.Named("signer")),
		tx.NewSubmitter(c.Network, logger.Named("submitter")),
		c.Sessions,
		c.Producer,
		cfg.Ledger.Network,
		logger.Named("executor"),
	)
	return c, nil
}

func (c *Core) dialRelay(ctx context.Context, wc config.WalletConnectConfig) error {
	if strings.EqualFold(wc.RelayUrl, memoryRelayURL) {
		c.Relay = walletconnect.NewMemoryRelay()
	} else {
		if wc.ProjectID == "" {
			return fmt.Errorf("walletconnect.project_id is required for relay %s", wc.RelayUrl)
		}
		r, err := walletconnect.DialRelay(ctx, wc.RelayUrl, wc.ProjectID, logger.Named("relay"))
		if err != nil {
			return err
		}
		c.Relay = r
	}
	c.onClose(func() { _ = c.Relay.Close() })
	return nil
}

func (c *Core) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

// Close 按建立的逆序释放
func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
