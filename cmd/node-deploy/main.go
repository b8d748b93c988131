package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"node-wallet/internal/service/deploy"
	"node-wallet/internal/service/mq"
	"node-wallet/internal/service/tx"
	"node-wallet/pkg/config"
	"node-wallet/pkg/database"
	"node-wallet/pkg/deployinfo"
	"node-wallet/pkg/ledger"
	"node-wallet/pkg/logger"
	"node-wallet/pkg/operator"
	"node-wallet/pkg/utils/lock"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "node-deploy <ContractName>",
	Short: "部署合约并写入 deployment-info.json",
	Long: `读取 <deploy.artifact_dir>/<ContractName>.json 编译产物，用运营账户部署。
网络繁忙 / 交易过期时长退避重试，其他瞬时错误短退避重试，其余错误立即失败。
合约已记录在 deployment-info.json 中时直接退出 (除非指定 --force)。`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func run(cmd *cobra.Command, args []string) error {
	name := args[0]
	force, _ := cmd.Flags().GetBool("force")
	rawArgs, _ := cmd.Flags().GetStringArray("arg")

	config.Init()
	logger.Init(config.Global.App.Env)
	defer logger.Sync()
	cfg := config.Global

	book, err := deployinfo.Load(cfg.Ledger.DeploymentFile)
	if err != nil {
		return err
	}
	if id, skip := deploy.AlreadyDeployed(book, name, force); skip {
		fmt.Printf("%s 已部署: %s (使用 --force 重新部署)\n", name, id)
		return nil
	}

	var ctorArgs []tx.Param
	for _, a := range rawArgs {
		p, err := tx.ParseParam(a)
		if err != nil {
			return err
		}
		ctorArgs = append(ctorArgs, p)
	}

	op, err := operator.Load(cfg.Operator)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	network, err := ledger.Dial(ctx, cfg.Ledger.RpcUrl, cfg.Ledger.ReceiptInterval, cfg.Ledger.ReceiptTimeout, logger.Named("ledger"))
	if err != nil {
		return err
	}
	defer network.Close()

	opts := deploy.Options{Network: cfg.Ledger.Network, Logger: logger.Named("deploy")}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		if rdb, err = database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			return err
		}
		defer rdb.Close()
		// 防止两个运营者同时部署同一合约
		opts.Lock = lock.NewRedisLock(rdb)
	}
	producer, err := mq.NewProducer(cfg, rdb, logger.Named("mq"))
	if err != nil {
		return err
	}
	if producer != nil {
		opts.Publisher = producer
		if kp, ok := producer.(*mq.KafkaProducer); ok {
			defer kp.Close()
		}
	}

	deployer := deploy.NewLedgerDeployer(
		tx.NewPreparer(network, nil),
		tx.NewBridge(0, logger.Named("signer")),
		tx.NewSubmitter(network, logger.Named("submitter")),
		cfg.Deploy.ArtifactDir,
		op.Key,
		ctorArgs,
	)

	policy := deploy.PolicyFor(cfg.Deploy, name)
	logger.Info("[Deploy] starting",
		zap.String("contract", name),
		zap.String("network", cfg.Ledger.Network),
		zap.String("operator", op.Address.Hex()),
		zap.Int("attempts", policy.Attempts()))

	res, err := deploy.NewDriver(deployer, book, opts).Run(ctx, name, policy)
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s 部署成功: %s (tx %s, %d 次尝试)\n",
		name, res.Deployment.ContractID, res.Deployment.TxID, len(res.Attempts))
	return nil
}

func main() {
	rootCmd.Flags().Bool("force", false, "即使已记录也重新部署")
	rootCmd.Flags().StringArray("arg", nil, "构造参数 <type>:<value>，可重复")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ 部署失败: %v\n", err)
		os.Exit(1)
	}
}
