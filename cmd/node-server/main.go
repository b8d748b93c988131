package main

import (
	"context"
	"time"

	"node-wallet/internal/bootstrap"
	"node-wallet/internal/handler"
	"node-wallet/internal/server"
	"node-wallet/internal/service"
	"node-wallet/internal/service/session"
	"node-wallet/pkg/config"
	"node-wallet/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 0. 初始化 Config
	config.Init()

	// 1. 初始化 Logger
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	// 2. 组装钱包核心，配对 URI 通过 /api/v1/wallet/pairing 交给前端展示
	board := session.NewPairingBoard()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	core, err := bootstrap.Build(ctx, config.Global, board)
	cancel()
	if err != nil {
		logger.Fatal("初始化失败", zap.Error(err))
	}

	logger.Info("钱包核心已就绪",
		zap.String("network", config.Global.Ledger.Network),
		zap.String("rpc", config.Global.Ledger.RpcUrl),
		zap.Int("contracts", len(core.Book.All())))

	// 3. 定时任务: 刷新部署记录、清理过期会话
	cronSvc := service.NewCronService(core.Book, core.Sessions, logger.Named("cron"))
	if err := cronSvc.Register(config.Global.Cron); err != nil {
		logger.Fatal("定时任务注册失败", zap.Error(err))
	}
	cronSvc.Start()

	// 4. HTTP
	router := server.NewHTTPRouter(server.Handlers{
		Wallet:   handler.NewWalletHandler(core.Sessions, board, core.Mirror),
		Account:  handler.NewAccountHandler(core.Mirror),
		Contract: handler.NewContractHandler(core.Book),
		Tx:       handler.NewTxHandler(core.Executor, core.Book),
	})

	app := server.New(server.Config{
		HttpPort:        config.Global.App.HttpPort,
		ShutdownTimeout: 10 * time.Second,
	}, router)
	app.OnStop(core.Close)
	app.OnStop(cronSvc.Stop)
	app.Run()
}
