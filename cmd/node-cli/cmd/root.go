package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"node-wallet/internal/bootstrap"
	"node-wallet/internal/service/session"
	"node-wallet/internal/service/tx"
	"node-wallet/pkg/config"
	"node-wallet/pkg/logger"

	"github.com/spf13/cobra"
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "node-cli",
	Short: "N.O.D.E. 钱包命令行工具",
	Long: `连接外部钱包 (扫码配对)、查询余额、调用 N.O.D.E. 合约。
配置读取 ./config.yaml，并可用 NODE_ 前缀的环境变量覆盖。`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Init()
		logger.Init(config.Global.App.Env)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// signalContext Ctrl+C 取消正在等待的操作
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// buildCore 终端里以二维码展示配对 URI
func buildCore(ctx context.Context) (*bootstrap.Core, error) {
	return bootstrap.Build(ctx, config.Global, session.NewTerminalPrompter(os.Stdout))
}

// describe 给用户看的简短错误信息
func describe(err error) string {
	switch {
	case errors.Is(err, session.ErrConnectionRejected):
		return "❌ 连接被钱包拒绝 (connection rejected)"
	case errors.Is(err, session.ErrConnectionTimeout):
		return "⌛ 等待钱包批准超时 (connection timed out)"
	case errors.Is(err, session.ErrInvalidAccountID):
		return fmt.Sprintf("❌ 钱包返回的账户无效: %v", err)
	case errors.Is(err, tx.ErrSigningDeclined):
		return "❌ 钱包拒绝签名 (signing declined)"
	case errors.Is(err, tx.ErrSigningTimeout):
		return "⌛ 等待钱包签名超时 (signing timed out)"
	case errors.Is(err, tx.ErrTransactionFailed), errors.Is(err, tx.ErrBytecodeOrParamsInvalid):
		return fmt.Sprintf("❌ %v", err)
	default:
		return fmt.Sprintf("❌ 未知错误，请重试 (unknown error, please retry): %v", err)
	}
}
