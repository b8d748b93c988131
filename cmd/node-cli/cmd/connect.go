package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "连接外部钱包",
	Long:  `已有会话时直接复用；否则在终端显示配对二维码，等待钱包批准、拒绝或超时。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		core, err := buildCore(ctx)
		if err != nil {
			return err
		}
		defer core.Close()

		ws, err := core.Sessions.Connect(ctx)
		if err != nil {
			return err
		}

		fmt.Println("\n✅ 钱包已连接")
		fmt.Printf("账户:   %s\n", ws.AccountID)
		fmt.Printf("网络:   %s\n", ws.Network)
		fmt.Printf("余额:   %s HBAR\n", ws.Balance)
		if !core.Config.Redis.Enabled {
			fmt.Println("\n提示: 未启用 Redis，会话只在本进程内有效。")
		}
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "断开钱包会话 (无会话时也成功)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		core, err := buildCore(ctx)
		if err != nil {
			return err
		}
		defer core.Close()

		core.Sessions.Disconnect(ctx)
		fmt.Println("已断开")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
}
