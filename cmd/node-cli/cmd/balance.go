package cmd

import (
	"fmt"

	"node-wallet/pkg/config"
	"node-wallet/pkg/hedera"
	"node-wallet/pkg/logger"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <accountId>",
	Short: "查询账户余额 (HBAR，两位小数)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		accountID := args[0]
		if err := hedera.ValidateAccountID(accountID); err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		mirror := hedera.NewMirrorClient(config.Global.Ledger.MirrorUrl, logger.Named("mirror"))
		fmt.Printf("%s: %s HBAR\n", accountID, mirror.DisplayBalance(ctx, accountID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
