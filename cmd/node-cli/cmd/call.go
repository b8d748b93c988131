package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"node-wallet/internal/service/tx"

	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <Contract> <function> [type:value ...]",
	Short: "通过已连接钱包签名并调用合约",
	Long: `Contract 可以是 deployment-info.json 中的合约名，也可以直接是 0.0.N / 0x 地址。
参数写法 <type>:<value>，type 为 string / uint256 / address / bytes，省略时视为 string。

例: node-cli call NodeRegistry registerNode string:node-1 uint256:1000 --value 100000000`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gas, _ := cmd.Flags().GetUint64("gas")
		value, _ := cmd.Flags().GetString("value")

		pt := tx.PendingTransaction{FunctionName: args[1], GasLimit: gas}
		for _, a := range args[2:] {
			p, err := tx.ParseParam(a)
			if err != nil {
				return err
			}
			pt.Params = append(pt.Params, p)
		}
		if value != "" {
			v, ok := new(big.Int).SetString(value, 10)
			if !ok || v.Sign() < 0 {
				return fmt.Errorf("%w: value must be a non-negative integer", tx.ErrBytecodeOrParamsInvalid)
			}
			pt.PayableValue = v
		}

		ctx, stop := signalContext()
		defer stop()

		core, err := buildCore(ctx)
		if err != nil {
			return err
		}
		defer core.Close()

		pt.ContractID = args[0]
		if !strings.HasPrefix(args[0], "0.") && !strings.HasPrefix(args[0], "0x") {
			if pt.ContractID, err = core.Book.Get(args[0]); err != nil {
				return err
			}
		}

		// 签名前确保会话存在
		if _, err := core.Sessions.Connect(ctx); err != nil {
			return err
		}

		fmt.Printf("正在调用 %s.%s，请在钱包中确认签名...\n", args[0], pt.FunctionName)
		res, err := core.Executor.Execute(ctx, pt)
		if err != nil {
			return err
		}
		fmt.Printf("✅ 交易成功: %s\n", res.TxID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().Uint64("gas", tx.DefaultGasLimit, "gas 上限 (不超过 1000000)")
	callCmd.Flags().String("value", "", "附带金额 (tinybar)，仅 payable 函数")
}
