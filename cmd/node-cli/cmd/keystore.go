package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"node-wallet/pkg/bip39"
	"node-wallet/pkg/keystore"
	"node-wallet/pkg/operator"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "管理部署用运营账户的加密 Keystore",
}

var keystoreNewCmd = &cobra.Command{
	Use:   "new",
	Short: "生成新的助记词并加密保存",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, _ := cmd.Flags().GetString("output")
		if err := checkNotExists(outputFile); err != nil {
			return err
		}

		fmt.Println("请设置一个强密码来保护您的助记词。")
		password, err := readNewPassword()
		if err != nil {
			return err
		}

		mnemonic, err := bip39.NewMnemonicService().GenerateMnemonic(128) // 12 词
		if err != nil {
			return fmt.Errorf("生成助记词失败: %w", err)
		}
		key, err := operator.FromMnemonic(mnemonic)
		if err != nil {
			return err
		}

		if err := save(keystore.KindMnemonic, mnemonic, password, outputFile); err != nil {
			return err
		}
		fmt.Printf("EVM 地址: %s\n", crypto.PubkeyToAddress(key.PublicKey).Hex())

		fmt.Print("\n是否需要现在显示助记词以便备份? (y/N): ")
		input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if input = strings.TrimSpace(strings.ToLower(input)); input == "y" || input == "yes" {
			fmt.Println("\n---------------------------------------------------")
			fmt.Println(mnemonic)
			fmt.Println("---------------------------------------------------")
		}
		return nil
	},
}

var keystoreImportCmd = &cobra.Command{
	Use:   "import",
	Short: "导入已有的私钥 (hex 或 DER) 并加密保存",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, _ := cmd.Flags().GetString("output")
		if err := checkNotExists(outputFile); err != nil {
			return err
		}

		fmt.Print("输入私钥: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("读取私钥失败: %w", err)
		}
		key, err := operator.FromHex(strings.TrimSpace(string(raw)))
		if err != nil {
			return err
		}

		password, err := readNewPassword()
		if err != nil {
			return err
		}
		if err := save(keystore.KindPrivateKey, fmt.Sprintf("%x", crypto.FromECDSA(key)), password, outputFile); err != nil {
			return err
		}
		fmt.Printf("EVM 地址: %s\n", crypto.PubkeyToAddress(key.PublicKey).Hex())
		return nil
	},
}

func checkNotExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("文件 %s 已存在，请先删除或指定其他文件名", path)
	}
	return nil
}

func readNewPassword() (string, error) {
	fmt.Print("输入密码: ")
	p1, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}
	fmt.Print("确认密码: ")
	p2, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}
	if string(p1) != string(p2) {
		return "", fmt.Errorf("两次输入的密码不一致")
	}
	if len(p1) < 8 {
		return "", fmt.Errorf("密码长度至少需要 8 位")
	}
	return string(p1), nil
}

func save(kind keystore.SecretKind, secret, password, path string) error {
	enc, err := keystore.Encrypt(kind, secret, password)
	if err != nil {
		return fmt.Errorf("加密失败: %w", err)
	}
	if err := enc.SaveToFile(path); err != nil {
		return fmt.Errorf("保存文件失败: %w", err)
	}
	fmt.Printf("\n✅ Keystore 已保存: %s\n", path)
	fmt.Println("部署时设置 NODE_OPERATOR_KEYSTORE_PATH 与 NODE_OPERATOR_PASSWORD 即可使用。")
	return nil
}

func init() {
	rootCmd.AddCommand(keystoreCmd)
	keystoreCmd.AddCommand(keystoreNewCmd)
	keystoreCmd.AddCommand(keystoreImportCmd)
	keystoreNewCmd.Flags().StringP("output", "o", "operator.json", "输出的 Keystore 文件名")
	keystoreImportCmd.Flags().StringP("output", "o", "operator.json", "输出的 Keystore 文件名")
}
