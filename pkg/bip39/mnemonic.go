package bip39

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

var ErrInvalidMnemonic = errors.New("无效的助记词")

// MnemonicService 提供助记词相关的功能
type MnemonicService struct{}

func NewMnemonicService() *MnemonicService {
	return &MnemonicService{}
}

// GenerateMnemonic 生成一个新的随机助记词 (BIP-39)。
// bitSize: 熵的位数，通常为 128 (12个单词) 或 256 (24个单词)。
func (s *MnemonicService) GenerateMnemonic(bitSize int) (string, error) {
	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", fmt.Errorf("生成熵失败: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("生成助记词失败: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic 验证助记词是否有效。
func (s *MnemonicService) ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalize(mnemonic))
}

// Seed 校验助记词后转换为种子 (BIP-39 Seed)。
// 环境变量里的助记词经常带多余空格或换行，先做归一化。
func (s *MnemonicService) Seed(mnemonic, passphrase string) ([]byte, error) {
	m := normalize(mnemonic)
	if !bip39.IsMnemonicValid(m) {
		return nil, ErrInvalidMnemonic
	}
	return bip39.NewSeed(m, passphrase), nil
}

func normalize(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}
