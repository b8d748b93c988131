// Package operator 加载部署脚本使用的运营账户密钥
package operator

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"node-wallet/pkg/bip32"
	"node-wallet/pkg/bip39"
	"node-wallet/pkg/config"
	"node-wallet/pkg/hedera"
	"node-wallet/pkg/keystore"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrNoKeyMaterial = errors.New("operator key not configured (set operator.key, operator.mnemonic or operator.keystore_path)")

// Operator 运营账户
type Operator struct {
	ID      string // 0.0.N，可为空
	Key     *ecdsa.PrivateKey
	Address common.Address
}

// Load 按 Key > Mnemonic > KeystorePath 的优先级加载
func Load(cfg config.OperatorConfig) (*Operator, error) {
	if cfg.ID != "" {
		if err := hedera.ValidateAccountID(cfg.ID); err != nil {
			return nil, fmt.Errorf("operator.id: %w", err)
		}
	}

	key, err := loadKey(cfg)
	if err != nil {
		return nil, err
	}
	return &Operator{
		ID:      cfg.ID,
		Key:     key,
		Address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func loadKey(cfg config.OperatorConfig) (*ecdsa.PrivateKey, error) {
	switch {
	case cfg.Key != "":
		return FromHex(cfg.Key)
	case cfg.Mnemonic != "":
		return FromMnemonic(cfg.Mnemonic)
	case cfg.KeystorePath != "":
		kj, err := keystore.LoadFromFile(cfg.KeystorePath)
		if err != nil {
			return nil, fmt.Errorf("load keystore: %w", err)
		}
		secret, err := keystore.Decrypt(kj, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("decrypt keystore: %w", err)
		}
		if kj.Kind == keystore.KindPrivateKey {
			return FromHex(secret)
		}
		return FromMnemonic(secret)
	default:
		return nil, ErrNoKeyMaterial
	}
}

// FromHex 解析 hex 私钥，兼容 0x 前缀以及 DER 编码 (302e0201010420 前缀) 的 ECDSA 私钥
func FromHex(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	const derPrefix = "302e0201010420"
	if len(s) == 64+len(derPrefix)+18 && strings.HasPrefix(s, derPrefix) {
		s = s[len(derPrefix) : len(derPrefix)+64]
	}
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("invalid operator key: %w", err)
	}
	return key, nil
}

// FromMnemonic 从助记词按 m/44'/60'/0'/0/0 派生
func FromMnemonic(mnemonic string) (*ecdsa.PrivateKey, error) {
	seed, err := bip39.NewMnemonicService().Seed(mnemonic, "")
	if err != nil {
		return nil, err
	}
	w, err := bip32.NewMasterKeyFromSeed(seed)
	if err != nil {
		return nil, err
	}
	k, err := w.DerivePath(bip32.EVMPath)
	if err != nil {
		return nil, err
	}
	return k.ECDSA()
}
