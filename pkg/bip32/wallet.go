package bip32

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// keychain 实现了 ExtendedKey 接口，封装了 hdkeychain.ExtendedKey
type keychain struct {
	key *hdkeychain.ExtendedKey
}

func (k *keychain) String() string {
	return k.key.String()
}

func (k *keychain) ECPubKey() (*btcec.PublicKey, error) {
	return k.key.ECPubKey()
}

func (k *keychain) ECPrivKey() (*btcec.PrivateKey, error) {
	if !k.key.IsPrivate() {
		return nil, ErrPublicOnly
	}
	return k.key.ECPrivKey()
}

func (k *keychain) ECDSA() (*ecdsa.PrivateKey, error) {
	pk, err := k.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return pk.ToECDSA(), nil
}

func (k *keychain) Derive(index uint32) (ExtendedKey, error) {
	child, err := k.key.Derive(index)
	if err != nil {
		return nil, fmt.Errorf("派生子密钥失败: %w", err)
	}
	return &keychain{key: child}, nil
}

func (k *keychain) IsPrivate() bool {
	return k.key.IsPrivate()
}

func (k *keychain) Neuter() (ExtendedKey, error) {
	pub, err := k.key.Neuter()
	if err != nil {
		return nil, fmt.Errorf("转换公钥失败: %w", err)
	}
	return &keychain{key: pub}, nil
}

// Wallet 实现 HDWallet 接口
type Wallet struct {
	master *keychain
}

// NewMasterKeyFromSeed 使用 BIP-39 种子生成主密钥。
// 这里只用到私钥派生，版本字节沿用 MainNet 的 xprv。
func NewMasterKeyFromSeed(seed []byte) (*Wallet, error) {
	if len(seed) < hdkeychain.MinSeedBytes || len(seed) > hdkeychain.MaxSeedBytes {
		return nil, ErrInvalidSeed
	}

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("生成主密钥失败: %w", err)
	}
	return &Wallet{master: &keychain{key: master}}, nil
}

func (w *Wallet) MasterKey() ExtendedKey {
	return w.master
}

// DerivePath 解析路径并派生密钥
// 支持格式: m/44'/60'/0'/0/0 或 m/44h/60h/0h/0/0
func (w *Wallet) DerivePath(path string) (ExtendedKey, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "m" {
		return w.master, nil
	}
	rest, ok := strings.CutPrefix(path, "m/")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	var current ExtendedKey = w.master
	for _, segment := range strings.Split(rest, "/") {
		hardened := strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "h")
		if hardened {
			segment = segment[:len(segment)-1]
		}

		val, err := strconv.ParseUint(segment, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: 路径段 %q", ErrInvalidPath, segment)
		}
		index := uint32(val)
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}

		if current, err = current.Derive(index); err != nil {
			return nil, err
		}
	}
	return current, nil
}
