package bip32

import (
	"crypto/ecdsa"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
)

// EVMPath 运营账户使用的 BIP-44 以太坊路径 (ECDSA 账户同样适用于 JSON-RPC relay)
const EVMPath = "m/44'/60'/0'/0/0"

// ExtendedKey 包装了 BIP-32 扩展密钥
type ExtendedKey interface {
	// String 返回 Base58 编码的密钥字符串 (xprv... / xpub...)
	String() string

	ECPubKey() (*btcec.PublicKey, error)
	// ECPrivKey 用于获取底层的 EC 私钥 (用于签名)
	ECPrivKey() (*btcec.PrivateKey, error)
	// ECDSA 返回可直接交给 go-ethereum 签名的私钥
	ECDSA() (*ecdsa.PrivateKey, error)
	Derive(index uint32) (ExtendedKey, error)
	IsPrivate() bool
	// Neuter 返回对应的扩展公钥 (如果当前是私钥)
	Neuter() (ExtendedKey, error)
}

// HDWallet 定义了分层确定性钱包的基本行为
type HDWallet interface {
	MasterKey() ExtendedKey
	// DerivePath 根据路径 (如 "m/44'/60'/0'/0/0") 派生密钥
	DerivePath(path string) (ExtendedKey, error)
}

var (
	ErrInvalidSeed = errors.New("无效的种子")
	ErrInvalidPath = errors.New("无效的派生路径")
	ErrPublicOnly  = errors.New("扩展公钥不包含私钥")
)
