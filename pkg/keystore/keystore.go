// Package keystore 用密码加密保存运营账户的密钥材料 (私钥 hex 或助记词)
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"node-wallet/pkg/safe_random"

	"golang.org/x/crypto/scrypt"
)

var ErrWrongPassword = errors.New("invalid password or corrupted data (MAC mismatch)")

// SecretKind 加密内容的类型
type SecretKind string

const (
	KindPrivateKey SecretKind = "private-key"
	KindMnemonic   SecretKind = "mnemonic"
)

// EncryptedKeyJSON 沿用 Ethereum Keystore V3 的结构风格，
// 额外记录 kind 以区分私钥和助记词
type EncryptedKeyJSON struct {
	Crypto  CryptoJSON `json:"crypto"`
	Id      string     `json:"id"`
	Kind    SecretKind `json:"kind"`
	Version int        `json:"version"`
}

type CryptoJSON struct {
	Cipher       string       `json:"cipher"`     // "aes-256-gcm"
	CipherText   string       `json:"ciphertext"` // Hex string
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"` // "scrypt"
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"` // Hex string
}

type CipherParams struct {
	IV string `json:"iv"`
}

type KDFParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	Salt  string `json:"salt"`
}

// scrypt 参数，测试中会调小 N
var (
	scryptN = 262144
)

const (
	scryptR     = 8
	scryptP     = 1
	scryptDKLen = 32
)

// Encrypt 使用密码加密 secret
func Encrypt(kind SecretKind, secret, password string) (*EncryptedKeyJSON, error) {
	salt, err := safe_random.GenerateRandomBytes(32)
	if err != nil {
		return nil, err
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(derivedKey)
	if err != nil {
		return nil, err
	}
	nonce, err := safe_random.GenerateRandomBytes(gcm.NonceSize())
	if err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nil, nonce, []byte(secret), nil)

	// MAC = SHA256(derivedKey + ciphertext)，用于在解密前区分密码错误
	mac := computeMAC(derivedKey, ciphertext)

	id, err := safe_random.GenerateRandomBytes(16)
	if err != nil {
		return nil, err
	}

	return &EncryptedKeyJSON{
		Version: 3,
		Kind:    kind,
		Id:      fmt.Sprintf("%x-%x-%x-%x-%x", id[0:4], id[4:6], id[6:8], id[8:10], id[10:]),
		Crypto: CryptoJSON{
			Cipher:       "aes-256-gcm",
			CipherText:   hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{IV: hex.EncodeToString(nonce)},
			KDF:          "scrypt",
			KDFParams: KDFParams{
				DKLen: scryptDKLen,
				N:     scryptN,
				R:     scryptR,
				P:     scryptP,
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(mac),
		},
	}, nil
}

// Decrypt 解密 Keystore 获取 secret
func Decrypt(keyJSON *EncryptedKeyJSON, password string) (string, error) {
	salt, err := hex.DecodeString(keyJSON.Crypto.KDFParams.Salt)
	if err != nil {
		return "", fmt.Errorf("invalid salt: %w", err)
	}
	nonce, err := hex.DecodeString(keyJSON.Crypto.CipherParams.IV)
	if err != nil {
		return "", fmt.Errorf("invalid iv: %w", err)
	}
	ciphertext, err := hex.DecodeString(keyJSON.Crypto.CipherText)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext: %w", err)
	}
	mac, err := hex.DecodeString(keyJSON.Crypto.MAC)
	if err != nil {
		return "", fmt.Errorf("invalid mac: %w", err)
	}

	p := keyJSON.Crypto.KDFParams
	derivedKey, err := scrypt.Key([]byte(password), salt, p.N, p.R, p.P, p.DKLen)
	if err != nil {
		return "", err
	}

	if subtle.ConstantTimeCompare(mac, computeMAC(derivedKey, ciphertext)) != 1 {
		return "", ErrWrongPassword
	}

	gcm, err := newGCM(derivedKey)
	if err != nil {
		return "", err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}

// SaveToFile 保存到文件，权限 0600
func (k *EncryptedKeyJSON) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o600)
}

// LoadFromFile 从文件加载
func LoadFromFile(filename string) (*EncryptedKeyJSON, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var k EncryptedKeyJSON
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("parse keystore %s: %w", filename, err)
	}
	if k.Kind == "" {
		// 旧文件只保存助记词
		k.Kind = KindMnemonic
	}
	return &k, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func computeMAC(derivedKey, ciphertext []byte) []byte {
	buf := make([]byte, 0, len(derivedKey)+len(ciphertext))
	buf = append(buf, derivedKey...)
	buf = append(buf, ciphertext...)
	sum := sha256.Sum256(buf)
	return sum[:]
}
