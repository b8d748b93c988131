package crypto_util

import (
	"errors"
	"fmt"

	"node-wallet/pkg/safe_random"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrCiphertextTooShort 密文长度不足以包含 nonce
var ErrCiphertextTooShort = errors.New("密文太短")

// SealChaCha20 使用 ChaCha20-Poly1305 加密明文。
// 密钥必须是 32 字节。返回 nonce(12) + 密文。
func SealChaCha20(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("初始化 chacha20poly1305 失败: %w", err)
	}

	nonce, err := safe_random.GenerateRandomBytes(aead.NonceSize())
	if err != nil {
		return nil, err
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// OpenChaCha20 解密 SealChaCha20 的输出 (nonce + 密文)。
func OpenChaCha20(key, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("初始化 chacha20poly1305 失败: %w", err)
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, ErrCiphertextTooShort
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	return aead.Open(nil, nonce, sealed, nil)
}
