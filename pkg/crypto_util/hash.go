package crypto_util

import (
	"crypto/sha256"
	"encoding/hex"
)

// CalculateSHA256 计算输入的 SHA256 哈希值 (Hex)。
// 配对协议用它从对称密钥派生 topic。
func CalculateSHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
