package safe_random

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
)

// Reader 是一个全局共享的加密安全随机数生成器实例。
// 默认为 crypto/rand.Reader，测试中可以替换。
var Reader io.Reader = rand.Reader

// GenerateRandomBytes 生成指定长度的安全随机字节切片。
// 如果系统的安全随机数生成器失败，将返回错误。
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	// 注意：只有读取了 len(b) 个字节，err 才为 nil。
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, fmt.Errorf("生成随机字节失败: %w", err)
	}
	return b, nil
}

// GenerateRandomHexString 生成 n 字节随机数据的 Hex 编码，长度为 2n。
func GenerateRandomHexString(n int) (string, error) {
	b, err := GenerateRandomBytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateMessageID 生成 JSON-RPC 风格的消息 ID。
// 只取 53 位，保证在 JavaScript 端 (钱包) 不丢精度。
func GenerateMessageID() (uint64, error) {
	b, err := GenerateRandomBytes(8)
	if err != nil {
		return 0, err
	}
	id := binary.BigEndian.Uint64(b) & (1<<53 - 1)
	if id == 0 {
		id = 1
	}
	return id, nil
}
