package walletconnect

import (
	"encoding/base64"
	"errors"
	"fmt"

	"node-wallet/pkg/crypto_util"
)

// envelopeType0: 使用共享对称密钥加密的信封
const envelopeType0 byte = 0x00

var ErrEnvelope = errors.New("invalid envelope")

// Seal 加密并编码一条消息: base64(type | nonce | sealed)
func Seal(key, plaintext []byte) (string, error) {
	sealed, err := crypto_util.SealChaCha20(key, plaintext)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 0, 1+len(sealed))
	buf = append(buf, envelopeType0)
	buf = append(buf, sealed...)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Open 是 Seal 的逆操作
func Open(key []byte, envelope string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	if len(raw) < 1 || raw[0] != envelopeType0 {
		return nil, fmt.Errorf("%w: unsupported type", ErrEnvelope)
	}
	plaintext, err := crypto_util.OpenChaCha20(key, raw[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	return plaintext, nil
}
