package tx

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const DefaultSignTimeout = 120 * time.Second

// Bridge 把冻结交易交给外部签名方。签名结果不解析也不记录。
type Bridge struct {
	timeout time.Duration
	log     *zap.Logger
}

func NewBridge(timeout time.Duration, log *zap.Logger) *Bridge {
	if timeout <= 0 {
		timeout = DefaultSignTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{timeout: timeout, log: log}
}

// Sign 拒绝 -> ErrSigningDeclined，超时 -> ErrSigningTimeout
func (b *Bridge) Sign(ctx context.Context, frozen *FrozenTransaction, sign SignFunc) (SignedBytes, error) {
	if !frozen.take() {
		return nil, ErrTransactionConsumed
	}
	unsigned, err := frozen.UnsignedBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize frozen transaction: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	b.log.Info("[Signer] 请求签名", zap.String("hash", frozen.Hash().Hex()))
	signed, err := sign(ctx, unsigned)
	switch {
	case err == nil:
	case errors.Is(err, ErrSigningDeclined):
		b.log.Info("[Signer] 用户拒绝签名")
		return nil, ErrSigningDeclined
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		b.log.Warn("[Signer] 签名超时", zap.Duration("timeout", b.timeout))
		return nil, ErrSigningTimeout
	default:
		return nil, fmt.Errorf("signing failed: %w", err)
	}
	if len(signed) == 0 {
		return nil, ErrInvalidSignedBytes
	}
	return SignedBytes(signed), nil
}

// LocalSigner 使用本地私钥签名 (部署脚本的运营账户)
func LocalSigner(key *ecdsa.PrivateKey, chainID *big.Int) SignFunc {
	signer := ethtypes.NewEIP155Signer(chainID)
	return func(ctx context.Context, unsigned []byte) ([]byte, error) {
		tx := new(ethtypes.Transaction)
		if err := tx.UnmarshalBinary(unsigned); err != nil {
			return nil, fmt.Errorf("decode unsigned transaction: %w", err)
		}
		signed, err := ethtypes.SignTx(tx, signer, key)
		if err != nil {
			return nil, err
		}
		return signed.MarshalBinary()
	}
}
