package tx

import (
	"context"
	"fmt"

	"node-wallet/pkg/ledger"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Submitter 提交已签名交易并等待回执，不做重试
type Submitter struct {
	network ledger.Network
	log     *zap.Logger
}

func NewSubmitter(network ledger.Network, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{network: network, log: log}
}

// Submit 成功时返回交易 ID；回执状态非 SUCCESS 时返回 *TransactionFailedError
func (s *Submitter) Submit(ctx context.Context, signed SignedBytes) (string, error) {
	r, err := s.SubmitForReceipt(ctx, signed)
	if err != nil {
		return "", err
	}
	return r.TxID, nil
}

// SubmitForReceipt 同 Submit，但返回完整回执 (合约创建需要合约地址)
func (s *Submitter) SubmitForReceipt(ctx context.Context, signed SignedBytes) (*ledger.Receipt, error) {
	tx := new(ethtypes.Transaction)
	err := tx.UnmarshalBinary(signed)
	// 已签名字节只使用一次
	clear(signed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignedBytes, err)
	}

	if err := s.network.SendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	r, err := s.network.Receipt(ctx, tx.Hash())
	if err != nil {
		return nil, fmt.Errorf("wait receipt: %w", err)
	}
	if r.Status != ledger.StatusSuccess {
		s.log.Warn("[Submitter] 交易失败", zap.String("tx", r.TxID), zap.String("status", r.Status))
		return nil, &TransactionFailedError{TxID: r.TxID, Status: r.Status}
	}

	s.log.Info("[Submitter] 交易成功", zap.String("tx", r.TxID), zap.Uint64("block", r.BlockNumber))
	return r, nil
}
