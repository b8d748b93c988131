// Package ledger 封装与账本网络 (JSON-RPC relay) 的交互
package ledger

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// 回执状态码
const (
	StatusSuccess  = "SUCCESS"
	StatusReverted = "CONTRACT_REVERT_EXECUTED"
)

var ErrReceiptTimeout = errors.New("receipt not available before deadline")

// Receipt 交易的最终状态
type Receipt struct {
	TxID            string
	Status          string
	ContractAddress common.Address // 仅合约创建交易
	BlockNumber     uint64
	GasUsed         uint64
}

// Network 交易冻结与提交所需的网络能力
type Network interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	// Receipt 阻塞直到回执可用或 ctx 结束
	Receipt(ctx context.Context, txHash common.Hash) (*Receipt, error)
	Close()
}
