package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const (
	defaultReceiptInterval = 2 * time.Second
	defaultReceiptTimeout  = 2 * time.Minute
)

// ethBackend 是 ethclient.Client 中用到的方法子集，便于测试替换
type ethBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	Close()
}

// EthNetwork 通过 JSON-RPC relay 访问账本
type EthNetwork struct {
	backend  ethBackend
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	chainID *big.Int
}

// Dial 连接 RPC 节点
// receiptInterval 为回执轮询间隔，receiptTimeout 为单笔交易等待回执的上限
func Dial(ctx context.Context, rpcURL string, receiptInterval, receiptTimeout time.Duration, log *zap.Logger) (*EthNetwork, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", rpcURL, err)
	}
	return newEthNetwork(client, receiptInterval, receiptTimeout, log), nil
}

func newEthNetwork(backend ethBackend, interval, timeout time.Duration, log *zap.Logger) *EthNetwork {
	if interval <= 0 {
		interval = defaultReceiptInterval
	}
	if timeout <= 0 {
		timeout = defaultReceiptTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EthNetwork{backend: backend, interval: interval, timeout: timeout, log: log}
}

// ChainID 缓存首次查询结果
func (n *EthNetwork) ChainID(ctx context.Context) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.chainID != nil {
		return new(big.Int).Set(n.chainID), nil
	}
	id, err := n.backend.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	n.chainID = id
	return new(big.Int).Set(id), nil
}

func (n *EthNetwork) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return n.backend.PendingNonceAt(ctx, account)
}

func (n *EthNetwork) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return n.backend.SuggestGasPrice(ctx)
}

func (n *EthNetwork) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	n.log.Info("[Ledger] 提交交易", zap.String("hash", tx.Hash().Hex()))
	return n.backend.SendTransaction(ctx, tx)
}

// Receipt 轮询回执直到可用，最多等待 timeout (调用方的 ctx 更早结束时以 ctx 为准)
func (n *EthNetwork) Receipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		r, err := n.backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			return convertReceipt(txHash, r), nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrReceiptTimeout, ctx.Err())
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("query receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrReceiptTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (n *EthNetwork) Close() {
	n.backend.Close()
}

func convertReceipt(txHash common.Hash, r *ethtypes.Receipt) *Receipt {
	out := &Receipt{
		TxID:            txHash.Hex(),
		Status:          StatusReverted,
		ContractAddress: r.ContractAddress,
		GasUsed:         r.GasUsed,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	if r.Status == ethtypes.ReceiptStatusSuccessful {
		out.Status = StatusSuccess
	}
	return out
}
