package ledger

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	chainCalls   atomic.Int32
	receiptCalls atomic.Int32
	notFoundFor  int32
	status       uint64
	receiptErr   error
}

func (s *stubBackend) ChainID(context.Context) (*big.Int, error) {
	s.chainCalls.Add(1)
	return big.NewInt(296), nil
}
func (s *stubBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) { return 7, nil }
func (s *stubBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}
func (s *stubBackend) SendTransaction(context.Context, *ethtypes.Transaction) error { return nil }
func (s *stubBackend) TransactionReceipt(context.Context, common.Hash) (*ethtypes.Receipt, error) {
	n := s.receiptCalls.Add(1)
	if s.receiptErr != nil {
		return nil, s.receiptErr
	}
	if n <= s.notFoundFor {
		return nil, ethereum.NotFound
	}
	return &ethtypes.Receipt{Status: s.status, BlockNumber: big.NewInt(42), GasUsed: 21000}, nil
}
func (s *stubBackend) Close() {}

func TestReceipt_PollsUntilAvailable(t *testing.T) {
	b := &stubBackend{notFoundFor: 2, status: ethtypes.ReceiptStatusSuccessful}
	n := newEthNetwork(b, time.Millisecond, 0, nil)

	hash := common.HexToHash("0x01")
	r, err := n.Receipt(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, hash.Hex(), r.TxID)
	assert.Equal(t, uint64(42), r.BlockNumber)
	assert.Equal(t, int32(3), b.receiptCalls.Load())
}

func TestReceipt_Reverted(t *testing.T) {
	n := newEthNetwork(&stubBackend{status: ethtypes.ReceiptStatusFailed}, time.Millisecond, 0, nil)
	r, err := n.Receipt(context.Background(), common.HexToHash("0x02"))
	require.NoError(t, err)
	assert.Equal(t, StatusReverted, r.Status)
}

func TestReceipt_Deadline(t *testing.T) {
	n := newEthNetwork(&stubBackend{notFoundFor: 1 << 30}, time.Millisecond, 0, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := n.Receipt(ctx, common.HexToHash("0x03"))
	assert.ErrorIs(t, err, ErrReceiptTimeout)
}

func TestReceipt_OwnTimeout(t *testing.T) {
	// 调用方没有设置 deadline，回执一直不出现时按 receipt timeout 返回
	b := &stubBackend{notFoundFor: 1 << 30}
	n := newEthNetwork(b, time.Millisecond, 50*time.Millisecond, nil)

	start := time.Now()
	_, err := n.Receipt(context.Background(), common.HexToHash("0x05"))
	assert.ErrorIs(t, err, ErrReceiptTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestReceipt_RPCError(t *testing.T) {
	boom := errors.New("connection refused")
	n := newEthNetwork(&stubBackend{receiptErr: boom}, time.Millisecond, 0, nil)
	_, err := n.Receipt(context.Background(), common.HexToHash("0x04"))
	assert.ErrorIs(t, err, boom)
}

func TestChainID_Cached(t *testing.T) {
	b := &stubBackend{}
	n := newEthNetwork(b, 0, 0, nil)
	for i := 0; i < 3; i++ {
		id, err := n.ChainID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(296), id.Int64())
	}
	assert.Equal(t, int32(1), b.chainCalls.Load())
}
