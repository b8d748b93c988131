package tx

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"

	"node-wallet/pkg/ledger"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

const testABI = `[
  {"type":"function","name":"deposit","stateMutability":"payable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setName","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"},{"name":"owner","type":"address"}],"outputs":[]},
  {"type":"function","name":"setLevel","stateMutability":"nonpayable","inputs":[{"name":"level","type":"uint8"},{"name":"tag","type":"bytes32"}],"outputs":[]}
]`

func mustABI(t *testing.T) *abi.ABI {
	t.Helper()
	a, err := abi.JSON(strings.NewReader(testABI))
	require.NoError(t, err)
	return &a
}

// fakeNetwork 记录提交的交易，回执状态可配置
type fakeNetwork struct {
	mu     sync.Mutex
	sent   []*ethtypes.Transaction
	status string
}

func newFakeNetwork(status string) *fakeNetwork {
	return &fakeNetwork{status: status}
}

func (n *fakeNetwork) ChainID(context.Context) (*big.Int, error) { return big.NewInt(296), nil }
func (n *fakeNetwork) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 3, nil
}
func (n *fakeNetwork) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}
func (n *fakeNetwork) SendTransaction(_ context.Context, tx *ethtypes.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, tx)
	return nil
}
func (n *fakeNetwork) Receipt(_ context.Context, h common.Hash) (*ledger.Receipt, error) {
	return &ledger.Receipt{TxID: h.Hex(), Status: n.status, BlockNumber: 1}, nil
}
func (n *fakeNetwork) Close() {}

func (n *fakeNetwork) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
