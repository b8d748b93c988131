package deploy

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"node-wallet/internal/service/tx"
	"node-wallet/pkg/hedera"
	"node-wallet/pkg/ledger"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deployNetwork struct {
	sent    []*ethtypes.Transaction
	created common.Address
	status  string
}

func (n *deployNetwork) ChainID(context.Context) (*big.Int, error) { return big.NewInt(296), nil }
func (n *deployNetwork) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return uint64(len(n.sent)), nil
}
func (n *deployNetwork) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(540_000_000_000), nil
}
func (n *deployNetwork) SendTransaction(_ context.Context, t *ethtypes.Transaction) error {
	n.sent = append(n.sent, t)
	return nil
}
func (n *deployNetwork) Receipt(_ context.Context, h common.Hash) (*ledger.Receipt, error) {
	return &ledger.Receipt{TxID: h.Hex(), Status: n.status, ContractAddress: n.created, GasUsed: 21000}, nil
}
func (n *deployNetwork) Close() {}

const counterArtifact = `{
  "contractName": "Counter",
  "abi": [{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"start","type":"uint256"}]}],
  "bytecode": "0x6080604052"
}`

func TestLedgerDeployer_Deploy(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Counter.json"), []byte(counterArtifact), 0o644))

	created, err := hedera.ToEVMAddress("0.0.5005")
	require.NoError(t, err)
	net := &deployNetwork{created: created, status: ledger.StatusSuccess}

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	args := []tx.Param{{Type: tx.KindUint256, Value: "7"}}
	d := NewLedgerDeployer(tx.NewPreparer(net, nil), tx.NewBridge(0, nil), tx.NewSubmitter(net, nil), dir, key, args)

	dep, err := d.Deploy(context.Background(), "Counter", 2_000_000)
	require.NoError(t, err)
	assert.Equal(t, "0.0.5005", dep.ContractID)

	require.Len(t, net.sent, 1)
	sent := net.sent[0]
	assert.Nil(t, sent.To(), "contract creation has no recipient")
	assert.Equal(t, uint64(2_000_000), sent.Gas())
	assert.Equal(t, common.FromHex("0x6080604052"), sent.Data()[:5])
	assert.Len(t, sent.Data(), 5+32)

	sender, err := ethtypes.Sender(ethtypes.NewEIP155Signer(big.NewInt(296)), sent)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), sender)

	// 第二次尝试重新冻结
	_, err = d.Deploy(context.Background(), "Counter", 3_000_000)
	require.NoError(t, err)
	require.Len(t, net.sent, 2)
	assert.Equal(t, uint64(1), net.sent[1].Nonce())
}

func TestLedgerDeployer_Reverted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Counter.json"), []byte(counterArtifact), 0o644))
	net := &deployNetwork{status: ledger.StatusReverted}
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	d := NewLedgerDeployer(tx.NewPreparer(net, nil), tx.NewBridge(0, nil), tx.NewSubmitter(net, nil), dir, key,
		[]tx.Param{{Type: tx.KindUint256, Value: "1"}})
	_, err = d.Deploy(context.Background(), "Counter", 1_000_000)
	assert.ErrorIs(t, err, tx.ErrTransactionFailed)
	assert.Equal(t, ClassFatal, Classify(err))
}

func TestLedgerDeployer_MissingArtifact(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	net := &deployNetwork{status: ledger.StatusSuccess}
	d := NewLedgerDeployer(tx.NewPreparer(net, nil), tx.NewBridge(0, nil), tx.NewSubmitter(net, nil), t.TempDir(), key, nil)

	_, err = d.Deploy(context.Background(), "Nope", 1_000_000)
	require.Error(t, err)
	assert.Equal(t, ClassFatal, Classify(err))
	assert.Empty(t, net.sent)
}
