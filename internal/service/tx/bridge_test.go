package tx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeDeposit(t *testing.T, p *Preparer) *FrozenTransaction {
	t.Helper()
	call, err := p.Prepare(PendingTransaction{ContractID: vault, FunctionName: "deposit", Params: []Param{{Type: KindUint256, Value: "1"}}})
	require.NoError(t, err)
	frozen, err := p.Freeze(context.Background(), call, common.Address{})
	require.NoError(t, err)
	return frozen
}

func TestBridge_LocalSignerSubmit(t *testing.T) {
	net := newFakeNetwork("SUCCESS")
	reg := NewABIRegistry()
	require.NoError(t, reg.Register(vault, mustABI(t)))
	p := NewPreparer(net, reg)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	frozen := freezeDeposit(t, p)

	signed, err := NewBridge(time.Second, nil).Sign(context.Background(), frozen, LocalSigner(key, frozen.ChainID()))
	require.NoError(t, err)

	txID, err := NewSubmitter(net, nil).Submit(context.Background(), signed)
	require.NoError(t, err)
	require.Equal(t, 1, net.sentCount())
	assert.Equal(t, net.sent[0].Hash().Hex(), txID)

	// 提交后签名字节被清零
	for _, b := range signed {
		require.Zero(t, b)
	}
}

func TestBridge_SingleUse(t *testing.T) {
	p := newTestPreparer(t)
	frozen := freezeDeposit(t, p)
	b := NewBridge(time.Second, nil)
	sign := func(context.Context, []byte) ([]byte, error) { return []byte{0x01}, nil }

	_, err := b.Sign(context.Background(), frozen, sign)
	require.NoError(t, err)
	_, err = b.Sign(context.Background(), frozen, sign)
	assert.ErrorIs(t, err, ErrTransactionConsumed)
}

func TestBridge_Declined(t *testing.T) {
	p := newTestPreparer(t)
	declined := func(context.Context, []byte) ([]byte, error) {
		return nil, errors.Join(ErrSigningDeclined, errors.New("user rejected the request"))
	}
	_, err := NewBridge(time.Second, nil).Sign(context.Background(), freezeDeposit(t, p), declined)
	assert.ErrorIs(t, err, ErrSigningDeclined)
}

func TestBridge_Timeout(t *testing.T) {
	p := newTestPreparer(t)
	slow := func(ctx context.Context, _ []byte) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	_, err := NewBridge(10*time.Millisecond, nil).Sign(context.Background(), freezeDeposit(t, p), slow)
	assert.ErrorIs(t, err, ErrSigningTimeout)
}

func TestSubmitter_Failed(t *testing.T) {
	net := newFakeNetwork("CONTRACT_REVERT_EXECUTED")
	reg := NewABIRegistry()
	require.NoError(t, reg.Register(vault, mustABI(t)))
	p := NewPreparer(net, reg)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	frozen := freezeDeposit(t, p)
	signed, err := NewBridge(time.Second, nil).Sign(context.Background(), frozen, LocalSigner(key, frozen.ChainID()))
	require.NoError(t, err)

	_, err = NewSubmitter(net, nil).Submit(context.Background(), signed)
	require.ErrorIs(t, err, ErrTransactionFailed)

	var failed *TransactionFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, "CONTRACT_REVERT_EXECUTED", failed.Status)
	assert.Equal(t, "transaction failed: CONTRACT_REVERT_EXECUTED", err.Error())
}

func TestSubmitter_Garbage(t *testing.T) {
	net := newFakeNetwork("SUCCESS")
	_, err := NewSubmitter(net, nil).Submit(context.Background(), SignedBytes{0xde, 0xad})
	assert.ErrorIs(t, err, ErrInvalidSignedBytes)
	assert.Zero(t, net.sentCount())
}
