package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"node-wallet/internal/service/tx"
	"node-wallet/pkg/cache"
	"node-wallet/pkg/walletconnect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walletBehavior 钱包收到配对 URI 后的反应
type walletBehavior int

const (
	walletApprove walletBehavior = iota
	walletReject
	walletIgnore
)

// fakeWalletPrompter 扮演 "用户 + 钱包": 打开提示时解析 URI 并按 behavior 回复
type fakeWalletPrompter struct {
	client   *walletconnect.Client
	behavior walletBehavior
	accounts []string

	opens  atomic.Int32
	closes atomic.Int32

	mu        sync.Mutex
	dismissed chan struct{}
}

func (p *fakeWalletPrompter) Open(uri string) (<-chan struct{}, error) {
	pairing, err := walletconnect.ParseURI(uri)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.dismissed = make(chan struct{})
	ch := p.dismissed
	p.mu.Unlock()
	p.opens.Add(1)

	var msg *walletconnect.Message
	switch p.behavior {
	case walletApprove:
		msg = &walletconnect.Message{
			Type:     walletconnect.TypeSessionApprove,
			Accounts: p.accounts,
			Peer:     &walletconnect.PeerMetadata{Name: "HashPack"},
			Expiry:   time.Now().Add(time.Hour).Unix(),
		}
	case walletReject:
		msg = &walletconnect.Message{
			Type:  walletconnect.TypeSessionReject,
			Error: &walletconnect.WalletError{Code: walletconnect.CodeUserRejected, Message: "User rejected"},
		}
	}
	if msg != nil {
		go func() {
			_ = p.client.Publish(context.Background(), pairing.Topic, pairing.SymKey, msg)
		}()
	}
	return ch, nil
}

func (p *fakeWalletPrompter) Close() {
	p.closes.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dismissed != nil {
		close(p.dismissed)
		p.dismissed = nil
	}
}

type fixedBalance string

func (b fixedBalance) DisplayBalance(context.Context, string) string { return string(b) }

func newTestManager(t *testing.T, behavior walletBehavior, accounts ...string) (*Manager, *fakeWalletPrompter, *walletconnect.Client) {
	t.Helper()
	client := walletconnect.NewClient(walletconnect.NewMemoryRelay(), nil)
	prompter := &fakeWalletPrompter{client: client, behavior: behavior, accounts: accounts}
	store := NewCacheStore(cache.NewMemoryCache(time.Hour, time.Hour))
	m := NewManager(client, store, prompter, Options{
		Network:         "testnet",
		ApprovalTimeout: 50 * time.Millisecond,
		Balance:         fixedBalance("1.23"),
	})
	require.NoError(t, m.Open(context.Background()))
	t.Cleanup(func() { _ = m.Close() })
	return m, prompter, client
}

func TestConnect_Approved(t *testing.T) {
	m, prompter, _ := newTestManager(t, walletApprove, "hedera:testnet:0.0.12345")

	ws, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.0.12345", ws.AccountID)
	assert.True(t, ws.IsConnected)
	assert.Equal(t, WalletTypeWalletConnect, ws.WalletType)
	assert.Equal(t, "1.23", ws.Balance)
	assert.Equal(t, "HashPack", ws.View().WalletName)
	assert.Equal(t, int32(1), prompter.opens.Load())
	assert.Equal(t, int32(1), prompter.closes.Load(), "prompt must be closed after approval")
}

func TestConnect_ReuseDoesNotPrompt(t *testing.T) {
	m, prompter, _ := newTestManager(t, walletApprove, "hedera:testnet:0.0.7")

	first, err := m.Connect(context.Background())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := m.Connect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first.AccountID, again.AccountID)
	}
	assert.Equal(t, int32(1), prompter.opens.Load())
}

func TestConnect_ReuseFromStoreAfterRestart(t *testing.T) {
	client := walletconnect.NewClient(walletconnect.NewMemoryRelay(), nil)
	store := NewCacheStore(cache.NewMemoryCache(time.Hour, time.Hour))

	p1 := &fakeWalletPrompter{client: client, behavior: walletApprove, accounts: []string{"hedera:testnet:0.0.88"}}
	m1 := NewManager(client, store, p1, Options{ApprovalTimeout: time.Second})
	_, err := m1.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, m1.Close())

	// 新的管理器实例从缓存恢复会话，不再弹出配对
	p2 := &fakeWalletPrompter{client: client, behavior: walletIgnore}
	m2 := NewManager(client, store, p2, Options{ApprovalTimeout: time.Second})
	require.NoError(t, m2.Open(context.Background()))
	defer m2.Close()

	ws, err := m2.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.0.88", ws.AccountID)
	assert.Zero(t, p2.opens.Load())
}

func TestConnect_TimeoutNoListenerLeak(t *testing.T) {
	m, prompter, client := newTestManager(t, walletIgnore)
	before := client.ListenerCount()

	for i := 0; i < 5; i++ {
		_, err := m.Connect(context.Background())
		require.ErrorIs(t, err, ErrConnectionTimeout)
		assert.Equal(t, before, client.ListenerCount(), "attempt %d leaked listeners", i+1)
	}
	assert.Equal(t, int32(5), prompter.closes.Load())
	assert.Nil(t, m.Current(context.Background()))
}

func TestConnect_Rejected(t *testing.T) {
	m, _, client := newTestManager(t, walletReject)

	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnectionRejected)
	assert.Zero(t, client.ListenerCount())
}

func TestConnect_DismissedPromptIsRejection(t *testing.T) {
	m, prompter, _ := newTestManager(t, walletIgnore)
	m.opts.ApprovalTimeout = 5 * time.Second

	go func() {
		for prompter.opens.Load() == 0 {
			time.Sleep(time.Millisecond)
		}
		prompter.Close()
	}()

	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnectionRejected)
}

func TestConnect_InvalidAccountID(t *testing.T) {
	for _, accounts := range [][]string{
		{"hedera:testnet:0x00000000000000000000000000000000000004d2"},
		{"hedera:testnet:1.2.3"},
		{},
	} {
		m, _, client := newTestManager(t, walletApprove, accounts...)
		_, err := m.Connect(context.Background())
		assert.ErrorIs(t, err, ErrInvalidAccountID, "%v", accounts)
		assert.Nil(t, m.Current(context.Background()))
		assert.Zero(t, client.ListenerCount())
	}
}

func TestConnect_PairingInProgress(t *testing.T) {
	m, prompter, _ := newTestManager(t, walletIgnore)
	m.opts.ApprovalTimeout = time.Second

	done := make(chan error, 1)
	go func() {
		_, err := m.Connect(context.Background())
		done <- err
	}()
	for prompter.opens.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, ErrPairingInProgress)

	// Disconnect 关闭提示，进行中的配对以拒绝结束
	m.Disconnect(context.Background())
	assert.ErrorIs(t, <-done, ErrConnectionRejected)
}

func TestDisconnect_NoSession(t *testing.T) {
	m, _, _ := newTestManager(t, walletIgnore)
	assert.NotPanics(t, func() {
		m.Disconnect(context.Background())
		m.Disconnect(context.Background())
	})
}

func TestDisconnect_NotifiesWallet(t *testing.T) {
	m, prompter, client := newTestManager(t, walletApprove, "hedera:testnet:0.0.5")
	ws, err := m.Connect(context.Background())
	require.NoError(t, err)

	got := make(chan *walletconnect.Message, 1)
	off, err := client.Listen(context.Background(), ws.Topic, ws.SymKey, func(msg *walletconnect.Message) {
		if msg.Type == walletconnect.TypeSessionDelete {
			got <- msg
		}
	})
	require.NoError(t, err)
	defer off()

	m.Disconnect(context.Background())
	select {
	case msg := <-got:
		assert.Equal(t, walletconnect.CodeUserDisconnected, msg.Error.Code)
	case <-time.After(time.Second):
		t.Fatal("wallet was not notified")
	}
	assert.Nil(t, m.Current(context.Background()))

	// 断开后再次连接需要重新配对
	_, err = m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), prompter.opens.Load())
}

func TestRemoteDelete(t *testing.T) {
	m, _, client := newTestManager(t, walletApprove, "hedera:testnet:0.0.5")
	ws, err := m.Connect(context.Background())
	require.NoError(t, err)

	require.NoError(t, client.Publish(context.Background(), ws.Topic, ws.SymKey, &walletconnect.Message{Type: walletconnect.TypeSessionDelete}))
	assert.Eventually(t, func() bool { return m.Current(context.Background()) == nil }, time.Second, 5*time.Millisecond)
}

func TestSigner(t *testing.T) {
	m, _, client := newTestManager(t, walletApprove, "hedera:testnet:0.0.1234")

	_, _, _, err := m.Signer(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)

	ws, err := m.Connect(context.Background())
	require.NoError(t, err)

	// 钱包端: 第一次签名，第二次拒绝
	var calls atomic.Int32
	off, err := client.Listen(context.Background(), ws.Topic, ws.SymKey, func(msg *walletconnect.Message) {
		if msg.Type != walletconnect.TypeSessionRequest {
			return
		}
		var req signRequest
		_ = json.Unmarshal(msg.Params, &req)
		resp := &walletconnect.Message{ID: msg.ID, Type: walletconnect.TypeSessionResponse}
		if calls.Add(1) == 1 {
			assert.Equal(t, "hedera:testnet:0.0.1234", req.SignerAccountID)
			resp.Result, _ = json.Marshal(signResponse{SignedTransaction: req.Transaction + "ff"})
		} else {
			resp.Error = &walletconnect.WalletError{Code: walletconnect.CodeUserRejected, Message: "rejected"}
		}
		go func() { _ = client.Publish(context.Background(), ws.Topic, ws.SymKey, resp) }()
	})
	require.NoError(t, err)
	defer off()

	accountID, from, sign, err := m.Signer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.0.1234", accountID)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000004d2"), from)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	signed, err := sign(ctx, []byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, "0x0102ff", hexutil.Encode(signed))

	_, err = sign(ctx, []byte{0x01})
	assert.True(t, errors.Is(err, tx.ErrSigningDeclined))
}
