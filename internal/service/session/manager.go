package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"node-wallet/pkg/hedera"
	"node-wallet/pkg/monitor"
	"node-wallet/pkg/walletconnect"

	"go.uber.org/zap"
)

const (
	DefaultApprovalTimeout = 120 * time.Second
	MaxApprovalTimeout     = 300 * time.Second
)

// BalanceSource 查询展示用余额，失败时自行降级
type BalanceSource interface {
	DisplayBalance(ctx context.Context, accountID string) string
}

type Options struct {
	Network         string
	ApprovalTimeout time.Duration
	Metadata        walletconnect.PeerMetadata
	Balance         BalanceSource // 可为空
	Logger          *zap.Logger
}

// Manager 钱包会话管理器。每个进程构造一个，通过引用传给使用方。
type Manager struct {
	client   *walletconnect.Client
	store    Store
	prompter Prompter
	opts     Options
	log      *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	opened    bool
	pairing   bool
	current   *WalletSession
	offDelete func()
}

func NewManager(client *walletconnect.Client, store Store, prompter Prompter, opts Options) *Manager {
	if opts.ApprovalTimeout <= 0 {
		opts.ApprovalTimeout = DefaultApprovalTimeout
	}
	if opts.ApprovalTimeout > MaxApprovalTimeout {
		opts.ApprovalTimeout = MaxApprovalTimeout
	}
	if opts.Network == "" {
		opts.Network = "testnet"
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		client:   client,
		store:    store,
		prompter: prompter,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// Open 恢复缓存中的会话并开始监听钱包侧的断开通知
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opened {
		return nil
	}
	m.opened = true

	ws, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn("[Session] 读取缓存会话失败", zap.Error(err))
		return nil
	}
	if ws == nil || ws.expired(m.now()) {
		return nil
	}
	if err := m.attachLocked(ctx, ws); err != nil {
		m.log.Warn("[Session] 恢复会话失败", zap.Error(err))
		return nil
	}
	m.log.Info("[Session] 已恢复会话", zap.String("account", ws.AccountID))
	return nil
}

// Close 释放监听器与提示窗口，不删除会话 (下次启动可复用)
func (m *Manager) Close() error {
	m.mu.Lock()
	off := m.offDelete
	m.offDelete = nil
	m.current = nil
	m.opened = false
	m.mu.Unlock()

	if off != nil {
		off()
	}
	m.prompter.Close()
	return nil
}

type pairingOutcome struct {
	msg      *walletconnect.Message
	rejected bool
}

// Connect 复用已批准的会话；否则发起配对并等待批准、拒绝或超时
func (m *Manager) Connect(ctx context.Context) (*WalletSession, error) {
	m.mu.Lock()
	if m.pairing {
		m.mu.Unlock()
		return nil, ErrPairingInProgress
	}
	if ws := m.activeLocked(ctx); ws != nil {
		m.mu.Unlock()
		m.log.Info("[Session] 复用已有会话", zap.String("account", ws.AccountID))
		monitor.RecordConnect("reused")
		return m.withBalance(ctx, ws), nil
	}
	m.pairing = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.pairing = false
		m.mu.Unlock()
	}()

	ws, err := m.pair(ctx)
	if err != nil {
		monitor.RecordConnect(connectResult(err))
		return nil, err
	}
	monitor.RecordConnect("approved")
	monitor.SetSessionActive(true)
	return m.withBalance(ctx, ws), nil
}

func (m *Manager) pair(ctx context.Context) (*WalletSession, error) {
	p, err := walletconnect.NewPairing()
	if err != nil {
		return nil, err
	}

	outcome := make(chan pairingOutcome, 1)
	deliver := func(o pairingOutcome) {
		select {
		case outcome <- o:
		default:
		}
	}

	// 先注册监听器，再生成 URI，避免钱包在监听器就绪前响应
	off, err := m.client.Listen(ctx, p.Topic, p.SymKey, func(msg *walletconnect.Message) {
		switch msg.Type {
		case walletconnect.TypeSessionApprove:
			deliver(pairingOutcome{msg: msg})
		case walletconnect.TypeSessionReject:
			deliver(pairingOutcome{msg: msg, rejected: true})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("listen pairing topic: %w", err)
	}
	defer off()

	dismissed, err := m.prompter.Open(p.URI())
	if err != nil {
		return nil, fmt.Errorf("open prompt: %w", err)
	}
	defer m.prompter.Close()

	m.log.Info("[Session] 等待钱包批准", zap.String("topic", p.Topic), zap.Duration("timeout", m.opts.ApprovalTimeout))

	timer := time.NewTimer(m.opts.ApprovalTimeout)
	defer timer.Stop()

	select {
	case o := <-outcome:
		if o.rejected {
			m.log.Info("[Session] 用户拒绝连接")
			return nil, ErrConnectionRejected
		}
		return m.approve(ctx, p, o.msg)
	case <-dismissed:
		m.log.Info("[Session] 用户关闭了连接弹窗")
		return nil, ErrConnectionRejected
	case <-timer.C:
		m.log.Warn("[Session] 等待批准超时")
		return nil, ErrConnectionTimeout
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrConnectionTimeout
		}
		return nil, ctx.Err()
	}
}

func (m *Manager) approve(ctx context.Context, p *walletconnect.Pairing, msg *walletconnect.Message) (*WalletSession, error) {
	accountID, err := hedera.FirstAccount(msg.Accounts)
	if err != nil {
		m.log.Warn("[Session] 钱包返回的账户无效", zap.Strings("accounts", msg.Accounts))
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccountID, err)
	}

	topic := msg.SessionTopic
	if topic == "" {
		topic = p.Topic
	}
	expiry := m.now().Add(defaultSessionTTL)
	if msg.Expiry > 0 {
		expiry = time.Unix(msg.Expiry, 0)
	}

	ws := &WalletSession{
		AccountID:   accountID,
		IsConnected: true,
		WalletType:  WalletTypeWalletConnect,
		Balance:     hedera.ZeroBalance,
		Network:     m.opts.Network,
		Topic:       topic,
		SymKey:      p.SymKey,
		Expiry:      expiry,
		Peer:        msg.Peer,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.attachLocked(ctx, ws); err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, ws); err != nil {
		// 缓存失败不影响本进程内使用
		m.log.Warn("[Session] 会话缓存失败", zap.Error(err))
	}
	m.log.Info("[Session] 钱包已连接", zap.String("account", accountID))
	return clone(ws), nil
}

// attachLocked 设为当前会话，并监听钱包侧断开
func (m *Manager) attachLocked(ctx context.Context, ws *WalletSession) error {
	if m.offDelete != nil {
		m.offDelete()
		m.offDelete = nil
	}
	topic := ws.Topic
	off, err := m.client.Listen(ctx, topic, ws.SymKey, func(msg *walletconnect.Message) {
		if msg.Type == walletconnect.TypeSessionDelete {
			m.onRemoteDelete(topic)
		}
	})
	if err != nil {
		return fmt.Errorf("listen session topic: %w", err)
	}
	m.current = ws
	m.offDelete = off
	return nil
}

// onRemoteDelete 钱包端主动断开。在中继回调中执行，不持有 Client 的锁。
func (m *Manager) onRemoteDelete(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.Topic != topic {
		return
	}
	m.dropLocked(context.Background())
	monitor.SetSessionActive(false)
	m.log.Info("[Session] 钱包端已断开会话")
}

// activeLocked 返回有效会话 (内存或缓存)，过期会话被丢弃
func (m *Manager) activeLocked(ctx context.Context) *WalletSession {
	now := m.now()
	if m.current != nil {
		if !m.current.expired(now) {
			return clone(m.current)
		}
		m.dropLocked(ctx)
		return nil
	}

	ws, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn("[Session] 读取缓存会话失败", zap.Error(err))
		return nil
	}
	if ws == nil {
		return nil
	}
	if ws.expired(now) {
		m.dropLocked(ctx)
		return nil
	}
	if err := m.attachLocked(ctx, ws); err != nil {
		m.log.Warn("[Session] 恢复会话失败", zap.Error(err))
		return nil
	}
	return clone(ws)
}

func (m *Manager) dropLocked(ctx context.Context) {
	if m.offDelete != nil {
		m.offDelete()
		m.offDelete = nil
	}
	m.current = nil
	if err := m.store.Delete(ctx); err != nil {
		m.log.Warn("[Session] 清理过期会话失败", zap.Error(err))
	}
}

// Disconnect 关闭所有会话与提示窗口。幂等，内部错误只记录日志。
func (m *Manager) Disconnect(ctx context.Context) {
	m.mu.Lock()
	ws := m.current
	m.current = nil
	off := m.offDelete
	m.offDelete = nil
	m.mu.Unlock()

	if off != nil {
		off()
	}
	m.prompter.Close()

	if ws == nil {
		cached, err := m.store.Load(ctx)
		if err != nil {
			m.log.Warn("[Session] 读取缓存会话失败", zap.Error(err))
		}
		ws = cached
	}

	if ws != nil {
		msg := &walletconnect.Message{
			Type:  walletconnect.TypeSessionDelete,
			Error: &walletconnect.WalletError{Code: walletconnect.CodeUserDisconnected, Message: "User disconnected"},
		}
		if err := m.client.Publish(ctx, ws.Topic, ws.SymKey, msg); err != nil {
			m.log.Warn("[Session] 通知钱包断开失败", zap.Error(err))
		}
		m.log.Info("[Session] 已断开", zap.String("account", ws.AccountID))
	}

	if err := m.store.Delete(ctx); err != nil {
		m.log.Warn("[Session] 删除缓存会话失败", zap.Error(err))
	}
	monitor.SetSessionActive(false)
}

// Current 返回当前会话，未连接时返回 nil
func (m *Manager) Current(ctx context.Context) *WalletSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked(ctx)
}

func (m *Manager) withBalance(ctx context.Context, ws *WalletSession) *WalletSession {
	if m.opts.Balance != nil {
		ws.Balance = m.opts.Balance.DisplayBalance(ctx, ws.AccountID)
	}
	return ws
}

func clone(ws *WalletSession) *WalletSession {
	c := *ws
	c.SymKey = append([]byte(nil), ws.SymKey...)
	return &c
}

func connectResult(err error) string {
	switch {
	case errors.Is(err, ErrConnectionRejected):
		return "rejected"
	case errors.Is(err, ErrConnectionTimeout):
		return "timeout"
	case errors.Is(err, ErrInvalidAccountID):
		return "invalid_account"
	default:
		return "error"
	}
}
