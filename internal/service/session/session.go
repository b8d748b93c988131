// Package session 管理与外部钱包的配对与会话生命周期
package session

import (
	"errors"
	"time"

	"node-wallet/pkg/walletconnect"
)

var (
	ErrConnectionRejected = errors.New("connection rejected in wallet")
	ErrConnectionTimeout  = errors.New("connection timed out")
	ErrInvalidAccountID   = errors.New("invalid account id")
	ErrPairingInProgress  = errors.New("a pairing request is already in progress")
	ErrNotConnected       = errors.New("wallet not connected")
)

type WalletType string

const WalletTypeWalletConnect WalletType = "walletconnect"

// 钱包未给出会话有效期时使用
const defaultSessionTTL = 7 * 24 * time.Hour

// WalletSession 一个已批准的钱包会话。AccountID 在会话存续期内不变。
type WalletSession struct {
	AccountID   string                      `json:"accountId"`
	IsConnected bool                        `json:"isConnected"`
	WalletType  WalletType                  `json:"walletType"`
	Balance     string                      `json:"balance"`
	Network     string                      `json:"network"`
	Topic       string                      `json:"topic"`
	SymKey      []byte                      `json:"symKey"`
	Expiry      time.Time                   `json:"expiry"`
	Peer        *walletconnect.PeerMetadata `json:"peer,omitempty"`
}

func (s *WalletSession) expired(now time.Time) bool {
	return !s.Expiry.IsZero() && now.After(s.Expiry)
}

// View 对外展示的字段，不含密钥
type View struct {
	AccountID   string     `json:"accountId"`
	IsConnected bool       `json:"isConnected"`
	WalletType  WalletType `json:"walletType"`
	Balance     string     `json:"balance"`
	Network     string     `json:"network"`
	Expiry      time.Time  `json:"expiry"`
	WalletName  string     `json:"walletName,omitempty"`
}

func (s *WalletSession) View() View {
	v := View{
		AccountID:   s.AccountID,
		IsConnected: s.IsConnected,
		WalletType:  s.WalletType,
		Balance:     s.Balance,
		Network:     s.Network,
		Expiry:      s.Expiry,
	}
	if s.Peer != nil {
		v.WalletName = s.Peer.Name
	}
	return v
}
