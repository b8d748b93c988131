package walletconnect

import (
	"encoding/json"
	"errors"
	"fmt"
)

type MessageType string

const (
	TypeSessionApprove  MessageType = "session_approve"
	TypeSessionReject   MessageType = "session_reject"
	TypeSessionRequest  MessageType = "session_request"
	TypeSessionResponse MessageType = "session_response"
	TypeSessionDelete   MessageType = "session_delete"
)

// 钱包约定的错误码
const (
	CodeUserRejected     = 5000
	CodeUserDisconnected = 6000
)

var ErrUserRejected = errors.New("user rejected the request")

// PeerMetadata 对端 (dApp 或钱包) 的展示信息
type PeerMetadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Icons       []string `json:"icons,omitempty"`
}

// WalletError 钱包返回的错误
type WalletError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *WalletError) Error() string {
	return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
}

// Unwrap 让 errors.Is(err, ErrUserRejected) 对 5000 生效
func (e *WalletError) Unwrap() error {
	if e.Code == CodeUserRejected {
		return ErrUserRejected
	}
	return nil
}

// Message 是信封内的明文消息，不同 Type 使用不同字段
type Message struct {
	ID   uint64      `json:"id"`
	Type MessageType `json:"type"`

	// session_approve
	Accounts     []string      `json:"accounts,omitempty"`
	SessionTopic string        `json:"sessionTopic,omitempty"`
	Expiry       int64         `json:"expiry,omitempty"`
	Peer         *PeerMetadata `json:"peer,omitempty"`

	// session_request
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	// session_response
	Result json.RawMessage `json:"result,omitempty"`

	// session_reject / session_response / session_delete
	Error *WalletError `json:"error,omitempty"`
}
