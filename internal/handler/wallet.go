package handler

import (
	"context"

	"node-wallet/internal/handler/response"
	"node-wallet/internal/service/session"
	"node-wallet/pkg/errno"

	"github.com/gin-gonic/gin"
)

// SessionManager 会话管理器在 HTTP 层用到的能力
type SessionManager interface {
	Connect(ctx context.Context) (*session.WalletSession, error)
	Disconnect(ctx context.Context)
	Current(ctx context.Context) *session.WalletSession
}

// PairingSurface 配对 URI 的展示面 (session.PairingBoard)
type PairingSurface interface {
	Current() (string, bool)
	Close()
}

type WalletHandler struct {
	sessions SessionManager
	pairing  PairingSurface
	balance  session.BalanceSource // 可为空
}

func NewWalletHandler(sessions SessionManager, pairing PairingSurface, balance session.BalanceSource) *WalletHandler {
	return &WalletHandler{sessions: sessions, pairing: pairing, balance: balance}
}

// Connect 复用或发起钱包连接，阻塞到批准、拒绝或超时
// POST /api/v1/wallet/connect
func (h *WalletHandler) Connect(c *gin.Context) {
	ws, err := h.sessions.Connect(c.Request.Context())
	if err != nil {
		if code, _ := errno.Decode(response.Translate(err)); code == errno.InternalServerError.Code {
			// 界面只区分 拒绝 / 超时 / 其他
			response.Error(c, errno.ErrConnectionUnknown)
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, ws.View())
}

// Pairing 返回待扫描的配对 URI
// GET /api/v1/wallet/pairing
func (h *WalletHandler) Pairing(c *gin.Context) {
	uri, ok := h.pairing.Current()
	if !ok {
		response.Error(c, errno.ErrNotFound.WithMessage("No pairing in progress"))
		return
	}
	response.Success(c, gin.H{"uri": uri})
}

// DismissPairing 关闭配对提示，等同于拒绝
// DELETE /api/v1/wallet/pairing
func (h *WalletHandler) DismissPairing(c *gin.Context) {
	h.pairing.Close()
	response.Success(c, nil)
}

// Session 当前会话
// GET /api/v1/wallet/session
func (h *WalletHandler) Session(c *gin.Context) {
	ctx := c.Request.Context()
	ws := h.sessions.Current(ctx)
	if ws == nil {
		response.Error(c, errno.ErrNotConnected)
		return
	}
	if h.balance != nil {
		ws.Balance = h.balance.DisplayBalance(ctx, ws.AccountID)
	}
	response.Success(c, ws.View())
}

// Disconnect 幂等，内部错误只记录日志
// DELETE /api/v1/wallet/session
func (h *WalletHandler) Disconnect(c *gin.Context) {
	h.sessions.Disconnect(c.Request.Context())
	response.Success(c, gin.H{"isConnected": false})
}
