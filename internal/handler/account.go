package handler

import (
	"node-wallet/internal/handler/request"
	"node-wallet/internal/handler/response"
	"node-wallet/internal/service/session"
	"node-wallet/pkg/errno"
	"node-wallet/pkg/validator"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	balance session.BalanceSource
}

func NewAccountHandler(balance session.BalanceSource) *AccountHandler {
	return &AccountHandler{balance: balance}
}

// Balance 展示用余额，查询失败时为 "0.00"
// GET /api/v1/accounts/:id/balance
func (h *AccountHandler) Balance(c *gin.Context) {
	var req request.BalanceURI
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, errno.ErrInvalidAccountID.WithMessage(validator.GetErrorMsg(err)))
		return
	}
	response.Success(c, gin.H{
		"accountId": req.AccountID,
		"balance":   h.balance.DisplayBalance(c.Request.Context(), req.AccountID),
	})
}
