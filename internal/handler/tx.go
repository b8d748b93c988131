package handler

import (
	"context"
	"math/big"
	"strings"

	"node-wallet/internal/handler/request"
	"node-wallet/internal/handler/response"
	"node-wallet/internal/service/tx"
	"node-wallet/pkg/errno"
	"node-wallet/pkg/validator"

	"github.com/gin-gonic/gin"
)

// Executor 合约调用执行器 (tx.Executor)
type Executor interface {
	Execute(ctx context.Context, pt tx.PendingTransaction) (*tx.Result, error)
}

type TxHandler struct {
	executor Executor
	book     ContractBook
}

func NewTxHandler(executor Executor, book ContractBook) *TxHandler {
	return &TxHandler{executor: executor, book: book}
}

// Execute 通过已连接钱包签名并提交合约调用
// POST /api/v1/tx/execute
func (h *TxHandler) Execute(c *gin.Context) {
	var req request.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}

	contractID, err := h.resolve(req.Contract)
	if err != nil {
		response.Error(c, err)
		return
	}

	pt := tx.PendingTransaction{
		ContractID:   contractID,
		FunctionName: req.Function,
		Params:       req.Params,
		GasLimit:     req.GasLimit,
	}
	if req.Value != "" {
		v, ok := new(big.Int).SetString(req.Value, 10)
		if !ok || v.Sign() < 0 {
			response.Error(c, errno.ErrParamsInvalid.WithMessage("value must be a non-negative integer"))
			return
		}
		pt.PayableValue = v
	}

	res, err := h.executor.Execute(c.Request.Context(), pt)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// resolve 合约名查地址簿，0.0.N / 0x 直接使用
func (h *TxHandler) resolve(contract string) (string, error) {
	if strings.HasPrefix(contract, "0.") || strings.HasPrefix(contract, "0x") {
		return contract, nil
	}
	return h.book.Get(contract)
}
