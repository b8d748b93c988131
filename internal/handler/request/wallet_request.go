package request

import "node-wallet/internal/service/tx"

// ExecuteRequest 合约调用请求
// Contract 可以是 deployment-info.json 中的合约名，也可以直接是 0.0.N / 0x 地址
type ExecuteRequest struct {
	Contract string     `json:"contract" binding:"required"`
	Function string     `json:"function" binding:"required"`
	Params   []tx.Param `json:"params" binding:"dive"`
	GasLimit uint64     `json:"gasLimit" binding:"omitempty,max=1000000"`
	Value    string     `json:"value" binding:"omitempty,numeric"` // 最小单位
}

// BalanceURI 路径参数
type BalanceURI struct {
	AccountID string `uri:"id" binding:"required,account_id"`
}
