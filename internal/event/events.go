package event

import "time"

const (
	TopicTransactionExecuted = "node_events_tx"
	TopicContractDeployed    = "node_events_deploy"
)

// TransactionExecutedEvent 合约调用成功上链
type TransactionExecutedEvent struct {
	TxID         string    `json:"tx_id"`
	AccountID    string    `json:"account_id"`
	ContractID   string    `json:"contract_id"`
	FunctionName string    `json:"function_name"`
	Value        string    `json:"value,omitempty"` // 最小单位，十进制字符串
	Network      string    `json:"network"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// ContractDeployedEvent 部署脚本成功创建合约
type ContractDeployedEvent struct {
	ContractName string    `json:"contract_name"`
	ContractID   string    `json:"contract_id"`
	TxID         string    `json:"tx_id"`
	Attempts     int       `json:"attempts"`
	GasUsed      uint64    `json:"gas_used"`
	Network      string    `json:"network"`
	DeployedAt   time.Time `json:"deployed_at"`
}
