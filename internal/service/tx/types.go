// Package tx 负责合约调用交易的准备、签名与提交
package tx

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrBytecodeOrParamsInvalid = errors.New("bytecode or parameters invalid")
	ErrSigningDeclined         = errors.New("signing declined in wallet")
	ErrSigningTimeout          = errors.New("signing timed out")
	ErrTransactionFailed       = errors.New("transaction failed")
	ErrTransactionConsumed     = errors.New("frozen transaction already used")
	ErrInvalidSignedBytes      = errors.New("invalid signed transaction bytes")
)

// DefaultGasLimit 合约调用的固定 gas 上限
const DefaultGasLimit uint64 = 1_000_000

// SignFunc 由钱包集成方提供: 输入未签名交易字节，返回已签名字节
type SignFunc func(ctx context.Context, unsigned []byte) ([]byte, error)

// SignedBytes 已签名交易，内容不透明，只能提交一次
type SignedBytes []byte

// ParamKind 参数类型
type ParamKind string

const (
	KindString  ParamKind = "string"
	KindUint256 ParamKind = "uint256"
	KindAddress ParamKind = "address"
	KindBytes   ParamKind = "bytes"
)

// Param 有类型的调用参数，Value 统一以字符串表示
//
//	uint256: 十进制或 0x 十六进制
//	address: 0.0.N 或 0x...
//	bytes:   0x 十六进制
type Param struct {
	Type  ParamKind `json:"type" binding:"required,oneof=string uint256 address bytes"`
	Value string    `json:"value"`
}

// ParseParam 解析命令行写法 "<type>:<value>"，无类型前缀时视为 string
func ParseParam(s string) (Param, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok {
		return Param{Type: KindString, Value: s}, nil
	}
	switch ParamKind(kind) {
	case KindString, KindUint256, KindAddress, KindBytes:
		return Param{Type: ParamKind(kind), Value: value}, nil
	default:
		// 值本身含冒号，例如 "hedera:testnet:0.0.1"
		return Param{Type: KindString, Value: s}, nil
	}
}

// PendingTransaction 一次用户操作对应的待签名调用，签名后即丢弃
type PendingTransaction struct {
	ContractID   string  `json:"contractId" binding:"required"`
	FunctionName string  `json:"functionName" binding:"required"`
	Params       []Param `json:"params"`
	GasLimit     uint64  `json:"gasLimit"`
	// PayableValue 最小单位 (tinybar / wei)，仅 payable 函数
	PayableValue *big.Int `json:"payableValue,omitempty"`
}

// TransactionFailedError 回执状态不是 SUCCESS
type TransactionFailedError struct {
	TxID   string
	Status string
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction failed: %s", e.Status)
}

func (e *TransactionFailedError) Is(target error) bool {
	return target == ErrTransactionFailed
}
