package tx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"node-wallet/internal/event"
	"node-wallet/pkg/monitor"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// AccountSigner 提供当前签名账户 (钱包会话或本地运营账户)
type AccountSigner interface {
	Signer(ctx context.Context) (accountID string, from common.Address, sign SignFunc, err error)
}

// EventPublisher 与 mq.Producer 一致
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte) error
}

// Result 执行结果
type Result struct {
	TxID       string `json:"txId"`
	AccountID  string `json:"accountId"`
	ContractID string `json:"contractId"`
	Function   string `json:"function"`
}

// Executor 串联 prepare -> freeze -> sign -> submit
type Executor struct {
	preparer  *Preparer
	bridge    *Bridge
	submitter *Submitter
	accounts  AccountSigner
	publisher EventPublisher // 可为空
	network   string
	log       *zap.Logger
}

func NewExecutor(preparer *Preparer, bridge *Bridge, submitter *Submitter, accounts AccountSigner,
	publisher EventPublisher, network string, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		preparer:  preparer,
		bridge:    bridge,
		submitter: submitter,
		accounts:  accounts,
		publisher: publisher,
		network:   network,
		log:       log,
	}
}

// Execute 严格按顺序执行；任一步失败立即返回
func (e *Executor) Execute(ctx context.Context, pt PendingTransaction) (*Result, error) {
	start := time.Now()
	res, err := e.execute(ctx, pt)
	monitor.RecordTransaction(pt.FunctionName, resultLabel(err), time.Since(start).Seconds())
	return res, err
}

func (e *Executor) execute(ctx context.Context, pt PendingTransaction) (*Result, error) {
	accountID, from, sign, err := e.accounts.Signer(ctx)
	if err != nil {
		return nil, err
	}

	call, err := e.preparer.Prepare(pt)
	if err != nil {
		return nil, err
	}
	frozen, err := e.preparer.Freeze(ctx, call, from)
	if err != nil {
		return nil, err
	}
	signed, err := e.bridge.Sign(ctx, frozen, sign)
	if err != nil {
		return nil, err
	}
	txID, err := e.submitter.Submit(ctx, signed)
	if err != nil {
		return nil, err
	}

	res := &Result{TxID: txID, AccountID: accountID, ContractID: pt.ContractID, Function: pt.FunctionName}
	e.publish(ctx, res, call)
	return res, nil
}

// publish 事件发送失败不影响交易结果
func (e *Executor) publish(ctx context.Context, res *Result, call *Call) {
	if e.publisher == nil {
		return
	}
	evt := event.TransactionExecutedEvent{
		TxID:         res.TxID,
		AccountID:    res.AccountID,
		ContractID:   res.ContractID,
		FunctionName: res.Function,
		Network:      e.network,
		ExecutedAt:   time.Now().UTC(),
	}
	if call.Value != nil && call.Value.Sign() > 0 {
		evt.Value = call.Value.String()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := e.publisher.Publish(ctx, event.TopicTransactionExecuted, res.AccountID, payload); err != nil {
		e.log.Warn("[Executor] 事件发送失败", zap.String("tx", res.TxID), zap.Error(err))
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrSigningDeclined):
		return "declined"
	case errors.Is(err, ErrSigningTimeout):
		return "sign_timeout"
	case errors.Is(err, ErrTransactionFailed):
		return "failed"
	case errors.Is(err, ErrBytecodeOrParamsInvalid):
		return "invalid"
	default:
		return "error"
	}
}
