package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"node-wallet/internal/event"
	"node-wallet/pkg/monitor"
	"node-wallet/pkg/utils/lock"

	"go.uber.org/zap"
)

var (
	ErrRetriesExhausted = errors.New("deploy attempts exhausted")
	ErrDeployLocked     = errors.New("contract deployment already running elsewhere")
)

// OutcomeKind 单次尝试的结果
type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeRetryable OutcomeKind = "retryable"
	OutcomeFatal     OutcomeKind = "fatal"
)

type Outcome struct {
	Kind       OutcomeKind
	ContractID string
	Reason     error
}

// Attempt 一次部署尝试的记录
type Attempt struct {
	ContractName string
	GasAmount    uint64
	Number       int
	Outcome      Outcome
	Wait         time.Duration // 失败后的退避
}

// AttemptError 驱动终止时返回
type AttemptError struct {
	Contract string
	Number   int
	Class    Class
	Err      error
}

func (e *AttemptError) Error() string {
	if e.Class == ClassFatal {
		return fmt.Sprintf("deploy %s: fatal failure on attempt %d: %v", e.Contract, e.Number, e.Err)
	}
	return fmt.Sprintf("deploy %s: %v after %d attempts (last %s error: %v)", e.Contract, ErrRetriesExhausted, e.Number, e.Class, e.Err)
}

func (e *AttemptError) Unwrap() []error {
	if e.Class == ClassFatal {
		return []error{e.Err}
	}
	return []error{ErrRetriesExhausted, e.Err}
}

// Deployment 部署成功后链上返回的数据
type Deployment struct {
	ContractID string
	TxID       string
	GasUsed    uint64
}

// Deployer 执行一次部署
type Deployer interface {
	Deploy(ctx context.Context, contract string, gas uint64) (*Deployment, error)
}

// Recorder 持久化合约地址 (deployinfo.Book)
type Recorder interface {
	Put(network, name, address string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte) error
}

// SleepFunc 可被 ctx 打断的等待
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result 一次 Run 的汇总
type Result struct {
	ContractName string
	Deployment   *Deployment
	Attempts     []Attempt
	Waited       time.Duration
}

type Options struct {
	Network   string
	Sleep     SleepFunc
	Lock      lock.DistributedLock // 可为空
	LockTTL   time.Duration
	Publisher EventPublisher // 可为空
	Logger    *zap.Logger
}

// Driver 部署状态机: ATTEMPTING(gas) -> SUCCESS | RETRYABLE | FATAL
type Driver struct {
	deployer  Deployer
	recorder  Recorder
	network   string
	sleep     SleepFunc
	lock      lock.DistributedLock
	lockTTL   time.Duration
	publisher EventPublisher
	log       *zap.Logger
}

func NewDriver(deployer Deployer, recorder Recorder, opts Options) *Driver {
	d := &Driver{
		deployer:  deployer,
		recorder:  recorder,
		network:   opts.Network,
		sleep:     opts.Sleep,
		lock:      opts.Lock,
		lockTTL:   opts.LockTTL,
		publisher: opts.Publisher,
		log:       opts.Logger,
	}
	if d.sleep == nil {
		d.sleep = sleepCtx
	}
	if d.lockTTL <= 0 {
		d.lockTTL = 30 * time.Minute
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	return d
}

// AddressBook 已部署合约的查询 (*deployinfo.Book)
type AddressBook interface {
	Get(name string) (string, error)
}

// AlreadyDeployed 合约已有记录且未要求强制重新部署时返回记录的地址与 true
func AlreadyDeployed(book AddressBook, contract string, force bool) (string, bool) {
	if force {
		return "", false
	}
	id, err := book.Get(contract)
	if err != nil {
		return "", false
	}
	return id, true
}

// Run 按策略部署合约，成功后写入地址记录
func (d *Driver) Run(ctx context.Context, contract string, policy Policy) (*Result, error) {
	policy = policy.withDefaults()

	if d.lock != nil {
		key := "deploy:" + contract
		ok, err := d.lock.Acquire(ctx, key, d.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire deploy lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrDeployLocked, contract)
		}
		defer func() {
			if err := d.lock.Release(context.WithoutCancel(ctx), key); err != nil {
				d.log.Warn("[Deploy] release lock failed", zap.String("contract", contract), zap.Error(err))
			}
		}()
	}

	res := &Result{ContractName: contract}
	total := policy.Attempts()

	for n := 1; n <= total; n++ {
		gas := policy.Gas(n)
		d.log.Info("[Deploy] attempt",
			zap.String("contract", contract),
			zap.Int("attempt", n),
			zap.Int("of", total),
			zap.Uint64("gas", gas))

		dep, err := d.attempt(ctx, contract, gas, policy.AttemptTimeout)
		if err == nil {
			res.Attempts = append(res.Attempts, Attempt{
				ContractName: contract, GasAmount: gas, Number: n,
				Outcome: Outcome{Kind: OutcomeSuccess, ContractID: dep.ContractID},
			})
			monitor.RecordDeployAttempt(contract, string(OutcomeSuccess))
			if err := d.recorder.Put(d.network, contract, dep.ContractID); err != nil {
				return res, fmt.Errorf("persist deployment of %s: %w", contract, err)
			}
			res.Deployment = dep
			d.log.Info("[Deploy] contract deployed",
				zap.String("contract", contract),
				zap.String("contract_id", dep.ContractID),
				zap.String("tx_id", dep.TxID),
				zap.Int("attempts", n))
			d.publish(ctx, res)
			return res, nil
		}

		class := Classify(err)
		if ctx.Err() != nil {
			// 操作者中断 (单次尝试的超时不在此列)
			class = ClassFatal
		}
		att := Attempt{ContractName: contract, GasAmount: gas, Number: n, Outcome: Outcome{Reason: err}}

		if class == ClassFatal {
			att.Outcome.Kind = OutcomeFatal
			res.Attempts = append(res.Attempts, att)
			monitor.RecordDeployAttempt(contract, string(OutcomeFatal))
			d.log.Error("[Deploy] fatal failure, aborting",
				zap.String("contract", contract), zap.Int("attempt", n), zap.Error(err))
			return res, &AttemptError{Contract: contract, Number: n, Class: class, Err: err}
		}

		att.Outcome.Kind = OutcomeRetryable
		monitor.RecordDeployAttempt(contract, string(OutcomeRetryable))
		if n == total {
			res.Attempts = append(res.Attempts, att)
			d.log.Error("[Deploy] all attempts failed",
				zap.String("contract", contract), zap.Int("attempts", n), zap.Error(err))
			return res, &AttemptError{Contract: contract, Number: n, Class: class, Err: err}
		}

		wait := policy.Backoff(class, n)
		att.Wait = wait
		res.Attempts = append(res.Attempts, att)
		d.log.Warn("[Deploy] retryable failure",
			zap.String("contract", contract),
			zap.Int("attempt", n),
			zap.Stringer("class", class),
			zap.Duration("wait", wait),
			zap.Error(err))

		if err := d.sleep(ctx, wait); err != nil {
			return res, &AttemptError{Contract: contract, Number: n, Class: ClassFatal, Err: err}
		}
		res.Waited += wait
	}
	// total >= 1，不会走到这里
	return res, ErrRetriesExhausted
}

// attempt 以独立的 deadline 执行一次部署，回执迟迟不到时返回可重试的超时错误
func (d *Driver) attempt(ctx context.Context, contract string, gas uint64, timeout time.Duration) (*Deployment, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.deployer.Deploy(actx, contract, gas)
}

func (d *Driver) publish(ctx context.Context, res *Result) {
	if d.publisher == nil {
		return
	}
	payload, err := json.Marshal(event.ContractDeployedEvent{
		ContractName: res.ContractName,
		ContractID:   res.Deployment.ContractID,
		TxID:         res.Deployment.TxID,
		Attempts:     len(res.Attempts),
		GasUsed:      res.Deployment.GasUsed,
		Network:      d.network,
		DeployedAt:   time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := d.publisher.Publish(ctx, event.TopicContractDeployed, res.ContractName, payload); err != nil {
		d.log.Warn("[Deploy] publish event failed", zap.String("contract", res.ContractName), zap.Error(err))
	}
}
