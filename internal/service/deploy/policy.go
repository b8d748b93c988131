package deploy

import (
	"strings"
	"time"

	"node-wallet/pkg/config"
)

const (
	DefaultMaxAttempts    = 5
	DefaultGas            = 3_000_000
	DefaultBusyBackoff    = 30 * time.Second
	DefaultShortBackoff   = 2 * time.Second
	DefaultAttemptTimeout = 3 * time.Minute
)

// Policy 部署重试策略
// GasLevels 非空时按顺序逐级尝试，否则以 DefaultGas 重试 MaxAttempts 次
// AttemptTimeout 限制单次尝试，超时按可重试处理
type Policy struct {
	GasLevels      []uint64
	MaxAttempts    int
	DefaultGas     uint64
	BusyBackoff    time.Duration
	ShortBackoff   time.Duration
	AttemptTimeout time.Duration
}

// PolicyFor 从配置构造某个合约的策略
func PolicyFor(cfg config.DeployConfig, contract string) Policy {
	p := Policy{
		MaxAttempts:    cfg.MaxAttempts,
		DefaultGas:     cfg.DefaultGas,
		BusyBackoff:    cfg.BusyBackoff,
		ShortBackoff:   cfg.ShortBackoff,
		AttemptTimeout: cfg.AttemptTimeout,
	}
	// viper 的 map key 统一为小写
	if levels, ok := cfg.GasLevels[strings.ToLower(contract)]; ok {
		p.GasLevels = append([]uint64(nil), levels...)
	}
	return p.withDefaults()
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.DefaultGas == 0 {
		p.DefaultGas = DefaultGas
	}
	if p.BusyBackoff <= 0 {
		p.BusyBackoff = DefaultBusyBackoff
	}
	if p.ShortBackoff <= 0 {
		p.ShortBackoff = DefaultShortBackoff
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = DefaultAttemptTimeout
	}
	return p
}

// Attempts 总尝试次数
func (p Policy) Attempts() int {
	if len(p.GasLevels) > 0 {
		return len(p.GasLevels)
	}
	return p.MaxAttempts
}

// Gas 第 n 次尝试 (从 1 开始) 使用的 gas
func (p Policy) Gas(n int) uint64 {
	if len(p.GasLevels) > 0 {
		if n > len(p.GasLevels) {
			n = len(p.GasLevels)
		}
		return p.GasLevels[n-1]
	}
	return p.DefaultGas
}

// Backoff 第 n 次失败后的等待时间，线性增长
func (p Policy) Backoff(class Class, n int) time.Duration {
	switch class {
	case ClassBusy:
		return p.BusyBackoff * time.Duration(n)
	case ClassRetryable:
		return p.ShortBackoff * time.Duration(n)
	default:
		return 0
	}
}
