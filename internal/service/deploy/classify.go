// Package deploy 实现合约部署的重试驱动
package deploy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strings"

	"node-wallet/internal/service/tx"
	"node-wallet/pkg/ledger"

	"github.com/ethereum/go-ethereum/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Class 失败分类
type Class int

const (
	ClassFatal Class = iota
	// ClassRetryable 一般瞬时错误，短退避
	ClassRetryable
	// ClassBusy 网络拥堵或交易过期，长退避
	ClassBusy
)

func (c Class) String() string {
	switch c {
	case ClassBusy:
		return "busy"
	case ClassRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

func (c Class) Retryable() bool { return c != ClassFatal }

// 账本回执状态码
var ledgerStatusClass = map[string]Class{
	"BUSY":                             ClassBusy,
	"TRANSACTION_EXPIRED":              ClassBusy,
	"INSUFFICIENT_GAS":                 ClassRetryable,
	"PLATFORM_TRANSACTION_NOT_CREATED": ClassRetryable,
	"PLATFORM_NOT_ACTIVE":              ClassRetryable,
	"DUPLICATE_TRANSACTION":            ClassRetryable,
}

// JSON-RPC relay 错误码
var rpcCodeClass = map[int]Class{
	-32005: ClassBusy,      // limit exceeded / rate limited
	-32603: ClassRetryable, // internal error
}

// Classify 先检查结构化错误码，无法识别时再做字符串匹配
func Classify(err error) Class {
	if err == nil {
		return ClassFatal
	}
	if c, ok := classifyStructured(err); ok {
		return c
	}
	return classifyMessage(err.Error())
}

func classifyStructured(err error) (Class, bool) {
	var failed *tx.TransactionFailedError
	if errors.As(err, &failed) {
		if c, ok := ledgerStatusClass[failed.Status]; ok {
			return c, true
		}
		// 其他状态 (如 CONTRACT_REVERT_EXECUTED) 重试无意义
		return ClassFatal, true
	}

	if errors.Is(err, context.Canceled) {
		return ClassFatal, true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ledger.ErrReceiptTimeout) {
		return ClassRetryable, true
	}

	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		switch s.Code() {
		case codes.ResourceExhausted:
			return ClassBusy, true
		case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
			return ClassRetryable, true
		}
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return ClassBusy, true
		case httpErr.StatusCode >= 500:
			return ClassRetryable, true
		}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if c, ok := rpcCodeClass[rpcErr.ErrorCode()]; ok {
			return c, true
		}
		// -32000 是通用服务端错误，需要看消息内容
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassRetryable, true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ClassRetryable, true
	}
	return ClassFatal, false
}

var (
	busyMarkers = []string{"busy", "transaction_expired", "transaction expired", "rate limit", "too many requests"}

	retryableMarkers = []string{
		"timeout", "timed out", "network error", "network is unreachable", "insufficient_gas", "insufficient gas",
		"platform_transaction_not_created", "platform_not_active", "unavailable",
		"connection reset", "connection refused", "econnreset", "eof", "unexpected eof",
		"nonce too low", "replacement transaction underpriced",
	}

	busyPattern      = markerPattern(busyMarkers)
	retryablePattern = markerPattern(retryableMarkers)
)

// markerPattern 只按完整单词匹配，避免 "thereof" 命中 "eof"
func markerPattern(markers []string) *regexp.Regexp {
	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// classifyMessage 兼容没有错误码的旧式错误
func classifyMessage(msg string) Class {
	m := strings.ToLower(msg)
	if busyPattern.MatchString(m) {
		return ClassBusy
	}
	if retryablePattern.MatchString(m) {
		return ClassRetryable
	}
	return ClassFatal
}
