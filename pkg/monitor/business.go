package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BusinessMetrics 定义业务监控指标
type BusinessMetrics struct {
	WalletConnectTotal   *prometheus.CounterVec
	TransactionTotal     *prometheus.CounterVec
	TransactionDuration  *prometheus.HistogramVec
	DeployAttemptTotal   *prometheus.CounterVec
	BalanceFallbackTotal prometheus.Counter
	ActiveWalletSessions prometheus.Gauge
}

// Global Metrics Instance
var Business *BusinessMetrics

func newBusinessMetrics() *BusinessMetrics {
	return &BusinessMetrics{
		WalletConnectTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "node_wallet_connect_total",
			Help: "Wallet connect attempts by result (reused/approved/rejected/timeout/error)",
		}, []string{"result"}),
		TransactionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "node_transaction_total",
			Help: "Executed contract calls by result",
		}, []string{"function", "result"}),
		TransactionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "node_transaction_duration_seconds",
			Help:    "Prepare-sign-submit latency",
			Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
		}, []string{"function"}),
		DeployAttemptTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "node_deploy_attempt_total",
			Help: "Contract deployment attempts by outcome class",
		}, []string{"contract", "outcome"}),
		BalanceFallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "node_balance_fallback_total",
			Help: "Balance queries that degraded to the placeholder value",
		}),
		ActiveWalletSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "node_wallet_sessions_active",
			Help: "1 when a wallet session is connected",
		}),
	}
}

// InitBusinessMetrics 初始化业务指标并注册到 reg
func InitBusinessMetrics(reg prometheus.Registerer) {
	b := newBusinessMetrics()
	reg.MustRegister(
		b.WalletConnectTotal,
		b.TransactionTotal,
		b.TransactionDuration,
		b.DeployAttemptTotal,
		b.BalanceFallbackTotal,
		b.ActiveWalletSessions,
	)
	Business = b
}

// 以下辅助函数在未初始化指标时 (CLI、测试) 为 no-op

func RecordConnect(result string) {
	if Business != nil {
		Business.WalletConnectTotal.WithLabelValues(result).Inc()
	}
}

func RecordTransaction(function, result string, seconds float64) {
	if Business == nil {
		return
	}
	Business.TransactionTotal.WithLabelValues(function, result).Inc()
	Business.TransactionDuration.WithLabelValues(function).Observe(seconds)
}

func RecordDeployAttempt(contract, outcome string) {
	if Business != nil {
		Business.DeployAttemptTotal.WithLabelValues(contract, outcome).Inc()
	}
}

func RecordBalanceFallback() {
	if Business != nil {
		Business.BalanceFallbackTotal.Inc()
	}
}

func SetSessionActive(active bool) {
	if Business == nil {
		return
	}
	if active {
		Business.ActiveWalletSessions.Set(1)
	} else {
		Business.ActiveWalletSessions.Set(0)
	}
}
