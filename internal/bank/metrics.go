// internal/bank/metrics.go
//
// Prometheus 指標：指令結果、帳本分錄數、對帳差異、通知失敗。
// reg 為 nil 時指標仍可計數但不註冊，方便測試各自建立獨立引擎。

package bank

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "bank"

// Metrics 收集引擎指標。
type Metrics struct {
	operations    *prometheus.CounterVec
	entries       *prometheus.CounterVec
	discrepancies prometheus.Counter
	notifyErrors  prometheus.Counter
}

// NewMetrics 建立指標並註冊到 reg（可為 nil）。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Engine commands by operation and outcome.",
		}, []string{"operation", "outcome"}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ledger_entries_total",
			Help:      "Ledger entries appended by transaction type.",
		}, []string{"type"}),
		discrepancies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "statement_discrepancies_total",
			Help:      "Statement replays resynchronised to a recorded balance snapshot.",
		}),
		notifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "onboarding_notify_errors_total",
			Help:      "Onboarding notifications that failed or panicked.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.entries, m.discrepancies, m.notifyErrors)
	}
	return m
}

func (m *Metrics) observe(operation string, res OperationResult) {
	outcome := "success"
	if !res.Success {
		outcome = "failure"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}
