// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transaction metrics
	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pawcore_transactions_total",
		Help: "Completed transaction executions by type and outcome",
	}, []string{"type", "outcome"}) // outcome=completed|failed

	transactionRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pawcore_transaction_retries_total",
		Help: "Retry attempts by transaction type",
	}, []string{"type"})

	activeTransactions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pawcore_transactions_active",
		Help: "Transactions currently tracked as in flight",
	})

	// Idempotency metrics
	idempotencyLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pawcore_idempotency_lookups_total",
		Help: "Idempotency cache lookups by result",
	}, []string{"result"}) // result=hit|miss|shared

	// Correlation metrics
	correlationContexts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pawcore_correlation_contexts",
		Help: "Correlation contexts currently stored",
	})

	correlationEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pawcore_correlation_evictions_total",
		Help: "Correlation contexts removed by cleanup sweeps",
	})

	// Persistence metrics
	persistWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pawcore_persist_writes_total",
		Help: "Background transaction record writes by outcome",
	}, []string{"outcome"}) // outcome=success|failure|dropped
)

// IncTransaction records a terminal transaction outcome.
func IncTransaction(txnType, outcome string) {
	transactionsTotal.WithLabelValues(txnType, outcome).Inc()
}

// IncRetry records one retry attempt for the given transaction type.
func IncRetry(txnType string) {
	transactionRetriesTotal.WithLabelValues(txnType).Inc()
}

// SetActiveTransactions updates the in-flight transaction gauge.
func SetActiveTransactions(n int) {
	activeTransactions.Set(float64(n))
}

// IncIdempotencyLookup records a cache lookup result (hit, miss or shared).
func IncIdempotencyLookup(result string) {
	idempotencyLookupsTotal.WithLabelValues(result).Inc()
}

// SetCorrelationContexts updates the stored context gauge.
func SetCorrelationContexts(n int) {
	correlationContexts.Set(float64(n))
}

// AddCorrelationEvictions records contexts removed by a cleanup sweep.
func AddCorrelationEvictions(n int) {
	correlationEvictionsTotal.Add(float64(n))
}

// IncPersistWrite records the outcome of one background persistence write.
func IncPersistWrite(outcome string) {
	persistWritesTotal.WithLabelValues(outcome).Inc()
}
