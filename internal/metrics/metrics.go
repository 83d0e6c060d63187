// Package metrics holds the Prometheus collectors for ledger activity.
// Collectors are package-level and registered once on the default
// registry, which cmd/api exposes at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	// Allocations counts direct allocations, including roll-forward seeding.
	Allocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantdesk_budget_allocations_total",
			Help: "Total number of allocation increments applied to budget entries",
		},
		[]string{"source"},
	)

	AllocatedAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantdesk_budget_allocated_amount_total",
			Help: "Sum of amounts allocated to budget entries",
		},
		[]string{"source"},
	)

	Expenses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantdesk_budget_expenses_total",
			Help: "Expense postings by outcome",
		},
		[]string{"outcome"},
	)

	RequestsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantdesk_budget_requests_created_total",
		Help: "Total number of budget requests submitted",
	})

	RequestDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantdesk_budget_request_decisions_total",
			Help: "Budget request decisions by resulting status",
		},
		[]string{"status"},
	)

	Transfers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantdesk_budget_transfers_total",
		Help: "Total number of budget transfers recorded",
	})

	TransferAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "grantdesk_budget_transfer_amount",
		Help:    "Budget transfer amounts",
		Buckets: []float64{1000, 10000, 100000, 1000000, 10000000, 100000000},
	})

	ArchivedEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantdesk_budget_archived_entries_total",
		Help: "Total number of budget entries archived at year end",
	})

	// SideEffectFailures counts best-effort work that failed after the
	// ledger change committed: audit, notification or email.
	SideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantdesk_side_effect_failures_total",
			Help: "Post-commit side effects that failed",
		},
		[]string{"kind"},
	)

	IdempotentReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantdesk_idempotent_replays_total",
		Help: "Requests answered from the idempotency store",
	})
)

// Float converts an amount for use as a metric value.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
