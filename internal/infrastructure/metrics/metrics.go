package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine-level Prometheus metrics. HTTP-level metrics live
// in the middleware package.
type Metrics struct {
	TransfersSettled prometheus.Counter
	TransferErrors   *prometheus.CounterVec
	TransferAmount   prometheus.Histogram

	DepositsSettled prometheus.Counter
	DepositErrors   *prometheus.CounterVec
	DepositAmount   prometheus.Histogram

	AccountStatusChanges *prometheus.CounterVec

	ConsistencyChecks   prometheus.Counter
	ConsistencyFailures prometheus.Counter
}

var (
	once     sync.Once
	instance *Metrics
)

// New creates and registers the engine metrics. promauto panics on duplicate
// registration, so the instance is process-wide.
func New() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			TransfersSettled: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ubank_transfers_settled_total",
				Help: "Total number of settled transfers",
			}),
			TransferErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ubank_transfer_errors_total",
				Help: "Total number of rejected or failed transfers",
			}, []string{"reason"}),
			TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "ubank_transfer_amount",
				Help:    "Distribution of transfer amounts",
				Buckets: prometheus.ExponentialBuckets(1, 10, 8),
			}),
			DepositsSettled: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ubank_deposits_settled_total",
				Help: "Total number of settled deposits",
			}),
			DepositErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ubank_deposit_errors_total",
				Help: "Total number of rejected or failed deposits",
			}, []string{"reason"}),
			DepositAmount: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "ubank_deposit_amount",
				Help:    "Distribution of deposit amounts",
				Buckets: prometheus.ExponentialBuckets(1, 10, 8),
			}),
			AccountStatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ubank_account_status_changes_total",
				Help: "Total number of account status changes",
			}, []string{"to"}),
			ConsistencyChecks: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ubank_ledger_consistency_checks_total",
				Help: "Total number of ledger consistency checks",
			}),
			ConsistencyFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ubank_ledger_consistency_failures_total",
				Help: "Total number of consistency checks reporting imbalance",
			}),
		}
	})

	return instance
}
