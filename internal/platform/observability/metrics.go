package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// RoyaltyMetrics records distribution and withdrawal outcomes.
type RoyaltyMetrics struct {
	distributions        *prometheus.CounterVec
	distributedAmount    *prometheus.CounterVec
	payoutsCreated       *prometheus.CounterVec
	distributionDuration *prometheus.HistogramVec
	withdrawals          *prometheus.CounterVec
	withdrawnAmount      prometheus.Counter
	withdrawalDuration   *prometheus.HistogramVec
}

// NewRoyaltyMetrics registers the collectors on registerer. A nil registerer
// uses the prometheus default registry.
func NewRoyaltyMetrics(registerer prometheus.Registerer) *RoyaltyMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &RoyaltyMetrics{
		distributions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "distributions_total",
			Help:      "Distribution runs by mode and outcome.",
		}, []string{"mode", "outcome"}),
		distributedAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "distributed_amount_total",
			Help:      "Gross amount distributed by mode.",
		}, []string{"mode"}),
		payoutsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "payouts_created_total",
			Help:      "Pending payouts created by distributions.",
		}, []string{"mode"}),
		distributionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "royalty",
			Name:      "distribution_duration_seconds",
			Help:      "Duration of distribution transactions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "withdrawals_total",
			Help:      "Withdrawals by outcome and transfer status.",
		}, []string{"outcome", "transfer_status"}),
		withdrawnAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "withdrawn_amount_total",
			Help:      "Amount debited by applied withdrawals.",
		}),
		withdrawalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "royalty",
			Name:      "withdrawal_duration_seconds",
			Help:      "Duration of withdrawals including the transfer call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	registerer.MustRegister(
		m.distributions,
		m.distributedAmount,
		m.payoutsCreated,
		m.distributionDuration,
		m.withdrawals,
		m.withdrawnAmount,
		m.withdrawalDuration,
	)
	return m
}

func (m *RoyaltyMetrics) ObserveDistribution(mode string, outcome string, total decimal.Decimal, payouts int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if mode == "" {
		mode = "unknown"
	}
	m.distributions.WithLabelValues(mode, outcome).Inc()
	m.distributionDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if outcome != "applied" {
		return
	}
	m.distributedAmount.WithLabelValues(mode).Add(total.InexactFloat64())
	m.payoutsCreated.WithLabelValues(mode).Add(float64(payouts))
}

func (m *RoyaltyMetrics) ObserveWithdrawal(outcome string, transferStatus string, amount decimal.Decimal, elapsed time.Duration) {
	if m == nil {
		return
	}
	if transferStatus == "" {
		transferStatus = "none"
	}
	m.withdrawals.WithLabelValues(outcome, transferStatus).Inc()
	m.withdrawalDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if outcome == "applied" {
		m.withdrawnAmount.Add(amount.InexactFloat64())
	}
}
