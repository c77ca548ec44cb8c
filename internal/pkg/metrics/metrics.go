// Package metrics exposes prometheus collectors for the wallet view.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "walletview"

// Collectors implements port.Metrics with prometheus collectors.
type Collectors struct {
	actions         *prometheus.CounterVec
	reads           *prometheus.CounterVec
	confirmations   *prometheus.HistogramVec
	accountsChanged *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "User actions submitted to the wallet contract, by action and outcome.",
		}, []string{"action", "outcome"}),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_reads_total",
			Help:      "Balance reads, by kind (user, contract) and outcome.",
		}, []string{"kind", "outcome"}),
		confirmations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confirmation_wait_seconds",
			Help:      "Time spent waiting for transaction confirmation.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 15, 30, 60, 120, 300},
		}, []string{"action"}),
		accountsChanged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_changed_total",
			Help:      "Accounts-changed events from the provider, split by whether accounts remain.",
		}, []string{"state"}),
	}

	for _, col := range []prometheus.Collector{c.actions, c.reads, c.confirmations, c.accountsChanged} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustRegisterMetrics registers the collectors with the default registry and panics on failure.
func MustRegisterMetrics() *Collectors {
	c, err := New(prometheus.DefaultRegisterer)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Collectors) ObserveAction(action string, outcome string) {
	c.actions.WithLabelValues(action, outcome).Inc()
}

func (c *Collectors) ObserveRead(kind string, outcome string) {
	c.reads.WithLabelValues(kind, outcome).Inc()
}

func (c *Collectors) ObserveConfirmation(action string, d time.Duration) {
	c.confirmations.WithLabelValues(action).Observe(d.Seconds())
}

func (c *Collectors) ObserveAccountsChanged(accounts int) {
	state := "connected"
	if accounts == 0 {
		state = "empty"
	}
	c.accountsChanged.WithLabelValues(state).Inc()
}
