package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SalesCompletedTotal counts completed checkouts by delivery method.
	SalesCompletedTotal *prometheus.CounterVec
	// SaleValue records the grand total of completed sales in minor units.
	SaleValue *prometheus.HistogramVec
	// CartOperationsTotal counts cart mutations by operation and outcome.
	CartOperationsTotal *prometheus.CounterVec
	// ListViewEvaluationsTotal counts filter-sort pipeline evaluations by collection.
	ListViewEvaluationsTotal *prometheus.CounterVec
	// BackupRunsTotal counts backup export runs by outcome.
	BackupRunsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SalesCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_completed_total",
			Help:      "Count of completed checkouts by delivery method.",
		}, []string{"delivery_method"})
		SaleValue = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_value_minor_units",
			Help:      "Grand total of completed sales in minor currency units.",
			Buckets:   []float64{1000, 5000, 10000, 50000, 100000, 500000, 1000000, 5000000},
		}, []string{"delivery_method"})
		CartOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Count of cart mutations by operation and outcome.",
		}, []string{"operation", "result"})
		ListViewEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listview_evaluations_total",
			Help:      "Count of filter-sort pipeline evaluations by collection.",
		}, []string{"collection"})
		BackupRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_runs_total",
			Help:      "Count of backup export runs by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, SalesCompletedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesCompletedTotal = v
			}
		})
		mustRegisterCollector(reg, SaleValue, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				SaleValue = v
			}
		})
		mustRegisterCollector(reg, CartOperationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartOperationsTotal = v
			}
		})
		mustRegisterCollector(reg, ListViewEvaluationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ListViewEvaluationsTotal = v
			}
		})
		mustRegisterCollector(reg, BackupRunsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BackupRunsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
