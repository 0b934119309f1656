package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartQuoteTotal counts cart quote computations by buyer role and outcome.
	CartQuoteTotal *prometheus.CounterVec
	// CreditPreviewTotal counts repayment preview computations by tier kind.
	CreditPreviewTotal *prometheus.CounterVec
	// OrderPlacedTotal counts checkout outcomes.
	OrderPlacedTotal *prometheus.CounterVec
	// VariantResolveTotal counts variant structure resolutions by outcome.
	VariantResolveTotal *prometheus.CounterVec
	// CheckoutLatency records checkout processing latency in milliseconds.
	CheckoutLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartQuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_quote_total",
			Help:      "Count of cart quote computations by role and result.",
		}, []string{"role", "result"})
		CreditPreviewTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credit_preview_total",
			Help:      "Count of repayment preview computations by applied tier kind.",
		}, []string{"kind"})
		OrderPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_placed_total",
			Help:      "Count of checkout outcomes.",
		}, []string{"result"})
		VariantResolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variant_resolve_total",
			Help:      "Count of product variant structure resolutions.",
		}, []string{"result"})
		CheckoutLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_ms",
			Help:      "Latency for checkout processing in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"})

		mustRegisterCollector(reg, CartQuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartQuoteTotal = v
			}
		})
		mustRegisterCollector(reg, CreditPreviewTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CreditPreviewTotal = v
			}
		})
		mustRegisterCollector(reg, OrderPlacedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderPlacedTotal = v
			}
		})
		mustRegisterCollector(reg, VariantResolveTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				VariantResolveTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				CheckoutLatency = v
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
		panic(fmt.Errorf("register metric: %w", err))
	}
}
