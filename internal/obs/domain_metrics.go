package obs

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingQuotesTotal counts pricing requests by outcome.
	PricingQuotesTotal *prometheus.CounterVec
	// PriceFallbackTotal counts SKU fallback searches by outcome.
	PriceFallbackTotal *prometheus.CounterVec
	// PricingQuoteLatency records end-to-end quote computation time in milliseconds.
	PricingQuoteLatency prometheus.Histogram
	// CacheLookupsTotal counts collaborator cache lookups.
	CacheLookupsTotal *prometheus.CounterVec
	// RateLimitedTotal counts requests rejected by the rate limiter per scope.
	RateLimitedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingQuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_quotes_total",
			Help:      "Count of checkout pricing requests by result.",
		}, []string{"result"})
		PriceFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_fallback_total",
			Help:      "Count of fallback SKU searches by outcome.",
		}, []string{"outcome"})
		PricingQuoteLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_quote_duration_ms",
			Help:      "Latency of checkout pricing computations in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		})
		CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Count of cache lookups by cache name and result.",
		}, []string{"cache", "result"})
		RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Count of requests rejected by the rate limiter.",
		}, []string{"scope"})

		mustRegisterCollector(reg, PricingQuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PricingQuotesTotal = v
			}
		})
		mustRegisterCollector(reg, PriceFallbackTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PriceFallbackTotal = v
			}
		})
		mustRegisterCollector(reg, PricingQuoteLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				PricingQuoteLatency = v
			}
		})
		mustRegisterCollector(reg, CacheLookupsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CacheLookupsTotal = v
			}
		})
		mustRegisterCollector(reg, RateLimitedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RateLimitedTotal = v
			}
		})
	})
}

// RecordCacheLookup increments the cache lookup counter when metrics are registered.
func RecordCacheLookup(cache string, hit bool) {
	if CacheLookupsTotal == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(cache, result).Inc()
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

// RecordQuote counts a finished pricing request and observes its latency.
func RecordQuote(result string, elapsed time.Duration) {
	if PricingQuotesTotal != nil {
		PricingQuotesTotal.WithLabelValues(result).Inc()
	}
	if PricingQuoteLatency != nil {
		PricingQuoteLatency.Observe(float64(elapsed.Microseconds()) / 1000)
	}
}

// RecordRateLimited counts a rejected request for scope.
func RecordRateLimited(scope string) {
	if RateLimitedTotal == nil {
		return
	}
	if scope == "" {
		scope = "default"
	}
	RateLimitedTotal.WithLabelValues(scope).Inc()
}
