// Package metrics exposes the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scrape_cycles_total", Help: "Collection cycles by outcome"},
		[]string{"ticker", "status"},
	)
	ScrapeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scrape_duration_seconds",
			Help:    "Wall time of a single scrape",
			Buckets: prometheus.DefBuckets,
		},
	)
	LastPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "last_price", Help: "Most recently collected price"},
		[]string{"ticker"},
	)
	QuotesSaved = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "quotes_saved_total", Help: "New quote rows persisted"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, ScrapeDuration, LastPrice, QuotesSaved)
}
