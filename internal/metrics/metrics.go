// Package metrics exposes Prometheus collectors for the sitegraph crawler.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchResultsTotal    *prometheus.CounterVec
	dispatchBatchesTotal prometheus.Counter
	dispatchBundlesTotal prometheus.Counter
	crawlPagesTotal      *prometheus.CounterVec
	crawlFrontierDepth   prometheus.Gauge

	once sync.Once
)

// Init registers the collectors. It is safe to call multiple times.
func Init() {
	once.Do(func() {
		fetchResultsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitegraph_fetch_results_total",
				Help: "Total classified fetch results, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		dispatchBatchesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sitegraph_dispatch_batches_total",
				Help: "Total batches issued by the dispatcher.",
			},
		)

		dispatchBundlesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sitegraph_dispatch_bundles_total",
				Help: "Total URL bundles consumed from the starting queue.",
			},
		)

		crawlPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitegraph_crawl_pages_total",
				Help: "Total pages visited by the bounded crawler, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		crawlFrontierDepth = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitegraph_crawl_frontier_depth",
				Help: "Current number of entries waiting in the crawl frontier.",
			},
		)
	})
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetchResult counts one classified fetch result.
func ObserveFetchResult(outcome string) {
	if fetchResultsTotal != nil {
		fetchResultsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveBatch counts one dispatched batch.
func ObserveBatch() {
	if dispatchBatchesTotal != nil {
		dispatchBatchesTotal.Inc()
	}
}

// ObserveBundle counts one consumed bundle.
func ObserveBundle() {
	if dispatchBundlesTotal != nil {
		dispatchBundlesTotal.Inc()
	}
}

// ObserveCrawlPage counts one visited page.
func ObserveCrawlPage(outcome string) {
	if crawlPagesTotal != nil {
		crawlPagesTotal.WithLabelValues(outcome).Inc()
	}
}

// SetFrontierDepth records the current frontier size.
func SetFrontierDepth(n int) {
	if crawlFrontierDepth != nil {
		crawlFrontierDepth.Set(float64(n))
	}
}
