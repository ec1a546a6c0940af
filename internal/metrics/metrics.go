// Package metrics holds the Prometheus instruments of the storefront
// breadcrumb service. All collectors are registered with the global
// registry, so cmd/server only has to mount promhttp.Handler on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BreadcrumbRendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadcrumb_renders_total",
			Help: "Breadcrumb trails rendered, by mode and visibility.",
		},
		[]string{"mode", "visible"},
	)

	CategoryListMemoHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "breadcrumb_category_list_memo_hits_total",
			Help: "Category list lookups served from the memo.",
		})

	CategoryListMemoMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "breadcrumb_category_list_memo_misses_total",
			Help: "Category list lookups that had to be derived.",
		})

	CategoryListMemoEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "breadcrumb_category_list_memo_entries",
			Help: "Category lists currently held in the memo.",
		})

	CatalogLookupErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadcrumb_catalog_lookup_errors_total",
			Help: "Failed catalog lookups, by lookup kind.",
		},
		[]string{"lookup"},
	)

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter.",
		})
)

func init() {
	prometheus.MustRegister(
		BreadcrumbRendersTotal,
		CategoryListMemoHitsTotal,
		CategoryListMemoMissesTotal,
		CategoryListMemoEntries,
		CatalogLookupErrorsTotal,
		RateLimitedTotal,
	)
}
