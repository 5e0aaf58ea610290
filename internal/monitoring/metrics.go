package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PagesScraped     prometheus.Counter
	PagesProxied     prometheus.Counter
	ProductsImported prometheus.Counter
	FetchFailures    prometheus.Counter
	EnrichErrors     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		PagesScraped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_pages_scraped_total",
			Help: "The total number of product pages scraped",
		}),
		PagesProxied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_pages_proxied_total",
			Help: "The total number of pages served through the rewriting proxy",
		}),
		ProductsImported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_products_imported_total",
			Help: "The total number of products written to the catalog",
		}),
		FetchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_fetch_failures_total",
			Help: "The total number of failed page fetches",
		}),
		EnrichErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_enrich_errors_total",
			Help: "The total number of swallowed enrichment step failures",
		}, []string{"stage"}), // 'translate' or 'ocr'
	}
}

func (m *Metrics) IncEnrichErrors(stage string) {
	m.EnrichErrors.WithLabelValues(stage).Inc()
}
