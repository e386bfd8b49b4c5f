package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ScrapedTotal    *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	DiscoveredTotal prometheus.Counter
	ProxyDispatches *prometheus.CounterVec
	BatchDuration   prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		ScrapedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_urls_processed_total",
			Help: "The total number of URLs processed, by extraction level",
		}, []string{"level"}),
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g., 'invalid_url', 'fetch_failed', 'db_save_failed'
		DiscoveredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_urls_discovered_total",
			Help: "The total number of company URLs produced by discovery",
		}),
		ProxyDispatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_proxy_dispatches_total",
			Help: "The total number of requests dispatched through the proxy pool",
		}, []string{"outcome"}), // 'success' or 'failure'
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "scraper_batch_duration_seconds",
			Help:    "Wall time of complete batch runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

func (m *Metrics) IncScraped(level string) {
	m.ScrapedTotal.WithLabelValues(level).Inc()
}

func (m *Metrics) IncErrors(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) AddDiscovered(count int) {
	m.DiscoveredTotal.Add(float64(count))
}

func (m *Metrics) IncProxyDispatch(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.ProxyDispatches.WithLabelValues(outcome).Inc()
}
