// Package monitoring exposes Prometheus instrumentation for a run and an
// optional HTTP endpoint to scrape it while a long crawl is in flight.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PagesDiscovered  prometheus.Counter
	ComparisonsTotal *prometheus.CounterVec
	FindingsTotal    prometheus.Counter
}

// NewMetrics registers the metric set on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PagesDiscovered: factory.NewCounter(prometheus.CounterOpts{
			Name: "locdrift_pages_discovered_total",
			Help: "The total number of canonical pages discovered by the crawl",
		}),
		ComparisonsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "locdrift_comparisons_total",
			Help: "The total number of comparison pairs processed",
		}, []string{"status"}), // clean, findings, analysis_failed, missing_target
		FindingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "locdrift_findings_total",
			Help: "The total number of localization findings reported",
		}),
	}
}

func (m *Metrics) IncPagesDiscovered() {
	m.PagesDiscovered.Inc()
}

func (m *Metrics) IncComparison(status string) {
	m.ComparisonsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) AddFindings(n int) {
	m.FindingsTotal.Add(float64(n))
}
