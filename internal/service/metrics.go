package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"kvgportal/internal/model"
)

// Metrics are the domain counters exported next to the HTTP metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	quotes    *prometheus.CounterVec
	uploads   *prometheus.CounterVec
	pageViews prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		quotes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvg_quotes_total",
				Help: "Premium comparisons served, by source (cache or api).",
			},
			[]string{"source"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvg_documents_uploaded_total",
				Help: "Documents stored, by kind.",
			},
			[]string{"kind"},
		),
		pageViews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kvg_page_views_total",
			Help: "Page view beacons recorded.",
		}),
	}
	for _, c := range []prometheus.Collector{m.quotes, m.uploads, m.pageViews} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) quoteServed(source string) {
	if m != nil {
		m.quotes.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) documentStored(kind model.DocumentKind) {
	if m != nil {
		m.uploads.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) pageViewed() {
	if m != nil {
		m.pageViews.Inc()
	}
}
