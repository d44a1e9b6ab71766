package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the collectors the API exports on /metrics.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	DatasetLoadDuration prometheus.Histogram
	DatasetLoadErrors   prometheus.Counter
	ReportsTotal        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teampulse",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "teampulse",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		DatasetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "teampulse",
			Subsystem: "dataset",
			Name:      "load_duration_seconds",
			Help:      "Time to load the dataset for one request",
			Buckets:   prometheus.DefBuckets,
		}),
		DatasetLoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "teampulse",
			Subsystem: "dataset",
			Name:      "load_errors_total",
			Help:      "Dataset loads that failed",
		}),
		ReportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teampulse",
			Subsystem: "analysis",
			Name:      "reports_total",
			Help:      "Weekly reports built, by resulting risk level",
		}, []string{"risk_level"}),
	}

	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DatasetLoadDuration,
		m.DatasetLoadErrors,
		m.ReportsTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
