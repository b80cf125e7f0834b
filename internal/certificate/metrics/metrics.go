package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for certificate operations.
type Metrics struct {
	CertificatesIssued   prometheus.Counter
	IssueFailures        *prometheus.CounterVec
	IssueDurationMs      prometheus.Histogram
	RenderDurationMs     prometheus.Histogram
	Validations          *prometheus.CounterVec
	ValidationDurationMs prometheus.Histogram
	Downloads            prometheus.Counter
	ValidationLogErrors  prometheus.Counter
}

// New registers and returns certificate metrics collectors.
func New() *Metrics {
	return &Metrics{
		CertificatesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "avalia_certificates_issued_total",
			Help: "Total number of certificates issued",
		}),
		IssueFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "avalia_certificate_issue_failures_total",
			Help: "Total number of failed issuance attempts",
		}, []string{"reason"}),
		IssueDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "avalia_certificate_issue_duration_ms",
			Help:    "Duration of certificate issuance in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		RenderDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "avalia_certificate_render_duration_ms",
			Help:    "Duration of certificate document rendering in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500},
		}),
		Validations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "avalia_certificate_validations_total",
			Help: "Total number of public validation lookups by outcome",
		}, []string{"outcome"}),
		ValidationDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "avalia_certificate_validation_duration_ms",
			Help:    "Duration of validation lookups in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		Downloads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "avalia_certificate_downloads_total",
			Help: "Total number of certificate document downloads",
		}),
		ValidationLogErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "avalia_certificate_validation_log_errors_total",
			Help: "Total number of validation log writes that failed",
		}),
	}
}
