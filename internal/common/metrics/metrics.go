// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_submissions_total",
			Help: "Total number of application submissions by outcome",
		},
		[]string{"tenant", "result"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apply_submission_duration_seconds",
			Help:    "Duration of submission handling in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"result"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_cv_uploads_total",
			Help: "Total number of CV uploads to object storage",
		},
		[]string{"result"},
	)

	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apply_cv_upload_bytes",
			Help:    "Size of uploaded CV files",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 7),
		},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_upstream_requests_total",
			Help: "Requests to the applicant tracking API by status class",
		},
		[]string{"status"},
	)

	CDNFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_cdn_fetches_total",
			Help: "CDN lookups by kind and result",
		},
		[]string{"kind", "result"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_events_published_total",
			Help: "Apply events handed to each sink",
		},
		[]string{"sink", "result"},
	)

	PageViews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_page_views_total",
			Help: "Rendered pages",
		},
		[]string{"page"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apply_rate_limited_total",
			Help: "Submissions rejected by the per-client rate limiter",
		},
	)
)

// StatusClass buckets an HTTP status as "2xx", "4xx", ... or "error".
func StatusClass(status int) string {
	switch {
	case status <= 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
