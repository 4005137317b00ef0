package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gazra", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gazra", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	CollectionOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gazra", Name: "collection_operations_total", Help: "Collection accessor calls by collection, operation and outcome."},
		[]string{"collection", "op", "outcome"},
	)
	CollectionOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "gazra", Name: "collection_operation_seconds", Help: "Round trip time of collection accessor calls.", Buckets: prometheus.DefBuckets},
		[]string{"collection", "op"},
	)
	MediaUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gazra", Name: "media_uploads_total", Help: "Admin media uploads by outcome."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(CollectionOps)
	reg.MustRegister(CollectionOpDuration)
	reg.MustRegister(MediaUploads)
}
