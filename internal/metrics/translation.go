package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "digesto"

// Translation and segmentation Prometheus metrics.
var (
	TranslationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_requests_total",
			Help:      "Total number of translation requests",
		},
		[]string{"provider", "status"}, // status: success / error / timeout
	)

	TranslationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "translation_duration_seconds",
			Help:      "Translation request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	TranslationCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_cache_total",
			Help:      "Translation cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	FragmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_total",
			Help:      "Fragments produced by segmentation",
		},
		[]string{"mode"},
	)

	TranslationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_failures_total",
			Help:      "Fragments recorded with the failure marker",
		},
	)
)

var registerTranslationOnce sync.Once

// RegisterTranslationMetrics registers the pipeline metrics. Safe to call more than once.
func RegisterTranslationMetrics() {
	registerTranslationOnce.Do(func() {
		prometheus.MustRegister(TranslationRequestsTotal)
		prometheus.MustRegister(TranslationRequestDuration)
		prometheus.MustRegister(TranslationCacheTotal)
		prometheus.MustRegister(FragmentsTotal)
		prometheus.MustRegister(TranslationFailuresTotal)
	})
}
