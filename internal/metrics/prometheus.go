package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medassist_query_duration_seconds",
			Help:    "Medical query processing duration in seconds",
			Buckets: []float64{0.05, 0.25, 1, 5, 30, 120},
		},
		[]string{"query_type"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medassist_query_total",
			Help: "Total number of medical queries processed",
		},
		[]string{"query_type", "status"},
	)

	EmergencyDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "medassist_emergency_detected_total",
			Help: "Total queries short-circuited by emergency keyword detection",
		},
	)

	SafetyOverrides = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "medassist_safety_override_total",
			Help: "Total generated responses replaced by the safe-redirect message",
		},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "medassist_confidence_score",
			Help:    "Response confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	ModelCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medassist_model_call_duration_seconds",
			Help:    "Outbound inference call duration in seconds",
			Buckets: []float64{0.1, 0.5, 2, 10, 60, 180},
		},
		[]string{"model"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medassist_cache_hits_total",
			Help: "Total context cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medassist_cache_misses_total",
			Help: "Total context cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryTotal)
	prometheus.MustRegister(EmergencyDetected)
	prometheus.MustRegister(SafetyOverrides)
	prometheus.MustRegister(ConfidenceScore)
	prometheus.MustRegister(ModelCallDuration)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
