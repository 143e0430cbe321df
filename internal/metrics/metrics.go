package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// RequestsTotal counts HTTP requests by route and status code.
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agri",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, labeled by route and status.",
	}, []string{"route", "status"})

	// PredictionsTotal counts classifier results by predicted label.
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agri",
		Subsystem: "classifier",
		Name:      "predictions_total",
		Help:      "Total number of successful classifications, labeled by predicted label.",
	}, []string{"label"})

	// ClassifyErrorsTotal counts failed classifications.
	ClassifyErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "agri",
		Subsystem: "classifier",
		Name:      "errors_total",
		Help:      "Total number of failed classifications.",
	})

	// InferenceDurationSeconds is time spent preprocessing a decoded image and running the model.
	InferenceDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "agri",
		Subsystem: "classifier",
		Name:      "inference_duration_seconds",
		Help:      "Time to preprocess and run the model on one decoded image.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// AdviceDurationSeconds is time per advice-service call, labeled by outcome.
	AdviceDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agri",
		Subsystem: "advice",
		Name:      "request_duration_seconds",
		Help:      "Time per chat-completion call, labeled by outcome.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"outcome"})
)

// Register registers collectors with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			PredictionsTotal,
			ClassifyErrorsTotal,
			InferenceDurationSeconds,
			AdviceDurationSeconds,
		)
	})
}
