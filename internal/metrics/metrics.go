// Package metrics holds the Prometheus collectors for sample collection,
// training, catalog maintenance, and prediction. Collectors register with
// the default registry and are served by promhttp at /metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JaimeStill/mimic/pkg/storage"
)

var (
	// SamplesStored is the number of samples currently held.
	SamplesStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mimic_samples_stored",
		Help: "Number of training samples currently held",
	})

	// ModelsStored is the number of catalog entries.
	ModelsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mimic_models_stored",
		Help: "Number of trained models in the catalog",
	})

	// TrainingRunsTotal counts training attempts by status.
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mimic_training_runs_total",
			Help: "Total training runs by status",
		},
		[]string{"status"},
	)

	// TrainingDuration measures end-to-end training time.
	TrainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mimic_training_duration_seconds",
		Help:    "Training duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	// EvictionsTotal counts catalog entries evicted to satisfy the quota.
	EvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mimic_catalog_evictions_total",
		Help: "Total catalog entries evicted under quota pressure",
	})

	// QuotaExceededTotal counts quota failures by logical store.
	QuotaExceededTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mimic_quota_exceeded_total",
			Help: "Total storage quota failures by store",
		},
		[]string{"store"},
	)

	// PredictionsTotal counts predictions by outcome.
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mimic_predictions_total",
			Help: "Total predictions by outcome",
		},
		[]string{"outcome"},
	)

	// PredictionDuration measures a single engine evaluation.
	PredictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mimic_prediction_duration_seconds",
		Help:    "Prediction latency in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
)

// Prediction outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeAmbiguous = "ambiguous"
	OutcomeFailed    = "failed"
)

// RecordTraining records a training attempt.
func RecordTraining(duration time.Duration, err error) {
	TrainingDuration.Observe(duration.Seconds())
	if err != nil {
		TrainingRunsTotal.WithLabelValues("failed").Inc()
		return
	}
	TrainingRunsTotal.WithLabelValues("succeeded").Inc()
}

// RecordPrediction records one prediction outcome.
func RecordPrediction(outcome string, duration time.Duration) {
	PredictionsTotal.WithLabelValues(outcome).Inc()
	PredictionDuration.Observe(duration.Seconds())
}

// RecordQuota increments the quota counter when err is a quota failure.
func RecordQuota(err error) {
	var qe *storage.QuotaExceededError
	if errors.As(err, &qe) {
		QuotaExceededTotal.WithLabelValues(qe.Store).Inc()
	}
}
