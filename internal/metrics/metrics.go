package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful pipeline operations.
	OutcomeSuccess = "success"
	// OutcomeError labels failed operations (contract violations only; the
	// pipeline recovers everything else internally).
	OutcomeError = "error"
)

var (
	snapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bloom_engine",
			Name:      "snapshots_total",
			Help:      "Total region snapshot fetches, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	snapshotDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bloom_engine",
			Name:      "snapshot_seconds",
			Help:      "Snapshot fusion latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	providerFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bloom_engine",
			Name:      "provider_fallbacks_total",
			Help:      "Provider failures that fell through to the next priority.",
		},
		[]string{"provider", "metric"},
	)

	syntheticFillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bloom_engine",
			Name:      "synthetic_fills_total",
			Help:      "Metrics filled by the seasonal heuristic after every provider failed.",
		},
		[]string{"metric"},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bloom_engine",
			Name:      "predictions_total",
			Help:      "Bloom predictions served, partitioned by mode.",
		},
		[]string{"mode"},
	)

	trainingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bloom_engine",
			Name:      "trainings_total",
			Help:      "Training runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	trainingDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bloom_engine",
			Name:      "training_seconds",
			Help:      "Model training latency in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	advisoriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bloom_engine",
			Name:      "advisories_total",
			Help:      "Per-crop advisories composed.",
		},
	)
)

// Register attaches bloom-engine collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		snapshotsTotal,
		snapshotDurationSeconds,
		providerFallbacksTotal,
		syntheticFillsTotal,
		predictionsTotal,
		trainingsTotal,
		trainingDurationSeconds,
		advisoriesTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveSnapshot records a snapshot fetch duration and outcome.
func ObserveSnapshot(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	snapshotsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	snapshotDurationSeconds.Observe(duration.Seconds())
}

// ObserveProviderFallback counts one provider falling through for a metric.
func ObserveProviderFallback(provider, metric string) {
	providerFallbacksTotal.WithLabelValues(provider, metric).Inc()
}

// ObserveSyntheticFill counts one metric filled by the seasonal heuristic.
func ObserveSyntheticFill(metric string) {
	syntheticFillsTotal.WithLabelValues(metric).Inc()
}

// ObservePrediction counts one prediction by mode.
func ObservePrediction(mode string) {
	predictionsTotal.WithLabelValues(mode).Inc()
}

// ObserveTraining records a training run duration and outcome.
func ObserveTraining(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	trainingsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	trainingDurationSeconds.Observe(duration.Seconds())
}

// ObserveAdvisories counts composed per-crop advisories.
func ObserveAdvisories(count int) {
	if count > 0 {
		advisoriesTotal.Add(float64(count))
	}
}
