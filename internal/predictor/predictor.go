// Package predictor hosts the two interchangeable bloom classifiers behind a
// single Predict contract: a trained statistical model when one exists, and a
// deterministic rule-based scorer otherwise. The choice is made once by the
// factory so call sites never branch on model availability.
package predictor

import (
	"log/slog"
	"time"

	"github.com/bloomsight/bloom-engine/internal/models"
	"github.com/bloomsight/bloom-engine/internal/providers"
)

// Predictor produces a bloom prediction from extracted features.
type Predictor interface {
	Predict(features models.Features) models.BloomPrediction
	Mode() models.PredictionMode
}

// ModelSource loads the persisted classifier/scaler pair, always as one unit.
type ModelSource interface {
	Load() (*TrainedModel, bool, error)
}

// New selects the prediction mode once at startup: statistical when a trained
// model loads cleanly, rule-based otherwise. A load failure is recovered, not
// surfaced; the mode tag on every prediction records which path served it.
func New(source ModelSource, logger *slog.Logger) Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	if source != nil {
		model, ok, err := source.Load()
		if err != nil {
			logger.Warn("trained model unavailable, using rule-based mode", slog.Any("error", err))
		} else if ok {
			logger.Info("statistical mode enabled", slog.String("model_version", model.Version))
			return NewStatistical(model)
		}
	}
	return NewRuleBased()
}

// LastResort returns the degraded estimate used when feature extraction fails
// entirely. Its distinct mode tag keeps it from being confused with either
// real prediction path.
func LastResort(region models.BoundingBox, at time.Time) models.BloomPrediction {
	syn := providers.NewSynthetic()
	probability := 15 + 1.2*syn.BloomPercent(region, at)
	if providers.InRainySeason(at.Month()) {
		probability += 10
	}
	probability = models.ClampPercent(probability)
	return models.BloomPrediction{
		Probability: probability,
		Bloom:       probability > 50,
		Confidence:  models.ConfidenceLow,
		Mode:        models.ModeLastResort,
		CreatedAt:   time.Now().UTC(),
	}
}
