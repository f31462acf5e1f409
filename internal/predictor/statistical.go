package predictor

import (
	"time"

	"github.com/bloomsight/bloom-engine/internal/models"
)

// TrainedModel bundles the classifier, its matched scaler, evaluation metrics
// and feature list. The four travel together: persisting or loading them
// separately would let a scaler from one training run normalise features for
// a different classifier.
type TrainedModel struct {
	Version      string          `json:"version"`
	Forest       Forest          `json:"forest"`
	Scaler       StandardScaler  `json:"scaler"`
	FeatureNames []string        `json:"feature_names"`
	Metrics      TrainingMetrics `json:"metrics"`
	TrainedAt    time.Time       `json:"trained_at"`
}

// TrainingMetrics reports how the model was trained and how well it scored.
type TrainingMetrics struct {
	Samples         int          `json:"samples"`
	Accuracy        float64      `json:"accuracy"`
	Precision       float64      `json:"precision"`
	Recall          float64      `json:"recall"`
	F1              float64      `json:"f1"`
	ClassBalance    float64      `json:"class_balance"`
	HeldOutFraction float64      `json:"held_out_fraction"`
	Folds           int          `json:"folds"`
	Optimized       bool         `json:"optimized"`
	Params          ForestParams `json:"params"`
	Warning         string       `json:"warning,omitempty"`
}

// Statistical serves predictions from an immutable trained model snapshot.
type Statistical struct {
	model *TrainedModel
}

// NewStatistical wraps a loaded model. The model is owned read-only; retrains
// produce a fresh Statistical rather than mutating this one.
func NewStatistical(model *TrainedModel) *Statistical {
	return &Statistical{model: model}
}

// Mode identifies the statistical path.
func (s *Statistical) Mode() models.PredictionMode { return models.ModeStatistical }

// Predict scales the features with the training-time scaler and reads the
// bloom-class probability off the forest.
func (s *Statistical) Predict(f models.Features) models.BloomPrediction {
	includeWeather := len(s.model.FeatureNames) > 2
	scaled := s.model.Scaler.Transform(f.Vector(includeWeather))
	probability := models.ClampPercent(s.model.Forest.Proba(scaled) * 100)

	return models.BloomPrediction{
		Probability:  probability,
		Bloom:        probability > 50,
		Confidence:   models.TierFromProbability(probability),
		Mode:         models.ModeStatistical,
		ModelVersion: s.model.Version,
		CreatedAt:    time.Now().UTC(),
	}
}
