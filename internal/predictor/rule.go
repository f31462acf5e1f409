package predictor

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/bloomsight/bloom-engine/internal/models"
)

// Sub-factor weights. Vegetation vigor dominates, moisture close behind;
// weather factors refine rather than drive the score.
const (
	weightVegetation  = 0.35
	weightMoisture    = 0.30
	weightTemperature = 0.20
	weightRainfall    = 0.15
)

// RuleBased scores four sub-factors through independent bucket lookups and
// combines them with fixed weights. It is fully deterministic: the small
// perturbation that separates near-identical inputs is derived from the
// inputs themselves.
type RuleBased struct{}

// NewRuleBased returns the rule-based fallback predictor.
func NewRuleBased() *RuleBased { return &RuleBased{} }

// Mode identifies the rule-based path.
func (r *RuleBased) Mode() models.PredictionMode { return models.ModeRuleBased }

// Predict combines the bucket scores into a probability in [5, 95].
func (r *RuleBased) Predict(f models.Features) models.BloomPrediction {
	sub := map[string]float64{
		"vegetation":  vegetationScore(f.Vegetation),
		"moisture":    moistureScore(f.Water),
		"temperature": temperatureScore(f.TemperatureC),
		"rainfall":    rainfallScore(f.RainfallMM),
	}

	probability := sub["vegetation"]*weightVegetation +
		sub["moisture"]*weightMoisture +
		sub["temperature"]*weightTemperature +
		sub["rainfall"]*weightRainfall

	probability += perturbation(f)
	if probability < 5 {
		probability = 5
	}
	if probability > 95 {
		probability = 95
	}

	return models.BloomPrediction{
		Probability: probability,
		Bloom:       probability > 50,
		Confidence:  models.TierFromProbability(probability),
		Mode:        models.ModeRuleBased,
		SubScores:   sub,
		CreatedAt:   time.Now().UTC(),
	}
}

// vegetationScore is monotonic across five vigor buckets.
func vegetationScore(v float64) float64 {
	switch {
	case v < 0.2:
		return 20
	case v < 0.35:
		return 40
	case v < 0.5:
		return 60
	case v < 0.65:
		return 80
	default:
		return 95
	}
}

// moistureScore peaks at a slightly positive water index; both too dry and
// too wet suppress flowering.
func moistureScore(w float64) float64 {
	switch {
	case w < -0.2:
		return 20
	case w < 0:
		return 50
	case w < 0.05:
		return 75
	case w <= 0.3:
		return 95
	case w <= 0.5:
		return 70
	default:
		return 45
	}
}

// temperatureScore peaks around the crop-agnostic optimum.
func temperatureScore(t float64) float64 {
	switch {
	case t < 10:
		return 20
	case t < 15:
		return 50
	case t < 20:
		return 75
	case t <= 26:
		return 90
	case t <= 30:
		return 60
	default:
		return 30
	}
}

// rainfallScore peaks at a moderate recent total.
func rainfallScore(mm float64) float64 {
	switch {
	case mm < 10:
		return 30
	case mm < 30:
		return 60
	case mm <= 90:
		return 90
	case mm <= 150:
		return 70
	default:
		return 40
	}
}

// perturbation maps the raw inputs into [-2, 2] so near-identical feature
// vectors never produce byte-identical probabilities while the same vector
// always produces the same output.
func perturbation(f models.Features) float64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%.6f|%.6f|%.2f|%.2f", f.Vegetation, f.Water, f.RainfallMM, f.TemperatureC)
	return float64(h.Sum64()%4001)/1000.0 - 2.0
}
