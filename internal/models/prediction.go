package models

import "time"

// ConfidenceTier summarises how much trust to place in a prediction.
type ConfidenceTier string

const (
	ConfidenceLow    ConfidenceTier = "low"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceHigh   ConfidenceTier = "high"
)

// PredictionMode tags which path produced a prediction.
type PredictionMode string

const (
	ModeStatistical PredictionMode = "statistical"
	ModeRuleBased   PredictionMode = "rule-based"
	ModeLastResort  PredictionMode = "last-resort"
)

// DetectionMethod tags which rule produced a bloom area.
type DetectionMethod string

const (
	MethodPigment   DetectionMethod = "pigment-based"
	MethodWater     DetectionMethod = "water-based"
	MethodSynthetic DetectionMethod = "synthetic-heuristic"
	MethodNone      DetectionMethod = "none"
)

// BloomArea reports the spatial extent of a detected bloom.
type BloomArea struct {
	AreaKm2       float64         `json:"area_km2"`
	Percent       float64         `json:"percent"`
	Method        DetectionMethod `json:"method"`
	WaterThresh   float64         `json:"water_threshold"`
	VegThresh     float64         `json:"vegetation_threshold"`
	PigmentThresh float64         `json:"pigment_threshold,omitempty"`
	Authoritative bool            `json:"authoritative"`
	Reason        string          `json:"reason,omitempty"`
}

// Features is the predictor input vector extracted from an observation.
type Features struct {
	Vegetation   float64 `json:"vegetation_index"`
	Water        float64 `json:"water_index"`
	RainfallMM   float64 `json:"rainfall_mm"`
	TemperatureC float64 `json:"temperature_c"`
}

// FeaturesFromObservation extracts predictor features. The second return is
// false when the observation carries neither vegetation nor water signal, in
// which case only the last-resort path applies.
func FeaturesFromObservation(obs Observation) (Features, bool) {
	veg, vegOK := obs.Value(MetricVegetation)
	water, waterOK := obs.Value(MetricWater)
	if !vegOK && !waterOK {
		return Features{}, false
	}
	f := Features{}
	if vegOK {
		f.Vegetation = ClampIndex(veg.Value)
	}
	if waterOK {
		f.Water = ClampIndex(water.Value)
	}
	if rain, ok := obs.Value(MetricRainfall); ok {
		f.RainfallMM = rain.Value
	}
	if temp, ok := obs.Value(MetricTemperature); ok {
		f.TemperatureC = temp.Value
	}
	return f, true
}

// Vector flattens features in canonical order. Weather columns are appended
// only when requested so the vector matches the trained feature list.
func (f Features) Vector(includeWeather bool) []float64 {
	v := []float64{f.Vegetation, f.Water}
	if includeWeather {
		v = append(v, f.RainfallMM, f.TemperatureC)
	}
	return v
}

// FeatureNames returns column names matching Vector ordering.
func FeatureNames(includeWeather bool) []string {
	names := []string{string(MetricVegetation), string(MetricWater)}
	if includeWeather {
		names = append(names, string(MetricRainfall), string(MetricTemperature))
	}
	return names
}

// BloomPrediction is the classifier output for one feature vector.
type BloomPrediction struct {
	Probability  float64            `json:"probability"`
	Bloom        bool               `json:"bloom"`
	Confidence   ConfidenceTier     `json:"confidence"`
	Mode         PredictionMode     `json:"mode"`
	ModelVersion string             `json:"model_version,omitempty"`
	SubScores    map[string]float64 `json:"sub_scores,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// TierFromProbability maps a bloom probability in [0,100] to a confidence
// tier using the winning-class margin from 50.
func TierFromProbability(probability float64) ConfidenceTier {
	winning := probability
	if winning < 50 {
		winning = 100 - winning
	}
	switch {
	case winning > 70:
		return ConfidenceHigh
	case winning > 50:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
