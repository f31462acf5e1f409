package models

import "time"

// DailyPoint is one per-day aggregate in a historical series.
type DailyPoint struct {
	Date         time.Time `json:"date"`
	Vegetation   float64   `json:"vegetation_index"`
	Water        float64   `json:"water_index"`
	RainfallMM   float64   `json:"rainfall_mm"`
	TemperatureC float64   `json:"temperature_c"`
	Synthetic    bool      `json:"is_synthetic"`
}

// HistoricalSeries is an ordered per-day view of a region's observations,
// rebuilt from the historical store on each call.
type HistoricalSeries struct {
	Region    BoundingBox  `json:"region"`
	Points    []DailyPoint `json:"points"`
	Synthetic bool         `json:"is_synthetic"`
}

// TrainingSet is a labeled, balanced feature matrix ready for training.
type TrainingSet struct {
	Features     [][]float64 `json:"features"`
	Labels       []int       `json:"labels"`
	FeatureNames []string    `json:"feature_names"`
	// ClassBalance is minority/majority before upsampling; 0 means a
	// single-class (degenerate) set.
	ClassBalance float64 `json:"class_balance"`
	Degenerate   bool    `json:"degenerate"`
	Synthetic    bool    `json:"is_synthetic"`
}
