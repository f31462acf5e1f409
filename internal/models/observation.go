package models

import (
	"fmt"
	"math"
	"time"
)

// Metric enumerates the five fused environmental signals.
type Metric string

const (
	MetricVegetation  Metric = "vegetation_index"
	MetricWater       Metric = "water_index"
	MetricPigment     Metric = "pigment_index"
	MetricRainfall    Metric = "rainfall_mm"
	MetricTemperature Metric = "temperature_c"
)

// AllMetrics lists every metric in fusion order.
var AllMetrics = []Metric{
	MetricVegetation,
	MetricWater,
	MetricPigment,
	MetricRainfall,
	MetricTemperature,
}

// IsIndex reports whether the metric is a normalized index bounded to [-1, 1].
func (m Metric) IsIndex() bool {
	switch m {
	case MetricVegetation, MetricWater, MetricPigment:
		return true
	}
	return false
}

// BoundingBox describes the queried region as [minLon, minLat, maxLon, maxLat].
type BoundingBox struct {
	MinLon float64 `json:"min_lon" yaml:"minLon"`
	MinLat float64 `json:"min_lat" yaml:"minLat"`
	MaxLon float64 `json:"max_lon" yaml:"maxLon"`
	MaxLat float64 `json:"max_lat" yaml:"maxLat"`
}

// Validate checks coordinate ranges and ordering. A malformed region is a
// caller contract violation and fails fast.
func (b BoundingBox) Validate() error {
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("%w: coordinates out of range: %s", ErrInvalidRegion, b)
	}
	if b.MinLon >= b.MaxLon || b.MinLat >= b.MaxLat {
		return fmt.Errorf("%w: min corner must be south-west of max corner: %s", ErrInvalidRegion, b)
	}
	return nil
}

// AreaKm2 returns the approximate region area using an equirectangular
// projection. Good enough for the percentage math downstream; this is not a
// geodesy library.
func (b BoundingBox) AreaKm2() float64 {
	const kmPerDegree = 111.32
	midLat := (b.MinLat + b.MaxLat) / 2 * math.Pi / 180
	width := (b.MaxLon - b.MinLon) * kmPerDegree * math.Cos(midLat)
	height := (b.MaxLat - b.MinLat) * kmPerDegree
	return math.Abs(width * height)
}

// Key returns a stable string identity used for persistence and caching.
func (b BoundingBox) Key() string {
	return fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%g,%g,%g,%g]", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// TimeWindow bounds an observation request.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MetricValue carries one fused metric with its provenance. A metric is either
// entirely real or entirely synthetic, never mixed.
type MetricValue struct {
	Value       float64 `json:"value"`
	Source      string  `json:"source"`
	ResolutionM float64 `json:"resolution_m,omitempty"`
	Synthetic   bool    `json:"is_synthetic"`
}

// Observation is one fused environmental snapshot for a region and window.
// Immutable once produced by the fusion engine.
type Observation struct {
	Region    BoundingBox            `json:"region"`
	Window    TimeWindow             `json:"window"`
	Metrics   map[Metric]MetricValue `json:"metrics"`
	AreaKm2   float64                `json:"area_km2"`
	FetchedAt time.Time              `json:"fetched_at"`
}

// Value returns the metric value and whether it is present at all.
func (o Observation) Value(m Metric) (MetricValue, bool) {
	v, ok := o.Metrics[m]
	return v, ok
}

// Real reports whether the metric is present and backed by a measured source.
func (o Observation) Real(m Metric) bool {
	v, ok := o.Metrics[m]
	return ok && !v.Synthetic
}

// FullySynthetic reports whether every present metric was heuristically filled.
func (o Observation) FullySynthetic() bool {
	if len(o.Metrics) == 0 {
		return true
	}
	for _, v := range o.Metrics {
		if !v.Synthetic {
			return false
		}
	}
	return true
}

// Sources returns the distinct source names that contributed to the snapshot.
func (o Observation) Sources() []string {
	seen := make(map[string]struct{}, len(o.Metrics))
	sources := make([]string, 0, len(o.Metrics))
	for _, m := range AllMetrics {
		v, ok := o.Metrics[m]
		if !ok || v.Source == "" {
			continue
		}
		if _, dup := seen[v.Source]; dup {
			continue
		}
		seen[v.Source] = struct{}{}
		sources = append(sources, v.Source)
	}
	return sources
}

// ClampIndex bounds a normalized index to [-1, 1].
func ClampIndex(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampPercent bounds a percentage to [0, 100].
func ClampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
