package providers

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/bloomsight/bloom-engine/internal/models"
)

// SourceSynthetic is the attribution label for heuristically filled metrics.
const SourceSynthetic = "seasonal-heuristic"

// InRainySeason reports whether the month falls in one of the two regional
// rainy windows: the long rains (March-May) and the short rains
// (October-December).
func InRainySeason(month time.Month) bool {
	return (month >= time.March && month <= time.May) ||
		(month >= time.October && month <= time.December)
}

type valueRange struct {
	min float64
	max float64
}

// Plausible per-metric ranges keyed to season. Values stay inside the
// documented metric bounds so synthetic observations satisfy the same
// invariants as measured ones.
var seasonalRanges = map[models.Metric]struct {
	rainy valueRange
	dry   valueRange
}{
	models.MetricVegetation:  {rainy: valueRange{0.45, 0.80}, dry: valueRange{0.15, 0.45}},
	models.MetricWater:       {rainy: valueRange{0.05, 0.40}, dry: valueRange{-0.30, 0.10}},
	models.MetricPigment:     {rainy: valueRange{0.05, 0.35}, dry: valueRange{-0.10, 0.10}},
	models.MetricRainfall:    {rainy: valueRange{40, 180}, dry: valueRange{0, 35}},
	models.MetricTemperature: {rainy: valueRange{17, 24}, dry: valueRange{19, 27}},
}

// Synthetic generates deterministic, seasonally plausible stand-in values for
// metrics no provider could supply. The value is derived from a hash of
// (region, day, metric), not a random source, so repeated calls agree.
type Synthetic struct{}

// NewSynthetic returns the seasonal heuristic generator.
func NewSynthetic() *Synthetic { return &Synthetic{} }

// Value produces the stand-in value for one metric on one day.
func (s *Synthetic) Value(region models.BoundingBox, date time.Time, metric models.Metric) float64 {
	ranges, ok := seasonalRanges[metric]
	if !ok {
		return 0
	}
	r := ranges.dry
	if InRainySeason(date.Month()) {
		r = ranges.rainy
	}
	return r.min + fraction(region, date, string(metric))*(r.max-r.min)
}

// BloomPercent estimates a plausible bloom coverage percentage when no raster
// statistics exist at all. Ranges are wider during the rainy seasons.
func (s *Synthetic) BloomPercent(region models.BoundingBox, date time.Time) float64 {
	r := valueRange{0, 5}
	if InRainySeason(date.Month()) {
		r = valueRange{5, 25}
	}
	return r.min + fraction(region, date, "bloom_percent")*(r.max-r.min)
}

// fraction hashes the inputs into [0, 1).
func fraction(region models.BoundingBox, date time.Time, salt string) float64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", region.Key(), date.UTC().Format("2006-01-02"), salt)
	return float64(h.Sum64()%10000) / 10000.0
}
