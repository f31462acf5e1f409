package detector

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/bloomsight/bloom-engine/internal/models"
	"github.com/bloomsight/bloom-engine/internal/providers"
)

// Thresholds are the three independently tunable detection cut-offs.
type Thresholds struct {
	Water      float64 `yaml:"water"`
	Vegetation float64 `yaml:"vegetation"`
	Pigment    float64 `yaml:"pigment"`
}

// Validate fails fast on out-of-range configuration; index thresholds must
// stay inside the index domain.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"water":      t.Water,
		"vegetation": t.Vegetation,
		"pigment":    t.Pigment,
	} {
		if v < -1 || v > 1 {
			return fmt.Errorf("%w: %s threshold %g not in [-1,1]", models.ErrInvalidThreshold, name, v)
		}
	}
	return nil
}

// SecondaryRule is the water+vegetation bloom criterion. The historical
// labeling rule reuses this exact predicate so the statistical predictor
// learns a generalization of the deterministic detector.
func SecondaryRule(vegetation, water float64, t Thresholds) bool {
	return water > t.Water && vegetation > t.Vegetation
}

// PrimaryRule is the pigment+vegetation criterion, preferred when a real
// pigment signal exists because pigment is specific to flowering rather than
// generic vigor.
func PrimaryRule(vegetation, pigment float64, t Thresholds) bool {
	return pigment > t.Pigment && vegetation > t.Vegetation
}

// Detector turns a fused observation into a bloom spatial extent.
type Detector struct {
	thresholds Thresholds
	synthetic  *providers.Synthetic
	logger     *slog.Logger
}

// New constructs a detector. Thresholds must already be validated.
func New(thresholds Thresholds, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		thresholds: thresholds,
		synthetic:  providers.NewSynthetic(),
		logger:     logger,
	}
}

// Detect applies the threshold rules to the observation. Partial inputs
// produce a zero-area result with a reason instead of an error; a fully
// absent observation produces a non-authoritative seasonal estimate.
func (d *Detector) Detect(obs models.Observation) models.BloomArea {
	area := models.BloomArea{
		Method:        models.MethodNone,
		WaterThresh:   d.thresholds.Water,
		VegThresh:     d.thresholds.Vegetation,
		PigmentThresh: d.thresholds.Pigment,
		Authoritative: true,
	}

	regionArea := obs.AreaKm2
	if regionArea <= 0 {
		regionArea = obs.Region.AreaKm2()
	}

	if len(obs.Metrics) == 0 {
		percent := d.synthetic.BloomPercent(obs.Region, obs.Window.End)
		area.Method = models.MethodSynthetic
		area.Authoritative = false
		area.Percent = models.ClampPercent(percent)
		area.AreaKm2 = regionArea * area.Percent / 100
		area.Reason = "no raster statistics available; seasonal estimate"
		return area
	}

	veg, vegOK := obs.Value(models.MetricVegetation)
	if !vegOK {
		area.Reason = "vegetation signal missing"
		return area
	}
	vegetation := models.ClampIndex(veg.Value)

	// Pigment drives detection only when a measured signal exists; a
	// synthetic fill is generic vigor, not evidence of flowering.
	if obs.Real(models.MetricPigment) {
		pigment, _ := obs.Value(models.MetricPigment)
		if PrimaryRule(vegetation, models.ClampIndex(pigment.Value), d.thresholds) {
			frac := coverageFraction(
				exceedance(models.ClampIndex(pigment.Value), d.thresholds.Pigment),
				exceedance(vegetation, d.thresholds.Vegetation),
			)
			area.Method = models.MethodPigment
			area.Percent = models.ClampPercent(frac * 100)
			area.AreaKm2 = regionArea * frac
		} else {
			area.Method = models.MethodPigment
		}
		return area
	}

	water, waterOK := obs.Value(models.MetricWater)
	if !waterOK {
		area.Reason = "water signal missing"
		return area
	}

	if SecondaryRule(vegetation, models.ClampIndex(water.Value), d.thresholds) {
		frac := coverageFraction(
			exceedance(models.ClampIndex(water.Value), d.thresholds.Water),
			exceedance(vegetation, d.thresholds.Vegetation),
		)
		area.Method = models.MethodWater
		area.Percent = models.ClampPercent(frac * 100)
		area.AreaKm2 = regionArea * frac
		return area
	}

	area.Method = models.MethodWater
	return area
}

// Thresholds returns the configured cut-offs.
func (d *Detector) Thresholds() Thresholds { return d.thresholds }

// exceedance normalises how far a value sits above its threshold into [0,1].
func exceedance(value, threshold float64) float64 {
	span := 1 - threshold
	if span <= 0 {
		return 0
	}
	e := (value - threshold) / span
	if e < 0 {
		return 0
	}
	if e > 1 {
		return 1
	}
	return e
}

// coverageFraction estimates the blooming share of the region from the two
// rule exceedances. Region-mean statistics cannot resolve individual pixels,
// so the geometric mean of the exceedances stands in for coverage, floored so
// a positive rule never reports zero area.
func coverageFraction(a, b float64) float64 {
	f := math.Sqrt(a * b)
	if f < 0.01 {
		f = 0.01
	}
	if f > 0.95 {
		f = 0.95
	}
	return f
}
