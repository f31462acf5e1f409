package advisory

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bloomsight/bloom-engine/internal/models"
)

var advRegion = models.BoundingBox{MinLon: 36.0, MinLat: -1.5, MaxLon: 37.5, MaxLat: 0.5}

func advObservation(veg float64, month time.Month) models.Observation {
	return models.Observation{
		Region: advRegion,
		Window: models.TimeWindow{End: time.Date(2025, month, 15, 0, 0, 0, 0, time.UTC)},
		Metrics: map[models.Metric]models.MetricValue{
			models.MetricVegetation: {Value: veg, Source: "optical-primary"},
		},
	}
}

func advPrediction(confidence models.ConfidenceTier) models.BloomPrediction {
	return models.BloomPrediction{Probability: 80, Bloom: true, Confidence: confidence, Mode: models.ModeRuleBased}
}

func mustPack(t *testing.T) *Pack {
	t.Helper()
	pack, err := LoadPack("", nil)
	if err != nil {
		t.Fatalf("load pack: %v", err)
	}
	return pack
}

func TestComposePerCropAdvisories(t *testing.T) {
	engine := NewEngine(mustPack(t), 3, nil)
	profile := models.GrowerProfile{
		Name:       "Wanjiku",
		RegionName: "Machakos",
		Region:     advRegion,
		Crops:      []models.Crop{models.CropMaize, models.CropCoffee},
		Language:   models.LangEnglish,
	}

	advisories, err := engine.Compose(profile, advObservation(0.7, time.May), advPrediction(models.ConfidenceHigh))
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if len(advisories) != 2 {
		t.Fatalf("expected one advisory per crop, got %d", len(advisories))
	}
	for _, adv := range advisories {
		if adv.Message == "" {
			t.Fatalf("empty advisory message for %s", adv.Crop)
		}
		if !strings.Contains(adv.Message, "Wanjiku") {
			t.Fatalf("greeting missing from message: %q", adv.Message)
		}
		if adv.Language != models.LangEnglish {
			t.Fatalf("language mismatch: %s", adv.Language)
		}
	}
	// May puts maize in flowering per the long-rains cycle.
	if advisories[0].Stage != models.StageFlowering {
		t.Fatalf("expected maize flowering in May, got %s", advisories[0].Stage)
	}
}

func TestComposeSwahili(t *testing.T) {
	engine := NewEngine(mustPack(t), 3, nil)
	profile := models.GrowerProfile{
		Name:     "Baraka",
		Region:   advRegion,
		Crops:    []models.Crop{models.CropMaize},
		Language: models.LangSwahili,
	}

	advisories, err := engine.Compose(profile, advObservation(0.7, time.May), advPrediction(models.ConfidenceHigh))
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	msg := advisories[0].Message
	if !strings.Contains(msg, "Habari Baraka") {
		t.Fatalf("expected Swahili greeting, got %q", msg)
	}
	if !strings.Contains(msg, "mahindi") {
		t.Fatalf("crop name not localized: %q", msg)
	}
	if strings.Contains(msg, "Bloom risk") {
		t.Fatalf("English fragment leaked into Swahili message: %q", msg)
	}
}

func TestComposeUnsupportedLanguage(t *testing.T) {
	engine := NewEngine(mustPack(t), 3, nil)
	profile := models.GrowerProfile{
		Name:     "Amina",
		Region:   advRegion,
		Crops:    []models.Crop{models.CropTea},
		Language: "fr",
	}

	if _, err := engine.Compose(profile, advObservation(0.5, time.May), advPrediction(models.ConfidenceLow)); !errors.Is(err, models.ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestComposeBoundsCropCount(t *testing.T) {
	engine := NewEngine(mustPack(t), 2, nil)
	profile := models.GrowerProfile{
		Name:     "Njeri",
		Region:   advRegion,
		Crops:    []models.Crop{models.CropMaize, models.CropBeans, models.CropTea, models.CropCoffee},
		Language: models.LangEnglish,
	}

	advisories, err := engine.Compose(profile, advObservation(0.5, time.May), advPrediction(models.ConfidenceLow))
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if len(advisories) != 2 {
		t.Fatalf("expected maxCrops to cap output at 2, got %d", len(advisories))
	}
}

func TestComposeUnknownCropFallsBack(t *testing.T) {
	engine := NewEngine(mustPack(t), 3, nil)
	profile := models.GrowerProfile{
		Name:     "Otieno",
		Region:   advRegion,
		Crops:    []models.Crop{"sorghum"},
		Language: models.LangEnglish,
	}

	advisories, err := engine.Compose(profile, advObservation(0.5, time.May), advPrediction(models.ConfidenceLow))
	if err != nil {
		t.Fatalf("unknown crop must not fail the batch: %v", err)
	}
	if len(advisories) != 1 || advisories[0].Message == "" {
		t.Fatalf("expected a generic advisory for unknown crop")
	}
}

func TestComposeSyntheticNote(t *testing.T) {
	engine := NewEngine(mustPack(t), 3, nil)
	profile := models.GrowerProfile{
		Name:     "Wafula",
		Region:   advRegion,
		Crops:    []models.Crop{models.CropMaize},
		Language: models.LangEnglish,
	}
	obs := advObservation(0.5, time.May)
	for m, v := range obs.Metrics {
		v.Synthetic = true
		v.Source = "seasonal-heuristic"
		obs.Metrics[m] = v
	}

	advisories, err := engine.Compose(profile, obs, advPrediction(models.ConfidenceLow))
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if !strings.Contains(advisories[0].Message, "estimated from seasonal averages") {
		t.Fatalf("synthetic caveat missing: %q", advisories[0].Message)
	}
}

func TestHealthTierFor(t *testing.T) {
	cases := []struct {
		veg  float64
		want models.HealthTier
	}{
		{0.1, models.HealthLow},
		{0.34, models.HealthLow},
		{0.35, models.HealthMedium},
		{0.64, models.HealthMedium},
		{0.65, models.HealthHigh},
		{0.9, models.HealthHigh},
	}
	for _, tc := range cases {
		if got := HealthTierFor(tc.veg); got != tc.want {
			t.Fatalf("veg %g: expected %s, got %s", tc.veg, tc.want, got)
		}
	}
}

func TestRiskTierFor(t *testing.T) {
	cases := []struct {
		confidence models.ConfidenceTier
		health     models.HealthTier
		want       models.RiskTier
	}{
		{models.ConfidenceHigh, models.HealthHigh, models.RiskHigh},
		{models.ConfidenceHigh, models.HealthLow, models.RiskModerate},
		{models.ConfidenceLow, models.HealthHigh, models.RiskModerate},
		{models.ConfidenceLow, models.HealthLow, models.RiskLow},
		{models.ConfidenceMedium, models.HealthMedium, models.RiskLow},
	}
	for _, tc := range cases {
		if got := RiskTierFor(tc.confidence, tc.health); got != tc.want {
			t.Fatalf("(%s,%s): expected %s, got %s", tc.confidence, tc.health, tc.want, got)
		}
	}
}

func TestStageForCoversCalendar(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		if _, ok := StageFor(models.CropMaize, month); !ok {
			t.Fatalf("maize missing stage for %s", month)
		}
	}
	if stage, _ := StageFor(models.CropTea, time.July); stage != models.StagePerennial {
		t.Fatalf("tea should be perennial year-round, got %s", stage)
	}
	if _, ok := StageFor("sorghum", time.May); ok {
		t.Fatalf("unknown crop should not resolve a stage")
	}
}
