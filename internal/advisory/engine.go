// Package advisory converts a prediction and snapshot into localized,
// crop-and-growth-stage-aware grower advisories.
package advisory

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/bloomsight/bloom-engine/internal/models"
)

// Engine composes advisories from the typed calendar and the advisory pack.
type Engine struct {
	pack     *Pack
	maxCrops int
	logger   *slog.Logger
}

// NewEngine constructs an advisory engine. maxCrops bounds how many of a
// grower's crops are processed per call.
func NewEngine(pack *Pack, maxCrops int, logger *slog.Logger) *Engine {
	if maxCrops <= 0 {
		maxCrops = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{pack: pack, maxCrops: maxCrops, logger: logger}
}

// HealthTierFor buckets the fused vegetation index with the same edges the
// rule predictor's vegetation buckets use, keeping displayed probability and
// advice consistent.
func HealthTierFor(vegetation float64) models.HealthTier {
	switch {
	case vegetation < 0.35:
		return models.HealthLow
	case vegetation < 0.65:
		return models.HealthMedium
	default:
		return models.HealthHigh
	}
}

// RiskTierFor classifies overall risk jointly: High requires strong
// confidence and strong vegetation, Moderate either, Low neither.
func RiskTierFor(confidence models.ConfidenceTier, health models.HealthTier) models.RiskTier {
	strongConfidence := confidence == models.ConfidenceHigh
	strongHealth := health == models.HealthHigh
	switch {
	case strongConfidence && strongHealth:
		return models.RiskHigh
	case strongConfidence || strongHealth:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

// Compose builds one advisory per crop, each crop independently: a calendar
// or pack miss for one crop falls back without blocking the next. The whole
// message is rendered in a single language; an unsupported language code is
// a caller contract violation.
func (e *Engine) Compose(profile models.GrowerProfile, obs models.Observation, pred models.BloomPrediction) ([]models.Advisory, error) {
	lang := profile.Language
	if lang == "" {
		lang = models.LangEnglish
	}
	if !models.SupportedLanguage(lang) {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedLanguage, lang)
	}

	vegetation := 0.0
	if v, ok := obs.Value(models.MetricVegetation); ok {
		vegetation = models.ClampIndex(v.Value)
	}
	health := HealthTierFor(vegetation)
	risk := RiskTierFor(pred.Confidence, health)
	healthScore := int(math.Round((vegetation + 1) / 2 * 100))
	month := obs.Window.End.Month()
	sources := obs.Sources()

	crops := profile.Crops
	if len(crops) > e.maxCrops {
		crops = crops[:e.maxCrops]
	}

	advisories := make([]models.Advisory, 0, len(crops))
	for _, crop := range crops {
		stage, known := StageFor(crop, month)
		if !known {
			e.logger.Warn("crop missing from calendar, using generic advisory",
				slog.String("crop", string(crop)))
		}

		text, err := e.pack.Lookup(crop, stage, health, lang)
		if err != nil {
			e.logger.Debug("advisory lookup fell back",
				slog.String("crop", string(crop)),
				slog.Any("reason", err))
		}

		advisories = append(advisories, models.Advisory{
			Crop:     crop,
			Stage:    stage,
			Health:   health,
			Risk:     risk,
			Language: lang,
			Sources:  sources,
			Message:  renderMessage(lang, profile, crop, healthScore, health, risk, text, sources, obs.FullySynthetic()),
		})
	}
	return advisories, nil
}

// localized fixed phrases. Each message stays entirely in one language.
var phrases = map[models.Language]struct {
	greeting    string
	update      string
	health      string
	risk        string
	sources     string
	synthetic   string
	healthTiers map[models.HealthTier]string
	riskTiers   map[models.RiskTier]string
}{
	models.LangEnglish: {
		greeting:  "Hello %s.",
		update:    "%s update for %s:",
		health:    "vegetation health %d/100 (%s).",
		risk:      "Bloom risk: %s %s.",
		sources:   "Data: %s.",
		synthetic: "Note: estimated from seasonal averages, field data was limited.",
		healthTiers: map[models.HealthTier]string{
			models.HealthLow: "low", models.HealthMedium: "moderate", models.HealthHigh: "good",
		},
		riskTiers: map[models.RiskTier]string{
			models.RiskLow: "LOW", models.RiskModerate: "MODERATE", models.RiskHigh: "HIGH",
		},
	},
	models.LangSwahili: {
		greeting:  "Habari %s.",
		update:    "Taarifa ya %s kwa %s:",
		health:    "afya ya mimea %d/100 (%s).",
		risk:      "Hatari ya maua: %s %s.",
		sources:   "Chanzo: %s.",
		synthetic: "Kumbuka: makadirio ya wastani wa msimu, data ya shambani ilikuwa finyu.",
		healthTiers: map[models.HealthTier]string{
			models.HealthLow: "dhaifu", models.HealthMedium: "wastani", models.HealthHigh: "nzuri",
		},
		riskTiers: map[models.RiskTier]string{
			models.RiskLow: "NDOGO", models.RiskModerate: "WASTANI", models.RiskHigh: "KUBWA",
		},
	},
}

// riskIndicator marks severity in a channel-neutral way.
func riskIndicator(risk models.RiskTier) string {
	switch risk {
	case models.RiskHigh:
		return "(!!!)"
	case models.RiskModerate:
		return "(!!)"
	default:
		return "(!)"
	}
}

func renderMessage(lang models.Language, profile models.GrowerProfile, crop models.Crop, healthScore int, health models.HealthTier, risk models.RiskTier, advice string, sources []string, synthetic bool) string {
	p := phrases[lang]
	region := profile.RegionName
	if region == "" {
		region = profile.Region.Key()
	}

	parts := []string{
		fmt.Sprintf(p.greeting, profile.Name),
		fmt.Sprintf(p.update, cropName(lang, crop), region),
		fmt.Sprintf(p.health, healthScore, p.healthTiers[health]),
		fmt.Sprintf(p.risk, p.riskTiers[risk], riskIndicator(risk)),
		advice,
	}
	if synthetic {
		parts = append(parts, p.synthetic)
	}
	if len(sources) > 0 {
		parts = append(parts, fmt.Sprintf(p.sources, strings.Join(sources, ", ")))
	}
	return strings.Join(parts, " ")
}

// cropName localizes crop display names.
func cropName(lang models.Language, crop models.Crop) string {
	if lang == models.LangSwahili {
		switch crop {
		case models.CropMaize:
			return "mahindi"
		case models.CropBeans:
			return "maharagwe"
		case models.CropCoffee:
			return "kahawa"
		case models.CropTea:
			return "chai"
		case models.CropHorticulture:
			return "mboga"
		}
	}
	return string(crop)
}
