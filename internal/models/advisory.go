package models

// Language is an ISO 639-1 code for advisory localization.
type Language string

const (
	LangEnglish Language = "en"
	LangSwahili Language = "sw"
)

// SupportedLanguage reports whether advisories can be composed in lang.
func SupportedLanguage(lang Language) bool {
	switch lang {
	case LangEnglish, LangSwahili:
		return true
	}
	return false
}

// Crop identifies a supported crop type.
type Crop string

const (
	CropMaize        Crop = "maize"
	CropBeans        Crop = "beans"
	CropCoffee       Crop = "coffee"
	CropTea          Crop = "tea"
	CropHorticulture Crop = "horticulture"
)

// GrowthStage is a crop phase derived from crop type and calendar month.
type GrowthStage string

const (
	StagePlanting   GrowthStage = "planting"
	StageVegetative GrowthStage = "vegetative"
	StageFlowering  GrowthStage = "flowering"
	StageMaturation GrowthStage = "maturation"
	StageHarvest    GrowthStage = "harvest"
	StageDormant    GrowthStage = "dormant"
	StagePerennial  GrowthStage = "perennial"
)

// HealthTier buckets the fused vegetation index. The same buckets feed the
// rule predictor so displayed probability and advice stay consistent.
type HealthTier string

const (
	HealthLow    HealthTier = "low"
	HealthMedium HealthTier = "medium"
	HealthHigh   HealthTier = "high"
)

// RiskTier is the joint (prediction confidence, vegetation tier) classification.
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskModerate RiskTier = "moderate"
	RiskHigh     RiskTier = "high"
)

// GrowerProfile is the external grower record consumed read-only.
type GrowerProfile struct {
	Name       string      `json:"name"`
	RegionName string      `json:"region_name"`
	Region     BoundingBox `json:"region"`
	Crops      []Crop      `json:"crops"`
	Language   Language    `json:"language"`
}

// Advisory is one localized, crop-specific recommendation.
type Advisory struct {
	Crop     Crop        `json:"crop"`
	Stage    GrowthStage `json:"growth_stage"`
	Health   HealthTier  `json:"health_tier"`
	Risk     RiskTier    `json:"risk_tier"`
	Message  string      `json:"message"`
	Language Language    `json:"language"`
	Sources  []string    `json:"sources,omitempty"`
}
