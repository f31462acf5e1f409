package advisory

import (
	"time"

	"github.com/bloomsight/bloom-engine/internal/models"
)

// cropCalendar maps (crop, month) to a growth stage. The table encodes the
// two regional rainy seasons distinctly: annual crops run one cycle off the
// long rains (March-May) and another off the short rains (October-December),
// while the perennials keep a month-invariant stage.
var cropCalendar = map[models.Crop][12]models.GrowthStage{
	models.CropMaize: {
		models.StageMaturation, // January
		models.StageHarvest,    // February
		models.StagePlanting,   // March
		models.StageVegetative, // April
		models.StageFlowering,  // May
		models.StageMaturation, // June
		models.StageHarvest,    // July
		models.StageDormant,    // August
		models.StageDormant,    // September
		models.StagePlanting,   // October
		models.StageVegetative, // November
		models.StageFlowering,  // December
	},
	models.CropBeans: {
		models.StageHarvest,    // January
		models.StageDormant,    // February
		models.StagePlanting,   // March
		models.StageFlowering,  // April
		models.StageMaturation, // May
		models.StageHarvest,    // June
		models.StageDormant,    // July
		models.StageDormant,    // August
		models.StageDormant,    // September
		models.StagePlanting,   // October
		models.StageFlowering,  // November
		models.StageMaturation, // December
	},
	models.CropCoffee: {
		models.StageMaturation, // January
		models.StageMaturation, // February
		models.StageFlowering,  // March
		models.StageFlowering,  // April
		models.StageFlowering,  // May
		models.StageMaturation, // June
		models.StageMaturation, // July
		models.StageHarvest,    // August
		models.StageHarvest,    // September
		models.StageFlowering,  // October
		models.StageFlowering,  // November
		models.StageMaturation, // December
	},
	models.CropTea: {
		models.StagePerennial, models.StagePerennial, models.StagePerennial,
		models.StagePerennial, models.StagePerennial, models.StagePerennial,
		models.StagePerennial, models.StagePerennial, models.StagePerennial,
		models.StagePerennial, models.StagePerennial, models.StagePerennial,
	},
	models.CropHorticulture: {
		models.StageVegetative, // January
		models.StageVegetative, // February
		models.StagePlanting,   // March
		models.StageVegetative, // April
		models.StageFlowering,  // May
		models.StageHarvest,    // June
		models.StageVegetative, // July
		models.StageVegetative, // August
		models.StageVegetative, // September
		models.StagePlanting,   // October
		models.StageFlowering,  // November
		models.StageHarvest,    // December
	},
}

// StageFor returns the crop's growth stage for the month, and false for an
// unknown crop.
func StageFor(crop models.Crop, month time.Month) (models.GrowthStage, bool) {
	stages, ok := cropCalendar[crop]
	if !ok {
		return "", false
	}
	return stages[int(month)-1], true
}
