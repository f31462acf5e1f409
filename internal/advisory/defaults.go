package advisory

import "github.com/bloomsight/bloom-engine/internal/models"

// Built-in advisory lines. A deployment normally ships a fuller pack as YAML;
// these defaults keep every supported combination resolvable without one.

func k(crop models.Crop, stage models.GrowthStage, health models.HealthTier, lang models.Language) lookupKey {
	return lookupKey{Crop: crop, Stage: stage, Health: health, Lang: lang}
}

var defaultEntries = map[lookupKey]string{
	// Maize.
	k(models.CropMaize, models.StagePlanting, "", models.LangEnglish):   "Prepare seed beds and plant certified maize seed while soil moisture lasts.",
	k(models.CropMaize, models.StagePlanting, "", models.LangSwahili):   "Andaa mashamba na upande mbegu bora za mahindi wakati unyevu wa udongo ungalipo.",
	k(models.CropMaize, models.StageVegetative, "", models.LangEnglish): "Top-dress maize with nitrogen and scout for fall armyworm in young stands.",
	k(models.CropMaize, models.StageVegetative, "", models.LangSwahili): "Weka mbolea ya kukuzia mahindi na ukague viwavijeshi kwenye mimea michanga.",
	k(models.CropMaize, models.StageFlowering, models.HealthLow, models.LangEnglish):  "Maize is tasselling under stress; irrigate if possible and avoid spraying during pollination hours.",
	k(models.CropMaize, models.StageFlowering, models.HealthLow, models.LangSwahili):  "Mahindi yanatoa maua yakiwa na msongo; mwagilia ikiwezekana na usipulize dawa saa za uchavushaji.",
	k(models.CropMaize, models.StageFlowering, models.HealthHigh, models.LangEnglish): "Strong flowering conditions for maize; maintain field hygiene and monitor for stalk borer.",
	k(models.CropMaize, models.StageFlowering, models.HealthHigh, models.LangSwahili): "Hali nzuri ya maua kwa mahindi; dumisha usafi wa shamba na ufuatilie funza wa mabua.",
	k(models.CropMaize, models.StageFlowering, "", models.LangEnglish):  "Maize is flowering; ensure adequate moisture and watch for pollination stress.",
	k(models.CropMaize, models.StageFlowering, "", models.LangSwahili):  "Mahindi yanatoa maua; hakikisha unyevu wa kutosha na uangalie msongo wa uchavushaji.",
	k(models.CropMaize, models.StageMaturation, "", models.LangEnglish): "Grain is filling; keep livestock out and plan drying space before harvest.",
	k(models.CropMaize, models.StageMaturation, "", models.LangSwahili): "Punje zinajaa; zuia mifugo shambani na uandae sehemu ya kukaushia kabla ya mavuno.",
	k(models.CropMaize, models.StageHarvest, "", models.LangEnglish):    "Harvest maize at black-layer stage and dry to below 13 percent moisture before storage.",
	k(models.CropMaize, models.StageHarvest, "", models.LangSwahili):    "Vuna mahindi yaliyokomaa na uyakaushe chini ya asilimia 13 ya unyevu kabla ya kuhifadhi.",
	k(models.CropMaize, models.StageDormant, "", models.LangEnglish):    "Off-season for maize; clear residues and repair storage ahead of the next rains.",
	k(models.CropMaize, models.StageDormant, "", models.LangSwahili):    "Msimu wa mapumziko kwa mahindi; ondoa masalia na ukarabati ghala kabla ya mvua zijazo.",
	k(models.CropMaize, "", "", models.LangEnglish): "Monitor your maize fields closely and follow recommended practices for the current rains.",
	k(models.CropMaize, "", "", models.LangSwahili): "Fuatilia mashamba yako ya mahindi kwa karibu na uzingatie kanuni bora za msimu huu wa mvua.",

	// Beans.
	k(models.CropBeans, models.StagePlanting, "", models.LangEnglish):  "Plant beans into moist soil and apply phosphate fertilizer at planting.",
	k(models.CropBeans, models.StagePlanting, "", models.LangSwahili):  "Panda maharagwe kwenye udongo wenye unyevu na uweke mbolea ya phosphate wakati wa kupanda.",
	k(models.CropBeans, models.StageFlowering, models.HealthLow, models.LangEnglish): "Bean flowers are dropping under stress; a light irrigation now protects pod set.",
	k(models.CropBeans, models.StageFlowering, models.HealthLow, models.LangSwahili): "Maua ya maharagwe yanapukutika kwa msongo; umwagiliaji mwepesi sasa unalinda utungaji wa maganda.",
	k(models.CropBeans, models.StageFlowering, "", models.LangEnglish): "Beans are flowering; avoid field work that knocks blossoms and scout for aphids.",
	k(models.CropBeans, models.StageFlowering, "", models.LangSwahili): "Maharagwe yanatoa maua; epuka kazi shambani zinazoangusha maua na ukague wadudu mafuta.",
	k(models.CropBeans, models.StageMaturation, "", models.LangEnglish): "Pods are filling; stop overhead watering to limit fungal disease.",
	k(models.CropBeans, models.StageMaturation, "", models.LangSwahili): "Maganda yanajaa; acha kumwagilia kwa juu ili kupunguza magonjwa ya ukungu.",
	k(models.CropBeans, models.StageHarvest, "", models.LangEnglish):    "Harvest beans when pods rattle and dry on clean tarpaulins.",
	k(models.CropBeans, models.StageHarvest, "", models.LangSwahili):    "Vuna maharagwe maganda yanapokauka na uyakaushe kwenye maturubai safi.",
	k(models.CropBeans, "", "", models.LangEnglish): "Keep bean plots weeded and review disease risk for the season.",
	k(models.CropBeans, "", "", models.LangSwahili): "Palilia mashamba ya maharagwe na utathmini hatari ya magonjwa msimu huu.",

	// Coffee.
	k(models.CropCoffee, models.StageFlowering, models.HealthHigh, models.LangEnglish): "Heavy coffee blossom expected; do not spray during bloom and plan cherry labour early.",
	k(models.CropCoffee, models.StageFlowering, models.HealthHigh, models.LangSwahili): "Maua mengi ya kahawa yanatarajiwa; usipulize dawa wakati wa maua na upange vibarua vya kuchuma mapema.",
	k(models.CropCoffee, models.StageFlowering, "", models.LangEnglish): "Coffee is flowering after the rains; hold off pruning until the flush sets.",
	k(models.CropCoffee, models.StageFlowering, "", models.LangSwahili): "Kahawa inatoa maua baada ya mvua; ahirisha kupogoa hadi maua yatunge.",
	k(models.CropCoffee, models.StageMaturation, "", models.LangEnglish): "Berries are expanding; apply potassium-rich feed and monitor for berry borer.",
	k(models.CropCoffee, models.StageMaturation, "", models.LangSwahili): "Matunda ya kahawa yanakua; weka mbolea yenye potasiamu na ufuatilie dudu wa matunda.",
	k(models.CropCoffee, models.StageHarvest, "", models.LangEnglish):    "Pick only ripe red cherry and deliver to the factory the same day.",
	k(models.CropCoffee, models.StageHarvest, "", models.LangSwahili):    "Chuma kahawa iliyoiva nyekundu tu na uipeleke kiwandani siku hiyo hiyo.",
	k(models.CropCoffee, "", "", models.LangEnglish): "Maintain mulch under coffee and watch moisture through the season.",
	k(models.CropCoffee, "", "", models.LangSwahili): "Dumisha matandazo chini ya kahawa na uangalie unyevu msimu mzima.",

	// Tea (perennial, stage-invariant).
	k(models.CropTea, models.StagePerennial, models.HealthLow, models.LangEnglish): "Tea bushes show stress; ease the plucking round and check shade and mulch.",
	k(models.CropTea, models.StagePerennial, models.HealthLow, models.LangSwahili): "Michai inaonyesha msongo; punguza mzunguko wa kuchuma na ukague kivuli na matandazo.",
	k(models.CropTea, models.StagePerennial, "", models.LangEnglish): "Keep a regular plucking round and maintain the plucking table height.",
	k(models.CropTea, models.StagePerennial, "", models.LangSwahili): "Endeleza mzunguko wa kuchuma majani na udumishe usawa wa meza ya kuchuma.",
	k(models.CropTea, "", "", models.LangEnglish): "Maintain tea fields per estate calendar and monitor flush quality.",
	k(models.CropTea, "", "", models.LangSwahili): "Tunza mashamba ya chai kulingana na kalenda na ufuatilie ubora wa machipukizi.",

	// Horticulture.
	k(models.CropHorticulture, models.StagePlanting, "", models.LangEnglish):  "Transplant vegetable seedlings in the evening and water immediately.",
	k(models.CropHorticulture, models.StagePlanting, "", models.LangSwahili):  "Hamisha miche ya mboga jioni na uimwagilie mara moja.",
	k(models.CropHorticulture, models.StageFlowering, "", models.LangEnglish): "Vegetables are flowering; use soft water spray and protect pollinators.",
	k(models.CropHorticulture, models.StageFlowering, "", models.LangSwahili): "Mboga zinatoa maua; mwagilia taratibu na ulinde wadudu wachavushaji.",
	k(models.CropHorticulture, models.StageVegetative, "", models.LangEnglish): "Maintain drip schedules and scout for thrips and whitefly weekly.",
	k(models.CropHorticulture, models.StageVegetative, "", models.LangSwahili): "Fuata ratiba za umwagiliaji wa matone na ukague vithiripi na inzi weupe kila wiki.",
	k(models.CropHorticulture, models.StageHarvest, "", models.LangEnglish):   "Harvest vegetables early morning and cool produce quickly for market.",
	k(models.CropHorticulture, models.StageHarvest, "", models.LangSwahili):   "Vuna mboga alfajiri na uzipooze haraka kwa ajili ya soko.",
	k(models.CropHorticulture, "", "", models.LangEnglish): "Keep horticulture plots on their irrigation and scouting schedule.",
	k(models.CropHorticulture, "", "", models.LangSwahili): "Endeleza ratiba ya umwagiliaji na ukaguzi kwenye mashamba ya mboga.",
}

// Generic crop/stage-agnostic templates, used when no pack entry matches.
var defaultFallbacks = map[models.Language]string{
	models.LangEnglish: "Conditions are changing in your area; inspect your fields and follow recommended practices for this season.",
	models.LangSwahili: "Hali ya hewa inabadilika eneo lako; kagua mashamba yako na uzingatie kanuni bora za msimu huu.",
}
