package advisory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bloomsight/bloom-engine/internal/models"
)

func TestLookupFallbackOrder(t *testing.T) {
	pack := &Pack{
		entries: map[lookupKey]string{
			k(models.CropMaize, models.StageFlowering, models.HealthHigh, models.LangEnglish): "exact",
			k(models.CropMaize, models.StageFlowering, "", models.LangEnglish):                "stage",
			k(models.CropMaize, "", "", models.LangEnglish):                                   "crop",
		},
		fallbacks: map[models.Language]string{models.LangEnglish: "generic"},
	}

	cases := []struct {
		stage  models.GrowthStage
		health models.HealthTier
		want   string
		miss   bool
	}{
		{models.StageFlowering, models.HealthHigh, "exact", false},
		{models.StageFlowering, models.HealthLow, "stage", false},
		{models.StageHarvest, models.HealthLow, "crop", false},
	}
	for _, tc := range cases {
		got, err := pack.Lookup(models.CropMaize, tc.stage, tc.health, models.LangEnglish)
		if got != tc.want {
			t.Fatalf("(%s,%s): expected %q, got %q", tc.stage, tc.health, tc.want, got)
		}
		if err != nil {
			t.Fatalf("(%s,%s): unexpected fallback signal: %v", tc.stage, tc.health, err)
		}
	}

	got, err := pack.Lookup(models.CropBeans, models.StagePlanting, models.HealthLow, models.LangEnglish)
	if got != "generic" {
		t.Fatalf("expected generic template, got %q", got)
	}
	if !errors.Is(err, models.ErrAdvisoryLookupMiss) {
		t.Fatalf("expected lookup-miss signal, got %v", err)
	}
}

func TestLoadPackDefaultsCoverAllCropsAndLanguages(t *testing.T) {
	pack, err := LoadPack("", nil)
	if err != nil {
		t.Fatalf("load pack: %v", err)
	}

	crops := []models.Crop{models.CropMaize, models.CropBeans, models.CropCoffee, models.CropTea, models.CropHorticulture}
	langs := []models.Language{models.LangEnglish, models.LangSwahili}
	for _, crop := range crops {
		for _, lang := range langs {
			text, _ := pack.Lookup(crop, models.StageFlowering, models.HealthMedium, lang)
			if text == "" {
				t.Fatalf("no text for %s/%s", crop, lang)
			}
		}
	}
}

func TestLoadPackMergesYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	content := `advisories:
  - crop: maize
    stage: flowering
    lang: en
    text: "Custom flowering advice."
fallbacks:
  en: "Custom generic advice."
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}

	pack, err := LoadPack(path, nil)
	if err != nil {
		t.Fatalf("load pack: %v", err)
	}

	text, _ := pack.Lookup(models.CropMaize, models.StageFlowering, "", models.LangEnglish)
	if text != "Custom flowering advice." {
		t.Fatalf("YAML entry did not override default: %q", text)
	}
	generic, _ := pack.Lookup("sorghum", "", "", models.LangEnglish)
	if generic != "Custom generic advice." {
		t.Fatalf("fallback not overridden: %q", generic)
	}

	// Untouched defaults survive the merge.
	tea, _ := pack.Lookup(models.CropTea, models.StagePerennial, "", models.LangEnglish)
	if tea == "" {
		t.Fatalf("default entry lost after merge")
	}
}

func TestLoadPackMissingFileUsesDefaults(t *testing.T) {
	pack, err := LoadPack(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	if err != nil {
		t.Fatalf("missing pack file must not fail: %v", err)
	}
	if text, _ := pack.Lookup(models.CropMaize, "", "", models.LangEnglish); text == "" {
		t.Fatalf("defaults missing after absent-file load")
	}
}

func TestLoadPackMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("advisories: [oops"), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	if _, err := LoadPack(path, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}
