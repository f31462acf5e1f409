package advisory

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bloomsight/bloom-engine/internal/models"
)

// lookupKey addresses one advisory line. Empty Stage or Health act as
// wildcards when the pack declares broader entries.
type lookupKey struct {
	Crop   models.Crop
	Stage  models.GrowthStage
	Health models.HealthTier
	Lang   models.Language
}

// PackEntry is one advisory line in the YAML pack. Stage and health may be
// omitted to match any value.
type PackEntry struct {
	Crop   string `yaml:"crop"`
	Stage  string `yaml:"stage"`
	Health string `yaml:"health"`
	Lang   string `yaml:"lang"`
	Text   string `yaml:"text"`
}

// packFile is the YAML root structure.
type packFile struct {
	Advisories []PackEntry       `yaml:"advisories"`
	Fallbacks  map[string]string `yaml:"fallbacks"`
}

// Pack resolves advisory text by (crop, growth stage, health tier, language).
type Pack struct {
	entries   map[lookupKey]string
	fallbacks map[models.Language]string
}

// LoadPack builds the pack from the built-in defaults, then merges the YAML
// file at path over them. An empty path or missing file leaves the defaults
// in place, mirroring how optional rule packs load elsewhere in the stack.
func LoadPack(path string, logger *slog.Logger) (*Pack, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pack := &Pack{
		entries:   make(map[lookupKey]string, len(defaultEntries)),
		fallbacks: make(map[models.Language]string, len(defaultFallbacks)),
	}
	for k, v := range defaultEntries {
		pack.entries[k] = v
	}
	for k, v := range defaultFallbacks {
		pack.fallbacks[k] = v
	}

	if path == "" {
		return pack, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("advisory pack not found, using built-in defaults", slog.String("path", path))
			return pack, nil
		}
		return nil, fmt.Errorf("read advisory pack: %w", err)
	}

	var file packFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse advisory pack: %w", err)
	}

	for _, entry := range file.Advisories {
		if entry.Text == "" || entry.Crop == "" || entry.Lang == "" {
			continue
		}
		pack.entries[lookupKey{
			Crop:   models.Crop(entry.Crop),
			Stage:  models.GrowthStage(entry.Stage),
			Health: models.HealthTier(entry.Health),
			Lang:   models.Language(entry.Lang),
		}] = entry.Text
	}
	for lang, text := range file.Fallbacks {
		if text != "" {
			pack.fallbacks[models.Language(lang)] = text
		}
	}

	logger.Info("advisory pack loaded", slog.String("path", path), slog.Int("entries", len(pack.entries)))
	return pack, nil
}

// Lookup resolves advisory text with a fixed fallback order:
//  1. exact (crop, stage, health, language)
//  2. (crop, stage, any health, language)
//  3. (crop, any stage, any health, language)
//  4. the generic crop/stage-agnostic template for the language
//
// The returned error only reports that a fallback step was taken; the text is
// always non-empty for supported languages.
func (p *Pack) Lookup(crop models.Crop, stage models.GrowthStage, health models.HealthTier, lang models.Language) (string, error) {
	if text, ok := p.entries[lookupKey{Crop: crop, Stage: stage, Health: health, Lang: lang}]; ok {
		return text, nil
	}
	if text, ok := p.entries[lookupKey{Crop: crop, Stage: stage, Lang: lang}]; ok {
		return text, nil
	}
	if text, ok := p.entries[lookupKey{Crop: crop, Lang: lang}]; ok {
		return text, nil
	}
	return p.fallbacks[lang], fmt.Errorf("%w: crop=%s stage=%s health=%s lang=%s",
		models.ErrAdvisoryLookupMiss, crop, stage, health, lang)
}
