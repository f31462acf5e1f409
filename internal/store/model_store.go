package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bloomsight/bloom-engine/internal/models"
	"github.com/bloomsight/bloom-engine/internal/predictor"
	"github.com/bloomsight/bloom-engine/internal/utils"
)

// FileModelStore persists the trained classifier + scaler pair as one JSON
// document. Save writes to a temporary file and renames it into place, so a
// concurrent Load never observes a partially written model.
type FileModelStore struct {
	path string
}

// NewFileModelStore constructs a store rooted at path.
func NewFileModelStore(path string) *FileModelStore {
	return &FileModelStore{path: path}
}

// Save atomically replaces the persisted model.
func (s *FileModelStore) Save(model *predictor.TrainedModel) error {
	if s == nil || s.path == "" {
		return fmt.Errorf("model store not configured")
	}
	if model == nil {
		return fmt.Errorf("refusing to persist nil model")
	}

	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return utils.NewAppError("model.save", "replace model file", err)
	}
	return nil
}

// Load returns the persisted model, or ok=false when none has been saved yet.
func (s *FileModelStore) Load() (*predictor.TrainedModel, bool, error) {
	if s == nil || s.path == "" {
		return nil, false, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, utils.NewAppError("model.load", "read model file", err)
	}

	var model predictor.TrainedModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, false, utils.NewAppError("model.load", "decode model file", err)
	}
	if len(model.FeatureNames) == 0 || len(model.Scaler.Mean) == 0 {
		return nil, false, utils.NewAppError("model.load",
			"persisted model is missing its scaler or feature list", models.ErrModelUnavailable)
	}
	return &model, true, nil
}
