package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bloomsight/bloom-engine/internal/advisory"
	"github.com/bloomsight/bloom-engine/internal/detector"
	"github.com/bloomsight/bloom-engine/internal/fusion"
	"github.com/bloomsight/bloom-engine/internal/history"
	"github.com/bloomsight/bloom-engine/internal/models"
	"github.com/bloomsight/bloom-engine/internal/predictor"
	"github.com/bloomsight/bloom-engine/internal/providers"
	"github.com/bloomsight/bloom-engine/internal/store"
)

var svcRegion = models.BoundingBox{MinLon: 36.0, MinLat: -1.5, MaxLon: 37.5, MaxLat: 0.5}

type stubProvider struct {
	name    string
	metrics map[models.Metric]float64
	err     error
}

func (s *stubProvider) Name() string         { return s.name }
func (s *stubProvider) ResolutionM() float64 { return 10 }
func (s *stubProvider) Supports(m models.Metric) bool {
	_, ok := s.metrics[m]
	return ok
}
func (s *stubProvider) Fetch(context.Context, models.BoundingBox, time.Time, time.Time) (map[models.Metric]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.metrics, nil
}

func fullStubProvider() *stubProvider {
	return &stubProvider{
		name: "optical-primary",
		metrics: map[models.Metric]float64{
			models.MetricVegetation:  0.65,
			models.MetricWater:       0.35,
			models.MetricPigment:     0.2,
			models.MetricRainfall:    50,
			models.MetricTemperature: 23,
		},
	}
}

func newTestService(t *testing.T, p providers.Provider) *BloomService {
	t.Helper()

	thresholds := detector.Thresholds{Water: 0.3, Vegetation: 0.5, Pigment: 0.15}
	fusionEngine := fusion.NewEngine([]providers.Provider{p}, nil, nil, fusion.Options{}, nil)
	aggregator := history.NewAggregator(nil, 60, nil)

	pack, err := advisory.LoadPack("", nil)
	if err != nil {
		t.Fatalf("load pack: %v", err)
	}

	return NewBloomService(
		nil,
		fusionEngine,
		detector.New(thresholds, nil),
		aggregator,
		predictor.NewTrainer(nil),
		store.NewFileModelStore(filepath.Join(t.TempDir(), "model.json")),
		advisory.NewEngine(pack, 3, nil),
		Options{Lookback: 10 * 24 * time.Hour, PublishDelay: 2 * 24 * time.Hour, MonthsBack: 6},
	)
}

func TestFetchRegionSnapshot(t *testing.T) {
	svc := newTestService(t, fullStubProvider())

	obs, err := svc.FetchRegionSnapshot(context.Background(), svcRegion)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(obs.Metrics) != len(models.AllMetrics) {
		t.Fatalf("expected all metrics resolved, got %d", len(obs.Metrics))
	}
	if obs.Window.End.After(time.Now()) {
		t.Fatalf("window end in the future: %s", obs.Window.End)
	}
	if obs.AreaKm2 <= 0 {
		t.Fatalf("region area missing")
	}
}

func TestFetchSnapshotWindowUsesExplicitWindow(t *testing.T) {
	svc := newTestService(t, fullStubProvider())
	window := models.TimeWindow{
		Start: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC),
	}

	obs, err := svc.FetchSnapshotWindow(context.Background(), svcRegion, window)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !obs.Window.Start.Equal(window.Start) || !obs.Window.End.Equal(window.End) {
		t.Fatalf("explicit window not honoured: %+v", obs.Window)
	}
}

func TestFetchRegionSnapshotInvalidRegion(t *testing.T) {
	svc := newTestService(t, fullStubProvider())
	bad := models.BoundingBox{MinLon: 40, MinLat: 5, MaxLon: 36, MaxLat: 1}
	if _, err := svc.FetchRegionSnapshot(context.Background(), bad); !errors.Is(err, models.ErrInvalidRegion) {
		t.Fatalf("expected ErrInvalidRegion, got %v", err)
	}
}

func TestDetectBloomEndToEnd(t *testing.T) {
	svc := newTestService(t, fullStubProvider())

	_, area, err := svc.DetectBloom(context.Background(), svcRegion)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if area.Method != models.MethodPigment {
		t.Fatalf("real pigment present, expected pigment-based method, got %s", area.Method)
	}
	if area.AreaKm2 <= 0 {
		t.Fatalf("expected nonzero bloom area")
	}
}

func TestPredictDefaultsToRuleBased(t *testing.T) {
	svc := newTestService(t, fullStubProvider())
	if svc.Mode() != models.ModeRuleBased {
		t.Fatalf("fresh service should start rule-based, got %s", svc.Mode())
	}

	_, pred, err := svc.Predict(context.Background(), svcRegion)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if pred.Mode != models.ModeRuleBased {
		t.Fatalf("expected rule-based prediction, got %s", pred.Mode)
	}
	if pred.Probability < 0 || pred.Probability > 100 {
		t.Fatalf("probability out of range: %f", pred.Probability)
	}
}

func TestTrainSwitchesToStatisticalMode(t *testing.T) {
	svc := newTestService(t, fullStubProvider())

	model, err := svc.Train(context.Background(), svcRegion)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if model.Version == "" {
		t.Fatalf("trained model has no version")
	}
	if svc.Mode() != models.ModeStatistical {
		t.Fatalf("expected statistical mode after training, got %s", svc.Mode())
	}

	_, pred, err := svc.Predict(context.Background(), svcRegion)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if pred.Mode != models.ModeStatistical {
		t.Fatalf("expected statistical prediction, got %s", pred.Mode)
	}
	if pred.ModelVersion != model.Version {
		t.Fatalf("prediction not served by the trained model")
	}
}

func TestTrainPersistFailureKeepsPreviousPredictor(t *testing.T) {
	svc := newTestService(t, fullStubProvider())
	svc.modelStore = failingModelStore{}

	if _, err := svc.Train(context.Background(), svcRegion); err == nil {
		t.Fatalf("expected persist failure to surface")
	}
	if svc.Mode() != models.ModeRuleBased {
		t.Fatalf("failed persist must not activate the model, mode %s", svc.Mode())
	}
}

type failingModelStore struct{}

func (failingModelStore) Save(*predictor.TrainedModel) error { return os.ErrPermission }
func (failingModelStore) Load() (*predictor.TrainedModel, bool, error) {
	return nil, false, nil
}

func TestPrepareTrainingSetSyntheticFallback(t *testing.T) {
	svc := newTestService(t, fullStubProvider())

	set, err := svc.PrepareTrainingSet(context.Background(), svcRegion)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	// No persisted history in this stack; the set comes from the seasonal
	// heuristic and says so.
	if !set.Synthetic {
		t.Fatalf("expected synthetic training set without history")
	}
	if len(set.Features) == 0 {
		t.Fatalf("synthetic set is empty")
	}
}

func TestComposeAdvisoryEndToEnd(t *testing.T) {
	svc := newTestService(t, fullStubProvider())
	profile := models.GrowerProfile{
		Name:     "Wanjiku",
		Region:   svcRegion,
		Crops:    []models.Crop{models.CropMaize, models.CropTea},
		Language: models.LangSwahili,
	}

	advisories, pred, err := svc.ComposeAdvisory(context.Background(), profile)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if len(advisories) != 2 {
		t.Fatalf("expected 2 advisories, got %d", len(advisories))
	}
	for _, adv := range advisories {
		if adv.Message == "" {
			t.Fatalf("empty message for %s", adv.Crop)
		}
		if adv.Language != models.LangSwahili {
			t.Fatalf("language mismatch: %s", adv.Language)
		}
	}
	if pred.CreatedAt.IsZero() {
		t.Fatalf("prediction missing timestamp")
	}
}

func TestRunRegionFullPass(t *testing.T) {
	svc := newTestService(t, fullStubProvider())
	profile := models.GrowerProfile{
		Name:     "Baraka",
		Region:   svcRegion,
		Crops:    []models.Crop{models.CropMaize},
		Language: models.LangEnglish,
	}

	report, err := svc.RunRegion(context.Background(), profile)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Bloom.Method != models.MethodPigment {
		t.Fatalf("real pigment present, expected pigment-based detection, got %s", report.Bloom.Method)
	}
	if report.Prediction.CreatedAt.IsZero() {
		t.Fatalf("prediction missing timestamp")
	}
	if len(report.Advisories) != 1 {
		t.Fatalf("expected 1 advisory, got %d", len(report.Advisories))
	}
	if report.Observation.Window.Start.IsZero() {
		t.Fatalf("observation window missing")
	}
}

func TestComposeAdvisoryUnsupportedLanguage(t *testing.T) {
	svc := newTestService(t, fullStubProvider())
	profile := models.GrowerProfile{
		Name:     "Amina",
		Region:   svcRegion,
		Crops:    []models.Crop{models.CropMaize},
		Language: "fr",
	}

	if _, _, err := svc.ComposeAdvisory(context.Background(), profile); !errors.Is(err, models.ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestPredictAllProvidersDown(t *testing.T) {
	down := &stubProvider{
		name: "optical-primary",
		metrics: map[models.Metric]float64{
			models.MetricVegetation: 0, models.MetricWater: 0,
			models.MetricPigment: 0, models.MetricRainfall: 0, models.MetricTemperature: 0,
		},
		err: errors.New("gateway down"),
	}
	svc := newTestService(t, down)

	obs, pred, err := svc.Predict(context.Background(), svcRegion)
	if err != nil {
		t.Fatalf("predict must degrade, not fail: %v", err)
	}
	if !obs.FullySynthetic() {
		t.Fatalf("expected fully synthetic observation")
	}
	// Synthetic fills still provide vegetation and water, so the rule path
	// serves the request rather than the last resort.
	if pred.Mode != models.ModeRuleBased {
		t.Fatalf("expected rule-based on synthetic features, got %s", pred.Mode)
	}
}
