// Package service is the orchestration facade over the analytical pipeline:
// fuse, detect, aggregate, train, predict, advise. Transport handlers call
// into it and never into the pipeline packages directly.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bloomsight/bloom-engine/internal/advisory"
	"github.com/bloomsight/bloom-engine/internal/detector"
	"github.com/bloomsight/bloom-engine/internal/fusion"
	"github.com/bloomsight/bloom-engine/internal/history"
	"github.com/bloomsight/bloom-engine/internal/metrics"
	"github.com/bloomsight/bloom-engine/internal/models"
	"github.com/bloomsight/bloom-engine/internal/predictor"
	"github.com/bloomsight/bloom-engine/internal/utils"
)

// ModelStore persists and recovers the trained classifier/scaler pair.
type ModelStore interface {
	Save(model *predictor.TrainedModel) error
	Load() (*predictor.TrainedModel, bool, error)
}

// Options carry the service-level tunables.
type Options struct {
	// Lookback is the observation window length.
	Lookback time.Duration
	// PublishDelay shifts the window back so unpublished imagery is never requested.
	PublishDelay time.Duration
	// MonthsBack bounds the historical series used for training.
	MonthsBack int
	// IncludeWeather adds rainfall and temperature columns to training features.
	IncludeWeather bool
	// Optimize enables the hyperparameter grid search during training.
	Optimize bool
}

// BloomService wires the pipeline stages together. The active predictor is
// swapped under a lock after each successful train-and-persist, so inference
// keeps serving the previous model until the new one is fully durable.
type BloomService struct {
	logger     *slog.Logger
	fusion     *fusion.Engine
	detector   *detector.Detector
	aggregator *history.Aggregator
	trainer    *predictor.Trainer
	modelStore ModelStore
	advisor    *advisory.Engine
	opts       Options

	mu      sync.RWMutex
	current predictor.Predictor

	latencies *utils.LatencyTracker
	now       func() time.Time
}

// NewBloomService constructs the facade. The prediction mode is chosen once
// here: statistical when a persisted model loads cleanly, rule-based otherwise.
func NewBloomService(
	logger *slog.Logger,
	fusionEngine *fusion.Engine,
	det *detector.Detector,
	aggregator *history.Aggregator,
	trainer *predictor.Trainer,
	modelStore ModelStore,
	advisor *advisory.Engine,
	opts Options,
) *BloomService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Lookback <= 0 {
		opts.Lookback = 10 * 24 * time.Hour
	}
	if opts.PublishDelay < 0 {
		opts.PublishDelay = 0
	}
	if opts.MonthsBack <= 0 {
		opts.MonthsBack = 6
	}

	var source predictor.ModelSource
	if modelStore != nil {
		source = modelStore
	}

	return &BloomService{
		logger:     logger,
		fusion:     fusionEngine,
		detector:   det,
		aggregator: aggregator,
		trainer:    trainer,
		modelStore: modelStore,
		advisor:    advisor,
		opts:       opts,
		current:    predictor.New(source, logger),
		latencies:  utils.NewLatencyTracker(1024),
		now:        time.Now,
	}
}

// FetchRegionSnapshot fuses one environmental snapshot for the region over
// the configured lookback window.
func (s *BloomService) FetchRegionSnapshot(ctx context.Context, region models.BoundingBox) (models.Observation, error) {
	windowStart, windowEnd := utils.ObservationWindow(s.now().UTC(), s.opts.Lookback, s.opts.PublishDelay)
	return s.FetchSnapshotWindow(ctx, region, models.TimeWindow{Start: windowStart, End: windowEnd})
}

// FetchSnapshotWindow fuses a snapshot over an explicit observation window,
// bypassing the configured lookback.
func (s *BloomService) FetchSnapshotWindow(ctx context.Context, region models.BoundingBox, window models.TimeWindow) (models.Observation, error) {
	if s.fusion == nil {
		return models.Observation{}, fmt.Errorf("fusion engine not configured")
	}

	start := time.Now()
	obs, err := s.fusion.FetchSnapshot(ctx, region, window)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveSnapshot(duration, metrics.OutcomeError)
		return models.Observation{}, err
	}
	s.latencies.Observe(duration)
	metrics.ObserveSnapshot(duration, metrics.OutcomeSuccess)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("snapshot latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", count))
	}
	return obs, nil
}

// DetectBloom fetches a snapshot and applies the threshold rules to it.
func (s *BloomService) DetectBloom(ctx context.Context, region models.BoundingBox) (models.Observation, models.BloomArea, error) {
	obs, err := s.FetchRegionSnapshot(ctx, region)
	if err != nil {
		return models.Observation{}, models.BloomArea{}, err
	}
	return obs, s.detector.Detect(obs), nil
}

// PrepareTrainingSet rebuilds the region's historical series and labels it.
// Thin or absent history degrades to a flagged synthetic set, never an error.
func (s *BloomService) PrepareTrainingSet(ctx context.Context, region models.BoundingBox) (models.TrainingSet, error) {
	if err := region.Validate(); err != nil {
		return models.TrainingSet{}, err
	}
	series := s.aggregator.BuildSeries(ctx, region, s.opts.MonthsBack)
	return history.BuildTrainingSet(series, s.detector.Thresholds(), s.opts.IncludeWeather), nil
}

// Train prepares a training set, fits a model, persists it, and only then
// swaps it in as the active predictor. A persist failure keeps the previous
// predictor serving.
func (s *BloomService) Train(ctx context.Context, region models.BoundingBox) (*predictor.TrainedModel, error) {
	set, err := s.PrepareTrainingSet(ctx, region)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	model, err := s.trainer.Train(set, s.opts.Optimize)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveTraining(duration, metrics.OutcomeError)
		return nil, fmt.Errorf("train model: %w", err)
	}

	if s.modelStore != nil {
		if err := s.modelStore.Save(model); err != nil {
			metrics.ObserveTraining(duration, metrics.OutcomeError)
			return nil, fmt.Errorf("persist model: %w", err)
		}
	}

	s.mu.Lock()
	s.current = predictor.NewStatistical(model)
	s.mu.Unlock()

	metrics.ObserveTraining(duration, metrics.OutcomeSuccess)
	s.logger.Info("model activated",
		slog.String("model_version", model.Version),
		slog.String("region", region.Key()))
	return model, nil
}

// Predict fetches a snapshot and classifies it. An observation with neither
// vegetation nor water signal cannot feed either predictor and falls through
// to the seasonal last-resort estimate.
func (s *BloomService) Predict(ctx context.Context, region models.BoundingBox) (models.Observation, models.BloomPrediction, error) {
	obs, err := s.FetchRegionSnapshot(ctx, region)
	if err != nil {
		return models.Observation{}, models.BloomPrediction{}, err
	}
	return obs, s.predictFromObservation(obs), nil
}

func (s *BloomService) predictFromObservation(obs models.Observation) models.BloomPrediction {
	features, ok := models.FeaturesFromObservation(obs)
	if !ok {
		pred := predictor.LastResort(obs.Region, obs.Window.End)
		metrics.ObservePrediction(string(pred.Mode))
		s.logger.Warn("no usable features, serving last-resort estimate",
			slog.String("region", obs.Region.Key()))
		return pred
	}

	s.mu.RLock()
	p := s.current
	s.mu.RUnlock()

	pred := p.Predict(features)
	metrics.ObservePrediction(string(pred.Mode))
	return pred
}

// ComposeAdvisory runs the full chain for one grower: snapshot, prediction,
// then one localized advisory per crop.
func (s *BloomService) ComposeAdvisory(ctx context.Context, profile models.GrowerProfile) ([]models.Advisory, models.BloomPrediction, error) {
	obs, pred, err := s.Predict(ctx, profile.Region)
	if err != nil {
		return nil, models.BloomPrediction{}, err
	}

	advisories, err := s.advisor.Compose(profile, obs, pred)
	if err != nil {
		return nil, models.BloomPrediction{}, err
	}
	metrics.ObserveAdvisories(len(advisories))
	return advisories, pred, nil
}

// RegionReport bundles the results of one full pass over a region.
type RegionReport struct {
	Observation models.Observation     `json:"observation"`
	Bloom       models.BloomArea       `json:"bloom_area"`
	Prediction  models.BloomPrediction `json:"prediction"`
	Advisories  []models.Advisory      `json:"advisories"`
}

// RunRegion executes the full sequential pass for one grower. A single
// snapshot feeds detection, prediction, and the per-crop advisories so all
// three report the same underlying observation.
func (s *BloomService) RunRegion(ctx context.Context, profile models.GrowerProfile) (RegionReport, error) {
	obs, err := s.FetchRegionSnapshot(ctx, profile.Region)
	if err != nil {
		return RegionReport{}, err
	}

	bloom := s.detector.Detect(obs)
	pred := s.predictFromObservation(obs)

	advisories, err := s.advisor.Compose(profile, obs, pred)
	if err != nil {
		return RegionReport{}, err
	}
	metrics.ObserveAdvisories(len(advisories))

	return RegionReport{
		Observation: obs,
		Bloom:       bloom,
		Prediction:  pred,
		Advisories:  advisories,
	}, nil
}

// Mode reports which prediction path is currently active.
func (s *BloomService) Mode() models.PredictionMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Mode()
}

// LatencyP95 returns the current p95 snapshot latency.
func (s *BloomService) LatencyP95() time.Duration {
	return s.latencies.Percentile(95)
}
