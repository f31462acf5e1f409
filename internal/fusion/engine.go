// Package fusion merges the per-metric provider chains into one consistent
// environmental snapshot per region and window.
package fusion

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/bloomsight/bloom-engine/internal/cache"
	"github.com/bloomsight/bloom-engine/internal/metrics"
	"github.com/bloomsight/bloom-engine/internal/models"
	"github.com/bloomsight/bloom-engine/internal/providers"
	"github.com/bloomsight/bloom-engine/internal/utils"
)

// HistorySink receives per-fetch summaries. Persistence is fire-and-forget;
// a sink failure never fails the fetch.
type HistorySink interface {
	Append(ctx context.Context, region models.BoundingBox, date time.Time, obs models.Observation) error
}

// Options tune engine timing behaviour.
type Options struct {
	// ProviderTimeout bounds each individual provider call.
	ProviderTimeout time.Duration
	// RainfallBuffer extends the rainfall window backwards; precipitation
	// products publish later than optical and thermal ones.
	RainfallBuffer time.Duration
	// AreaTTL controls how long computed region areas stay cached.
	AreaTTL time.Duration
	// PersistTimeout bounds the background history append.
	PersistTimeout time.Duration
}

// Engine fuses provider observations into snapshots.
type Engine struct {
	chains    map[models.Metric][]providers.Provider
	synthetic *providers.Synthetic
	history   HistorySink
	cache     cache.Provider
	opts      Options
	logger    *slog.Logger
}

// NewEngine builds the per-metric priority chains from the ordered provider
// list. Order is priority: the first provider supporting a metric is asked
// first. Adding or reordering providers never touches the fusion logic.
func NewEngine(ordered []providers.Provider, history HistorySink, cacheProvider cache.Provider, opts Options, logger *slog.Logger) *Engine {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 5 * time.Second
	}
	if opts.RainfallBuffer <= 0 {
		opts.RainfallBuffer = 5 * 24 * time.Hour
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 10 * time.Second
	}

	chains := make(map[models.Metric][]providers.Provider, len(models.AllMetrics))
	for _, metric := range models.AllMetrics {
		for _, p := range ordered {
			if p.Supports(metric) {
				chains[metric] = append(chains[metric], p)
			}
		}
	}

	return &Engine{
		chains:    chains,
		synthetic: providers.NewSynthetic(),
		history:   history,
		cache:     cacheProvider,
		opts:      opts,
		logger:    logger,
	}
}

// FetchSnapshot queries every metric's provider chain and assembles one
// observation. Each metric resolves independently: a failure on one never
// blocks the others, and a metric with no surviving provider is filled by
// the seasonal heuristic and flagged synthetic. A caller deadline causes
// unresolved metrics to fall through to synthetic rather than block past it.
func (e *Engine) FetchSnapshot(ctx context.Context, region models.BoundingBox, window models.TimeWindow) (models.Observation, error) {
	if err := region.Validate(); err != nil {
		return models.Observation{}, err
	}

	obs := models.Observation{
		Region:    region,
		Window:    window,
		Metrics:   make(map[models.Metric]models.MetricValue, len(models.AllMetrics)),
		AreaKm2:   e.regionArea(ctx, region),
		FetchedAt: time.Now().UTC(),
	}

	for _, metric := range models.AllMetrics {
		obs.Metrics[metric] = e.resolveMetric(ctx, region, window, metric)
	}

	e.persistAsync(region, window.End, obs)
	return obs, nil
}

// resolveMetric walks the metric's chain in priority order. The first
// provider to succeed wins outright; values from the same metric are never
// averaged across providers.
func (e *Engine) resolveMetric(ctx context.Context, region models.BoundingBox, window models.TimeWindow, metric models.Metric) models.MetricValue {
	start, end := window.Start, window.End
	if metric == models.MetricRainfall {
		start, end = utils.ExtendWindow(start, end, e.opts.RainfallBuffer)
	}

	if value, ok := e.tryChain(ctx, region, start, end, metric); ok {
		return value
	}

	// Precipitation sometimes needs one more window extension before giving
	// up on real data.
	if metric == models.MetricRainfall && ctx.Err() == nil {
		start, end = utils.ExtendWindow(start, end, e.opts.RainfallBuffer)
		if value, ok := e.tryChain(ctx, region, start, end, metric); ok {
			return value
		}
	}

	metrics.ObserveSyntheticFill(string(metric))
	e.logger.Warn("all providers failed, filling metric synthetically",
		slog.String("metric", string(metric)),
		slog.String("region", region.Key()))
	return models.MetricValue{
		Value:     e.synthetic.Value(region, window.End, metric),
		Source:    providers.SourceSynthetic,
		Synthetic: true,
	}
}

func (e *Engine) tryChain(ctx context.Context, region models.BoundingBox, start, end time.Time, metric models.Metric) (models.MetricValue, bool) {
	for _, provider := range e.chains[metric] {
		if ctx.Err() != nil {
			// Deadline passed: abandon the chain and let the caller get a
			// synthetic value instead of blocking.
			return models.MetricValue{}, false
		}

		callCtx, cancel := context.WithTimeout(ctx, e.opts.ProviderTimeout)
		values, err := provider.Fetch(callCtx, region, start, end)
		cancel()
		if err != nil {
			metrics.ObserveProviderFallback(provider.Name(), string(metric))
			e.logger.Debug("provider failed, trying next priority",
				slog.String("provider", provider.Name()),
				slog.String("metric", string(metric)),
				slog.Any("error", err))
			continue
		}
		value, ok := values[metric]
		if !ok {
			metrics.ObserveProviderFallback(provider.Name(), string(metric))
			continue
		}
		if metric.IsIndex() {
			value = models.ClampIndex(value)
		}
		return models.MetricValue{
			Value:       value,
			Source:      provider.Name(),
			ResolutionM: provider.ResolutionM(),
		}, true
	}
	return models.MetricValue{}, false
}

// regionArea computes the region area once and caches it; percentage math
// downstream reuses the same figure.
func (e *Engine) regionArea(ctx context.Context, region models.BoundingBox) float64 {
	key := "area:" + region.Key()
	if data, err := e.cache.Get(ctx, key); err == nil {
		if area, err := strconv.ParseFloat(string(data), 64); err == nil {
			return area
		}
	}
	area := region.AreaKm2()
	if e.opts.AreaTTL > 0 {
		_ = e.cache.Set(ctx, key, []byte(strconv.FormatFloat(area, 'g', -1, 64)), e.opts.AreaTTL)
	}
	return area
}

// persistAsync appends the summary in the background. Failure is logged and
// dropped; the snapshot has already been returned.
func (e *Engine) persistAsync(region models.BoundingBox, date time.Time, obs models.Observation) {
	if e.history == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.opts.PersistTimeout)
		defer cancel()
		if err := e.history.Append(ctx, region, date, obs); err != nil {
			e.logger.Warn("failed to persist observation summary",
				slog.String("region", region.Key()),
				slog.Any("error", err))
		}
	}()
}
