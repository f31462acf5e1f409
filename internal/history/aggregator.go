// Package history rebuilds a region's time series from persisted observation
// summaries and turns it into a labeled training set for the predictor.
package history

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/bloomsight/bloom-engine/internal/models"
	"github.com/bloomsight/bloom-engine/internal/providers"
	"github.com/bloomsight/bloom-engine/internal/store"
	"github.com/bloomsight/bloom-engine/internal/utils"
)

// SummarySource is the slice of the historical store the aggregator reads.
type SummarySource interface {
	Query(ctx context.Context, region models.BoundingBox, since time.Time) ([]store.ObservationSummary, error)
}

// Aggregator builds one point per elapsed day from persisted summaries,
// averaging multiple same-day observations. When persisted history is absent
// or insufficient it produces a clearly flagged synthetic series long enough
// for a minimally useful training run.
type Aggregator struct {
	source     SummarySource
	synthetic  *providers.Synthetic
	minSamples int
	logger     *slog.Logger
	now        func() time.Time
}

// NewAggregator constructs an aggregator. minSamples is the synthetic-series
// floor used when real history cannot support training.
func NewAggregator(source SummarySource, minSamples int, logger *slog.Logger) *Aggregator {
	if minSamples <= 0 {
		minSamples = 60
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		source:     source,
		synthetic:  providers.NewSynthetic(),
		minSamples: minSamples,
		logger:     logger,
		now:        time.Now,
	}
}

// BuildSeries returns the per-day series covering monthsBack months. Store
// failures and thin history are recovered via the synthetic fallback; the
// only signal to the caller is the series' synthetic flag.
func (a *Aggregator) BuildSeries(ctx context.Context, region models.BoundingBox, monthsBack int) models.HistoricalSeries {
	if monthsBack <= 0 {
		monthsBack = 6
	}
	now := a.now().UTC()
	since := now.AddDate(0, -monthsBack, 0)

	var summaries []store.ObservationSummary
	if a.source != nil {
		var err error
		summaries, err = a.source.Query(ctx, region, since)
		if err != nil {
			a.logger.Warn("historical store query failed, using synthetic series",
				slog.String("region", region.Key()), slog.Any("error", err))
			summaries = nil
		}
	}

	points := aggregateDaily(summaries)
	if len(points) < a.minSamples {
		a.logger.Warn("insufficient history, generating synthetic series",
			slog.String("region", region.Key()),
			slog.Int("real_points", len(points)),
			slog.Int("minimum", a.minSamples))
		return a.syntheticSeries(region, now)
	}

	return models.HistoricalSeries{Region: region, Points: points}
}

// aggregateDaily averages same-day summaries into one point per elapsed day.
func aggregateDaily(summaries []store.ObservationSummary) []models.DailyPoint {
	type bucket struct {
		point models.DailyPoint
		count int
		real  int
	}
	buckets := make(map[time.Time]*bucket)
	for _, s := range summaries {
		day := utils.DayKey(s.Date)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{point: models.DailyPoint{Date: day}}
			buckets[day] = b
		}
		b.point.Vegetation += s.Vegetation
		b.point.Water += s.Water
		b.point.RainfallMM += s.RainfallMM
		b.point.TemperatureC += s.TemperatureC
		b.count++
		if !s.Synthetic {
			b.real++
		}
	}

	points := make([]models.DailyPoint, 0, len(buckets))
	for _, b := range buckets {
		n := float64(b.count)
		b.point.Vegetation /= n
		b.point.Water /= n
		b.point.RainfallMM /= n
		b.point.TemperatureC /= n
		b.point.Synthetic = b.real == 0
		points = append(points, b.point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// syntheticSeries generates minSamples daily points ending yesterday using
// the same seasonal heuristic as the fusion engine's fallback.
func (a *Aggregator) syntheticSeries(region models.BoundingBox, now time.Time) models.HistoricalSeries {
	points := make([]models.DailyPoint, 0, a.minSamples)
	for i := a.minSamples; i >= 1; i-- {
		day := utils.DayKey(now.AddDate(0, 0, -i))
		points = append(points, models.DailyPoint{
			Date:         day,
			Vegetation:   a.synthetic.Value(region, day, models.MetricVegetation),
			Water:        a.synthetic.Value(region, day, models.MetricWater),
			RainfallMM:   a.synthetic.Value(region, day, models.MetricRainfall),
			TemperatureC: a.synthetic.Value(region, day, models.MetricTemperature),
			Synthetic:    true,
		})
	}
	return models.HistoricalSeries{Region: region, Points: points, Synthetic: true}
}
