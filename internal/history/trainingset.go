package history

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/bloomsight/bloom-engine/internal/detector"
	"github.com/bloomsight/bloom-engine/internal/models"
)

// BuildTrainingSet converts a historical series into a labeled, balanced
// feature matrix. The labeling rule is detector.SecondaryRule, identical
// boolean logic to the live detector, so the statistical predictor learns a
// generalization of the deterministic one.
func BuildTrainingSet(series models.HistoricalSeries, thresholds detector.Thresholds, includeWeather bool) models.TrainingSet {
	set := models.TrainingSet{
		FeatureNames: models.FeatureNames(includeWeather),
		Synthetic:    series.Synthetic,
	}
	if len(series.Points) == 0 {
		set.Degenerate = true
		return set
	}

	features := make([][]float64, 0, len(series.Points))
	labels := make([]int, 0, len(series.Points))
	for _, p := range series.Points {
		row := []float64{p.Vegetation, p.Water}
		if includeWeather {
			row = append(row, p.RainfallMM, p.TemperatureC)
		}
		features = append(features, row)

		label := 0
		if detector.SecondaryRule(p.Vegetation, p.Water, thresholds) {
			label = 1
		}
		labels = append(labels, label)
	}

	imputeMedians(features)

	positives := 0
	for _, l := range labels {
		positives += l
	}
	negatives := len(labels) - positives

	minority, majority := positives, negatives
	if minority > majority {
		minority, majority = majority, minority
	}
	if majority > 0 {
		set.ClassBalance = float64(minority) / float64(majority)
	}
	// A single-class window cannot teach the classifier anything; callers
	// check this flag before trusting the trained metrics.
	set.Degenerate = minority == 0 || len(labels) < 6

	features, labels = upsampleMinority(features, labels, positives, negatives, seriesSeed(series))

	set.Features = features
	set.Labels = labels
	return set
}

// imputeMedians replaces NaN cells with the column median of the remaining
// window, never a hardcoded constant.
func imputeMedians(features [][]float64) {
	if len(features) == 0 {
		return
	}
	cols := len(features[0])
	for c := 0; c < cols; c++ {
		present := make([]float64, 0, len(features))
		for _, row := range features {
			if !math.IsNaN(row[c]) {
				present = append(present, row[c])
			}
		}
		if len(present) == 0 || len(present) == len(features) {
			continue
		}
		sort.Float64s(present)
		median := stat.Quantile(0.5, stat.Empirical, present, nil)
		for _, row := range features {
			if math.IsNaN(row[c]) {
				row[c] = median
			}
		}
	}
}

// upsampleMinority duplicates minority-class rows with replacement until the
// classes reach parity. Bloom days are rare, so this is almost always the
// positive class. No-op for single-class sets.
func upsampleMinority(features [][]float64, labels []int, positives, negatives int, seed int64) ([][]float64, []int) {
	if positives == 0 || negatives == 0 || positives == negatives {
		return features, labels
	}

	minorityLabel := 1
	deficit := negatives - positives
	if positives > negatives {
		minorityLabel = 0
		deficit = positives - negatives
	}

	minorityIdx := make([]int, 0, len(labels))
	for i, l := range labels {
		if l == minorityLabel {
			minorityIdx = append(minorityIdx, i)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < deficit; i++ {
		idx := minorityIdx[rng.Intn(len(minorityIdx))]
		row := make([]float64, len(features[idx]))
		copy(row, features[idx])
		features = append(features, row)
		labels = append(labels, minorityLabel)
	}
	return features, labels
}

// seriesSeed derives the deterministic upsampling seed from the series.
func seriesSeed(series models.HistoricalSeries) int64 {
	h := fnv.New64a()
	h.Write([]byte(series.Region.Key()))
	for _, p := range series.Points {
		h.Write([]byte(p.Date.Format("2006-01-02")))
	}
	return int64(h.Sum64() & 0x7fffffffffffffff)
}
