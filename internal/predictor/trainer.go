package predictor

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/bloomsight/bloom-engine/internal/models"
)

// Trainer fits the bagged-tree classifier from a prepared training set.
// Training is the most expensive operation in the pipeline and runs far less
// often than prediction; it never blocks inference because the service swaps
// the finished model in atomically.
type Trainer struct {
	logger *slog.Logger
}

// NewTrainer constructs a trainer.
func NewTrainer(logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{logger: logger}
}

// hyperparameter search grid: estimator count, depth, leaf size.
var searchGrid = struct {
	trees   []int
	depths  []int
	minLeaf []int
}{
	trees:   []int{25, 50, 100},
	depths:  []int{4, 8, 12},
	minLeaf: []int{1, 3, 5},
}

// Train fits a model, optionally grid-searching hyperparameters on a held-out
// split. Small or single-class sets never abort: split size and fold count
// shrink automatically and the returned metrics carry a reliability warning.
func (t *Trainer) Train(set models.TrainingSet, optimize bool) (*TrainedModel, error) {
	n := len(set.Features)
	if n == 0 {
		return nil, fmt.Errorf("%w: training set is empty", models.ErrInsufficientHistory)
	}
	if len(set.Labels) != n {
		return nil, fmt.Errorf("feature/label length mismatch: %d vs %d", n, len(set.Labels))
	}

	seed := datasetSeed(set)
	scaler := FitScaler(set.Features)
	scaled := scaler.TransformAll(set.Features)

	var warnings []string
	testCount, folds := splitPlan(n)
	if testCount == 0 {
		warnings = append(warnings, "too few samples for a held-out split; metrics computed on training data")
	} else if folds < 3 {
		warnings = append(warnings, "small sample count; reduced held-out split and fold count")
	}
	if set.Degenerate {
		warnings = append(warnings, "single-class training set; classifier output will be near constant")
	}
	if len(warnings) > 0 {
		t.logger.Warn("training reliability degraded",
			slog.Int("samples", n),
			slog.Int("held_out", testCount),
			slog.Int("folds", folds))
	}

	params := DefaultForestParams()
	if optimize {
		params = t.gridSearch(scaled, set.Labels, testCount, folds, seed)
	}

	metrics := evaluate(scaled, set.Labels, params, testCount, seed)
	metrics.Samples = n
	metrics.ClassBalance = set.ClassBalance
	metrics.HeldOutFraction = float64(testCount) / float64(n)
	metrics.Folds = folds
	metrics.Optimized = optimize
	metrics.Params = params
	metrics.Warning = strings.Join(warnings, "; ")

	// Final fit uses every sample; the held-out split existed only to score.
	forest := FitForest(scaled, set.Labels, params, seed)

	trainedAt := time.Now().UTC()
	model := &TrainedModel{
		Version:      fmt.Sprintf("rf-%s-n%d", trainedAt.Format("20060102T150405Z"), n),
		Forest:       forest,
		Scaler:       scaler,
		FeatureNames: set.FeatureNames,
		Metrics:      metrics,
		TrainedAt:    trainedAt,
	}

	t.logger.Info("training complete",
		slog.String("model_version", model.Version),
		slog.Float64("accuracy", metrics.Accuracy),
		slog.Float64("f1", metrics.F1),
		slog.Bool("optimized", optimize))
	return model, nil
}

// splitPlan shrinks the held-out size and fold count for small sample counts.
func splitPlan(n int) (testCount, folds int) {
	switch {
	case n < 10:
		return 0, 1
	case n < 30:
		testCount = n / 5
		if testCount < 2 {
			testCount = 2
		}
		return testCount, 2
	default:
		return n / 5, 3
	}
}

// gridSearch scores each parameter combination on shuffled held-out splits
// and returns the best by mean accuracy.
func (t *Trainer) gridSearch(features [][]float64, labels []int, testCount, folds int, seed int64) ForestParams {
	best := DefaultForestParams()
	bestScore := -1.0

	for _, trees := range searchGrid.trees {
		for _, depth := range searchGrid.depths {
			for _, minLeaf := range searchGrid.minLeaf {
				params := ForestParams{Trees: trees, MaxDepth: depth, MinLeaf: minLeaf}
				score := 0.0
				for fold := 0; fold < folds; fold++ {
					m := evaluate(features, labels, params, testCount, seed+int64(fold)*104729)
					score += m.Accuracy
				}
				score /= float64(folds)
				if score > bestScore {
					bestScore = score
					best = params
				}
			}
		}
	}

	t.logger.Debug("grid search finished",
		slog.Int("trees", best.Trees),
		slog.Int("max_depth", best.MaxDepth),
		slog.Int("min_leaf", best.MinLeaf),
		slog.Float64("score", bestScore))
	return best
}

// evaluate trains on a shuffled split and scores on the held-out remainder.
// With testCount == 0 it scores on the training data itself, which the caller
// has already flagged as degraded.
func evaluate(features [][]float64, labels []int, params ForestParams, testCount int, seed int64) TrainingMetrics {
	n := len(features)
	order := rand.New(rand.NewSource(seed)).Perm(n)

	trainIdx := order
	testIdx := order
	if testCount > 0 && testCount < n {
		trainIdx = order[testCount:]
		testIdx = order[:testCount]
	}

	trainX := make([][]float64, 0, len(trainIdx))
	trainY := make([]int, 0, len(trainIdx))
	for _, idx := range trainIdx {
		trainX = append(trainX, features[idx])
		trainY = append(trainY, labels[idx])
	}

	forest := FitForest(trainX, trainY, params, seed)

	var tp, fp, tn, fn float64
	for _, idx := range testIdx {
		predicted := 0
		if forest.Proba(features[idx]) > 0.5 {
			predicted = 1
		}
		switch {
		case predicted == 1 && labels[idx] == 1:
			tp++
		case predicted == 1 && labels[idx] == 0:
			fp++
		case predicted == 0 && labels[idx] == 0:
			tn++
		default:
			fn++
		}
	}

	metrics := TrainingMetrics{}
	total := tp + fp + tn + fn
	if total > 0 {
		metrics.Accuracy = (tp + tn) / total
	}
	if tp+fp > 0 {
		metrics.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		metrics.Recall = tp / (tp + fn)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1 = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}
	return metrics
}

// datasetSeed derives a deterministic sampling seed from the set contents so
// retraining on identical data reproduces the same model.
func datasetSeed(set models.TrainingSet) int64 {
	h := fnv.New64a()
	for i, row := range set.Features {
		fmt.Fprintf(h, "%d:", set.Labels[i])
		for _, v := range row {
			fmt.Fprintf(h, "%.6f,", v)
		}
	}
	return int64(h.Sum64() & 0x7fffffffffffffff)
}
