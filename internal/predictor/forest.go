package predictor

import (
	"math"
	"math/rand"
	"sort"
)

// ForestParams are the tunable hyperparameters of the bagged-tree classifier.
type ForestParams struct {
	Trees    int `json:"trees"`
	MaxDepth int `json:"max_depth"`
	MinLeaf  int `json:"min_leaf"`
}

// DefaultForestParams returns the parameters used outside hyperparameter search.
func DefaultForestParams() ForestParams {
	return ForestParams{Trees: 50, MaxDepth: 8, MinLeaf: 2}
}

// TreeNode is one node of a decision tree in flattened form. Leaf nodes have
// Left == -1 and carry the positive-class probability.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Prob      float64 `json:"prob"`
}

// Tree is a single CART classifier.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

func (t Tree) proba(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0.5
	}
	i := 0
	for {
		node := t.Nodes[i]
		if node.Left < 0 {
			return node.Prob
		}
		if x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// Forest is a bagged ensemble of decision trees.
type Forest struct {
	Trees       []Tree       `json:"trees"`
	NumFeatures int          `json:"num_features"`
	Params      ForestParams `json:"params"`
}

// Proba returns the mean positive-class probability across trees.
func (f Forest) Proba(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.proba(x)
	}
	return sum / float64(len(f.Trees))
}

// FitForest trains a bagged-tree classifier. Sampling is driven by the
// caller-supplied seed so identical training sets produce identical models.
func FitForest(features [][]float64, labels []int, params ForestParams, seed int64) Forest {
	n := len(features)
	numFeatures := 0
	if n > 0 {
		numFeatures = len(features[0])
	}
	forest := Forest{NumFeatures: numFeatures, Params: params}
	if n == 0 || numFeatures == 0 {
		return forest
	}

	if params.Trees <= 0 {
		params.Trees = DefaultForestParams().Trees
	}
	if params.MaxDepth <= 0 {
		params.MaxDepth = DefaultForestParams().MaxDepth
	}
	if params.MinLeaf <= 0 {
		params.MinLeaf = 1
	}
	forest.Params = params

	featureSubset := int(math.Ceil(math.Sqrt(float64(numFeatures))))

	for i := 0; i < params.Trees; i++ {
		rng := rand.New(rand.NewSource(seed + int64(i)*7919))
		sample := make([]int, n)
		for j := range sample {
			sample[j] = rng.Intn(n)
		}
		builder := &treeBuilder{
			features:      features,
			labels:        labels,
			maxDepth:      params.MaxDepth,
			minLeaf:       params.MinLeaf,
			featureSubset: featureSubset,
			rng:           rng,
		}
		builder.grow(sample, 0)
		forest.Trees = append(forest.Trees, Tree{Nodes: builder.nodes})
	}
	return forest
}

type treeBuilder struct {
	features      [][]float64
	labels        []int
	maxDepth      int
	minLeaf       int
	featureSubset int
	rng           *rand.Rand
	nodes         []TreeNode
}

// grow recursively builds the tree and returns the node index.
func (b *treeBuilder) grow(indices []int, depth int) int {
	prob := positiveFraction(b.labels, indices)

	if depth >= b.maxDepth || len(indices) <= b.minLeaf || prob == 0 || prob == 1 {
		return b.leaf(prob)
	}

	feature, threshold, ok := b.bestSplit(indices)
	if !ok {
		return b.leaf(prob)
	}

	var left, right []int
	for _, idx := range indices {
		if b.features[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < b.minLeaf || len(right) < b.minLeaf {
		return b.leaf(prob)
	}

	node := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: feature, Threshold: threshold, Left: -1, Right: -1})
	leftIdx := b.grow(left, depth+1)
	rightIdx := b.grow(right, depth+1)
	b.nodes[node].Left = leftIdx
	b.nodes[node].Right = rightIdx
	return node
}

func (b *treeBuilder) leaf(prob float64) int {
	b.nodes = append(b.nodes, TreeNode{Feature: -1, Left: -1, Right: -1, Prob: prob})
	return len(b.nodes) - 1
}

// bestSplit searches a random feature subset for the gini-optimal threshold.
func (b *treeBuilder) bestSplit(indices []int) (int, float64, bool) {
	numFeatures := len(b.features[0])
	candidates := b.rng.Perm(numFeatures)
	if b.featureSubset > 0 && b.featureSubset < numFeatures {
		candidates = candidates[:b.featureSubset]
	}

	bestGini := math.Inf(1)
	bestFeature := -1
	bestThreshold := 0.0

	for _, feature := range candidates {
		values := make([]float64, 0, len(indices))
		for _, idx := range indices {
			values = append(values, b.features[idx][feature])
		}
		sort.Float64s(values)

		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			threshold := (values[i] + values[i-1]) / 2
			gini := b.splitGini(indices, feature, threshold)
			if gini < bestGini {
				bestGini = gini
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func (b *treeBuilder) splitGini(indices []int, feature int, threshold float64) float64 {
	var leftPos, leftN, rightPos, rightN float64
	for _, idx := range indices {
		if b.features[idx][feature] <= threshold {
			leftN++
			leftPos += float64(b.labels[idx])
		} else {
			rightN++
			rightPos += float64(b.labels[idx])
		}
	}
	total := leftN + rightN
	if leftN == 0 || rightN == 0 {
		return math.Inf(1)
	}
	return (leftN/total)*gini(leftPos/leftN) + (rightN/total)*gini(rightPos/rightN)
}

func gini(p float64) float64 {
	return 1 - p*p - (1-p)*(1-p)
}

func positiveFraction(labels []int, indices []int) float64 {
	if len(indices) == 0 {
		return 0.5
	}
	pos := 0
	for _, idx := range indices {
		pos += labels[idx]
	}
	return float64(pos) / float64(len(indices))
}
