package anomaly

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Isolation-forest parameters.  Anomalous points isolate in fewer random
// splits than inliers, so the expected path length over an ensemble of random
// trees converts directly into an anomaly score.
const (
	forestTrees        = 100
	forestMaxSubsample = 256
)

// eulerGamma is the Euler-Mascheroni constant used in the harmonic-number
// approximation of the average unsuccessful-search path length.
const eulerGamma = 0.5772156649015329

// IsolationForest is a fitted single-feature isolation forest.  The zero
// value is unusable; construct with FitIsolationForest.  A fitted forest is
// immutable and safe for concurrent use.
type IsolationForest struct {
	trees     []*isoNode
	subsample int
	offset    float64
}

type isoNode struct {
	split float64
	left  *isoNode
	right *isoNode
	size  int
}

func (n *isoNode) leaf() bool { return n.left == nil }

// FitIsolationForest fits a forest over values with the given expected
// anomaly proportion and deterministic seed.  At least two observations are
// required.
//
// Scoring follows the ensemble convention: ScoreSample yields values in
// (-1, 0] where more negative means more anomalous, and DecisionFunction
// shifts ScoreSample by the contamination-quantile of the training scores so
// that roughly the contamination fraction of training points falls below
// zero.
func FitIsolationForest(values []float64, contamination float64, seed int64) (*IsolationForest, error) {
	if len(values) < 2 {
		return nil, fmt.Errorf("anomaly: isolation forest requires at least 2 observations, got %d", len(values))
	}
	if contamination <= 0 || contamination > 0.5 {
		return nil, fmt.Errorf("anomaly: contamination %g out of range (0, 0.5]", contamination)
	}

	rng := rand.New(rand.NewSource(seed))

	psi := len(values)
	if psi > forestMaxSubsample {
		psi = forestMaxSubsample
	}
	heightLimit := int(math.Ceil(math.Log2(float64(psi))))

	f := &IsolationForest{
		trees:     make([]*isoNode, forestTrees),
		subsample: psi,
	}

	sample := make([]float64, psi)
	for t := 0; t < forestTrees; t++ {
		perm := rng.Perm(len(values))
		for i := 0; i < psi; i++ {
			sample[i] = values[perm[i]]
		}
		f.trees[t] = buildIsoTree(sample, 0, heightLimit, rng)
	}

	trainScores := make([]float64, len(values))
	for i, v := range values {
		trainScores[i] = f.ScoreSample(v)
	}
	f.offset = percentile(trainScores, contamination*100)

	return f, nil
}

// buildIsoTree recursively partitions values at uniform random split points
// until isolation or the height limit.
func buildIsoTree(values []float64, depth, heightLimit int, rng *rand.Rand) *isoNode {
	if len(values) <= 1 || depth >= heightLimit {
		return &isoNode{size: len(values)}
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		// all duplicates, cannot split further
		return &isoNode{size: len(values)}
	}

	split := lo + rng.Float64()*(hi-lo)

	var left, right []float64
	for _, v := range values {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}

	return &isoNode{
		split: split,
		left:  buildIsoTree(left, depth+1, heightLimit, rng),
		right: buildIsoTree(right, depth+1, heightLimit, rng),
		size:  len(values),
	}
}

// pathLength walks x down the tree, crediting truncated leaves with the
// average path length of an unsuccessful search over their size.
func pathLength(n *isoNode, x float64) float64 {
	depth := 0.0
	for !n.leaf() {
		if x < n.split {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	return depth + avgPathLength(n.size)
}

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search over n points.
func avgPathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
	}
}

// ScoreSample returns the raw anomaly score of x in (-1, 0], more negative
// meaning more anomalous.
func (f *IsolationForest) ScoreSample(x float64) float64 {
	total := 0.0
	for _, tree := range f.trees {
		total += pathLength(tree, x)
	}
	mean := total / float64(len(f.trees))
	return -math.Pow(2, -mean/avgPathLength(f.subsample))
}

// DecisionFunction returns the offset-adjusted score of x: negative values
// are anomalous relative to the fitted contamination level, positive values
// are inliers.
func (f *IsolationForest) DecisionFunction(x float64) float64 {
	return f.ScoreSample(x) - f.offset
}

// percentile computes the q-th percentile (0..100) of values with linear
// interpolation between adjacent ranks.
func percentile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
