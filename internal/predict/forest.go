package predict

import (
	"math"
	"math/rand"
	"sort"
)

// ForestOptions controls tree-ensemble fitting.
type ForestOptions struct {
	NumTrees       int
	MaxDepth       int
	MinLeafSamples int
	// FeaturesPerSplit is the size of the random feature subset tried at
	// each split; 0 means round(sqrt(dim)).
	FeaturesPerSplit int
	Seed             int64
}

// DefaultForestOptions mirrors the usual random-forest defaults.
func DefaultForestOptions() ForestOptions {
	return ForestOptions{
		NumTrees:       100,
		MaxDepth:       10,
		MinLeafSamples: 1,
		Seed:           42,
	}
}

// treeNode is one node of a fitted decision tree. Leaves carry the
// positive-class probability of their training samples.
type treeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
	Leaf      bool      `json:"leaf,omitempty"`
	Prob      float64   `json:"prob"`
	Samples   int       `json:"samples"`
}

// Forest is a fitted bagged ensemble of binary classification trees.
type Forest struct {
	Trees       []*treeNode `json:"trees"`
	NumFeatures int         `json:"num_features"`
	// Importances are normalized mean impurity decreases per feature.
	Importances []float64 `json:"importances"`
}

// FitForest fits a random forest on rows X with binary labels y.
func FitForest(X [][]float64, y []int, opts ForestOptions) *Forest {
	if opts.NumTrees <= 0 {
		opts.NumTrees = 100
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 10
	}
	if opts.MinLeafSamples <= 0 {
		opts.MinLeafSamples = 1
	}
	dim := 0
	if len(X) > 0 {
		dim = len(X[0])
	}
	if opts.FeaturesPerSplit <= 0 {
		opts.FeaturesPerSplit = int(math.Round(math.Sqrt(float64(dim))))
		if opts.FeaturesPerSplit < 1 {
			opts.FeaturesPerSplit = 1
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	f := &Forest{NumFeatures: dim, Importances: make([]float64, dim)}

	for t := 0; t < opts.NumTrees; t++ {
		// Bootstrap sample with replacement.
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = rng.Intn(len(X))
		}
		tree := fitTree(X, y, sample, 0, opts, rng, f.Importances)
		f.Trees = append(f.Trees, tree)
	}

	// Normalize accumulated impurity decreases.
	total := 0.0
	for _, v := range f.Importances {
		total += v
	}
	if total > 0 {
		for i := range f.Importances {
			f.Importances[i] /= total
		}
	}
	return f
}

// PredictProb returns the forest's positive-class probability for x,
// averaged over all trees.
func (f *Forest) PredictProb(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.Trees))
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Prob
}

func fitTree(X [][]float64, y []int, idx []int, depth int, opts ForestOptions, rng *rand.Rand, importances []float64) *treeNode {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	prob := float64(pos) / float64(len(idx))

	if depth >= opts.MaxDepth || len(idx) <= opts.MinLeafSamples || pos == 0 || pos == len(idx) {
		return &treeNode{Leaf: true, Prob: prob, Samples: len(idx)}
	}

	feature, threshold, gain := bestSplit(X, y, idx, opts, rng)
	if feature < 0 {
		return &treeNode{Leaf: true, Prob: prob, Samples: len(idx)}
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{Leaf: true, Prob: prob, Samples: len(idx)}
	}

	importances[feature] += gain * float64(len(idx))

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Samples:   len(idx),
		Prob:      prob,
		Left:      fitTree(X, y, left, depth+1, opts, rng, importances),
		Right:     fitTree(X, y, right, depth+1, opts, rng, importances),
	}
}

// bestSplit searches a random feature subset for the threshold with the
// largest Gini impurity decrease. Returns feature -1 when no split helps.
func bestSplit(X [][]float64, y []int, idx []int, opts ForestOptions, rng *rand.Rand) (int, float64, float64) {
	dim := len(X[0])
	features := rng.Perm(dim)
	if opts.FeaturesPerSplit < dim {
		features = features[:opts.FeaturesPerSplit]
	}

	parent := giniOf(y, idx)
	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0

	for _, f := range features {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, X[i][f])
		}
		sort.Float64s(values)

		for k := 1; k < len(values); k++ {
			if values[k] == values[k-1] {
				continue
			}
			threshold := (values[k] + values[k-1]) / 2

			lPos, lN, rPos, rN := 0, 0, 0, 0
			for _, i := range idx {
				if X[i][f] <= threshold {
					lN++
					lPos += y[i]
				} else {
					rN++
					rPos += y[i]
				}
			}
			wl := float64(lN) / float64(len(idx))
			gain := parent - wl*gini(lPos, lN) - (1-wl)*gini(rPos, rN)
			if gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, threshold, gain
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

func giniOf(y []int, idx []int) float64 {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	return gini(pos, len(idx))
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
