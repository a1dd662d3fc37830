package ml

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	Samples    int     `json:"samples"`
	IsLeaf     bool    `json:"is_leaf"`
}

// Tree is a fitted CART tree stored as a flat node array; node 0 is the root.
// For classification Value is the fraction of class 1 in the leaf, for
// regression it is the leaf output.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

func (t *Tree) leafValue(features []float64) (float64, error) {
	if t == nil || len(t.Nodes) == 0 {
		return 0, ErrNotFitted
	}
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if t == nil || len(t.Nodes) == 0 {
		return 0
	}
	var walk func(idx int) int
	walk = func(idx int) int {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return 0
		}
		return 1 + max(walk(node.LeftChild), walk(node.RightChild))
	}
	return walk(0)
}

type criterion int

const (
	giniCriterion criterion = iota
	mseCriterion
)

type treeParams struct {
	MaxDepth        int         `json:"max_depth"` // 0 means unlimited
	MinSamplesSplit int         `json:"min_samples_split"`
	MinSamplesLeaf  int         `json:"min_samples_leaf"`
	MaxFeatures     MaxFeatures `json:"max_features"`
}

func defaultTreeParams() treeParams {
	return treeParams{MinSamplesSplit: 2, MinSamplesLeaf: 1}
}

// MaxFeatures is the number of features examined per split. The zero value
// examines all of them.
type MaxFeatures struct {
	Mode     string  `json:"mode,omitempty"` // "sqrt" or "log2"
	Count    int     `json:"count,omitempty"`
	Fraction float64 `json:"fraction,omitempty"`
}

func (m MaxFeatures) resolve(n int) int {
	k := n
	switch {
	case m.Mode == "sqrt":
		k = int(math.Sqrt(float64(n)))
	case m.Mode == "log2":
		k = int(math.Log2(float64(n)))
	case m.Count > 0:
		k = m.Count
	case m.Fraction > 0:
		k = int(m.Fraction * float64(n))
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// treeGrower builds one tree over the rows listed in an index slice. The
// slice may repeat rows, which is how bootstrap samples are expressed.
type treeGrower struct {
	features  [][]float64
	target    []float64
	params    treeParams
	criterion criterion
	leaf      func(idx []int) float64
	rng       *rand.Rand
	nodes     []TreeNode
}

func (g *treeGrower) grow(idx []int) *Tree {
	g.nodes = nil
	g.build(idx, 0)
	return &Tree{Nodes: g.nodes}
}

func (g *treeGrower) build(idx []int, depth int) int {
	self := len(g.nodes)
	g.nodes = append(g.nodes, TreeNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Value:      g.leaf(idx),
		Samples:    len(idx),
		IsLeaf:     true,
	})

	if g.params.MaxDepth > 0 && depth >= g.params.MaxDepth {
		return self
	}
	if len(idx) < g.params.MinSamplesSplit || len(idx) < 2*g.params.MinSamplesLeaf {
		return self
	}
	sum, sumSq := g.sums(idx)
	if g.impurity(sum, sumSq, float64(len(idx))) <= 1e-12 {
		return self
	}

	featureIdx, threshold, ok := g.findBestSplit(idx, sum, sumSq)
	if !ok {
		return self
	}
	left, right := splitIndices(g.features, idx, featureIdx, threshold)
	if len(left) == 0 || len(right) == 0 {
		return self
	}

	leftChild := g.build(left, depth+1)
	rightChild := g.build(right, depth+1)
	node := &g.nodes[self]
	node.FeatureIdx = featureIdx
	node.Threshold = threshold
	node.LeftChild = leftChild
	node.RightChild = rightChild
	node.IsLeaf = false
	return self
}

func (g *treeGrower) sums(idx []int) (sum, sumSq float64) {
	for _, i := range idx {
		v := g.target[i]
		sum += v
		sumSq += v * v
	}
	return sum, sumSq
}

func (g *treeGrower) impurity(sum, sumSq, n float64) float64 {
	if n == 0 {
		return 0
	}
	mean := sum / n
	if g.criterion == giniCriterion {
		// binary targets: 1 - p^2 - (1-p)^2
		return 2 * mean * (1 - mean)
	}
	return math.Max(0, sumSq/n-mean*mean)
}

func (g *treeGrower) candidateFeatures() []int {
	n := len(g.features[0])
	k := g.params.MaxFeatures.resolve(n)
	if k == n {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return g.rng.Perm(n)[:k]
}

func (g *treeGrower) findBestSplit(idx []int, totalSum, totalSq float64) (int, float64, bool) {
	n := len(idx)
	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := float64(n) * g.impurity(totalSum, totalSq, float64(n))

	sorted := make([]int, n)
	for _, featureIdx := range g.candidateFeatures() {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool {
			return g.features[sorted[a]][featureIdx] < g.features[sorted[b]][featureIdx]
		})

		leftSum, leftSq := 0.0, 0.0
		for k := 0; k < n-1; k++ {
			v := g.target[sorted[k]]
			leftSum += v
			leftSq += v * v

			nl, nr := k+1, n-k-1
			if nl < g.params.MinSamplesLeaf || nr < g.params.MinSamplesLeaf {
				continue
			}
			current := g.features[sorted[k]][featureIdx]
			next := g.features[sorted[k+1]][featureIdx]
			if current == next {
				continue
			}
			impurity := float64(nl)*g.impurity(leftSum, leftSq, float64(nl)) +
				float64(nr)*g.impurity(totalSum-leftSum, totalSq-leftSq, float64(nr))
			if impurity < bestImpurity-1e-12 {
				bestImpurity = impurity
				bestFeature = featureIdx
				bestThreshold = current + (next-current)/2
				if bestThreshold >= next {
					bestThreshold = current
				}
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func splitIndices(features [][]float64, idx []int, featureIdx int, threshold float64) ([]int, []int) {
	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if features[i][featureIdx] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// DecisionTree is a CART classifier with gini impurity.
type DecisionTree struct {
	Params      treeParams `json:"params"`
	RandomState *int64     `json:"random_state,omitempty"`
	NFeatures   int        `json:"n_features"`
	Tree        *Tree      `json:"tree"`
}

func NewDecisionTree() *DecisionTree {
	return &DecisionTree{Params: defaultTreeParams()}
}

func (dt *DecisionTree) Name() string { return DecisionTreeName }

func (dt *DecisionTree) Fit(features [][]float64, labels []int) error {
	if err := checkTrainingSet(features, labels); err != nil {
		return err
	}
	target := labelsToTarget(labels)
	g := &treeGrower{
		features:  features,
		target:    target,
		params:    dt.Params,
		criterion: giniCriterion,
		leaf:      meanLeaf(target),
		rng:       newRand(dt.RandomState),
	}
	dt.NFeatures = len(features[0])
	dt.Tree = g.grow(allIndices(len(features)))
	return nil
}

func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
	if dt.Tree == nil {
		return nil, ErrNotFitted
	}
	if len(features) != dt.NFeatures {
		return nil, errors.New("feature vector length mismatch")
	}
	p, err := dt.Tree.leafValue(features)
	if err != nil {
		return nil, err
	}
	return []float64{1 - p, p}, nil
}

func checkTrainingSet(features [][]float64, labels []int) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	if len(features[0]) == 0 {
		return errors.New("feature vectors are empty")
	}
	return nil
}

func labelsToTarget(labels []int) []float64 {
	target := make([]float64, len(labels))
	for i, label := range labels {
		if label != 0 {
			target[i] = 1
		}
	}
	return target
}

func meanLeaf(target []float64) func(idx []int) float64 {
	return func(idx []int) float64 {
		if len(idx) == 0 {
			return 0
		}
		sum := 0.0
		for _, i := range idx {
			sum += target[i]
		}
		return sum / float64(len(idx))
	}
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
