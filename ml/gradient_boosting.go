package ml

import (
	"errors"
	"math"
)

// GradientBoosting fits regression trees to the gradient of the binomial
// deviance. Leaf outputs use a single Newton step.
type GradientBoosting struct {
	NEstimators  int        `json:"n_estimators"`
	LearningRate float64    `json:"learning_rate"`
	Subsample    float64    `json:"subsample"`
	Params       treeParams `json:"params"`
	RandomState  *int64     `json:"random_state,omitempty"`
	NFeatures    int        `json:"n_features"`
	Init         float64    `json:"init"`
	Trees        []*Tree    `json:"trees"`
}

func NewGradientBoosting() *GradientBoosting {
	params := defaultTreeParams()
	params.MaxDepth = 3
	return &GradientBoosting{
		NEstimators:  100,
		LearningRate: 0.1,
		Subsample:    1.0,
		Params:       params,
	}
}

func (gb *GradientBoosting) Name() string { return GradientBoostingName }

func (gb *GradientBoosting) Fit(features [][]float64, labels []int) error {
	if err := checkTrainingSet(features, labels); err != nil {
		return err
	}
	if gb.NEstimators <= 0 {
		return errors.New("n_estimators must be positive")
	}
	if gb.LearningRate <= 0 {
		return errors.New("learning_rate must be positive")
	}
	if gb.Subsample <= 0 || gb.Subsample > 1 {
		return errors.New("subsample must be in (0, 1]")
	}

	y := labelsToTarget(labels)
	n := len(features)
	prior := 0.0
	for _, v := range y {
		prior += v
	}
	prior /= float64(n)
	prior = math.Min(math.Max(prior, 1e-6), 1-1e-6)
	gb.Init = math.Log(prior / (1 - prior))

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = gb.Init
	}
	prob := make([]float64, n)
	residual := make([]float64, n)
	rng := newRand(gb.RandomState)
	sampleSize := int(math.Max(1, math.Round(gb.Subsample*float64(n))))

	gb.Trees = make([]*Tree, 0, gb.NEstimators)
	for m := 0; m < gb.NEstimators; m++ {
		for i := range raw {
			prob[i] = sigmoid(raw[i])
			residual[i] = y[i] - prob[i]
		}
		idx := allIndices(n)
		if sampleSize < n {
			idx = rng.Perm(n)[:sampleSize]
		}
		g := &treeGrower{
			features:  features,
			target:    residual,
			params:    gb.Params,
			criterion: mseCriterion,
			leaf:      newtonLeaf(residual, prob),
			rng:       rng,
		}
		tree := g.grow(idx)
		gb.Trees = append(gb.Trees, tree)
		for i := range raw {
			step, err := tree.leafValue(features[i])
			if err != nil {
				return err
			}
			raw[i] += gb.LearningRate * step
		}
	}
	gb.NFeatures = len(features[0])
	return nil
}

func (gb *GradientBoosting) PredictProba(features []float64) ([]float64, error) {
	if len(gb.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if len(features) != gb.NFeatures {
		return nil, errors.New("feature vector length mismatch")
	}
	raw := gb.Init
	for _, tree := range gb.Trees {
		step, err := tree.leafValue(features)
		if err != nil {
			return nil, err
		}
		raw += gb.LearningRate * step
	}
	p := sigmoid(raw)
	return []float64{1 - p, p}, nil
}

func newtonLeaf(residual, prob []float64) func(idx []int) float64 {
	return func(idx []int) float64 {
		num, den := 0.0, 0.0
		for _, i := range idx {
			num += residual[i]
			den += prob[i] * (1 - prob[i])
		}
		if math.Abs(den) < 1e-150 {
			return 0
		}
		return num / den
	}
}
