package ml

import (
	"errors"
)

// RandomForest averages the class-1 probability of bagged CART trees.
type RandomForest struct {
	NEstimators int        `json:"n_estimators"`
	Bootstrap   bool       `json:"bootstrap"`
	Params      treeParams `json:"params"`
	RandomState *int64     `json:"random_state,omitempty"`
	NFeatures   int        `json:"n_features"`
	Trees       []*Tree    `json:"trees"`
}

func NewRandomForest() *RandomForest {
	params := defaultTreeParams()
	params.MaxFeatures = MaxFeatures{Mode: "sqrt"}
	return &RandomForest{
		NEstimators: 100,
		Bootstrap:   true,
		Params:      params,
	}
}

func (rf *RandomForest) Name() string { return RandomForestName }

func (rf *RandomForest) Fit(features [][]float64, labels []int) error {
	if err := checkTrainingSet(features, labels); err != nil {
		return err
	}
	if rf.NEstimators <= 0 {
		return errors.New("n_estimators must be positive")
	}
	target := labelsToTarget(labels)
	rng := newRand(rf.RandomState)
	n := len(features)

	rf.Trees = make([]*Tree, 0, rf.NEstimators)
	for t := 0; t < rf.NEstimators; t++ {
		idx := allIndices(n)
		if rf.Bootstrap {
			for i := range idx {
				idx[i] = rng.Intn(n)
			}
		}
		g := &treeGrower{
			features:  features,
			target:    target,
			params:    rf.Params,
			criterion: giniCriterion,
			leaf:      meanLeaf(target),
			rng:       rng,
		}
		rf.Trees = append(rf.Trees, g.grow(idx))
	}
	rf.NFeatures = len(features[0])
	return nil
}

func (rf *RandomForest) PredictProba(features []float64) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if len(features) != rf.NFeatures {
		return nil, errors.New("feature vector length mismatch")
	}
	sum := 0.0
	for _, tree := range rf.Trees {
		p, err := tree.leafValue(features)
		if err != nil {
			return nil, err
		}
		sum += p
	}
	p := sum / float64(len(rf.Trees))
	return []float64{1 - p, p}, nil
}
