package ml

import (
	"sort"
)

// SMOTE oversamples the minority class to a 1:1 ratio by interpolating
// between a minority sample and one of its nearest minority neighbours.
// It only runs while fitting; prediction never resamples.
type SMOTE struct {
	KNeighbors  int    `json:"k_neighbors"`
	RandomState *int64 `json:"random_state,omitempty"`
}

func NewSMOTE(seed *int64) *SMOTE {
	return &SMOTE{KNeighbors: 5, RandomState: seed}
}

// Resample returns the input plus synthetic minority rows appended at the
// end. Balanced input is returned unchanged. With a single minority sample
// there are no neighbours to interpolate with, so it is duplicated.
func (s *SMOTE) Resample(features [][]float64, labels []int) ([][]float64, []int, error) {
	counts := classCounts(labels)
	if len(counts) < 2 {
		return nil, nil, &FitError{Reason: "oversampling needs samples from both classes"}
	}
	minority, majority := 0, 1
	if counts[1] < counts[0] {
		minority, majority = 1, 0
	}
	needed := counts[majority] - counts[minority]
	if needed <= 0 {
		return features, labels, nil
	}

	pool := make([][]float64, 0, counts[minority])
	for i, label := range labels {
		if label == minority {
			pool = append(pool, features[i])
		}
	}

	k := s.KNeighbors
	if k <= 0 {
		k = 5
	}
	if k > len(pool)-1 {
		k = len(pool) - 1
	}
	neighbours := nearestNeighbours(pool, k)
	rng := newRand(s.RandomState)

	outX := make([][]float64, len(features), len(features)+needed)
	copy(outX, features)
	outY := make([]int, len(labels), len(labels)+needed)
	copy(outY, labels)

	for n := 0; n < needed; n++ {
		i := rng.Intn(len(pool))
		base := pool[i]
		synthetic := make([]float64, len(base))
		if k == 0 {
			copy(synthetic, base)
		} else {
			other := pool[neighbours[i][rng.Intn(k)]]
			gap := rng.Float64()
			for d := range base {
				synthetic[d] = base[d] + gap*(other[d]-base[d])
			}
		}
		outX = append(outX, synthetic)
		outY = append(outY, minority)
	}
	return outX, outY, nil
}

// nearestNeighbours returns, for every point, the indices of its k nearest
// other points by Euclidean distance.
func nearestNeighbours(points [][]float64, k int) [][]int {
	out := make([][]int, len(points))
	if k == 0 {
		return out
	}
	for i := range points {
		others := make([]int, 0, len(points)-1)
		for j := range points {
			if j != i {
				others = append(others, j)
			}
		}
		sort.SliceStable(others, func(a, b int) bool {
			return squaredDistance(points[i], points[others[a]]) < squaredDistance(points[i], points[others[b]])
		})
		out[i] = others[:k]
	}
	return out
}
