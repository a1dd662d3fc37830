package ml

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"rainpredict/pipeline"
)

// Preprocessor imputes, scales and encodes feature rows. Numeric columns are
// median-imputed then standardized; the categorical column is mode-imputed
// then one-hot encoded, with unseen categories encoded as all zeros.
type Preprocessor struct {
	NumericColumns     []string   `json:"numeric_columns"`
	CategoricalColumns []string   `json:"categorical_columns"`
	Medians            []float64  `json:"medians"`
	Means              []float64  `json:"means"`
	Scales             []float64  `json:"scales"`
	Modes              []string   `json:"modes"`
	Categories         [][]string `json:"categories"`
}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{
		NumericColumns:     pipeline.NumericFeatures(),
		CategoricalColumns: pipeline.CategoricalFeatures(),
	}
}

func (p *Preprocessor) Fit(rows []pipeline.Features) error {
	if len(rows) == 0 {
		return errors.New("no rows to fit")
	}
	numCount := len(p.NumericColumns)
	catCount := len(p.CategoricalColumns)

	p.Medians = make([]float64, numCount)
	p.Means = make([]float64, numCount)
	p.Scales = make([]float64, numCount)
	column := make([]float64, len(rows))
	for j := 0; j < numCount; j++ {
		for i, row := range rows {
			column[i] = row.Numeric()[j]
		}
		median := nanMedian(column)
		if math.IsNaN(median) {
			median = 0
		}
		p.Medians[j] = median
		for i := range column {
			if math.IsNaN(column[i]) {
				column[i] = median
			}
		}
		mean, std := meanStd(column)
		if std < 1e-12 {
			std = 1
		}
		p.Means[j] = mean
		p.Scales[j] = std
	}

	p.Modes = make([]string, catCount)
	p.Categories = make([][]string, catCount)
	values := make([]string, len(rows))
	for j := 0; j < catCount; j++ {
		for i, row := range rows {
			values[i] = row.Categorical()[j]
		}
		mode := mostFrequent(values)
		p.Modes[j] = mode
		for i := range values {
			if values[i] == "" {
				values[i] = mode
			}
		}
		p.Categories[j] = sortedUnique(values)
	}
	return nil
}

// checkFitted verifies that the fitted statistics line up with the feature
// contract, so a damaged artifact is rejected before Transform indexes them.
func (p *Preprocessor) checkFitted() error {
	if !slices.Equal(p.NumericColumns, pipeline.NumericFeatures()) {
		return fmt.Errorf("numeric columns %v", p.NumericColumns)
	}
	if !slices.Equal(p.CategoricalColumns, pipeline.CategoricalFeatures()) {
		return fmt.Errorf("categorical columns %v", p.CategoricalColumns)
	}
	n := len(p.NumericColumns)
	if len(p.Medians) != n || len(p.Means) != n || len(p.Scales) != n {
		return fmt.Errorf("%d numeric columns but %d medians, %d means, %d scales",
			n, len(p.Medians), len(p.Means), len(p.Scales))
	}
	for j, scale := range p.Scales {
		if scale == 0 {
			return fmt.Errorf("zero scale for %s", p.NumericColumns[j])
		}
	}
	c := len(p.CategoricalColumns)
	if len(p.Modes) != c || len(p.Categories) != c {
		return fmt.Errorf("%d categorical columns but %d modes, %d category lists",
			c, len(p.Modes), len(p.Categories))
	}
	return nil
}

// Transform returns the dense model input for one row.
func (p *Preprocessor) Transform(row pipeline.Features) ([]float64, error) {
	if p.Means == nil || p.Categories == nil {
		return nil, errors.New("preprocessor not fitted")
	}
	numeric := row.Numeric()
	categorical := row.Categorical()
	if len(numeric) != len(p.Means) || len(categorical) != len(p.Categories) {
		return nil, fmt.Errorf("row has %d numeric and %d categorical values, want %d and %d",
			len(numeric), len(categorical), len(p.Means), len(p.Categories))
	}

	out := make([]float64, 0, p.OutputSize())
	for j, v := range numeric {
		if math.IsNaN(v) {
			v = p.Medians[j]
		}
		out = append(out, (v-p.Means[j])/p.Scales[j])
	}
	for j, v := range categorical {
		if v == "" {
			v = p.Modes[j]
		}
		for _, category := range p.Categories[j] {
			if v == category {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out, nil
}

func (p *Preprocessor) TransformAll(rows []pipeline.Features) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		vector, err := p.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = vector
	}
	return out, nil
}

func (p *Preprocessor) OutputSize() int {
	n := len(p.NumericColumns)
	for _, c := range p.Categories {
		n += len(c)
	}
	return n
}

// FeatureNamesOut names the transformed columns.
func (p *Preprocessor) FeatureNamesOut() []string {
	names := make([]string, 0, p.OutputSize())
	for _, col := range p.NumericColumns {
		names = append(names, "numeric__"+col)
	}
	for j, col := range p.CategoricalColumns {
		if j >= len(p.Categories) {
			break
		}
		for _, category := range p.Categories[j] {
			names = append(names, "categorical__"+col+"_"+category)
		}
	}
	return names
}
