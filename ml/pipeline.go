package ml

import (
	"errors"
	"fmt"
	"time"

	"rainpredict/config"
	"rainpredict/pipeline"
)

// Metadata describes a trained pipeline. It travels with the persisted
// artifact so serving can check compatibility before predicting.
type Metadata struct {
	ID            string    `json:"id"`
	ModelName     string    `json:"model_name"`
	ModelVersion  int       `json:"model_version"`
	SchemaVersion int       `json:"schema_version"`
	Features      []string  `json:"features"`
	TrainedAt     time.Time `json:"trained_at"`
	TrainingRows  int       `json:"training_rows"`
	Oversampled   bool      `json:"oversampled"`
}

// Pipeline chains preprocessing, optional SMOTE and a classifier. A fitted
// pipeline is read-only and safe to share between goroutines.
type Pipeline struct {
	Meta         Metadata
	Preprocessor *Preprocessor
	Sampler      *SMOTE
	Classifier   Classifier
	fitted       bool
}

// Builder assembles an unfitted pipeline from model configuration.
type Builder struct {
	cfg config.ModelConfig
}

func NewBuilder(cfg config.ModelConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Build returns a *ConfigError for unknown classifier names or
// hyperparameters.
func (b *Builder) Build() (*Pipeline, error) {
	classifier, err := NewClassifier(b.cfg.Name, b.cfg.Params)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		Meta: Metadata{
			ModelName:     b.cfg.Name,
			ModelVersion:  b.cfg.Version,
			SchemaVersion: pipeline.SchemaVersion,
			Features:      pipeline.FeatureNames(),
		},
		Preprocessor: NewPreprocessor(),
		Classifier:   classifier,
	}
	if b.cfg.OversampleEnabled() {
		seed := b.cfg.Seed
		p.Sampler = NewSMOTE(&seed)
	}
	return p, nil
}

// NewClassifier creates the named classifier with params applied.
func NewClassifier(name string, params map[string]interface{}) (Classifier, error) {
	switch name {
	case DecisionTreeName:
		dt := NewDecisionTree()
		return dt, applyParams(name, params, decisionTreeSetters(dt))
	case RandomForestName:
		rf := NewRandomForest()
		return rf, applyParams(name, params, randomForestSetters(rf))
	case GradientBoostingName:
		gb := NewGradientBoosting()
		return gb, applyParams(name, params, gradientBoostingSetters(gb))
	default:
		return nil, unknownClassifier(name)
	}
}

// Fit trains every stage. Both classes must be present.
func (p *Pipeline) Fit(rows []pipeline.Features, labels []int) error {
	if len(rows) == 0 {
		return &FitError{Reason: "no training rows"}
	}
	if len(rows) != len(labels) {
		return &FitError{Reason: fmt.Sprintf("%d rows but %d labels", len(rows), len(labels))}
	}
	y := make([]int, len(labels))
	for i, label := range labels {
		if label != 0 {
			y[i] = 1
		}
	}
	if counts := classCounts(y); len(counts) < 2 {
		return &FitError{Reason: "training data must contain both classes"}
	}

	if err := p.Preprocessor.Fit(rows); err != nil {
		return &FitError{Reason: "preprocessor", Err: err}
	}
	x, err := p.Preprocessor.TransformAll(rows)
	if err != nil {
		return &FitError{Reason: "preprocessor", Err: err}
	}
	if p.Sampler != nil {
		x, y, err = p.Sampler.Resample(x, y)
		if err != nil {
			var fitErr *FitError
			if errors.As(err, &fitErr) {
				return fitErr
			}
			return &FitError{Reason: "oversampling", Err: err}
		}
	}
	if err := p.Classifier.Fit(x, y); err != nil {
		return &FitError{Reason: p.Classifier.Name(), Err: err}
	}

	p.Meta.TrainingRows = len(rows)
	p.Meta.Oversampled = p.Sampler != nil
	p.fitted = true
	return nil
}

// Fitted reports whether the pipeline can predict.
func (p *Pipeline) Fitted() bool {
	return p.fitted
}

// PredictProba returns [P(no rain), P(rain)] for one row.
func (p *Pipeline) PredictProba(row pipeline.Features) ([]float64, error) {
	if !p.fitted {
		return nil, ErrNotFitted
	}
	x, err := p.Preprocessor.Transform(row)
	if err != nil {
		return nil, err
	}
	return p.Classifier.PredictProba(x)
}

// PredictAll predicts every row, returning labels and class-1 probabilities.
func (p *Pipeline) PredictAll(rows []pipeline.Features) ([]int, []float64, error) {
	labels := make([]int, len(rows))
	scores := make([]float64, len(rows))
	for i, row := range rows {
		proba, err := p.PredictProba(row)
		if err != nil {
			return nil, nil, err
		}
		labels[i] = labelFromProba(proba)
		scores[i] = proba[1]
	}
	return labels, scores, nil
}
