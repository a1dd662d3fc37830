package ml

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"

	"rainpredict/pipeline"
)

// Prediction is the outcome for one serving record.
type Prediction struct {
	Class         int               `json:"predicted_class"`
	Probabilities []float64         `json:"probabilities,omitempty"`
	Features      pipeline.Features `json:"-"`
}

// Predictor serves a loaded pipeline. It never mutates the pipeline, so one
// Predictor can be shared by every request handler.
type Predictor struct {
	pipeline *Pipeline
}

// NewPredictor wraps an already fitted pipeline.
func NewPredictor(p *Pipeline) (*Predictor, error) {
	if p == nil || !p.Fitted() {
		return nil, ErrNotFitted
	}
	return &Predictor{pipeline: p}, nil
}

// LoadPredictor loads the artifact kept in the model store directory.
func LoadPredictor(storePath string) (*Predictor, error) {
	p, err := LoadPipeline(ArtifactPath(storePath))
	if err != nil {
		return nil, err
	}
	return NewPredictor(p)
}

func (p *Predictor) Metadata() Metadata {
	return p.pipeline.Meta
}

// Evaluate scores the pipeline on a feature table and its true labels.
func (p *Predictor) Evaluate(x dataframe.DataFrame, y []int) (Evaluation, error) {
	rows, err := pipeline.Rows(x)
	if err != nil {
		return Evaluation{}, err
	}
	if len(rows) != len(y) {
		return Evaluation{}, fmt.Errorf("%d rows but %d labels", len(rows), len(y))
	}
	truth := make([]int, len(y))
	for i, label := range y {
		if label != 0 {
			truth[i] = 1
		}
	}
	predicted, scores, err := p.pipeline.PredictAll(rows)
	if err != nil {
		return Evaluation{}, err
	}

	eval := Evaluation{
		Accuracy: Accuracy(truth, predicted),
		Report:   Report(truth, predicted),
	}
	eval.ROCAUC, err = ROCAUC(truth, scores)
	if err != nil {
		eval.ROCAUC = math.NaN()
	}
	return eval, nil
}

// Predict derives features from a serving record exactly as training does
// and classifies it. A bad TANGGAL is a *pipeline.DateFormatError.
func (p *Predictor) Predict(record pipeline.Record) (Prediction, error) {
	row, err := pipeline.BuildFeatures(record)
	if err != nil {
		return Prediction{}, err
	}
	return p.PredictFeatures(row)
}

func (p *Predictor) PredictFeatures(row pipeline.Features) (Prediction, error) {
	proba, err := p.pipeline.PredictProba(row)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{
		Class:         labelFromProba(proba),
		Probabilities: proba,
		Features:      row,
	}, nil
}
