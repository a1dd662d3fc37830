package ml

import (
	"errors"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"rainpredict/config"
	"rainpredict/pipeline"
)

// Trainer fits a pipeline built from model configuration and persists it to
// the configured store.
type Trainer struct {
	cfg      config.ModelConfig
	pipeline *Pipeline
	clock    clockwork.Clock
	logger   *zap.Logger
}

type TrainerOption func(*Trainer)

// WithClock sets the time source used to stamp artifacts.
func WithClock(c clockwork.Clock) TrainerOption {
	return func(t *Trainer) { t.clock = c }
}

func WithLogger(l *zap.Logger) TrainerOption {
	return func(t *Trainer) { t.logger = l }
}

// NewTrainer builds the configured pipeline. Unknown classifiers and
// hyperparameters surface here as *ConfigError.
func NewTrainer(cfg config.ModelConfig, opts ...TrainerOption) (*Trainer, error) {
	p, err := NewBuilder(cfg).Build()
	if err != nil {
		return nil, err
	}
	t := &Trainer{
		cfg:      cfg,
		pipeline: p,
		clock:    clockwork.NewRealClock(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Pipeline returns the pipeline being trained.
func (t *Trainer) Pipeline() *Pipeline {
	return t.pipeline
}

// Train fits the pipeline in place on a feature table and its labels. A
// table missing feature columns fails with a *FitError wrapping the
// *pipeline.SchemaError.
func (t *Trainer) Train(x dataframe.DataFrame, y []int) error {
	rows, err := pipeline.Rows(x)
	if err != nil {
		var schemaErr *pipeline.SchemaError
		if errors.As(err, &schemaErr) {
			return &FitError{Reason: "required feature columns absent", Err: schemaErr}
		}
		return &FitError{Reason: "read features", Err: err}
	}

	start := t.clock.Now()
	if err := t.pipeline.Fit(rows, y); err != nil {
		return err
	}
	t.logger.Info("pipeline trained",
		zap.String("model", t.cfg.Name),
		zap.Int("rows", len(rows)),
		zap.Bool("oversampled", t.pipeline.Meta.Oversampled),
		zap.Duration("elapsed", t.clock.Since(start)))
	return nil
}

// Save stamps the artifact metadata and writes it to the model store,
// returning the artifact path.
func (t *Trainer) Save() (string, error) {
	if !t.pipeline.Fitted() {
		return "", ErrNotFitted
	}
	t.pipeline.Meta.ID = uuid.NewString()
	t.pipeline.Meta.TrainedAt = t.clock.Now().UTC()
	t.pipeline.Meta.ModelVersion = t.cfg.Version

	path, err := SavePipeline(t.cfg.StorePath, t.pipeline)
	if err != nil {
		return "", err
	}
	t.logger.Info("model saved",
		zap.String("path", path),
		zap.String("id", t.pipeline.Meta.ID),
		zap.Int("model_version", t.pipeline.Meta.ModelVersion))
	return path, nil
}
