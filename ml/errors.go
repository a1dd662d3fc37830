package ml

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFitted is returned when predicting with an untrained model.
var ErrNotFitted = errors.New("model not trained")

// ErrArtifactMismatch is returned when a persisted pipeline was built for a
// different feature schema than the running code.
var ErrArtifactMismatch = errors.New("model artifact does not match feature schema")

// ConfigError reports an unusable pipeline configuration.
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func unknownClassifier(name string) *ConfigError {
	return &ConfigError{
		Field:  "model.name",
		Value:  name,
		Reason: "supported classifiers are " + strings.Join(SupportedClassifiers(), ", "),
	}
}

// FitError reports training data the pipeline cannot be fitted on.
type FitError struct {
	Reason string
	Err    error
}

func (e *FitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fit failed: %s: %v", e.Reason, e.Err)
	}
	return "fit failed: " + e.Reason
}

func (e *FitError) Unwrap() error {
	return e.Err
}
