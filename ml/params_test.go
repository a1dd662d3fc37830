package ml

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClassifier_UnknownName(t *testing.T) {
	_, err := NewClassifier("SVC", nil)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "model.name", cfgErr.Field)
	assert.Contains(t, err.Error(), RandomForestName)
}

func TestNewClassifier_Params(t *testing.T) {
	c, err := NewClassifier(RandomForestName, map[string]interface{}{
		"n_estimators": 10,
		"max_depth":    nil,
		"max_features": "log2",
		"bootstrap":    false,
		"random_state": 42,
	})
	require.NoError(t, err)
	rf := c.(*RandomForest)
	assert.Equal(t, 10, rf.NEstimators)
	assert.Equal(t, 0, rf.Params.MaxDepth)
	assert.Equal(t, MaxFeatures{Mode: "log2"}, rf.Params.MaxFeatures)
	assert.False(t, rf.Bootstrap)
	require.NotNil(t, rf.RandomState)
	assert.Equal(t, int64(42), *rf.RandomState)

	c, err = NewClassifier(GradientBoostingName, map[string]interface{}{
		"learning_rate": 0.05,
		"subsample":     0.8,
		"max_depth":     2,
	})
	require.NoError(t, err)
	gb := c.(*GradientBoosting)
	assert.Equal(t, 0.05, gb.LearningRate)
	assert.Equal(t, 0.8, gb.Subsample)
	assert.Equal(t, 2, gb.Params.MaxDepth)

	c, err = NewClassifier(DecisionTreeName, map[string]interface{}{"min_samples_leaf": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 3, c.(*DecisionTree).Params.MinSamplesLeaf)
}

func TestNewClassifier_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		params map[string]interface{}
		field  string
	}{
		{"unknown", RandomForestName, map[string]interface{}{"foo": 1}, "model.params.foo"},
		{"wrong type", RandomForestName, map[string]interface{}{"n_estimators": "ten"}, "model.params.n_estimators"},
		{"fractional int", DecisionTreeName, map[string]interface{}{"max_depth": 2.5}, "model.params.max_depth"},
		{"small split", DecisionTreeName, map[string]interface{}{"min_samples_split": 1}, "model.params.min_samples_split"},
		{"bad max features", DecisionTreeName, map[string]interface{}{"max_features": "auto"}, "model.params.max_features"},
		{"boosting max features", GradientBoostingName, map[string]interface{}{"max_features": "sqrt"}, "model.params.max_features"},
		{"subsample range", GradientBoostingName, map[string]interface{}{"subsample": 1.5}, "model.params.subsample"},
		{"entropy", DecisionTreeName, map[string]interface{}{"criterion": "entropy"}, "model.params.criterion"},
		{"boosting gini", GradientBoostingName, map[string]interface{}{"criterion": "gini"}, "model.params.criterion"},
		{"learning rate", GradientBoostingName, map[string]interface{}{"learning_rate": 0}, "model.params.learning_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClassifier(tt.model, tt.params)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestNewClassifier_Criterion(t *testing.T) {
	_, err := NewClassifier(DecisionTreeName, map[string]interface{}{"criterion": "gini"})
	assert.NoError(t, err)
	_, err = NewClassifier(RandomForestName, map[string]interface{}{"criterion": "gini"})
	assert.NoError(t, err)
	_, err = NewClassifier(GradientBoostingName, map[string]interface{}{"criterion": "friedman_mse"})
	assert.NoError(t, err)

	_, err = NewClassifier(RandomForestName, map[string]interface{}{"criterion": "log_loss"})
	assert.ErrorContains(t, err, "gini")
}
