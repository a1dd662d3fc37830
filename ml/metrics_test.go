package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestROCAUC(t *testing.T) {
	auc, err := ROCAUC([]int{0, 0, 1, 1}, []float64{0.1, 0.4, 0.35, 0.8})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, auc, 1e-12)

	auc, err = ROCAUC([]int{0, 1, 0, 1}, []float64{0.5, 0.5, 0.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, auc, 1e-12)

	auc, err = ROCAUC([]int{1, 0}, []float64{0.9, 0.1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, auc)

	_, err = ROCAUC([]int{1, 1}, []float64{0.2, 0.3})
	assert.Error(t, err)
	_, err = ROCAUC([]int{1, 0}, []float64{0.2})
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	report := Report([]int{0, 0, 1, 1}, []int{0, 1, 1, 1})

	assert.Equal(t, []int{0, 1}, report.Classes)
	assert.Equal(t, 0.75, report.Accuracy)

	c0 := report.PerClass[0]
	assert.Equal(t, 1.0, c0.Precision)
	assert.Equal(t, 0.5, c0.Recall)
	assert.InDelta(t, 2.0/3, c0.F1, 1e-12)
	assert.Equal(t, 2, c0.Support)

	c1 := report.PerClass[1]
	assert.InDelta(t, 2.0/3, c1.Precision, 1e-12)
	assert.Equal(t, 1.0, c1.Recall)
	assert.InDelta(t, 0.8, c1.F1, 1e-12)

	assert.InDelta(t, 0.75, report.MacroAvg.Recall, 1e-12)
	assert.Equal(t, 4, report.WeightedAvg.Support)

	text := report.String()
	assert.Contains(t, text, "precision")
	assert.Contains(t, text, "weighted avg")
}

func TestReport_ZeroDivision(t *testing.T) {
	report := Report([]int{0, 0}, []int{0, 1})
	assert.Equal(t, 0.0, report.PerClass[1].Precision)
	assert.Equal(t, 0.0, report.PerClass[1].Recall)
	assert.Equal(t, 0, report.PerClass[1].Support)
}
