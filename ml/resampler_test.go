package ml

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMOTE_BalancesClasses(t *testing.T) {
	x := [][]float64{
		{0, 0}, {0, 1}, {1, 0}, {1, 1}, {0.5, 0.5}, {0.2, 0.8}, {0.8, 0.2}, {0.4, 0.6},
		{5, 5}, {6, 5}, {5, 7},
	}
	y := []int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1}

	seed := int64(11)
	outX, outY, err := NewSMOTE(&seed).Resample(x, y)
	require.NoError(t, err)

	counts := classCounts(outY)
	assert.Equal(t, 8, counts[0])
	assert.Equal(t, 8, counts[1])
	assert.Equal(t, x, outX[:len(x)])

	for _, row := range outX[len(x):] {
		assert.GreaterOrEqual(t, row[0], 5.0)
		assert.LessOrEqual(t, row[0], 6.0)
		assert.GreaterOrEqual(t, row[1], 5.0)
		assert.LessOrEqual(t, row[1], 7.0)
	}
}

func TestSMOTE_BalancedInputUnchanged(t *testing.T) {
	x := [][]float64{{0}, {1}}
	y := []int{0, 1}
	outX, outY, err := NewSMOTE(nil).Resample(x, y)
	require.NoError(t, err)
	assert.Equal(t, x, outX)
	assert.Equal(t, y, outY)
}

func TestSMOTE_SingleMinoritySampleDuplicated(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {9}}
	y := []int{0, 0, 0, 1}
	seed := int64(1)
	outX, outY, err := NewSMOTE(&seed).Resample(x, y)
	require.NoError(t, err)

	require.Len(t, outX, 6)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, outY)
	assert.Equal(t, []float64{9}, outX[4])
	assert.Equal(t, []float64{9}, outX[5])
}

func TestSMOTE_OneClass(t *testing.T) {
	_, _, err := NewSMOTE(nil).Resample([][]float64{{0}, {1}}, []int{1, 1})
	var fitErr *FitError
	assert.True(t, errors.As(err, &fitErr))
}
