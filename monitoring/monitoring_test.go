package monitoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainpredict/config"
)

func TestMetrics_Observe(t *testing.T) {
	m, reg := NewMetricsForTesting()

	m.ObservePrediction("api", 1, 0.002)
	m.ObservePrediction("api", 1, 0.001)
	m.ObservePrediction("ws", 0, 0.001)
	m.ObserveError("api", "date")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Predictions.WithLabelValues("api", "1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues("ws", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionErrors.WithLabelValues("api", "date")))

	n, err := testutil.GatherAndCount(reg, "rainpredict_prediction_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetrics_SetModel(t *testing.T) {
	m, _ := NewMetricsForTesting()
	m.SetModel("RandomForestClassifier", 1, 1)
	m.SetModel("GradientBoostingClassifier", 2, 1)

	assert.Equal(t, 1, testutil.CollectAndCount(m.ModelInfo))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelInfo.WithLabelValues("GradientBoostingClassifier", "2", "1")))
}

func TestNewLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "rainpredict.log")
	logger, err := NewLogger(config.LogConfig{Level: "debug", Format: "console", File: file, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("model loaded")
	_ = logger.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"model loaded"`)

	_, err = NewLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
