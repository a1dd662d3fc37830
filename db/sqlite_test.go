package db

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit", "rainpredict.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestTrainingLog(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordTraining(ctx, TrainingRun{
		RunID: "run-1", ModelName: "RandomForestClassifier", ModelVersion: 1,
		Accuracy: 0.82, ROCAUC: 0.88, Precision: 0.7, Recall: 0.65,
		DataPoints: 800, ArtifactPath: "models/model.json", TrainedAt: first,
	}))
	require.NoError(t, store.RecordTraining(ctx, TrainingRun{
		RunID: "run-2", ModelName: "GradientBoostingClassifier", ModelVersion: 2,
		Accuracy: 0.9, ROCAUC: math.NaN(), DataPoints: 800, TrainedAt: first.Add(time.Hour),
	}))

	runs, err := store.LoadTrainingLog(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, 0.0, runs[0].ROCAUC)
	assert.Equal(t, "run-1", runs[1].RunID)
	assert.Equal(t, 0.88, runs[1].ROCAUC)
	assert.Equal(t, 800, runs[1].DataPoints)
	assert.True(t, runs[1].TrainedAt.Equal(first))

	// run ids are unique
	err = store.RecordTraining(ctx, TrainingRun{RunID: "run-1", ModelName: "x", TrainedAt: first})
	assert.Error(t, err)
}

func TestPredictions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i, label := range []int{1, 0, 1} {
		require.NoError(t, store.RecordPrediction(ctx, PredictionLog{
			RequestID:    "req",
			Source:       "api",
			Tanggal:      "14-12-2025",
			Label:        label,
			Probability:  0.5 + float64(i)/10,
			ModelVersion: 1,
		}))
	}

	counts, err := store.CountPredictions(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 1, 1: 2}, counts)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rainpredict.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordPrediction(context.Background(), PredictionLog{Source: "ws", Tanggal: "01-01-2025", Label: 0}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()
	counts, err := store.CountPredictions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[0])
}
