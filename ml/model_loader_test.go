package ml

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"rainpredict/pipeline"
)

func trainedPipeline(t *testing.T, name string, params map[string]interface{}, dir string) *Trainer {
	t.Helper()
	rows, labels := balancedRows()
	trainer, err := NewTrainer(modelConfig(name, params, dir))
	require.NoError(t, err)
	require.NoError(t, trainer.Train(pipeline.Frame(rows), labels))
	return trainer
}

func TestSaveLoadPipeline(t *testing.T) {
	for _, name := range SupportedClassifiers() {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			trainer := trainedPipeline(t, name, map[string]interface{}{"random_state": 3}, dir)
			path, err := trainer.Save()
			require.NoError(t, err)
			assert.Equal(t, ArtifactPath(dir), path)

			loaded, err := LoadPipeline(path)
			require.NoError(t, err)
			assert.True(t, loaded.Fitted())
			assert.Equal(t, trainer.Pipeline().Meta.ID, loaded.Meta.ID)
			assert.Equal(t, name, loaded.Classifier.Name())

			rows, _ := balancedRows()
			for _, row := range rows {
				want, err := trainer.Pipeline().PredictProba(row)
				require.NoError(t, err)
				got, err := loaded.PredictProba(row)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}

			predictor, err := LoadPredictor(dir)
			require.NoError(t, err)
			assert.Equal(t, name, predictor.Metadata().ModelName)
		})
	}
}

func rewriteArtifact(t *testing.T, path string, edit func(map[string]interface{})) {
	t.Helper()
	payload, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &doc))
	edit(doc)
	payload, err = json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, payload, 0o644))
}

func TestLoadPipeline_Mismatch(t *testing.T) {
	tests := []struct {
		name string
		edit func(map[string]interface{})
	}{
		{"features", func(doc map[string]interface{}) {
			doc["metadata"].(map[string]interface{})["features"] = []string{"TN", "TX"}
		}},
		{"schema version", func(doc map[string]interface{}) {
			doc["metadata"].(map[string]interface{})["schema_version"] = 99
		}},
		{"format version", func(doc map[string]interface{}) {
			doc["format_version"] = 0
		}},
		{"classifier", func(doc map[string]interface{}) {
			doc["metadata"].(map[string]interface{})["model_name"] = "SVC"
		}},
		{"preprocessor", func(doc map[string]interface{}) {
			delete(doc, "preprocessor")
		}},
		{"short medians", func(doc map[string]interface{}) {
			doc["preprocessor"].(map[string]interface{})["medians"] = []float64{1, 2}
		}},
		{"short scales", func(doc map[string]interface{}) {
			pre := doc["preprocessor"].(map[string]interface{})
			pre["scales"] = pre["scales"].([]interface{})[1:]
		}},
		{"missing modes", func(doc map[string]interface{}) {
			delete(doc["preprocessor"].(map[string]interface{}), "modes")
		}},
		{"extra category list", func(doc map[string]interface{}) {
			pre := doc["preprocessor"].(map[string]interface{})
			pre["categories"] = append(pre["categories"].([]interface{}), []string{"N"})
		}},
		{"renamed column", func(doc map[string]interface{}) {
			doc["preprocessor"].(map[string]interface{})["numeric_columns"] = []string{"TN"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path, err := trainedPipeline(t, DecisionTreeName, nil, dir).Save()
			require.NoError(t, err)
			rewriteArtifact(t, path, tt.edit)

			_, err = LoadPipeline(path)
			assert.ErrorIs(t, err, ErrArtifactMismatch)
		})
	}
}

func TestLoadPipeline_Missing(t *testing.T) {
	_, err := LoadPredictor(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), ArtifactFile)
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = LoadPipeline(path)
	assert.Error(t, err)
}

func TestWatchArtifact(t *testing.T) {
	dir := t.TempDir()
	trainer := trainedPipeline(t, DecisionTreeName, nil, dir)
	path, err := trainer.Save()
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchArtifact(ctx, path, zap.New(core)) }()

	// the watcher may not be registered yet, so keep replacing the artifact
	require.Eventually(t, func() bool {
		if _, err := trainer.Save(); err != nil {
			return false
		}
		return logs.FilterMessageSnippet("artifact changed").Len() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
