package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"rainpredict/pipeline"
)

// ArtifactFile is the file name of a persisted pipeline inside the model
// store directory.
const ArtifactFile = "model.json"

// FormatVersion identifies the artifact envelope layout.
const FormatVersion = 1

type artifact struct {
	FormatVersion int             `json:"format_version"`
	Metadata      Metadata        `json:"metadata"`
	Preprocessor  *Preprocessor   `json:"preprocessor"`
	Sampler       *SMOTE          `json:"sampler,omitempty"`
	Classifier    json.RawMessage `json:"classifier"`
}

// ArtifactPath returns where SavePipeline writes inside dir.
func ArtifactPath(dir string) string {
	return filepath.Join(dir, ArtifactFile)
}

// SavePipeline writes a fitted pipeline to dir/model.json. The file is
// written to a temporary name and renamed so readers never observe a
// partial artifact.
func SavePipeline(dir string, p *Pipeline) (string, error) {
	if p == nil || !p.Fitted() {
		return "", ErrNotFitted
	}
	classifier, err := json.Marshal(p.Classifier)
	if err != nil {
		return "", fmt.Errorf("encode classifier: %w", err)
	}
	payload, err := json.Marshal(artifact{
		FormatVersion: FormatVersion,
		Metadata:      p.Meta,
		Preprocessor:  p.Preprocessor,
		Sampler:       p.Sampler,
		Classifier:    classifier,
	})
	if err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := ArtifactPath(dir)
	tmp, err := os.CreateTemp(dir, ArtifactFile+".*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// LoadPipeline reads an artifact written by SavePipeline. Artifacts built
// for another feature schema fail with ErrArtifactMismatch.
func LoadPipeline(path string) (*Pipeline, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if a.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: format version %d, want %d", ErrArtifactMismatch, a.FormatVersion, FormatVersion)
	}
	if a.Metadata.SchemaVersion != pipeline.SchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d, want %d", ErrArtifactMismatch, a.Metadata.SchemaVersion, pipeline.SchemaVersion)
	}
	if !slices.Equal(a.Metadata.Features, pipeline.FeatureNames()) {
		return nil, fmt.Errorf("%w: features %v", ErrArtifactMismatch, a.Metadata.Features)
	}
	if a.Preprocessor == nil {
		return nil, fmt.Errorf("%w: missing preprocessor", ErrArtifactMismatch)
	}
	if err := a.Preprocessor.checkFitted(); err != nil {
		return nil, fmt.Errorf("%w: preprocessor: %v", ErrArtifactMismatch, err)
	}

	classifier, err := decodeClassifier(a.Metadata.ModelName, a.Classifier)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Meta:         a.Metadata,
		Preprocessor: a.Preprocessor,
		Sampler:      a.Sampler,
		Classifier:   classifier,
		fitted:       true,
	}, nil
}

func decodeClassifier(name string, raw json.RawMessage) (Classifier, error) {
	var c Classifier
	switch name {
	case DecisionTreeName:
		c = &DecisionTree{}
	case RandomForestName:
		c = &RandomForest{}
	case GradientBoostingName:
		c = &GradientBoosting{}
	default:
		return nil, fmt.Errorf("%w: unknown classifier %q", ErrArtifactMismatch, name)
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return c, nil
}

// WatchArtifact logs a warning whenever the artifact at path is replaced.
// A running server keeps the pipeline it loaded at startup, so a restart is
// needed to pick up the new one. It blocks until ctx is done.
func WatchArtifact(ctx context.Context, path string, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				logger.Warn("model artifact changed on disk, restart to serve it",
					zap.String("path", path),
					zap.String("op", event.Op.String()))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}
