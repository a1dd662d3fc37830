package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the sqlite audit database shared by the trainer CLI and the
// serving process.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	database, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	// one writer at a time
	database.SetMaxOpenConns(1)

	s := &Store{db: database}
	if err := s.createTables(); err != nil {
		database.Close()
		return nil, fmt.Errorf("create tables failed: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	query := `
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL UNIQUE,
        model_name VARCHAR(50) NOT NULL,
        model_version INTEGER NOT NULL,
        accuracy REAL,
        roc_auc REAL,
        precision REAL,
        recall REAL,
        data_points INTEGER,
        artifact_path TEXT,
        trained_at DATETIME NOT NULL
    );
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT,
        source VARCHAR(20) NOT NULL,
        tanggal TEXT NOT NULL,
        predicted_label INTEGER NOT NULL,
        probability REAL,
        model_version INTEGER,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
    `
	_, err := s.db.Exec(query)
	return err
}

// TrainingRun is one row of training_log.
type TrainingRun struct {
	RunID        string    `json:"run_id"`
	ModelName    string    `json:"model_name"`
	ModelVersion int       `json:"model_version"`
	Accuracy     float64   `json:"accuracy"`
	ROCAUC       float64   `json:"roc_auc"`
	Precision    float64   `json:"precision"`
	Recall       float64   `json:"recall"`
	DataPoints   int       `json:"data_points"`
	ArtifactPath string    `json:"artifact_path"`
	TrainedAt    time.Time `json:"trained_at"`
}

func (s *Store) RecordTraining(ctx context.Context, run TrainingRun) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO training_log (
            run_id, model_name, model_version, accuracy, roc_auc,
            precision, recall, data_points, artifact_path, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.ModelName, run.ModelVersion, nullable(run.Accuracy), nullable(run.ROCAUC),
		nullable(run.Precision), nullable(run.Recall), run.DataPoints, run.ArtifactPath, run.TrainedAt.UTC())
	return err
}

// LoadTrainingLog returns recorded runs, newest first.
func (s *Store) LoadTrainingLog(ctx context.Context) ([]TrainingRun, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT run_id, model_name, model_version, accuracy, roc_auc,
               precision, recall, data_points, artifact_path, trained_at
        FROM training_log
        ORDER BY trained_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]TrainingRun, 0)
	for rows.Next() {
		var run TrainingRun
		var accuracy, auc, precision, recall sql.NullFloat64
		if err := rows.Scan(&run.RunID, &run.ModelName, &run.ModelVersion, &accuracy, &auc,
			&precision, &recall, &run.DataPoints, &run.ArtifactPath, &run.TrainedAt); err != nil {
			return nil, err
		}
		run.Accuracy = accuracy.Float64
		run.ROCAUC = auc.Float64
		run.Precision = precision.Float64
		run.Recall = recall.Float64
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// PredictionLog is one served prediction.
type PredictionLog struct {
	RequestID    string
	Source       string
	Tanggal      string
	Label        int
	Probability  float64
	ModelVersion int
	CreatedAt    time.Time
}

func (s *Store) RecordPrediction(ctx context.Context, p PredictionLog) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO predictions (
            request_id, source, tanggal, predicted_label, probability, model_version, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.RequestID, p.Source, p.Tanggal, p.Label, nullable(p.Probability), p.ModelVersion, p.CreatedAt.UTC())
	return err
}

// CountPredictions returns how many predictions were served per label.
func (s *Store) CountPredictions(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT predicted_label, COUNT(*) FROM predictions GROUP BY predicted_label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var label, n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}
	return counts, rows.Err()
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// nullable stores NaN metrics as NULL.
func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}
