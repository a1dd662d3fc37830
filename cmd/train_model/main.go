package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-gota/gota/dataframe"
	"go.uber.org/zap"

	"rainpredict/config"
	"rainpredict/db"
	"rainpredict/ml"
	"rainpredict/monitoring"
	"rainpredict/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config")
	trainPath := flag.String("train", "", "training CSV (overrides data.train_path)")
	testPath := flag.String("test", "", "evaluation CSV (overrides data.test_path)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *trainPath != "" {
		cfg.Data.TrainPath = *trainPath
	}
	if *testPath != "" {
		cfg.Data.TestPath = *testPath
	}

	logger, err := monitoring.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("training failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ingest := pipeline.IngestionConfig{Encoding: cfg.Data.Encoding}

	trainX, trainY, err := loadSplit(cfg.Data.TrainPath, ingest, logger)
	if err != nil {
		return err
	}
	testX, testY, err := loadSplit(cfg.Data.TestPath, ingest, logger)
	if err != nil {
		return err
	}

	trainer, err := ml.NewTrainer(cfg.Model, ml.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := trainer.Train(trainX, trainY); err != nil {
		return err
	}

	predictor, err := ml.NewPredictor(trainer.Pipeline())
	if err != nil {
		return err
	}
	eval, err := predictor.Evaluate(testX, testY)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	fmt.Printf("Accuracy: %.4f\n", eval.Accuracy)
	fmt.Println(eval.Report.String())
	fmt.Printf("ROC AUC: %.4f\n", eval.ROCAUC)

	path, err := trainer.Save()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	fmt.Printf("model saved to %s\n", path)

	if cfg.Database.Path == "" {
		return nil
	}
	store, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	meta := trainer.Pipeline().Meta
	rain := eval.Report.PerClass[1]
	return store.RecordTraining(ctx, db.TrainingRun{
		RunID:        meta.ID,
		ModelName:    meta.ModelName,
		ModelVersion: meta.ModelVersion,
		Accuracy:     eval.Accuracy,
		ROCAUC:       eval.ROCAUC,
		Precision:    rain.Precision,
		Recall:       rain.Recall,
		DataPoints:   meta.TrainingRows,
		ArtifactPath: path,
		TrainedAt:    meta.TrainedAt,
	})
}

func loadSplit(path string, ingest pipeline.IngestionConfig, logger *zap.Logger) (dataframe.DataFrame, []int, error) {
	cleaner := pipeline.NewDataCleaner()
	df, err := pipeline.LoadCleaned(path, ingest, cleaner)
	if err != nil {
		return dataframe.DataFrame{}, nil, err
	}
	stats := cleaner.Stats()
	logger.Info("data cleaned",
		zap.String("path", path),
		zap.Int("rows", stats.Rows),
		zap.Int("invalid_dates", stats.InvalidDates),
		zap.Int("rainy_days", stats.RainyDays),
		zap.Any("sentinels", stats.Sentinels),
		zap.Any("coerced", stats.Coerced))
	return pipeline.SplitFeatureTarget(df)
}
