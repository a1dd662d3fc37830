package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"rainpredict/config"
	"rainpredict/db"
	qhttp "rainpredict/http"
	"rainpredict/ml"
	"rainpredict/monitoring"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := monitoring.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// 2. Load the trained pipeline once; it is read-only from here on
	predictor, err := ml.LoadPredictor(cfg.Model.StorePath)
	if err != nil {
		logger.Fatal("failed to load model", zap.String("store_path", cfg.Model.StorePath), zap.Error(err))
	}
	meta := predictor.Metadata()
	logger.Info("model loaded",
		zap.String("model", meta.ModelName),
		zap.String("id", meta.ID),
		zap.Int("model_version", meta.ModelVersion),
		zap.Time("trained_at", meta.TrainedAt))

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	metrics.SetModel(meta.ModelName, meta.ModelVersion, meta.SchemaVersion)

	// 3. Optional prediction audit store
	var store *db.Store
	if cfg.Database.Path != "" {
		store, err = db.Open(cfg.Database.Path)
		if err != nil {
			logger.Fatal("failed to open database", zap.String("path", cfg.Database.Path), zap.Error(err))
		}
		defer store.Close()
		logger.Info("database initialized", zap.String("path", cfg.Database.Path))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		path := ml.ArtifactPath(cfg.Model.StorePath)
		if err := ml.WatchArtifact(ctx, path, logger); err != nil {
			logger.Warn("artifact watcher stopped", zap.Error(err))
		}
	}()

	// 4. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, qhttp.Deps{
		Predictor: predictor,
		Store:     store,
		Metrics:   metrics,
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    logger,
		Labels:    cfg.UI.Labels,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Handle graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}
	logger.Info("shutting down")

	if err := server.Stop(context.Background()); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}
