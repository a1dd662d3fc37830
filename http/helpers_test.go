package http

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"rainpredict/config"
	"rainpredict/db"
	"rainpredict/ml"
	"rainpredict/monitoring"
	"rainpredict/pipeline"
)

const rainyJSON = `{"TANGGAL":"14-12-2025","TN":22,"TX":27,"TAVG":24.5,"RH_AVG":92,"SS":0.5,"FF_X":4,"DDD_X":90,"FF_AVG":2,"DDD_CAR":"N"}`

func trainingRows() ([]pipeline.Features, []int) {
	var rows []pipeline.Features
	var labels []int
	for i := 0; i < 6; i++ {
		f := float64(i)
		rows = append(rows,
			pipeline.Features{TN: 22 + f*0.3, TX: 27 + f*0.2, TAVG: 24.5, RHAvg: 92 + f*0.5, SS: 0.5 + f*0.2,
				FFX: 4, DDDX: 90, FFAvg: 2, Month: 1 + f, Day: 10, DDDCar: "N"},
			pipeline.Features{TN: 22 + f*0.3, TX: 33 + f*0.2, TAVG: 27.5, RHAvg: 65 + f*0.5, SS: 8 + f*0.2,
				FFX: 4, DDDX: 90, FFAvg: 2, Month: 1 + f, Day: 10, DDDCar: "S"},
		)
		labels = append(labels, 1, 0)
	}
	return rows, labels
}

type testEnv struct {
	handler http.Handler
	metrics *monitoring.Metrics
	store   *db.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

// newTestEnvWith lets a test alter the fitted pipeline before it is served.
func newTestEnvWith(t *testing.T, alter func(*ml.Pipeline)) *testEnv {
	t.Helper()
	trainer, err := ml.NewTrainer(config.ModelConfig{
		Name:      ml.DecisionTreeName,
		Params:    map[string]interface{}{"random_state": 1},
		StorePath: t.TempDir(),
		Seed:      42,
		Version:   2,
	})
	if err != nil {
		t.Fatalf("build trainer: %v", err)
	}
	rows, labels := trainingRows()
	if err := trainer.Train(pipeline.Frame(rows), labels); err != nil {
		t.Fatalf("train: %v", err)
	}
	if alter != nil {
		alter(trainer.Pipeline())
	}
	predictor, err := ml.NewPredictor(trainer.Pipeline())
	if err != nil {
		t.Fatalf("predictor: %v", err)
	}

	store, err := db.Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	metrics, reg := monitoring.NewMetricsForTesting()
	handler := NewRouter(DefaultServerConfig(), Deps{
		Predictor: predictor,
		Store:     store,
		Metrics:   metrics,
		Gatherer:  reg,
		Logger:    zap.NewNop(),
		Labels:    map[int]string{0: "No Rain", 1: "Rain"},
	})
	return &testEnv{handler: handler, metrics: metrics, store: store}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}
