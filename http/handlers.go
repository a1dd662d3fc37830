package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"rainpredict/db"
	"rainpredict/ml"
	"rainpredict/pipeline"
)

const (
	msgDateFormat = "TANGGAL must use the DD-MM-YYYY format"
	msgInternal   = "prediction failed, please try again later"

	sourceAPI = "api"
	sourceUI  = "ui"
	sourceWS  = "ws"
)

type handler struct {
	deps Deps
}

type healthResponse struct {
	HealthCheck  string `json:"health_check"`
	ModelVersion int    `json:"model_version"`
}

type predictResponse struct {
	PredictedClass int `json:"predicted_class"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// predictRequest mirrors pipeline.Record with pointers so absent fields can
// be told apart from zero values.
type predictRequest struct {
	TANGGAL *string  `json:"TANGGAL"`
	TN      *float64 `json:"TN"`
	TX      *float64 `json:"TX"`
	TAVG    *float64 `json:"TAVG"`
	RHAvg   *float64 `json:"RH_AVG"`
	SS      *float64 `json:"SS"`
	FFX     *float64 `json:"FF_X"`
	DDDX    *float64 `json:"DDD_X"`
	FFAvg   *float64 `json:"FF_AVG"`
	DDDCar  *string  `json:"DDD_CAR"`
}

// record validates presence of every field and returns the serving record.
func (req predictRequest) record() (pipeline.Record, error) {
	var missing []string
	str := func(name string, v *string) string {
		if v == nil {
			missing = append(missing, name)
			return ""
		}
		return *v
	}
	num := func(name string, v *float64) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return *v
	}
	rec := pipeline.Record{
		TANGGAL: str(pipeline.ColDate, req.TANGGAL),
		TN:      num(pipeline.ColTN, req.TN),
		TX:      num(pipeline.ColTX, req.TX),
		TAVG:    num(pipeline.ColTAVG, req.TAVG),
		RHAvg:   num(pipeline.ColRHAvg, req.RHAvg),
		SS:      num(pipeline.ColSS, req.SS),
		FFX:     num(pipeline.ColFFX, req.FFX),
		DDDX:    num(pipeline.ColDDDX, req.DDDX),
		FFAvg:   num(pipeline.ColFFAvg, req.FFAvg),
		DDDCar:  str(pipeline.ColDDDCar, req.DDDCar),
	}
	if len(missing) > 0 {
		return pipeline.Record{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return rec, nil
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		HealthCheck:  "OK",
		ModelVersion: h.deps.Predictor.Metadata().ModelVersion,
	})
}

func (h *handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.observeError(sourceAPI, "decode")
		respondDetail(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	rec, err := req.record()
	if err != nil {
		h.observeError(sourceAPI, "decode")
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	prediction, err := h.predict(r.Context(), sourceAPI, rec)
	if err != nil {
		var dateErr *pipeline.DateFormatError
		if errors.As(err, &dateErr) {
			respondDetail(w, http.StatusBadRequest, msgDateFormat)
			return
		}
		respondDetail(w, http.StatusInternalServerError, msgInternal)
		return
	}
	respondJSON(w, http.StatusOK, predictResponse{PredictedClass: prediction.Class})
}

// predict runs one record through the shared predictor and records metrics
// and the optional audit row. It is the single path used by every front-end.
func (h *handler) predict(ctx context.Context, source string, rec pipeline.Record) (ml.Prediction, error) {
	logger := h.deps.Logger.With(
		zap.String("source", source),
		zap.String("request_id", GetRequestID(ctx)))

	start := time.Now()
	prediction, err := h.deps.Predictor.Predict(rec)
	elapsed := time.Since(start)
	if err != nil {
		var dateErr *pipeline.DateFormatError
		if errors.As(err, &dateErr) {
			h.observeError(source, "date")
			logger.Debug("rejected record", zap.String("tanggal", rec.TANGGAL))
			return ml.Prediction{}, err
		}
		h.observeError(source, "internal")
		logger.Error("prediction failed", zap.Error(err))
		return ml.Prediction{}, err
	}

	if h.deps.Metrics != nil {
		h.deps.Metrics.ObservePrediction(source, prediction.Class, elapsed.Seconds())
	}
	if h.deps.Store != nil {
		meta := h.deps.Predictor.Metadata()
		audit := db.PredictionLog{
			RequestID:    GetRequestID(ctx),
			Source:       source,
			Tanggal:      rec.TANGGAL,
			Label:        prediction.Class,
			Probability:  prediction.Probabilities[prediction.Class],
			ModelVersion: meta.ModelVersion,
		}
		if err := h.deps.Store.RecordPrediction(ctx, audit); err != nil {
			logger.Warn("failed to record prediction", zap.Error(err))
		}
	}
	logger.Debug("prediction served",
		zap.Int("class", prediction.Class),
		zap.Duration("elapsed", elapsed))
	return prediction, nil
}

func (h *handler) observeError(source, kind string) {
	if h.deps.Metrics != nil {
		h.deps.Metrics.ObserveError(source, kind)
	}
}

func (h *handler) label(class int) string {
	if name, ok := h.deps.Labels[class]; ok {
		return name
	}
	return fmt.Sprintf("Class %d", class)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode JSON", zap.Error(err))
	}
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, detailResponse{Detail: detail})
}
