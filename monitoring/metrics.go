package monitoring

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the serving process.
type Metrics struct {
	Predictions        *prometheus.CounterVec   // labels: source={api,ui,ws}, class={0,1}
	PredictionErrors   *prometheus.CounterVec   // labels: source, kind={date,decode,internal}
	PredictionDuration *prometheus.HistogramVec // labels: source
	ModelInfo          *prometheus.GaugeVec     // labels: model, version, schema
	WSConnections      prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainpredict",
			Name:      "predictions_total",
			Help:      "Predictions served by front-end and predicted class.",
		}, []string{"source", "class"}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainpredict",
			Name:      "prediction_errors_total",
			Help:      "Rejected or failed prediction requests by front-end and kind.",
		}, []string{"source", "kind"}),
		PredictionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rainpredict",
			Name:      "prediction_duration_seconds",
			Help:      "Time spent inside the pipeline for one prediction.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"source"}),
		ModelInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rainpredict",
			Name:      "model_info",
			Help:      "Always 1; labels describe the loaded model artifact.",
		}, []string{"model", "version", "schema"}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainpredict",
			Name:      "ws_connections",
			Help:      "Open websocket prediction connections.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Predictions,
		m.PredictionErrors,
		m.PredictionDuration,
		m.ModelInfo,
		m.WSConnections,
	}
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry so tests can
// build as many servers as they like.
func NewMetricsForTesting() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewMetrics(reg), reg
}

// SetModel publishes the loaded artifact's identity.
func (m *Metrics) SetModel(name string, version, schema int) {
	m.ModelInfo.Reset()
	m.ModelInfo.WithLabelValues(name, strconv.Itoa(version), strconv.Itoa(schema)).Set(1)
}

func (m *Metrics) ObservePrediction(source string, class int, seconds float64) {
	m.Predictions.WithLabelValues(source, strconv.Itoa(class)).Inc()
	m.PredictionDuration.WithLabelValues(source).Observe(seconds)
}

func (m *Metrics) ObserveError(source, kind string) {
	m.PredictionErrors.WithLabelValues(source, kind).Inc()
}
