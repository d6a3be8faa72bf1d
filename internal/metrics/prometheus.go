package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder tracks forecast runs in a private Prometheus registry. A batch job
// has no scrape endpoint, so the registry is flushed to a node-exporter
// textfile after each run.
type Recorder struct {
	registry     *prometheus.Registry
	textfilePath string

	runsTotal     *prometheus.CounterVec
	lastDuration  prometheus.Gauge
	lastSuccess   prometheus.Gauge
	finalLoss     prometheus.Gauge
	examples      prometheus.Gauge
	forecastPrice *prometheus.GaugeVec
}

// New creates a metrics recorder. An empty textfilePath disables Flush.
func New(textfilePath string) *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry:     reg,
		textfilePath: textfilePath,
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecast_runs_total",
				Help: "Total number of forecast runs by outcome",
			},
			[]string{"status"},
		),
		lastDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: "forecast_last_run_duration_seconds",
			Help: "Wall time of the most recent run",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "forecast_last_success_timestamp_seconds",
			Help: "Unix time of the most recent successful run",
		}),
		finalLoss: f.NewGauge(prometheus.GaugeOpts{
			Name: "forecast_training_loss",
			Help: "Mean training loss of the last epoch of the most recent run",
		}),
		examples: f.NewGauge(prometheus.GaugeOpts{
			Name: "forecast_training_examples",
			Help: "Number of windowed training examples in the most recent run",
		}),
		forecastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "forecast_predicted_price",
				Help: "Predicted price by forecast day",
			},
			[]string{"day"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// RecordRun records the outcome of one run.
func (r *Recorder) RecordRun(status string, seconds float64) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.lastDuration.Set(seconds)
}

// RecordSuccess records the training and forecast figures of a successful run.
func (r *Recorder) RecordSuccess(unixTime float64, finalLoss float64, examples int, forecast []float64) {
	r.lastSuccess.Set(unixTime)
	r.finalLoss.Set(finalLoss)
	r.examples.Set(float64(examples))
	r.forecastPrice.Reset()
	for i, v := range forecast {
		r.forecastPrice.WithLabelValues(strconv.Itoa(i + 1)).Set(v)
	}
}

// Flush writes the registry to the textfile, if one is configured.
func (r *Recorder) Flush() error {
	if r.textfilePath == "" {
		return nil
	}
	return prometheus.WriteToTextfile(r.textfilePath, r.registry)
}
