package recorder

import (
	"time"

	"StockForecaster/internal/pipeline"
)

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// RunRecord holds everything persisted about one forecast run.
type RunRecord struct {
	RunID     string
	StartedAt time.Time
	InputPath string

	SequenceLength int
	HiddenSize     int
	NumLayers      int
	NumEpochs      int
	NumPredictions int

	Observations int
	Examples     int
	PriceMean    float64
	PriceStd     float64
	VolumeMean   float64
	VolumeStd    float64
	FinalLoss    float64
	Duration     time.Duration

	Status   string
	ErrorMsg string
	Forecast []float64
}

// FillResult copies the outcome of a pipeline run into the record.
// A nil result leaves the record unchanged.
func (r *RunRecord) FillResult(res *pipeline.Result) {
	if res == nil {
		return
	}
	r.RunID = res.RunID
	r.Observations = res.Observations
	r.Examples = res.Examples
	r.PriceMean, r.PriceStd = res.PriceStats.Mean, res.PriceStats.Std
	r.VolumeMean, r.VolumeStd = res.VolumeStats.Mean, res.VolumeStats.Std
	r.FinalLoss = res.FinalLoss()
	r.Forecast = append([]float64(nil), res.Forecast...)
}

// Recorder persists run history for later analysis. It is append-only.
type Recorder interface {
	RecordRun(rec *RunRecord) error
	Close() error
}
