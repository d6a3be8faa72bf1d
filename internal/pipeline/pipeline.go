package pipeline

import (
	"context"
	"fmt"
	"time"

	"StockForecaster/internal/calculator"
	"StockForecaster/internal/model"
	"StockForecaster/internal/rnn"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Trainer fits a model to a windowed dataset.
type Trainer interface {
	Fit(ctx context.Context, ds *model.Dataset, epochs int) (model.Predictor, error)
}

// Options are the run parameters that are not part of the network itself.
type Options struct {
	SequenceLength int
	NumEpochs      int
	NumPredictions int
}

// Result is everything one run produced.
type Result struct {
	RunID        string
	Observations int
	Examples     int
	PriceStats   model.Stats
	VolumeStats  model.Stats
	Losses       []float64
	// Forecast is in price units, day 1 first.
	Forecast      model.Forecast
	TrainDuration time.Duration
	Duration      time.Duration
}

// FinalLoss returns the mean loss of the last epoch, or 0 when none ran.
func (r *Result) FinalLoss() float64 {
	if len(r.Losses) == 0 {
		return 0
	}
	return r.Losses[len(r.Losses)-1]
}

// Pipeline runs normalize → window → fit → forecast → denormalize.
type Pipeline struct {
	Trainer Trainer
	Opts    Options
	Log     zerolog.Logger
}

// New creates a new Pipeline.
func New(trainer Trainer, opts Options, log zerolog.Logger) *Pipeline {
	return &Pipeline{Trainer: trainer, Opts: opts, Log: log.With().Str("component", "pipeline").Logger()}
}

// Run forecasts the continuation of series. Prices are normalized in place.
func (p *Pipeline) Run(ctx context.Context, series *model.Series) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Observations: series.Len()}
	log := p.Log.With().Str("run_id", res.RunID).Logger()

	// A series too short to window is insufficient even when it is also constant.
	if n, l := series.Len(), p.Opts.SequenceLength; l > 0 && n <= l {
		return res, fmt.Errorf("check series: %w: %d observations, window length %d", calculator.ErrInsufficientData, n, l)
	}

	priceStats, err := calculator.Normalize(series.Prices)
	if err != nil {
		return res, fmt.Errorf("normalize prices: %w", err)
	}
	res.PriceStats = priceStats

	// Volumes are summarized only; the model sees prices alone.
	if volStats, err := calculator.MeanStd(series.Volumes); err == nil {
		res.VolumeStats = volStats
	}
	log.Info().
		Int("observations", res.Observations).
		Float64("price_mean", priceStats.Mean).
		Float64("price_std", priceStats.Std).
		Float64("volume_mean", res.VolumeStats.Mean).
		Float64("volume_std", res.VolumeStats.Std).
		Msg("series normalized")

	ds, err := calculator.Windows(series.Prices, p.Opts.SequenceLength)
	if err != nil {
		return res, fmt.Errorf("window series: %w", err)
	}
	res.Examples = ds.Len()

	trainStart := time.Now()
	predictor, err := p.Trainer.Fit(ctx, ds, p.Opts.NumEpochs)
	res.TrainDuration = time.Since(trainStart)
	if err != nil {
		return res, fmt.Errorf("fit model: %w", err)
	}
	res.Losses = predictor.LossHistory()

	seed, err := calculator.LastWindow(series.Prices, p.Opts.SequenceLength)
	if err != nil {
		return res, fmt.Errorf("seed window: %w", err)
	}
	forecast, err := predictor.Forecast(seed, p.Opts.NumPredictions)
	if err != nil {
		return res, fmt.Errorf("forecast: %w", err)
	}
	forecast.Denormalize(priceStats)
	if !forecast.Finite() {
		return res, fmt.Errorf("forecast: %w: non-finite value in %d predictions", rnn.ErrTraining, len(forecast))
	}
	res.Forecast = forecast
	res.Duration = time.Since(start)

	log.Info().
		Int("examples", res.Examples).
		Float64("final_loss", res.FinalLoss()).
		Int("horizon", len(forecast)).
		Dur("elapsed", res.Duration).
		Msg("forecast ready")
	return res, nil
}
