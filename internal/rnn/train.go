package rnn

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"StockForecaster/internal/model"

	"github.com/rs/zerolog"
)

// ErrTraining marks every failure of the fit or forecast stage.
var ErrTraining = errors.New("training failed")

// Config holds the network shape and training parameters.
type Config struct {
	HiddenSize   int
	NumLayers    int
	BatchSize    int
	LearningRate float64
	Optimizer    string
	ClipNorm     float64
	Seed         uint64
}

// Trainer fits a fresh network to a windowed dataset.
type Trainer struct {
	Config Config
	Log    zerolog.Logger
}

// NewTrainer creates a new Trainer.
func NewTrainer(cfg Config, log zerolog.Logger) *Trainer {
	return &Trainer{Config: cfg, Log: log.With().Str("component", "rnn").Logger()}
}

// Model is a trained network together with the window length it was fit on.
type Model struct {
	Net    *Network
	Window int
	Losses []float64
}

// Fit trains a model and returns it as a model.Predictor.
func (tr *Trainer) Fit(ctx context.Context, ds *model.Dataset, epochs int) (model.Predictor, error) {
	m, err := tr.Train(ctx, ds, epochs)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Train runs epochs passes of mini-batch BPTT over ds in dataset order.
// The context is checked between mini-batches.
func (tr *Trainer) Train(ctx context.Context, ds *model.Dataset, epochs int) (*Model, error) {
	if err := checkDataset(ds); err != nil {
		return nil, err
	}
	if epochs <= 0 {
		return nil, fmt.Errorf("%w: epochs must be positive, got %d", ErrTraining, epochs)
	}
	cfg := tr.Config
	if cfg.HiddenSize <= 0 || cfg.NumLayers <= 0 {
		return nil, fmt.Errorf("%w: invalid shape hidden=%d layers=%d", ErrTraining, cfg.HiddenSize, cfg.NumLayers)
	}
	batch := cfg.BatchSize
	if batch <= 0 || batch > ds.Len() {
		batch = ds.Len()
	}
	opt, err := NewOptimizer(cfg.Optimizer, cfg.LearningRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTraining, err)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	net := NewNetwork(1, cfg.HiddenSize, cfg.NumLayers, rng)
	grads := net.zeroLike()
	params, gparams := net.params(), grads.params()

	tr.Log.Info().
		Int("examples", ds.Len()).
		Int("window", ds.WindowLength()).
		Int("hidden", cfg.HiddenSize).
		Int("layers", cfg.NumLayers).
		Int("epochs", epochs).
		Int("batch", batch).
		Str("optimizer", cfg.Optimizer).
		Msg("training started")

	start := time.Now()
	history := make([]float64, 0, epochs)
	n := ds.Len()
	for epoch := 1; epoch <= epochs; epoch++ {
		total := 0.0
		for lo := 0; lo < n; lo += batch {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: epoch %d: %w", ErrTraining, epoch, err)
			}
			hi := min(lo+batch, n)
			loss := net.batchGradient(ds.Inputs[lo:hi], ds.Targets[lo:hi], grads)
			if math.IsNaN(loss) || math.IsInf(loss, 0) {
				return nil, fmt.Errorf("%w: non-finite loss at epoch %d", ErrTraining, epoch)
			}
			clipGradients(gparams, cfg.ClipNorm)
			opt.Step(params, gparams)
			total += loss * float64(hi-lo)
		}
		mean := total / float64(n)
		history = append(history, mean)
		if epoch%10 == 0 || epoch == epochs {
			tr.Log.Info().Int("epoch", epoch).Float64("loss", mean).Msg("epoch finished")
		} else {
			tr.Log.Debug().Int("epoch", epoch).Float64("loss", mean).Msg("epoch finished")
		}
	}

	tr.Log.Info().
		Dur("elapsed", time.Since(start)).
		Float64("final_loss", history[len(history)-1]).
		Msg("training finished")
	return &Model{Net: net, Window: ds.WindowLength(), Losses: history}, nil
}

func checkDataset(ds *model.Dataset) error {
	if ds == nil || ds.Len() == 0 {
		return fmt.Errorf("%w: empty dataset", ErrTraining)
	}
	if len(ds.Inputs) != len(ds.Targets) {
		return fmt.Errorf("%w: %d inputs but %d targets", ErrTraining, len(ds.Inputs), len(ds.Targets))
	}
	width := ds.WindowLength()
	if width == 0 {
		return fmt.Errorf("%w: zero-length window", ErrTraining)
	}
	for i, x := range ds.Inputs {
		if len(x) != width {
			return fmt.Errorf("%w: example %d has %d steps, want %d", ErrTraining, i, len(x), width)
		}
	}
	return nil
}

// Forecast predicts one step, appends it to the window, drops the oldest
// value and repeats horizon times.
func (m *Model) Forecast(seed []float64, horizon int) (model.Forecast, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", ErrTraining, horizon)
	}
	if len(seed) != m.Window {
		return nil, fmt.Errorf("%w: seed has %d values, model expects %d", ErrTraining, len(seed), m.Window)
	}
	window := append([]float64(nil), seed...)
	out := make(model.Forecast, horizon)
	for k := range out {
		y := m.Net.Predict(window)
		out[k] = y
		copy(window, window[1:])
		window[len(window)-1] = y
	}
	return out, nil
}

// LossHistory returns the mean loss of each epoch.
func (m *Model) LossHistory() []float64 { return m.Losses }
