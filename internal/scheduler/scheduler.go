package scheduler

import (
	"context"
	"fmt"
	"io"
	"time"

	"StockForecaster/internal/collector"
	"StockForecaster/internal/metrics"
	"StockForecaster/internal/pipeline"
	"StockForecaster/internal/recorder"
	"StockForecaster/internal/report"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// RunParams are the settings copied into every run record.
type RunParams struct {
	InputPath      string
	SequenceLength int
	HiddenSize     int
	NumLayers      int
	NumEpochs      int
	NumPredictions int
	Precision      int32
}

// Scheduler runs the forecast job once or on a cron schedule. Every run
// ingests the file again and trains a fresh model.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Pipeline  *pipeline.Pipeline
	Recorder  recorder.Recorder
	Metrics   *metrics.Recorder
	Out       io.Writer
	Params    RunParams
	Log       zerolog.Logger
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, p *pipeline.Pipeline, rec recorder.Recorder,
	m *metrics.Recorder, out io.Writer, params RunParams, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Pipeline:  p,
		Recorder:  rec,
		Metrics:   m,
		Out:       out,
		Params:    params,
		Log:       log.With().Str("component", "scheduler").Logger(),
		Ctx:       ctx,
	}
}

// Register schedules the forecast job.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.scheduledRun); err != nil {
		return fmt.Errorf("register forecast task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) scheduledRun() {
	if err := s.RunOnce(s.Ctx); err != nil {
		s.Log.Error().Err(err).Msg("scheduled run failed")
	}
}

// RunOnce collects the series, runs the pipeline, prints the forecast and
// records the outcome. Recording failures are logged, not returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	rec := &recorder.RunRecord{
		StartedAt:      start,
		InputPath:      s.Params.InputPath,
		SequenceLength: s.Params.SequenceLength,
		HiddenSize:     s.Params.HiddenSize,
		NumLayers:      s.Params.NumLayers,
		NumEpochs:      s.Params.NumEpochs,
		NumPredictions: s.Params.NumPredictions,
	}

	res, err := s.run(ctx)
	rec.FillResult(res)
	rec.Duration = time.Since(start)
	if err != nil {
		rec.Status = recorder.StatusFailed
		rec.ErrorMsg = err.Error()
	} else {
		rec.Status = recorder.StatusOK
	}
	s.record(rec)
	return err
}

func (s *Scheduler) run(ctx context.Context) (*pipeline.Result, error) {
	series, err := s.Collector.Collect()
	if err != nil {
		return nil, err
	}
	res, err := s.Pipeline.Run(ctx, series)
	if err != nil {
		return res, err
	}
	if err := report.WriteForecast(s.Out, res.Forecast, s.Params.Precision); err != nil {
		return res, fmt.Errorf("write forecast: %w", err)
	}
	s.Log.Info().Msg(report.FormatSummary(res, s.Params.Precision))
	return res, nil
}

func (s *Scheduler) record(rec *recorder.RunRecord) {
	if rec.RunID == "" {
		// Failed before the pipeline assigned an id.
		rec.RunID = uuid.NewString()
	}
	if err := s.Recorder.RecordRun(rec); err != nil {
		s.Log.Error().Err(err).Msg("record run")
	}

	if s.Metrics == nil {
		return
	}
	s.Metrics.RecordRun(rec.Status, rec.Duration.Seconds())
	if rec.Status == recorder.StatusOK {
		s.Metrics.RecordSuccess(float64(time.Now().Unix()), rec.FinalLoss, rec.Examples, rec.Forecast)
	}
	if err := s.Metrics.Flush(); err != nil {
		s.Log.Error().Err(err).Msg("write metrics textfile")
	}
}
