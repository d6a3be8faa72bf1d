package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"StockForecaster/internal/calculator"
	"StockForecaster/internal/collector"
	"StockForecaster/internal/config"
	"StockForecaster/internal/logger"
	"StockForecaster/internal/metrics"
	"StockForecaster/internal/pipeline"
	"StockForecaster/internal/recorder"
	"StockForecaster/internal/rnn"
	"StockForecaster/internal/scheduler"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Exit codes by error class.
const (
	exitOK = iota
	exitConfig
	exitIngestion
	exitDegenerate
	exitInsufficient
	exitTraining
)

func main() {
	os.Exit(run())
}

func run() int {
	boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// .env is optional.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "config file path (default $CONFIG_PATH or configs/config.yaml)")
	dataPath := flag.String("data", "", "price file, overrides input.path")
	demo := flag.Bool("demo", false, "forecast a synthetic price ramp instead of reading a file")
	flag.Parse()

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			cfgPath = v
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot.Error().Err(err).Msg("load config")
		return exitConfig
	}
	if *dataPath != "" {
		cfg.Input.Path = *dataPath
	} else if flag.NArg() > 0 {
		cfg.Input.Path = flag.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		boot.Error().Err(err).Msg("config validation")
		return exitConfig
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		boot.Error().Err(err).Msg("init logger")
		return exitConfig
	}
	log.Info().Str("config", cfgPath).Msg("StockForecaster starting")

	var src collector.Source
	if *demo {
		src = &collector.MockSource{Base: 100, Step: 0.1, Count: cfg.Model.SequenceLength + 30, Volume: 5000}
	} else {
		src = collector.NewFileSource(cfg.Input.Path, cfg.Input.SkipInvalidRows, log)
	}
	log.Info().Str("source", src.Name()).Msg("data source")
	col := collector.NewCollector(src, log)

	trainer := rnn.NewTrainer(rnn.Config{
		HiddenSize:   cfg.Model.HiddenSize,
		NumLayers:    cfg.Model.NumLayers,
		BatchSize:    cfg.Model.BatchSize,
		LearningRate: cfg.Model.LearningRate,
		Optimizer:    cfg.Model.Optimizer,
		ClipNorm:     cfg.Model.ClipNormValue(),
		Seed:         cfg.Model.SeedValue(),
	}, log)
	pipe := pipeline.New(trainer, pipeline.Options{
		SequenceLength: cfg.Model.SequenceLength,
		NumEpochs:      cfg.Model.NumEpochs,
		NumPredictions: cfg.Model.NumPredictions,
	}, log)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, col, pipe, rec, metrics.New(cfg.Metrics.TextfilePath), os.Stdout,
		scheduler.RunParams{
			InputPath:      src.Name(),
			SequenceLength: cfg.Model.SequenceLength,
			HiddenSize:     cfg.Model.HiddenSize,
			NumLayers:      cfg.Model.NumLayers,
			NumEpochs:      cfg.Model.NumEpochs,
			NumPredictions: cfg.Model.NumPredictions,
			Precision:      cfg.Output.PrecisionValue(),
		}, log)

	if cfg.Schedule.Cron == "" {
		if err := sched.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("forecast failed")
			return exitCode(err)
		}
		return exitOK
	}

	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Error().Err(err).Msg("register cron task")
		return exitConfig
	}
	sched.Start()
	log.Info().Str("cron", cfg.Schedule.Cron).Msg("StockForecaster is running. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")
	sched.Stop()
	log.Info().Msg("StockForecaster stopped")
	return exitOK
}

// exitCode maps an error to the exit status of its class.
func exitCode(err error) int {
	var ierr *collector.IngestionError
	switch {
	case errors.As(err, &ierr):
		return exitIngestion
	case errors.Is(err, calculator.ErrDegenerateSeries):
		return exitDegenerate
	case errors.Is(err, calculator.ErrInsufficientData):
		return exitInsufficient
	case errors.Is(err, rnn.ErrTraining):
		return exitTraining
	default:
		return exitConfig
	}
}
