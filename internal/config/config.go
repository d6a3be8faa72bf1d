package config

import (
	"errors"
	"fmt"
	"os"

	"StockForecaster/internal/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. FORECAST_NUM_EPOCHS.
const EnvPrefix = "FORECAST"

// Config holds all application configuration.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Model    ModelConfig    `yaml:"model"`
	Output   OutputConfig   `yaml:"output"`
	Log      logger.Config  `yaml:"log"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InputConfig describes the price file.
type InputConfig struct {
	Path            string `yaml:"path" default:"stock_data.csv" validate:"required"`
	SkipInvalidRows bool   `yaml:"skip_invalid_rows"`
}

// ModelConfig holds the network shape and training parameters.
type ModelConfig struct {
	SequenceLength int     `yaml:"sequence_length" default:"50" validate:"gt=0"`
	HiddenSize     int     `yaml:"hidden_size" default:"10" validate:"gt=0"`
	NumLayers      int     `yaml:"num_layers" default:"1" validate:"gt=0"`
	NumEpochs      int     `yaml:"num_epochs" default:"100" validate:"gt=0"`
	NumPredictions int     `yaml:"num_predictions" default:"30" validate:"gt=0"`
	BatchSize      int     `yaml:"batch_size" default:"32" validate:"gt=0"`
	LearningRate   float64 `yaml:"learning_rate" default:"0.01" validate:"gt=0"`
	Optimizer      string  `yaml:"optimizer" default:"adam" validate:"oneof=adam sgd"`

	// Pointers so an explicit 0 (no clipping, seed 0) survives defaults.
	ClipNorm *float64 `yaml:"clip_norm" default:"5" validate:"omitnil,gte=0"`
	Seed     *uint64  `yaml:"seed" default:"42"`
}

// OutputConfig controls how forecast values are printed.
type OutputConfig struct {
	Precision *int32 `yaml:"precision" default:"4" validate:"omitnil,gte=0,lte=12"`
}

// ScheduleConfig enables repeated runs. An empty cron means run once.
type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

// DatabaseConfig enables the run-history recorder when SQLitePath is set.
type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// MetricsConfig enables the Prometheus textfile export when TextfilePath is set.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"`
}

// envOverrides lists the variables read by envconfig. Pointer fields stay nil
// when the variable is unset so file values survive.
type envOverrides struct {
	DataFile        *string `envconfig:"DATA_FILE"`
	SequenceLength  *int    `envconfig:"SEQUENCE_LENGTH"`
	HiddenSize      *int    `envconfig:"HIDDEN_SIZE"`
	NumLayers       *int    `envconfig:"NUM_LAYERS"`
	NumEpochs       *int    `envconfig:"NUM_EPOCHS"`
	NumPredictions  *int    `envconfig:"NUM_PREDICTIONS"`
	LogLevel        *string `envconfig:"LOG_LEVEL"`
	Cron            *string `envconfig:"CRON"`
	SQLitePath      *string `envconfig:"SQLITE_PATH"`
	MetricsTextfile *string `envconfig:"METRICS_TEXTFILE"`
}

var validate = validator.New()

// ClipNormValue returns the clipping threshold; 0 disables clipping.
func (m ModelConfig) ClipNormValue() float64 {
	if m.ClipNorm == nil {
		return 0
	}
	return *m.ClipNorm
}

// SeedValue returns the initialization seed.
func (m ModelConfig) SeedValue() uint64 {
	if m.Seed == nil {
		return 0
	}
	return *m.Seed
}

// PrecisionValue returns the number of decimal places printed.
func (o OutputConfig) PrecisionValue() int32 {
	if o.Precision == nil {
		return 0
	}
	return *o.Precision
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("read env overrides: %w", err)
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return err
	}
	if env.DataFile != nil {
		c.Input.Path = *env.DataFile
	}
	if env.SequenceLength != nil {
		c.Model.SequenceLength = *env.SequenceLength
	}
	if env.HiddenSize != nil {
		c.Model.HiddenSize = *env.HiddenSize
	}
	if env.NumLayers != nil {
		c.Model.NumLayers = *env.NumLayers
	}
	if env.NumEpochs != nil {
		c.Model.NumEpochs = *env.NumEpochs
	}
	if env.NumPredictions != nil {
		c.Model.NumPredictions = *env.NumPredictions
	}
	if env.LogLevel != nil {
		c.Log.Level = *env.LogLevel
	}
	if env.Cron != nil {
		c.Schedule.Cron = *env.Cron
	}
	if env.SQLitePath != nil {
		c.Database.SQLitePath = *env.SQLitePath
	}
	if env.MetricsTextfile != nil {
		c.Metrics.TextfilePath = *env.MetricsTextfile
	}
	return nil
}

// Validate checks field constraints declared in the struct tags.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		return fmt.Errorf("%s must satisfy %s, got %v", fe.Namespace(), rule, fe.Value())
	}
	return err
}
