package collector

import (
	"fmt"

	"StockForecaster/internal/model"

	"github.com/rs/zerolog"
)

// MockSource returns controllable synthetic data for development and testing.
// Explicit Prices/Volumes win over the generated ramp.
type MockSource struct {
	Base    float64
	Step    float64
	Count   int
	Volume  float64
	Prices  []float64
	Volumes []float64
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Load() (*model.Series, error) {
	if m.Prices != nil {
		volumes := m.Volumes
		if volumes == nil {
			volumes = constant(m.Volume, len(m.Prices))
		}
		return &model.Series{
			Prices:  append([]float64(nil), m.Prices...),
			Volumes: append([]float64(nil), volumes...),
		}, nil
	}
	return generateMockSeries(m.Base, m.Step, m.Volume, m.Count), nil
}

// generateMockSeries builds a monotonic price ramp with constant volume.
func generateMockSeries(base, step, volume float64, count int) *model.Series {
	s := &model.Series{
		Prices:  make([]float64, count),
		Volumes: constant(volume, count),
	}
	for i := 0; i < count; i++ {
		s.Prices[i] = base + float64(i)*step
	}
	return s
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Collector loads a series from its Source and checks its shape.
type Collector struct {
	Source Source
	Log    zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(source Source, log zerolog.Logger) *Collector {
	return &Collector{Source: source, Log: log.With().Str("component", "collector").Logger()}
}

// Collect loads the series. An empty series is returned as-is; later stages
// report it as insufficient data.
func (c *Collector) Collect() (*model.Series, error) {
	series, err := c.Source.Load()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.Source.Name(), err)
	}
	if len(series.Prices) != len(series.Volumes) {
		return nil, fmt.Errorf("load %s: %d prices but %d volumes", c.Source.Name(), len(series.Prices), len(series.Volumes))
	}
	c.Log.Info().
		Str("source", c.Source.Name()).
		Int("observations", series.Len()).
		Msg("series loaded")
	return series, nil
}
