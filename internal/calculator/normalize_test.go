package calculator

import (
	"math"
	"testing"

	"StockForecaster/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanStd_Population(t *testing.T) {
	s, err := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.0, s.Std, 1e-12)
}

func TestMeanStd_Empty(t *testing.T) {
	_, err := MeanStd(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMeanStd_SingleValue(t *testing.T) {
	s, err := MeanStd([]float64{42})
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Mean: 42, Std: 0}, s)
}

func TestNormalize_ZeroMeanUnitStd(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
	}{
		{"ramp", []float64{100, 100.1, 100.2, 100.3, 100.4, 100.5}},
		{"noisy", []float64{101.3, 99.8, 102.7, 98.1, 100.0, 103.4, 97.6}},
		{"large scale", []float64{1e6, 2e6, 1.5e6, 3e6}},
		{"two points", []float64{-1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xs := append([]float64(nil), tt.series...)
			_, err := Normalize(xs)
			require.NoError(t, err)

			s, err := MeanStd(xs)
			require.NoError(t, err)
			assert.InDelta(t, 0.0, s.Mean, 1e-9)
			assert.InDelta(t, 1.0, s.Std, 1e-9)
		})
	}
}

func TestNormalize_Constant(t *testing.T) {
	xs := []float64{100, 100, 100, 100, 100}
	_, err := Normalize(xs)
	require.ErrorIs(t, err, ErrDegenerateSeries)
	for _, x := range xs {
		assert.False(t, math.IsNaN(x) || math.IsInf(x, 0))
		assert.Equal(t, 100.0, x, "series must be left untouched")
	}
}

func TestNormalize_SingleValue(t *testing.T) {
	_, err := Normalize([]float64{42})
	assert.ErrorIs(t, err, ErrDegenerateSeries)
}

func TestStats_RoundTrip(t *testing.T) {
	s := model.Stats{Mean: 103.95, Std: 2.3087}
	for _, x := range []float64{-3, -0.5, 0, 0.25, 1, 7.5, 150.0} {
		assert.InDelta(t, x, s.Normalize(s.Denormalize(x)), 1e-9)
		assert.InDelta(t, x, s.Denormalize(s.Normalize(x)), 1e-9)
	}
}

func TestNormalize_InvertibleWithReturnedStats(t *testing.T) {
	raw := []float64{10.5, 11.25, 9.75, 12.0, 10.0}
	xs := append([]float64(nil), raw...)
	s, err := Normalize(xs)
	require.NoError(t, err)

	f := model.Forecast(xs)
	f.Denormalize(s)
	assert.InDeltaSlice(t, raw, []float64(f), 1e-9)
}
