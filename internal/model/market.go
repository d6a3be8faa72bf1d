package model

import "math"

// Series holds the two parallel sequences read from the input file.
// Index i of Prices and Volumes belong to the same observation.
type Series struct {
	Prices  []float64
	Volumes []float64
}

// Len returns the number of observations.
func (s *Series) Len() int { return len(s.Prices) }

// Stats holds the z-score parameters of a series.
type Stats struct {
	Mean float64
	Std  float64
}

// Normalize maps a raw value into normalized space.
func (s Stats) Normalize(v float64) float64 {
	return (v - s.Mean) / s.Std
}

// Denormalize maps a normalized value back to raw units.
func (s Stats) Denormalize(v float64) float64 {
	return v*s.Std + s.Mean
}

// Dataset is the supervised view of a normalized price series:
// Inputs[i] is series[i:i+L) and Targets[i] is series[i+L].
type Dataset struct {
	Inputs  [][]float64
	Targets []float64
}

// Len returns the number of training examples.
func (d *Dataset) Len() int { return len(d.Targets) }

// WindowLength returns L, or 0 for an empty dataset.
func (d *Dataset) WindowLength() int {
	if len(d.Inputs) == 0 {
		return 0
	}
	return len(d.Inputs[0])
}

// Forecast is an ordered sequence of predicted prices, day 1 first.
type Forecast []float64

// Denormalize rewrites every value in place through s.
func (f Forecast) Denormalize(s Stats) {
	for i, v := range f {
		f[i] = s.Denormalize(v)
	}
}

// Finite reports whether every value is a real number.
func (f Forecast) Finite() bool {
	for _, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Predictor is a trained model operating in normalized space.
type Predictor interface {
	// Forecast extends seed autoregressively by horizon steps.
	Forecast(seed []float64, horizon int) (Forecast, error)
	// LossHistory returns the mean training loss of each epoch.
	LossHistory() []float64
}
