package calculator

import (
	"errors"
	"fmt"
	"math"

	"StockForecaster/internal/model"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrDegenerateSeries is returned when a series has zero variance.
	ErrDegenerateSeries = errors.New("degenerate series: zero variance")
	// ErrInsufficientData is returned when a series is too short for the requested operation.
	ErrInsufficientData = errors.New("insufficient data")
)

// degenerateTolerance bounds σ relative to |μ| below which a series is treated as constant.
const degenerateTolerance = 1e-12

// MeanStd returns the mean and population standard deviation of xs.
func MeanStd(xs []float64) (model.Stats, error) {
	if len(xs) == 0 {
		return model.Stats{}, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}
	if len(xs) == 1 {
		// gonum reports NaN for one sample; its population spread is zero.
		return model.Stats{Mean: xs[0]}, nil
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	return model.Stats{Mean: mean, Std: std}, nil
}

// Normalize rescales xs in place to zero mean and unit variance and returns
// the parameters needed to invert it. A constant series is rejected and left
// untouched.
func Normalize(xs []float64) (model.Stats, error) {
	s, err := MeanStd(xs)
	if err != nil {
		return model.Stats{}, err
	}
	if isDegenerate(s) {
		return s, fmt.Errorf("%w: mean %g, std %g", ErrDegenerateSeries, s.Mean, s.Std)
	}
	for i, x := range xs {
		xs[i] = s.Normalize(x)
	}
	return s, nil
}

func isDegenerate(s model.Stats) bool {
	if math.IsNaN(s.Std) || math.IsInf(s.Std, 0) {
		return true
	}
	return s.Std <= degenerateTolerance*math.Max(1, math.Abs(s.Mean))
}
