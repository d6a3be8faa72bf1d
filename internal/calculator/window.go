package calculator

import (
	"errors"
	"fmt"

	"StockForecaster/internal/model"
)

// Windows slides a window of the given length over series and returns one
// example per position: series[i:i+length) predicts series[i+length].
// Inputs are copies, so later changes to series do not leak into the dataset.
func Windows(series []float64, length int) (*model.Dataset, error) {
	if length <= 0 {
		return nil, errors.New("window length must be positive")
	}
	if len(series) <= length {
		return nil, fmt.Errorf("%w: %d observations, window length %d", ErrInsufficientData, len(series), length)
	}
	n := len(series) - length
	ds := &model.Dataset{
		Inputs:  make([][]float64, n),
		Targets: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		ds.Inputs[i] = append([]float64(nil), series[i:i+length]...)
		ds.Targets[i] = series[i+length]
	}
	return ds, nil
}

// LastWindow returns a copy of the final length values of series, the seed
// for forecasting.
func LastWindow(series []float64, length int) ([]float64, error) {
	if length <= 0 {
		return nil, errors.New("window length must be positive")
	}
	if len(series) < length {
		return nil, fmt.Errorf("%w: %d observations, window length %d", ErrInsufficientData, len(series), length)
	}
	return append([]float64(nil), series[len(series)-length:]...), nil
}
