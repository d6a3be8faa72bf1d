package collector

import "StockForecaster/internal/model"

// Source defines the interface for loading a price/volume series.
type Source interface {
	Load() (*model.Series, error)
	Name() string
}
