package report

import (
	"fmt"
	"io"
	"strings"

	"StockForecaster/internal/model"
	"StockForecaster/internal/pipeline"

	"github.com/shopspring/decimal"
)

// FormatForecast renders one "Predicted price for day k: v" line per step,
// k starting at 1, each value rounded to precision decimal places.
func FormatForecast(f model.Forecast, precision int32) string {
	var b strings.Builder
	for i, v := range f {
		b.WriteString(fmt.Sprintf("Predicted price for day %d: %s\n", i+1, decimal.NewFromFloat(v).StringFixed(precision)))
	}
	return b.String()
}

// FormatSummary is a one-line description of a finished run for logs.
func FormatSummary(res *pipeline.Result, precision int32) string {
	if len(res.Forecast) == 0 {
		return fmt.Sprintf("run %s: no forecast", res.RunID)
	}
	first := decimal.NewFromFloat(res.Forecast[0])
	last := decimal.NewFromFloat(res.Forecast[len(res.Forecast)-1])
	change := last.Sub(first)
	return fmt.Sprintf("run %s: %d observations, %d examples, day 1 %s, day %d %s (%s)",
		res.RunID, res.Observations, res.Examples,
		first.StringFixed(precision), len(res.Forecast), last.StringFixed(precision),
		signed(change, precision))
}

func signed(d decimal.Decimal, precision int32) string {
	s := d.StringFixed(precision)
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// WriteForecast writes the forecast lines to w.
func WriteForecast(w io.Writer, f model.Forecast, precision int32) error {
	_, err := io.WriteString(w, FormatForecast(f, precision))
	return err
}
