package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"StockForecaster/internal/model"
	"StockForecaster/internal/pipeline"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder_RecordRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	rec, err := NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	defer rec.Close()

	run := &RunRecord{
		StartedAt:      time.Unix(1700000000, 0),
		InputPath:      "stock_data.csv",
		SequenceLength: 50,
		Status:         StatusOK,
		Duration:       1500 * time.Millisecond,
	}
	run.FillResult(&pipeline.Result{
		RunID:        "run-1",
		Observations: 80,
		Examples:     30,
		PriceStats:   model.Stats{Mean: 103.95, Std: 2.3},
		Losses:       []float64{0.9, 0.1},
		Forecast:     model.Forecast{108.1, 108.2, 108.3},
	})
	require.NoError(t, rec.RecordRun(run))

	var (
		status    string
		examples  int
		finalLoss float64
		duration  int64
	)
	row := rec.db.QueryRow(`SELECT status, examples, final_loss, duration_ms FROM forecast_runs WHERE run_id = ?`, "run-1")
	require.NoError(t, row.Scan(&status, &examples, &finalLoss, &duration))
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, 30, examples)
	assert.InDelta(t, 0.1, finalLoss, 1e-12)
	assert.Equal(t, int64(1500), duration)

	var count int
	var last float64
	require.NoError(t, rec.db.QueryRow(`SELECT COUNT(*), MAX(value) FROM forecast_points WHERE run_id = ?`, "run-1").Scan(&count, &last))
	assert.Equal(t, 3, count)
	assert.InDelta(t, 108.3, last, 1e-12)

	// Duplicate run ids are rejected and leave no partial points behind.
	assert.Error(t, rec.RecordRun(run))
	require.NoError(t, rec.db.QueryRow(`SELECT COUNT(*) FROM forecast_points`).Scan(&count))
	assert.Equal(t, 3, count)
}

func TestSQLiteRecorder_FailedRunAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	rec, err := NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, rec.RecordRun(&RunRecord{RunID: "bad", Status: StatusFailed, ErrorMsg: "degenerate series"}))
	require.NoError(t, rec.Close())

	// Migrations are idempotent.
	rec, err = NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	defer rec.Close()

	var msg string
	require.NoError(t, rec.db.QueryRow(`SELECT error FROM forecast_runs WHERE run_id = 'bad'`).Scan(&msg))
	assert.Equal(t, "degenerate series", msg)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(&RunRecord{}))
	assert.NoError(t, r.Close())
}
