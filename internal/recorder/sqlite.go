package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while a scheduled run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL UNIQUE,
			timestamp       INTEGER NOT NULL,
			input_path      TEXT,
			sequence_length INTEGER,
			hidden_size     INTEGER,
			num_layers      INTEGER,
			num_epochs      INTEGER,
			num_predictions INTEGER,
			observations    INTEGER,
			examples        INTEGER,
			price_mean      REAL,
			price_std       REAL,
			volume_mean     REAL,
			volume_std      REAL,
			final_loss      REAL,
			duration_ms     INTEGER,
			status          TEXT NOT NULL,
			error           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON forecast_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS forecast_points (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			day    INTEGER NOT NULL,
			value  REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_points_run ON forecast_points(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts the run and its forecast points in one transaction.
func (r *SQLiteRecorder) RecordRun(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO forecast_runs
		(run_id, timestamp, input_path,
		 sequence_length, hidden_size, num_layers, num_epochs, num_predictions,
		 observations, examples, price_mean, price_std, volume_mean, volume_std,
		 final_loss, duration_ms, status, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.RunID, rec.StartedAt.Unix(), rec.InputPath,
		rec.SequenceLength, rec.HiddenSize, rec.NumLayers, rec.NumEpochs, rec.NumPredictions,
		rec.Observations, rec.Examples, rec.PriceMean, rec.PriceStd, rec.VolumeMean, rec.VolumeStd,
		rec.FinalLoss, rec.Duration.Milliseconds(), rec.Status, rec.ErrorMsg,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, v := range rec.Forecast {
		if _, err := tx.Exec(`INSERT INTO forecast_points (run_id, day, value) VALUES (?,?,?)`,
			rec.RunID, i+1, v); err != nil {
			return fmt.Errorf("insert point %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
