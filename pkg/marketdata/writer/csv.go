package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// CSVWriter buffers bars in an in-memory DuckDB table and exports them as
// an ordered, de-duplicated CSV on Finalize. The output file plugs
// straight into the backtest data directory.
type CSVWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
}

// NewCSVWriter creates a writer targeting <dataDir>/<SYMBOL>.csv.
func NewCSVWriter(dataDir string, symbol string) MarketDataWriter {
	return &CSVWriter{
		outputPath: filepath.Join(dataDir, strings.ToUpper(symbol)+".csv"),
	}
}

// Initialize opens the staging database and prepares the insert.
func (w *CSVWriter) Initialize() (err error) {
	if err := os.MkdirAll(filepath.Dir(w.outputPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create data directory", err)
	}

	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to open staging database", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			time TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		_ = w.db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create staging table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		_ = w.db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO market_data (time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = w.tx.Rollback()
		_ = w.db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to prepare insert", err)
	}

	return nil
}

// Write stages one bar.
func (w *CSVWriter) Write(data types.MarketData) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeWriteFailed, "writer is not initialized")
	}

	_, err := w.stmt.Exec(data.Time, data.Open, data.High, data.Low, data.Close, data.Volume)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to stage bar", err)
	}

	return nil
}

// Finalize commits the staged bars and exports the ordered CSV. Duplicate
// timestamps from overlapping download pages collapse to one row.
func (w *CSVWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeWriteFailed, "writer is not initialized")
	}

	if w.stmt != nil {
		_ = w.stmt.Close()
		w.stmt = nil
	}

	if err := w.tx.Commit(); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit staged bars", err)
	}

	w.tx = nil

	escapedPath := strings.ReplaceAll(w.outputPath, "'", "''")

	query := fmt.Sprintf(`
		COPY (
			SELECT DISTINCT ON (time) time, open, high, low, close, volume
			FROM market_data
			ORDER BY time ASC
		) TO '%s' (FORMAT CSV, HEADER)
	`, escapedPath)

	if _, err := w.db.Exec(query); err != nil {
		return "", errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to export %s", w.outputPath)
	}

	return w.outputPath, nil
}

// Close releases the staging database.
func (w *CSVWriter) Close() error {
	if w.stmt != nil {
		_ = w.stmt.Close()
	}

	if w.tx != nil {
		_ = w.tx.Rollback()
	}

	if w.db != nil {
		return w.db.Close()
	}

	return nil
}

// GetOutputPath returns the target CSV path.
func (w *CSVWriter) GetOutputPath() string {
	return w.outputPath
}
