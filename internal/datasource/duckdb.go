package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantframe-lab/quantframe/internal/logger"
	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// timeColumns are the accepted names for the bar timestamp column.
var timeColumns = []string{"time", "date", "timestamp", "datetime"}

// requiredColumns are the price columns every CSV must carry.
var requiredColumns = []string{"open", "high", "low", "close", "volume"}

// DuckDBDataSource loads one asset's CSV into a DuckDB view and serves
// queries against it.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	symbol string
}

// NewDataSource creates an in-memory DuckDB data source.
func NewDataSource(log *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceFailed, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		symbol: "",
	}, nil
}

// Initialize implements DataSource. It inspects the CSV header, maps the
// column names case-insensitively onto the canonical OHLCV schema, and
// creates a market_data view that drops incomplete rows and orders by time.
func (d *DuckDBDataSource) Initialize(path string, symbol string) error {
	d.logger.Debug("Initializing DuckDB data source",
		zap.String("path", path),
		zap.String("symbol", symbol),
	)

	escapedPath := strings.ReplaceAll(path, "'", "''")

	columns, err := d.describeCSV(escapedPath)
	if err != nil {
		return err
	}

	mapping, err := resolveColumns(columns)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMissingColumn, err, "csv %s", path)
	}

	// Drop any previous view so the source can be reused across assets.
	if _, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceFailed, "failed to drop existing view", err)
	}

	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT
			CAST(%s AS TIMESTAMP) AS time,
			CAST(%s AS DOUBLE) AS open,
			CAST(%s AS DOUBLE) AS high,
			CAST(%s AS DOUBLE) AS low,
			CAST(%s AS DOUBLE) AS close,
			CAST(%s AS DOUBLE) AS volume
		FROM read_csv_auto('%s')
		WHERE %s IS NOT NULL
			AND %s IS NOT NULL AND %s IS NOT NULL
			AND %s IS NOT NULL AND %s IS NOT NULL
			AND %s IS NOT NULL
		ORDER BY time ASC;
	`,
		mapping["time"], mapping["open"], mapping["high"],
		mapping["low"], mapping["close"], mapping["volume"],
		escapedPath,
		mapping["time"],
		mapping["open"], mapping["high"],
		mapping["low"], mapping["close"],
		mapping["volume"],
	)

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceFailed, err, "failed to load csv %s", path)
	}

	d.symbol = symbol

	return nil
}

// describeCSV returns the header column names of the CSV file.
func (d *DuckDBDataSource) describeCSV(escapedPath string) ([]string, error) {
	rows, err := d.db.Query(fmt.Sprintf(`DESCRIBE SELECT * FROM read_csv_auto('%s')`, escapedPath))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceFailed, "failed to describe csv", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceFailed, "failed to read describe output", err)
	}

	var names []string

	scan := make([]any, len(cols))

	for rows.Next() {
		var name string

		scan[0] = &name
		for i := 1; i < len(cols); i++ {
			scan[i] = new(sql.RawBytes)
		}

		if err := rows.Scan(scan...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataSourceFailed, "failed to scan describe row", err)
		}

		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceFailed, "failed to iterate describe rows", err)
	}

	return names, nil
}

// resolveColumns maps canonical column names to the quoted CSV header
// names, matching case-insensitively.
func resolveColumns(columns []string) (map[string]string, error) {
	byLower := make(map[string]string, len(columns))
	for _, col := range columns {
		byLower[strings.ToLower(strings.TrimSpace(col))] = quoteIdent(col)
	}

	mapping := make(map[string]string)

	for _, candidate := range timeColumns {
		if quoted, ok := byLower[candidate]; ok {
			mapping["time"] = quoted

			break
		}
	}

	if _, ok := mapping["time"]; !ok {
		return nil, fmt.Errorf("no timestamp column found (accepted: %s)", strings.Join(timeColumns, ", "))
	}

	var missing []string

	for _, name := range requiredColumns {
		if quoted, ok := byLower[name]; ok {
			mapping[name] = quoted
		} else {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return mapping, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool) {
	return func(yield func(types.MarketData, error) bool) {
		query := `SELECT time, open, high, low, close, volume FROM market_data`

		var conditions []string

		var params []interface{}

		if start.IsSome() {
			conditions = append(conditions, fmt.Sprintf("time >= $%d", len(params)+1))
			params = append(params, start.Unwrap())
		}

		if end.IsSome() {
			conditions = append(conditions, fmt.Sprintf("time <= $%d", len(params)+1))
			params = append(params, end.Unwrap())
		}

		if len(conditions) > 0 {
			query += " WHERE " + strings.Join(conditions, " AND ")
		}

		query += " ORDER BY time ASC"

		rows, err := d.db.Query(query, params...)
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read bars", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			data, err := d.scanBar(rows)
			if err != nil {
				yield(types.MarketData{}, err)

				return
			}

			if !yield(data, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bars", err))
		}
	}
}

// GetRange implements DataSource.
func (d *DuckDBDataSource) GetRange(start time.Time, end time.Time) ([]types.MarketData, error) {
	rows, err := d.db.Query(
		`SELECT time, open, high, low, close, volume FROM market_data
		 WHERE time >= $1 AND time <= $2 ORDER BY time ASC`,
		start, end,
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query range", err)
	}
	defer rows.Close()

	return d.collectBars(rows)
}

// GetPreviousNumberOfDataPoints implements DataSource. The window ends at
// currentTime inclusive and is returned oldest-first.
func (d *DuckDBDataSource) GetPreviousNumberOfDataPoints(currentTime time.Time, symbol string, count int) ([]types.MarketData, error) {
	if count <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "count must be positive, got %d", count)
	}

	rows, err := d.db.Query(
		`SELECT time, open, high, low, close, volume FROM (
			SELECT * FROM market_data WHERE time <= $1 ORDER BY time DESC LIMIT $2
		 ) ORDER BY time ASC`,
		currentTime, count,
	)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query window for %s", symbol)
	}
	defer rows.Close()

	return d.collectBars(rows)
}

// ReadLastData implements DataSource.
func (d *DuckDBDataSource) ReadLastData(symbol string) (types.MarketData, error) {
	return d.readEdge(symbol, "DESC")
}

// ReadFirstData implements DataSource.
func (d *DuckDBDataSource) ReadFirstData(symbol string) (types.MarketData, error) {
	return d.readEdge(symbol, "ASC")
}

func (d *DuckDBDataSource) readEdge(symbol string, order string) (types.MarketData, error) {
	row := d.db.QueryRow(
		fmt.Sprintf(`SELECT time, open, high, low, close, volume FROM market_data ORDER BY time %s LIMIT 1`, order),
	)

	var data types.MarketData

	err := row.Scan(&data.Time, &data.Open, &data.High, &data.Low, &data.Close, &data.Volume)
	if err == sql.ErrNoRows {
		return types.MarketData{}, errors.Newf(errors.ErrCodeDataNotFound, "no data for symbol %s", symbol)
	}

	if err != nil {
		return types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read bar", err)
	}

	data.Symbol = d.symbol

	return data, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query := d.sq.Select("COUNT(*)").From("market_data")

	if start.IsSome() {
		query = query.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		query = query.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	var count int
	if err := query.RunWith(d.db).QueryRow().Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Symbol implements DataSource.
func (d *DuckDBDataSource) Symbol() string {
	return d.symbol
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

func (d *DuckDBDataSource) scanBar(rows *sql.Rows) (types.MarketData, error) {
	var data types.MarketData

	err := rows.Scan(&data.Time, &data.Open, &data.High, &data.Low, &data.Close, &data.Volume)
	if err != nil {
		return types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
	}

	data.Symbol = d.symbol

	return data, nil
}

func (d *DuckDBDataSource) collectBars(rows *sql.Rows) ([]types.MarketData, error) {
	var bars []types.MarketData

	for rows.Next() {
		data, err := d.scanBar(rows)
		if err != nil {
			return nil, err
		}

		bars = append(bars, data)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bars", err)
	}

	return bars, nil
}
