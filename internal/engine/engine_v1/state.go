package engine

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/quantframe-lab/quantframe/internal/logger"
	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// BacktestState records the orders and trades of one run in an in-memory
// DuckDB database so they can be queried for statistics and exported.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBacktestState creates a state store backed by an in-memory DuckDB.
func NewBacktestState(log *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to open state database", err)
	}

	return &BacktestState{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the order and trade tables.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			quantity DOUBLE,
			price DOUBLE,
			timestamp TIMESTAMP,
			reason TEXT,
			message TEXT,
			strategy_name TEXT,
			fee DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to create orders table", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			order_id TEXT,
			symbol TEXT,
			side TEXT,
			quantity DOUBLE,
			price DOUBLE,
			timestamp TIMESTAMP,
			reason TEXT,
			message TEXT,
			strategy_name TEXT,
			executed_at TIMESTAMP,
			executed_qty DOUBLE,
			executed_price DOUBLE,
			commission DOUBLE,
			pnl DOUBLE,
			is_closing BOOLEAN
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to create trades table", err)
	}

	return nil
}

// RecordExecution stores an executed order and its trade. closing marks
// fills that reduced a position; pnl carries their realized profit and is
// zero otherwise.
func (b *BacktestState) RecordExecution(order types.Order, pnl float64, closing bool) (types.Trade, error) {
	if order.OrderID == "" {
		order.OrderID = uuid.New().String()
	}

	tx, err := b.db.Begin()
	if err != nil {
		return types.Trade{}, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to begin transaction", err)
	}

	insertOrder := b.sq.
		Insert("orders").
		Columns("order_id", "symbol", "side", "quantity", "price", "timestamp",
			"reason", "message", "strategy_name", "fee").
		Values(order.OrderID, order.Symbol, order.Side, order.Quantity, order.Price,
			order.Timestamp, order.Reason.Reason, order.Reason.Message, order.StrategyName, order.Fee).
		RunWith(tx)

	if _, err := insertOrder.Exec(); err != nil {
		_ = tx.Rollback()

		return types.Trade{}, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to insert order", err)
	}

	trade := types.Trade{
		Order:         order,
		ExecutedAt:    order.Timestamp,
		ExecutedQty:   order.Quantity,
		ExecutedPrice: order.Price,
		Fee:           order.Fee,
		PnL:           pnl,
		IsClosing:     closing,
	}

	insertTrade := b.sq.
		Insert("trades").
		Columns("order_id", "symbol", "side", "quantity", "price", "timestamp",
			"reason", "message", "strategy_name",
			"executed_at", "executed_qty", "executed_price", "commission", "pnl", "is_closing").
		Values(order.OrderID, order.Symbol, order.Side, order.Quantity, order.Price,
			order.Timestamp, order.Reason.Reason, order.Reason.Message, order.StrategyName,
			trade.ExecutedAt, trade.ExecutedQty, trade.ExecutedPrice, trade.Fee, trade.PnL, trade.IsClosing).
		RunWith(tx)

	if _, err := insertTrade.Exec(); err != nil {
		_ = tx.Rollback()

		return types.Trade{}, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to insert trade", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Trade{}, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to commit transaction", err)
	}

	return trade, nil
}

// GetAllTrades returns every recorded trade in execution order.
func (b *BacktestState) GetAllTrades() ([]types.Trade, error) {
	rows, err := b.sq.
		Select("order_id", "symbol", "side", "quantity", "price", "timestamp",
			"reason", "message", "strategy_name",
			"executed_at", "executed_qty", "executed_price", "commission", "pnl", "is_closing").
		From("trades").
		OrderBy("executed_at ASC").
		RunWith(b.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade

		err := rows.Scan(
			&trade.Order.OrderID, &trade.Order.Symbol, &trade.Order.Side,
			&trade.Order.Quantity, &trade.Order.Price, &trade.Order.Timestamp,
			&trade.Order.Reason.Reason, &trade.Order.Reason.Message, &trade.Order.StrategyName,
			&trade.ExecutedAt, &trade.ExecutedQty, &trade.ExecutedPrice, &trade.Fee, &trade.PnL, &trade.IsClosing,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to scan trade", err)
		}

		trade.Order.Fee = trade.Fee

		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to iterate trades", err)
	}

	return trades, nil
}

// CountTrades returns the number of recorded trades.
func (b *BacktestState) CountTrades() (int, error) {
	var count int

	err := b.sq.Select("COUNT(*)").From("trades").RunWith(b.db).QueryRow().Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to count trades", err)
	}

	return count, nil
}

// TotalFees returns the cumulative commission across all trades.
func (b *BacktestState) TotalFees() (float64, error) {
	var fees sql.NullFloat64

	err := b.sq.Select("SUM(commission)").From("trades").RunWith(b.db).QueryRow().Scan(&fees)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeBacktestStateFailed, "failed to sum fees", err)
	}

	return fees.Float64, nil
}

// ExportParquet writes the orders and trades tables as parquet files into
// the given folder.
func (b *BacktestState) ExportParquet(folder string) error {
	for _, table := range []string{"orders", "trades"} {
		target := filepath.Join(folder, table+".parquet")

		query := fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, escapePath(target))
		if _, err := b.db.Exec(query); err != nil {
			return errors.Wrapf(errors.ErrCodeBacktestStateFailed, err, "failed to export %s", table)
		}
	}

	b.logger.Debug("Exported state tables", zap.String("folder", folder))

	return nil
}

// Reset drops all recorded orders and trades so the state can host the
// next run.
func (b *BacktestState) Reset() error {
	for _, table := range []string{"orders", "trades"} {
		if _, err := b.db.Exec(fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			return errors.Wrapf(errors.ErrCodeBacktestStateFailed, err, "failed to reset %s", table)
		}
	}

	return nil
}

// Close releases the underlying database.
func (b *BacktestState) Close() error {
	return b.db.Close()
}

func escapePath(path string) string {
	out := make([]rune, 0, len(path))

	for _, r := range path {
		if r == '\'' {
			out = append(out, '\'')
		}

		out = append(out, r)
	}

	return string(out)
}
