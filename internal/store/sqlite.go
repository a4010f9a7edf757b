package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/bazaarbrain/assistant/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS transactions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	raw_input  TEXT NOT NULL,
	parsed     TEXT,
	source     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS simulations (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	query      TEXT NOT NULL,
	parameters TEXT,
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS collective_orders (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	product_id     TEXT NOT NULL,
	quantity       INTEGER NOT NULL,
	price_per_unit REAL NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_source ON transactions(source);
CREATE INDEX IF NOT EXISTS idx_simulations_user_id ON simulations(user_id);
CREATE INDEX IF NOT EXISTS idx_collective_orders_product_id ON collective_orders(product_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveTransaction(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	out := *tx
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}

	parsedJSON, err := json.Marshal(out.Parsed)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal parsed")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, raw_input, parsed, source, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		out.ID, out.UserID, out.RawInput, string(parsedJSON), out.Source, out.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert transaction")
	}
	return &out, nil
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error) {
	query := `SELECT id, user_id, raw_input, parsed, source, created_at FROM transactions WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list transactions")
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		var parsedJSON sql.NullString
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.RawInput, &parsedJSON, &tx.Source, &tx.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan transaction")
		}
		if parsedJSON.Valid && parsedJSON.String != "" && parsedJSON.String != "null" {
			if err := json.Unmarshal([]byte(parsedJSON.String), &tx.Parsed); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal parsed")
			}
		}
		txs = append(txs, tx)
	}
	return txs, eris.Wrap(rows.Err(), "sqlite: list transactions iterate")
}

func (s *SQLiteStore) SaveSimulation(ctx context.Context, sim *model.Simulation) (*model.Simulation, error) {
	out := *sim
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}

	paramsJSON, err := json.Marshal(out.Parameters)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal parameters")
	}
	resultJSON, err := json.Marshal(out.Result)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO simulations (id, user_id, query, parameters, result, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		out.ID, out.UserID, out.Query, string(paramsJSON), string(resultJSON), out.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert simulation")
	}
	return &out, nil
}

func (s *SQLiteStore) ListSimulations(ctx context.Context, filter SimulationFilter) ([]model.Simulation, error) {
	query := `SELECT id, user_id, query, parameters, result, created_at FROM simulations WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list simulations")
	}
	defer rows.Close()

	var sims []model.Simulation
	for rows.Next() {
		var sim model.Simulation
		var paramsJSON, resultJSON sql.NullString
		if err := rows.Scan(&sim.ID, &sim.UserID, &sim.Query, &paramsJSON, &resultJSON, &sim.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan simulation")
		}
		if err := unmarshalRecord(paramsJSON, &sim.Parameters); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal parameters")
		}
		if err := unmarshalRecord(resultJSON, &sim.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
		sims = append(sims, sim)
	}
	return sims, eris.Wrap(rows.Err(), "sqlite: list simulations iterate")
}

func (s *SQLiteStore) SaveCollectiveOrder(ctx context.Context, order *model.CollectiveOrder) (*model.CollectiveOrder, error) {
	out := *order
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collective_orders (id, user_id, product_id, quantity, price_per_unit, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		out.ID, out.UserID, out.ProductID, out.Quantity, out.PricePerUnit, out.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert collective order")
	}
	return &out, nil
}

func (s *SQLiteStore) ListCollectiveOrders(ctx context.Context, productID string) ([]model.CollectiveOrder, error) {
	query := `SELECT id, user_id, product_id, quantity, price_per_unit, created_at FROM collective_orders WHERE 1=1`
	var args []any

	if productID != "" {
		query += ` AND product_id = ?`
		args = append(args, productID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list collective orders")
	}
	defer rows.Close()

	var orders []model.CollectiveOrder
	for rows.Next() {
		var o model.CollectiveOrder
		if err := rows.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.PricePerUnit, &o.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan collective order")
		}
		orders = append(orders, o)
	}
	return orders, eris.Wrap(rows.Err(), "sqlite: list collective orders iterate")
}

func (s *SQLiteStore) AggregateCollectiveOrders(ctx context.Context, productID string) (*model.CollectiveAggregate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0), COUNT(DISTINCT user_id) FROM collective_orders WHERE product_id = ?`,
		productID,
	)

	agg := model.CollectiveAggregate{ProductID: productID}
	if err := row.Scan(&agg.TotalQuantity, &agg.Participants); err != nil {
		return nil, eris.Wrap(err, "sqlite: aggregate collective orders")
	}
	return &agg, nil
}

func unmarshalRecord(src sql.NullString, dst *model.Record) error {
	if !src.Valid || src.String == "" || src.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(src.String), dst)
}
