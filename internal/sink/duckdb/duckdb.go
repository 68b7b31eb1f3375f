// Package duckdb provides a DuckDB report sink and CSV loading for ad-hoc
// queries over a written report.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/leapstack-labs/statemetrics/internal/report"
	"github.com/leapstack-labs/statemetrics/internal/sink"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Name is the registered sink name.
const Name = "duckdb"

const createTableSQL = `CREATE TABLE IF NOT EXISTS state_metrics (
	run_id VARCHAR NOT NULL,
	month VARCHAR,
	key_row VARCHAR NOT NULL,
	census_population DOUBLE,
	population_rank INTEGER,
	population_blurb VARCHAR,
	median_household_income DOUBLE,
	median_household_income_rank INTEGER,
	median_household_income_blurb VARCHAR,
	median_sale_price DOUBLE,
	median_sale_price_rank INTEGER,
	median_sale_price_blurb VARCHAR,
	house_affordability_ratio DOUBLE,
	house_affordability_rank INTEGER,
	house_affordability_blurb VARCHAR
)`

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func init() {
	sink.Register(Name, func(logger *slog.Logger) sink.Sink { return New(logger) })
}

// Sink archives reports in a DuckDB database file.
type Sink struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a DuckDB sink.
func New(logger *slog.Logger) *Sink {
	return &Sink{logger: sink.Logger(logger)}
}

// Name returns the sink name.
func (s *Sink) Name() string {
	return Name
}

// Open connects to DuckDB. Use ":memory:" (or "") for an in-memory database.
func (s *Sink) Open(ctx context.Context, path string) error {
	db, err := Open(ctx, path)
	if err != nil {
		return err
	}
	s.db = db
	s.logger.Debug("opened duckdb sink", "path", path)
	return nil
}

// DB returns the underlying connection.
func (s *Sink) DB() *sql.DB {
	return s.db
}

// Write appends the report rows to state_metrics.
func (s *Sink) Write(ctx context.Context, rep *report.Report) error {
	if s.db == nil {
		return fmt.Errorf("database connection not established")
	}

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create %s: %w", sink.Table, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(sink.Columns)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", sink.Table, strings.Join(sink.Columns, ", "), placeholders) //nolint:gosec // constant identifiers

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	rows := sink.Rows(rep)
	for _, values := range rows {
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("failed to insert %v: %w", values[2], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Debug("wrote report to duckdb", "run_id", rep.RunID, "rows", len(rows))
	return nil
}

// Close closes the connection.
func (s *Sink) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Open opens and pings a DuckDB database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == ":memory:" {
		path = ""
	}
	if err := sink.EnsureDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	return db, nil
}

// LoadCSV loads a delimited file into a table, letting DuckDB infer the schema.
func LoadCSV(ctx context.Context, db *sql.DB, table, filePath string) error {
	if !identPattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto('%s', header=true)",
		table,
		strings.ReplaceAll(absPath, "'", "''"),
	)

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}
	return nil
}
