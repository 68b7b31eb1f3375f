// Package postgres archives reports in PostgreSQL using the COPY protocol.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/leapstack-labs/statemetrics/internal/report"
	"github.com/leapstack-labs/statemetrics/internal/sink"
)

// Name is the registered sink name.
const Name = "postgres"

const createTableSQL = `CREATE TABLE IF NOT EXISTS state_metrics (
	run_id TEXT NOT NULL,
	month TEXT,
	key_row TEXT NOT NULL,
	census_population DOUBLE PRECISION,
	population_rank INTEGER,
	population_blurb TEXT,
	median_household_income DOUBLE PRECISION,
	median_household_income_rank INTEGER,
	median_household_income_blurb TEXT,
	median_sale_price DOUBLE PRECISION,
	median_sale_price_rank INTEGER,
	median_sale_price_blurb TEXT,
	house_affordability_ratio DOUBLE PRECISION,
	house_affordability_rank INTEGER,
	house_affordability_blurb TEXT,
	loaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, key_row)
)`

func init() {
	sink.Register(Name, func(logger *slog.Logger) sink.Sink { return New(logger) })
}

// Sink writes reports to PostgreSQL.
type Sink struct {
	conn   *pgx.Conn
	logger *slog.Logger
}

// New creates a PostgreSQL sink.
func New(logger *slog.Logger) *Sink {
	return &Sink{logger: sink.Logger(logger)}
}

// Name returns the sink name.
func (s *Sink) Name() string {
	return Name
}

// Open connects using a libpq-style DSN or URL and creates the table.
func (s *Sink) Open(ctx context.Context, dsn string) error {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("invalid postgres dsn: %w", err)
	}

	s.logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if _, err := conn.Exec(ctx, createTableSQL); err != nil {
		_ = conn.Close(ctx)
		return fmt.Errorf("failed to create %s: %w", sink.Table, err)
	}

	s.conn = conn
	return nil
}

// Write copies the report rows in one transaction.
func (s *Sink) Write(ctx context.Context, rep *report.Report) error {
	if s.conn == nil {
		return fmt.Errorf("database connection not established")
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, pgx.Identifier{sink.Table}, sink.Columns, pgx.CopyFromRows(sink.Rows(rep)))
	if err != nil {
		return fmt.Errorf("failed to copy rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Debug("wrote report to postgres", "run_id", rep.RunID, "rows", n)
	return nil
}

// Close closes the connection.
func (s *Sink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close(context.Background())
}
