// Package sqlite archives reports in a SQLite database. The schema is
// managed with embedded goose migrations so every run is kept.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/leapstack-labs/statemetrics/internal/report"
	"github.com/leapstack-labs/statemetrics/internal/sink"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Name is the registered sink name.
const Name = "sqlite"

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	sink.Register(Name, func(logger *slog.Logger) sink.Sink { return New(logger) })
}

// Sink writes reports to SQLite.
type Sink struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a SQLite sink.
func New(logger *slog.Logger) *Sink {
	return &Sink{logger: sink.Logger(logger)}
}

// NewWithDB wraps an existing connection. Migrations are not run.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Sink {
	return &Sink{db: db, logger: sink.Logger(logger)}
}

// Name returns the sink name.
func (s *Sink) Name() string {
	return Name
}

// Open opens the database file and migrates it to the latest schema.
// Use ":memory:" for an in-memory database.
func (s *Sink) Open(ctx context.Context, path string) error {
	if path == "" {
		path = ":memory:"
	}
	if err := sink.EnsureDir(path); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	s.logger.Debug("opened sqlite sink", "path", path)
	return nil
}

// Migrate runs all pending migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// DB returns the underlying connection.
func (s *Sink) DB() *sql.DB {
	return s.db
}

// Write records the run and its rows in one transaction.
func (s *Sink) Write(ctx context.Context, rep *report.Report) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	rows := sink.Rows(rep)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO report_runs (run_id, month, row_count, created_at) VALUES (?, ?, ?, ?)",
		rep.RunID, rep.Month, len(rows), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", rep.RunID, err)
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", //nolint:gosec // constant identifiers
		sink.Table,
		strings.Join(sink.Columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(sink.Columns)), ", "),
	)
	for _, values := range rows {
		if _, err := tx.ExecContext(ctx, insertSQL, values...); err != nil {
			return fmt.Errorf("failed to insert %v: %w", values[2], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Debug("wrote report to sqlite", "run_id", rep.RunID, "rows", len(rows))
	return nil
}

// Close closes the database connection.
func (s *Sink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
