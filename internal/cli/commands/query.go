package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/statemetrics/internal/sink"
	"github.com/leapstack-labs/statemetrics/internal/sink/duckdb"

	// sqlite driver for archive queries.
	_ "modernc.org/sqlite"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format  string
	Input   string
	File    string
	Archive bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run SQL over a built report",
		Long: `Run SQL over a built report.

The output file is loaded into an in-memory DuckDB database as the table
state_metrics. With --archive the query runs read-only against the SQLite
sink instead, where every run is kept in state_metrics and report_runs.

SQL is taken from the arguments, from --input, or from piped stdin.`,
		Example: `  # Least affordable states
  statemetrics query "SELECT key_row, house_affordability_ratio FROM state_metrics ORDER BY house_affordability_rank DESC LIMIT 5"

  # Query another report file as JSON
  statemetrics query --file old.csv --format json "SELECT * FROM state_metrics"

  # Compare runs in the SQLite archive
  statemetrics query --archive "SELECT run_id, month, row_count FROM report_runs"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().StringVar(&opts.File, "file", "", "Report file to query (default: the configured output)")
	cmd.Flags().BoolVar(&opts.Archive, "archive", false, "Query the SQLite archive instead of the report file")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg

	sqlQuery, err := readSQL(args, opts.Input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var db *sql.DB
	if opts.Archive {
		if cfg.Sinks.SQLite == "" {
			return fmt.Errorf("no sqlite archive configured\nHint: Set sinks.sqlite in statemetrics.yaml")
		}
		db, err = openArchiveReadOnly(cfg.Sinks.SQLite)
	} else {
		path := opts.File
		if path == "" {
			path = cfg.Output
		}
		db, err = openReport(ctx, path)
	}
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	cmdCtx.Logger.Debug("running query", "archive", opts.Archive, "sql", sqlQuery)
	return executeAndRender(ctx, cmd.OutOrStdout(), db, sqlQuery, opts.Format)
}

// readSQL picks the query from args, a file or piped stdin.
func readSQL(args []string, input string, stdin io.Reader) (string, error) {
	var sqlQuery string
	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case input != "":
		content, err := os.ReadFile(input)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	default:
		if f, ok := stdin.(*os.File); ok && isTerminal(f) {
			return "", fmt.Errorf("no SQL given\nHint: Pass a query as an argument, with --input, or on stdin")
		}
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	}

	if strings.TrimSpace(sqlQuery) == "" {
		return "", fmt.Errorf("empty query")
	}
	return sqlQuery, nil
}

// openReport loads a report file into an in-memory DuckDB database.
func openReport(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("report not found at %s (run 'statemetrics build' first)", path)
	}

	db, err := duckdb.Open(ctx, "")
	if err != nil {
		return nil, err
	}
	if err := duckdb.LoadCSV(ctx, db, sink.Table, path); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// openArchiveReadOnly opens the SQLite archive in read-only mode.
func openArchiveReadOnly(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("archive not found at %s", path)
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return db, nil
}

func executeAndRender(ctx context.Context, w io.Writer, db *sql.DB, sqlQuery, format string) error {
	rows, err := db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

// isTerminal reports whether f is a character device.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
