package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/statemetrics/internal/cli/config"
	"github.com/leapstack-labs/statemetrics/internal/cli/output"
	"github.com/leapstack-labs/statemetrics/internal/report"
	"github.com/leapstack-labs/statemetrics/internal/sink"

	// Register report sinks.
	_ "github.com/leapstack-labs/statemetrics/internal/sink/duckdb"
	_ "github.com/leapstack-labs/statemetrics/internal/sink/postgres"
	_ "github.com/leapstack-labs/statemetrics/internal/sink/sqlite"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the config, logger and renderer stored on the
// command context by the root command. Outside the root command the config
// is loaded with defaults.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()

	cfg := config.FromContext(ctx)
	if cfg == nil {
		var err error
		cfg, err = config.LoadConfig("", nil)
		if err != nil {
			return nil, err
		}
	}

	r := output.FromContext(ctx)
	if r == nil {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: r,
	}, nil
}

// buildReport runs the load, join, rank and describe pipeline.
func buildReport(cfg *config.Config, logger *slog.Logger) (*report.Report, error) {
	if err := cfg.ValidateInputs(); err != nil {
		return nil, err
	}

	ds, err := report.Load(cfg.Sources(), logger)
	if err != nil {
		return nil, err
	}

	opts, err := cfg.BuilderOptions(logger)
	if err != nil {
		return nil, err
	}

	b, err := report.NewBuilder(opts)
	if err != nil {
		return nil, err
	}
	return b.Build(ds)
}

// writeSinks writes rep to every configured sink and returns their names.
func writeSinks(ctx context.Context, cfg *config.Config, rep *report.Report, logger *slog.Logger) ([]string, error) {
	var written []string
	for _, e := range cfg.Sinks.Enabled() {
		name, dsn := e[0], e[1]

		s, err := sink.New(name, logger)
		if err != nil {
			return written, err
		}
		if err := writeSink(ctx, s, dsn, rep); err != nil {
			return written, fmt.Errorf("%s sink: %w", name, err)
		}

		logger.Info("wrote report to sink", "sink", name, "run_id", rep.RunID)
		written = append(written, name)
	}
	return written, nil
}

func writeSink(ctx context.Context, s sink.Sink, dsn string, rep *report.Report) error {
	if err := s.Open(ctx, dsn); err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return s.Write(ctx, rep)
}
