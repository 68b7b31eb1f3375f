package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/statemetrics/internal/cli/output"
	"github.com/leapstack-labs/statemetrics/internal/report"
)

// BuildOptions holds options for the build command.
type BuildOptions struct {
	SkipSinks bool
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:     "build",
		Aliases: []string{"run"},
		Short:   "Build the state metrics report",
		Long: `Build the state metrics report from the four input tables.

Reads the key, income, population and sale price tables, joins them by state,
ranks every metric and writes one row per state to the output file. When
sinks are configured the finished report is also written to them.`,
		Example: `  # Build with statemetrics.yaml or the defaults
  statemetrics build

  # Read inputs from a directory and write elsewhere
  statemetrics build --inputs-dir ./data -o ./out/report.csv

  # Competition ranking instead of dense
  statemetrics build --ranking min`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipSinks, "skip-sinks", false, "Only write the output file")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *BuildOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg, logger, r := cmdCtx.Cfg, cmdCtx.Logger, cmdCtx.Renderer

	rep, err := buildReport(cfg, logger)
	if err != nil {
		return err
	}

	if err := report.WriteFile(cfg.Output, rep, cfg.OutputDelimiter.Rune()); err != nil {
		return err
	}
	logger.Debug("wrote report", "path", cfg.Output)

	sinks := []string{}
	if !opts.SkipSinks {
		sinks, err = writeSinks(cmd.Context(), cfg, rep, logger)
		if err != nil {
			return err
		}
	}

	summary := output.BuildSummary{
		RunID:  rep.RunID,
		Month:  rep.Month,
		Output: cfg.Output,
		Rows:   len(rep.Unique()),
		Sinks:  sinks,
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(summary)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "State Metrics Report"))
		r.Println("")
		r.Println(output.FormatKeyValue("Output", summary.Output))
		r.Println(output.FormatKeyValue("Rows", strconv.Itoa(summary.Rows)))
		r.Println(output.FormatKeyValue("Month", summary.Month))
		r.Println(output.FormatKeyValue("Run", summary.RunID))
		if len(sinks) > 0 {
			r.Println(output.FormatKeyValue("Sinks", strings.Join(sinks, ", ")))
		}
	default:
		r.Success(fmt.Sprintf("Wrote %d states to %s", summary.Rows, summary.Output))
		r.KeyValue("Month", summary.Month)
		r.KeyValue("Run", summary.RunID)
		if len(sinks) > 0 {
			r.KeyValue("Sinks", strings.Join(sinks, ", "))
		}
	}
	return nil
}
