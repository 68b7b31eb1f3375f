package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/statemetrics/internal/cli/output"
	"github.com/leapstack-labs/statemetrics/internal/report"
)

// ShowOptions holds options for the show command.
type ShowOptions struct {
	Metrics []string
	Sort    string
	Limit   int
	Blurbs  bool
	CSV     bool
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Build the report and print it",
		Long: `Build the state metrics report and print it instead of writing the output file.

Text output is a table, markdown output a markdown table and JSON output one
object per state. Use --csv to print the delimited table exactly as build
writes it.`,
		Example: `  # Top ten states by population
  statemetrics show --sort population --limit 10

  # Affordability only, as JSON
  statemetrics show --metrics affordability --output-format json

  # The output table on stdout
  statemetrics show --csv > report.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShow(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Metrics, "metrics", "m", nil, "Metrics to show (population, income, sale_price, affordability)")
	cmd.Flags().StringVarP(&opts.Sort, "sort", "s", "", "Sort by the rank of a metric")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Show at most n states")
	cmd.Flags().BoolVar(&opts.Blurbs, "blurbs", false, "Include blurbs in table output")
	cmd.Flags().BoolVar(&opts.CSV, "csv", false, "Print the delimited output table")

	_ = cmd.RegisterFlagCompletionFunc("sort", metricCompletion)
	_ = cmd.RegisterFlagCompletionFunc("metrics", metricCompletion)

	return cmd
}

func metricCompletion(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(report.Metrics))
	for i, m := range report.Metrics {
		names[i] = string(m)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func runShow(cmd *cobra.Command, opts *ShowOptions) error {
	metrics, err := parseMetrics(opts.Metrics)
	if err != nil {
		return err
	}

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg, r := cmdCtx.Cfg, cmdCtx.Renderer

	rep, err := buildReport(cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}

	if opts.CSV {
		return report.WriteCSV(r.Writer(), rep, cfg.OutputDelimiter.Rune())
	}

	rows := rep.Unique()
	if opts.Sort != "" {
		m, err := report.ParseMetric(opts.Sort)
		if err != nil {
			return err
		}
		sortByRank(rows, m)
	}
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(rowObjects(rows, metrics))
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "State Metrics"))
		r.Println("")
		if rep.Month != "" {
			r.Println(output.FormatKeyValue("Month", rep.Month))
			r.Println("")
		}
		renderRowTable(r.Writer(), rows, metrics, opts.Blurbs, true)
	default:
		renderRowTable(r.Writer(), rows, metrics, opts.Blurbs, false)
		if rep.Month != "" {
			r.Muted("Sale prices from " + rep.Month)
		}
	}
	return nil
}

// parseMetrics converts metric names, defaulting to every metric.
func parseMetrics(names []string) ([]report.Metric, error) {
	if len(names) == 0 {
		return report.Metrics, nil
	}
	metrics := make([]report.Metric, 0, len(names))
	for _, name := range names {
		m, err := report.ParseMetric(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

// sortByRank orders rows by rank of m. Unranked rows go last.
func sortByRank(rows []report.Row, m report.Metric) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i].Stat(m).Rank, rows[j].Stat(m).Rank
		if ri == 0 || rj == 0 {
			return rj == 0 && ri != 0
		}
		return ri < rj
	})
}

// metricColumns returns the output column names for m: value, rank, blurb.
func metricColumns(m report.Metric) []string {
	i := 1
	for j, metric := range report.Metrics {
		if metric == m {
			i += 3 * j
		}
	}
	return report.Columns[i : i+3]
}

func rowObjects(rows []report.Row, metrics []report.Metric) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for i := range rows {
		obj := map[string]any{"key_row": rows[i].KeyRow}
		for _, m := range metrics {
			stat := rows[i].Stat(m)
			cols := metricColumns(m)

			var value, rank, blurb any
			if stat.Valid {
				value = stat.Value
			}
			if stat.Rank > 0 {
				rank = stat.Rank
			}
			if stat.Blurb != "" {
				blurb = stat.Blurb
			}
			obj[cols[0]], obj[cols[1]], obj[cols[2]] = value, rank, blurb
		}
		out = append(out, obj)
	}
	return out
}

func renderRowTable(w io.Writer, rows []report.Row, metrics []report.Metric, blurbs, markdown bool) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	header := table.Row{"key_row"}
	for _, m := range metrics {
		cols := metricColumns(m)
		header = append(header, cols[0], cols[1])
		if blurbs {
			header = append(header, cols[2])
		}
	}
	t.AppendHeader(header)

	for i := range rows {
		row := table.Row{rows[i].KeyRow}
		for _, m := range metrics {
			cells := rows[i].Stat(m).Cells(m)
			row = append(row, cells[0], cells[1])
			if blurbs {
				row = append(row, cells[2])
			}
		}
		t.AppendRow(row)
	}

	if markdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
}
