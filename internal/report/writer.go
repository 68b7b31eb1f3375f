package report

// writer.go - output table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Columns is the fixed output column set.
var Columns = []string{
	"key_row",
	"census_population",
	"population_rank",
	"population_blurb",
	"median_household_income",
	"median_household_income_rank",
	"median_household_income_blurb",
	"median_sale_price",
	"median_sale_price_rank",
	"median_sale_price_blurb",
	"house_affordability_ratio",
	"house_affordability_rank",
	"house_affordability_blurb",
}

// FormatValue formats a metric value the way it appears in the output table.
func FormatValue(m Metric, v float64) string {
	switch m {
	case MetricPopulation:
		return FormatCount(v)
	case MetricIncome, MetricSalePrice:
		return FormatDollars(v)
	case MetricAffordability:
		return FormatRatio(v)
	}
	return fmt.Sprint(v)
}

// Cells returns the formatted value, rank and blurb of a stat.
// Missing values produce blanks.
func (s Stat) Cells(m Metric) []string {
	value, rank := "", ""
	if s.Valid {
		value = FormatValue(m, s.Value)
	}
	if s.Rank > 0 {
		rank = Ordinal(s.Rank)
	}
	return []string{value, rank, s.Blurb}
}

// Record returns the row as output cells in Columns order.
func (r *Row) Record() []string {
	record := make([]string, 0, len(Columns))
	record = append(record, r.KeyRow)
	for _, m := range Metrics {
		record = append(record, r.Stat(m).Cells(m)...)
	}
	return record
}

// Records returns the header followed by one record per unique key row.
func (r *Report) Records() [][]string {
	rows := r.Unique()
	records := make([][]string, 0, len(rows)+1)
	records = append(records, Columns)
	for i := range rows {
		records = append(records, rows[i].Record())
	}
	return records
}

// WriteCSV writes the report as a delimited table.
func WriteCSV(w io.Writer, rep *Report, delimiter rune) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}
	if err := cw.WriteAll(rep.Records()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteFile writes the report to path, creating parent directories.
func WriteFile(path string, rep *Report, delimiter rune) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteCSV(f, rep, delimiter); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
