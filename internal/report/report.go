// Package report builds the state metrics report.
// It joins the key, population, income, and sale-price tables by state,
// ranks each metric, and renders the consolidated output table.
package report

import "fmt"

// Metric identifies one of the ranked measures in the report.
type Metric string

// Metric values.
const (
	MetricPopulation    Metric = "population"
	MetricIncome        Metric = "income"
	MetricSalePrice     Metric = "sale_price"
	MetricAffordability Metric = "affordability"
)

// Metrics lists every metric in output column order.
var Metrics = []Metric{MetricPopulation, MetricIncome, MetricSalePrice, MetricAffordability}

// ParseMetric converts a config string into a Metric.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricPopulation, MetricIncome, MetricSalePrice, MetricAffordability:
		return m, nil
	}
	return "", fmt.Errorf("unknown metric %q (expected population, income, sale_price or affordability)", s)
}

// Key is one row of the key table.
type Key struct {
	// KeyRow is the canonical state identifier, e.g. "washington_dc".
	KeyRow string
	// AlternativeName is the display name used by the source tables.
	AlternativeName string
	// CensusMSA is an optional alternate name used by the census income table.
	CensusMSA string
}

// Measure is a numeric value that may be absent.
type Measure struct {
	Value float64
	Valid bool
}

// Some returns a present Measure.
func Some(v float64) Measure {
	return Measure{Value: v, Valid: true}
}

// Stat is one metric for one state: its value, its rank and its blurb.
// Rank is 0 when the value is missing.
type Stat struct {
	Measure
	Rank  int
	Blurb string
}

// Row is one output row.
type Row struct {
	KeyRow        string
	Name          string
	Population    Stat
	Income        Stat
	SalePrice     Stat
	Affordability Stat
}

// Stat returns the row's stat for m.
func (r *Row) Stat(m Metric) *Stat {
	switch m {
	case MetricPopulation:
		return &r.Population
	case MetricIncome:
		return &r.Income
	case MetricSalePrice:
		return &r.SalePrice
	case MetricAffordability:
		return &r.Affordability
	}
	return nil
}

// Report is the result of a build.
type Report struct {
	// RunID identifies this build in sinks and logs.
	RunID string
	// Month is the reporting month taken from the sale-price table.
	Month string
	Rows  []Row
}

// Unique returns the rows with duplicate key rows removed, keeping the first.
func (r *Report) Unique() []Row {
	seen := make(map[string]bool, len(r.Rows))
	out := make([]Row, 0, len(r.Rows))
	for _, row := range r.Rows {
		if seen[row.KeyRow] {
			continue
		}
		seen[row.KeyRow] = true
		out = append(out, row)
	}
	return out
}
