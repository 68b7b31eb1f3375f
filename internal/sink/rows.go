package sink

import "github.com/leapstack-labs/statemetrics/internal/report"

// Columns are the database columns of the report table, in Values order.
var Columns = []string{
	"run_id",
	"month",
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

// Values converts a row into column values. Missing measures, ranks and
// blurbs become nil so they are stored as NULL.
func Values(rep *report.Report, row *report.Row) []any {
	values := make([]any, 0, len(Columns))
	values = append(values, rep.RunID, rep.Month, row.KeyRow)
	for _, m := range report.Metrics {
		stat := row.Stat(m)

		var value, rank, text any
		if stat.Valid {
			value = stat.Value
		}
		if stat.Rank > 0 {
			rank = int64(stat.Rank)
		}
		if stat.Blurb != "" {
			text = stat.Blurb
		}
		values = append(values, value, rank, text)
	}
	return values
}

// Rows converts the report's unique rows.
func Rows(rep *report.Report) [][]any {
	unique := rep.Unique()
	rows := make([][]any, len(unique))
	for i := range unique {
		rows[i] = Values(rep, &unique[i])
	}
	return rows
}
