package commands

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/statemetrics/internal/cli/output"
	"github.com/leapstack-labs/statemetrics/internal/report"
)

func TestShowCommand_SortAndLimit(t *testing.T) {
	env := newTestEnv(t, output.ModeMarkdown, "")

	require.NoError(t, env.run(t, NewShowCommand(), "--sort", "population", "--limit", "2"))

	out := env.Out.String()
	assert.Contains(t, out, "# State Metrics")
	assert.Contains(t, out, "- **Month:** March 2025")
	assert.Contains(t, out, "| california |")
	assert.Contains(t, out, "| texas |")
	assert.NotContains(t, out, "alabama")
	assert.Less(t, strings.Index(out, "california"), strings.Index(out, "texas"))
}

func TestShowCommand_JSONMetrics(t *testing.T) {
	env := newTestEnv(t, output.ModeJSON, "")

	require.NoError(t, env.run(t, NewShowCommand(), "--metrics", "affordability", "--sort", "affordability"))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &rows))
	require.Len(t, rows, 6)

	first := rows[0]
	assert.Equal(t, "alabama", first["key_row"])
	assert.InDelta(t, 4.5, first["house_affordability_ratio"], 1e-9)
	assert.EqualValues(t, 1, first["house_affordability_rank"])
	assert.Contains(t, first["house_affordability_blurb"], "Alabama has the 1st lowest house affordability ratio")
	assert.NotContains(t, first, "census_population")
}

func TestShowCommand_TextTable(t *testing.T) {
	env := newTestEnv(t, output.ModeText, "")

	require.NoError(t, env.run(t, NewShowCommand(), "--blurbs", "-m", "population"))

	out := env.Out.String()
	assert.Contains(t, out, "population_blurb")
	assert.Contains(t, out, "39,538,223")
	assert.Contains(t, out, "(6 rows)")
	assert.Contains(t, out, "Sale prices from March 2025")
}

func TestShowCommand_CSV(t *testing.T) {
	env := newTestEnv(t, output.ModeText, "")

	require.NoError(t, env.run(t, NewShowCommand(), "--csv"))

	lines := strings.Split(strings.TrimSpace(env.Out.String()), "\n")
	assert.Len(t, lines, 7)
	assert.Equal(t, strings.Join(report.Columns, ","), lines[0])
}

func TestShowCommand_InvalidMetric(t *testing.T) {
	env := newTestEnv(t, output.ModeText, "")

	err := env.run(t, NewShowCommand(), "--metrics", "rent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown metric")
}

func TestSortByRank(t *testing.T) {
	rows := []report.Row{
		{KeyRow: "c", Income: report.Stat{Rank: 3}},
		{KeyRow: "none"},
		{KeyRow: "a", Income: report.Stat{Rank: 1}},
		{KeyRow: "b", Income: report.Stat{Rank: 1}},
	}
	sortByRank(rows, report.MetricIncome)

	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.KeyRow
	}
	assert.Equal(t, []string{"a", "b", "c", "none"}, keys)
}

func TestMetricColumns(t *testing.T) {
	assert.Equal(t, []string{"census_population", "population_rank", "population_blurb"}, metricColumns(report.MetricPopulation))
	assert.Equal(t, []string{"house_affordability_ratio", "house_affordability_rank", "house_affordability_blurb"}, metricColumns(report.MetricAffordability))
}
