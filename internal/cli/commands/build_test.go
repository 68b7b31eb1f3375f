package commands

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/statemetrics/internal/cli/config"
	"github.com/leapstack-labs/statemetrics/internal/cli/output"
	"github.com/leapstack-labs/statemetrics/internal/report"
)

func readRecords(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestBuildCommand_WritesReport(t *testing.T) {
	env := newTestEnv(t, output.ModeJSON, "")

	require.NoError(t, env.run(t, NewBuildCommand()))

	var summary output.BuildSummary
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &summary))
	assert.Equal(t, 6, summary.Rows)
	assert.Equal(t, "March 2025", summary.Month)
	assert.NotEmpty(t, summary.RunID)
	assert.Empty(t, summary.Sinks)
	assert.Equal(t, filepath.Join(env.Files.Dir, config.DefaultOutput), summary.Output)

	records := readRecords(t, summary.Output)
	require.Len(t, records, 7)
	assert.Equal(t, report.Columns, records[0])

	byKey := map[string][]string{}
	for _, rec := range records[1:] {
		_, dup := byKey[rec[0]]
		assert.False(t, dup, "duplicate key_row %s", rec[0])
		byKey[rec[0]] = rec
	}

	assert.Equal(t, []string{
		"california", "39,538,223", "1st",
		"California is 1st in the nation in population among states, DC, and Puerto Rico.",
		"$91,905", "2nd",
		"California is 2nd in the nation in median household income among states, DC, and Puerto Rico.",
		"$820,000", "1st",
		"California has the 1st highest median sale price on homes in the nation among states, DC, and Puerto Rico, according to Redfin data from March 2025.",
		"8.9", "6th",
		"California has the 6th lowest house affordability ratio in the nation among states, DC, and Puerto Rico, according to Redfin data from March 2025.",
	}, byKey["california"])

	assert.Equal(t, "678,972", byKey["washington_dc"][1])
	assert.Equal(t, "$138,000", byKey["puerto_rico"][7])
	assert.NotContains(t, byKey, "wyoming")
	assert.NotContains(t, byKey, "united_states")
}

func TestBuildCommand_Sinks(t *testing.T) {
	env := newTestEnv(t, output.ModeJSON, "sinks:\n  sqlite: archive/metrics.db\n  duckdb: archive/metrics.duckdb\n")

	require.NoError(t, env.run(t, NewBuildCommand()))

	var summary output.BuildSummary
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &summary))
	assert.Equal(t, []string{"duckdb", "sqlite"}, summary.Sinks)
	assert.FileExists(t, filepath.Join(env.Files.Dir, "archive", "metrics.db"))
	assert.FileExists(t, filepath.Join(env.Files.Dir, "archive", "metrics.duckdb"))

	// The archive keeps every run.
	require.NoError(t, env.run(t, NewBuildCommand()))
	require.NoError(t, env.run(t, NewQueryCommand(), "--archive", "--format", "json", "SELECT COUNT(*) AS runs FROM report_runs"))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2, rows[0]["runs"])
}

func TestBuildCommand_SkipSinks(t *testing.T) {
	env := newTestEnv(t, output.ModeMarkdown, "sinks:\n  sqlite: metrics.db\n")

	require.NoError(t, env.run(t, NewBuildCommand(), "--skip-sinks"))

	assert.Contains(t, env.Out.String(), "# State Metrics Report")
	assert.Contains(t, env.Out.String(), "- **Rows:** 6")
	assert.NotContains(t, env.Out.String(), "Sinks")
	assert.NoFileExists(t, filepath.Join(env.Files.Dir, "metrics.db"))
}

func TestBuildCommand_TextOutput(t *testing.T) {
	env := newTestEnv(t, output.ModeText, "")

	require.NoError(t, env.run(t, NewBuildCommand()))
	assert.Contains(t, env.Out.String(), "Wrote 6 states to")
	assert.Contains(t, env.Out.String(), "March 2025")
}

func TestBuildCommand_MissingInput(t *testing.T) {
	env := newTestEnv(t, output.ModeText, "")
	require.NoError(t, os.Remove(env.Files.SalePrice))

	err := env.run(t, NewBuildCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input file does not exist")
}

func TestBuildCommand_OverridesFromConfig(t *testing.T) {
	env := newTestEnv(t, output.ModeJSON, `
overrides:
  - metric: sale_price
    key: puerto_rico
    value: 150000
ranking:
  method: min
`)

	require.NoError(t, env.run(t, NewBuildCommand()))

	records := readRecords(t, env.Cfg.Output)
	for _, rec := range records[1:] {
		switch rec[0] {
		case "puerto_rico":
			assert.Equal(t, "$150,000", rec[7])
		case "washington_dc":
			// Without the default overrides DC has neither population nor a row.
			t.Fatalf("washington_dc should be dropped without its population override")
		}
	}
	assert.Len(t, records, 6)
}
