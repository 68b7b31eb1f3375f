package commands

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/statemetrics/internal/cli/output"
	"github.com/leapstack-labs/statemetrics/internal/testutil"

	// sqlite driver for test database.
	_ "modernc.org/sqlite"
)

func TestQueryCommand_Report(t *testing.T) {
	env := newTestEnv(t, output.ModeText, "")
	require.NoError(t, env.run(t, NewBuildCommand()))

	require.NoError(t, env.run(t, NewQueryCommand(), "--format", "csv",
		"SELECT key_row, house_affordability_rank FROM state_metrics ORDER BY key_row"))

	assert.Equal(t, "key_row,house_affordability_rank\n"+
		"alabama,1st\n"+
		"california,6th\n"+
		"new_york,5th\n"+
		"puerto_rico,4th\n"+
		"texas,2nd\n"+
		"washington_dc,3rd\n", env.Out.String())
}

func TestQueryCommand_Formats(t *testing.T) {
	env := newTestEnv(t, output.ModeText, "")
	require.NoError(t, env.run(t, NewBuildCommand()))
	query := "SELECT key_row FROM state_metrics WHERE key_row IN ('texas', 'alabama') ORDER BY key_row"

	require.NoError(t, env.run(t, NewQueryCommand(), query))
	assert.Contains(t, env.Out.String(), "key_row")
	assert.Contains(t, env.Out.String(), "(2 rows)")

	require.NoError(t, env.run(t, NewQueryCommand(), "--format", "md", query))
	assert.Contains(t, env.Out.String(), "| key_row |")
	assert.Contains(t, env.Out.String(), "| alabama |")

	require.NoError(t, env.run(t, NewQueryCommand(), "--format", "json", query))
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &rows))
	assert.Equal(t, []map[string]any{{"key_row": "alabama"}, {"key_row": "texas"}}, rows)
}

func TestQueryCommand_InputFile(t *testing.T) {
	env := newTestEnv(t, output.ModeText, "")
	require.NoError(t, env.run(t, NewBuildCommand()))

	sqlPath := filepath.Join(env.Files.Dir, "count.sql")
	testutil.WriteFile(t, sqlPath, "SELECT COUNT(*) AS n FROM state_metrics")

	require.NoError(t, env.run(t, NewQueryCommand(), "--input", sqlPath, "--format", "csv"))
	assert.Equal(t, "n\n6\n", env.Out.String())
}

func TestQueryCommand_Errors(t *testing.T) {
	env := newTestEnv(t, output.ModeText, "")

	err := env.run(t, NewQueryCommand(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 'statemetrics build' first")

	err = env.run(t, NewQueryCommand(), "--archive", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sqlite archive configured")

	require.NoError(t, env.run(t, NewBuildCommand()))
	err = env.run(t, NewQueryCommand(), "SELECT nope FROM state_metrics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query failed")
}

func TestReadSQL(t *testing.T) {
	got, err := readSQL([]string{"SELECT", "1"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", got)

	got, err = readSQL(nil, "", strings.NewReader("SELECT 2"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", got)

	_, err = readSQL(nil, "", strings.NewReader("  \n"))
	assert.Error(t, err)

	_, err = readSQL(nil, filepath.Join(t.TempDir(), "missing.sql"), nil)
	assert.Error(t, err)
}

func TestRenderResults_Nulls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `
		CREATE TABLE t (key_row TEXT, rank INTEGER);
		INSERT INTO t VALUES ('alabama', 1), ('wyoming', NULL);
	`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, executeAndRender(ctx, &buf, db, "SELECT * FROM t ORDER BY key_row", "csv"))
	assert.Equal(t, "key_row,rank\nalabama,1\nwyoming,\n", buf.String())

	buf.Reset()
	require.NoError(t, executeAndRender(ctx, &buf, db, "SELECT * FROM t ORDER BY key_row", "table"))
	assert.Contains(t, buf.String(), "NULL")

	buf.Reset()
	require.NoError(t, executeAndRender(ctx, &buf, db, "SELECT * FROM t WHERE 0", "table"))
	assert.Equal(t, "(0 rows)\n", buf.String())
}

func TestIsTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "x")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.False(t, isTerminal(f))
}
