package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/statemetrics/internal/cli/config"
	"github.com/leapstack-labs/statemetrics/internal/testutil"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root := NewRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"build", "show", "query", "init", "version", "completion"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	for _, flag := range []string{"config", "project-dir", "inputs-dir", "output", "output-format", "log-format", "ranking", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCmd_BuildEndToEnd(t *testing.T) {
	files := testutil.WriteInputs(t)
	t.Chdir(t.TempDir())
	out := filepath.Join(files.Dir, "out", "report.csv")

	stdout, stderr, err := execute(t,
		"build",
		"--inputs-dir", files.Dir,
		"-o", out,
		"--output-format", "json",
		"--log-format", "json",
		"-v",
	)
	require.NoError(t, err)
	assert.FileExists(t, out)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, out, summary["output"])
	assert.EqualValues(t, 6, summary["rows"])

	// The reporting month is logged at info level.
	assert.Contains(t, stderr, `"msg":"using most recent month for median sale prices"`)
	assert.Contains(t, stderr, `"level":"DEBUG"`)
}

func TestRootCmd_ConfigFile(t *testing.T) {
	files := testutil.WriteInputs(t)
	cfgPath := filepath.Join(files.Dir, "custom.yaml")
	testutil.WriteFile(t, cfgPath, "output: report.tsv\noutput_delimiter: tab\n")
	t.Chdir(t.TempDir())

	_, stderr, err := execute(t, "build", "--config", cfgPath, "--output-format", "text")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "level=DEBUG")

	content, err := os.ReadFile(filepath.Join(files.Dir, "report.tsv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "key_row\tcensus_population\t"))
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := execute(t, "build", "--ranking", "average")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ranking method")
}

func TestRootCmd_Completion(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "statemetrics")
}

func TestRootCmd_Version(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "statemetrics "+Version)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, "text", false).Debug("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, "json", true).Debug("shown", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
