package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/statemetrics/internal/cli/config"
	"github.com/leapstack-labs/statemetrics/internal/cli/output"
	"github.com/leapstack-labs/statemetrics/internal/report"
)

func TestInitCommand_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project")
	out := &bytes.Buffer{}

	cmd := NewInitCommand()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{dir, "--inputs-dir", "data"})
	require.NoError(t, cmd.Execute())

	path := filepath.Join(dir, config.ConfigFileName)
	assert.FileExists(t, path)
	assert.Contains(t, out.String(), "Created")

	// The written file loads back to the defaults.
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	cfg, err := config.LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data"), cfg.InputsDir)
	assert.Equal(t, filepath.Join(dir, "data", config.DefaultPopulationFile), cfg.Inputs.Population.File)
	assert.Equal(t, config.Delimiter('\t'), cfg.Inputs.Population.Delimiter)
	assert.Equal(t, 1, cfg.Inputs.SalePrice.HeaderRow)
	assert.Empty(t, cfg.Sinks.Enabled())
	assert.Equal(t, report.DefaultBlurbTemplates, cfg.Blurbs)

	overrides, err := cfg.ReportOverrides()
	require.NoError(t, err)
	assert.Equal(t, report.DefaultOverrides(), overrides)
}

func TestInitCommand_Force(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("scope: mine\n"), 0600))

	r := output.NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, false, output.ModeText)

	err := runInit(r, dir, ".", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, runInit(r, dir, ".", true))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "scope: mine")
	assert.Contains(t, string(content), "# statemetrics configuration.")
}
