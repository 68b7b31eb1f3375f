package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/statemetrics/internal/cli/config"
	"github.com/leapstack-labs/statemetrics/internal/cli/output"
	"github.com/leapstack-labs/statemetrics/internal/testutil"
)

// testEnv is a fixture project with a loaded config.
type testEnv struct {
	Files  testutil.InputFiles
	Cfg    *config.Config
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
	mode   output.OutputMode
}

// newTestEnv writes the fixture inputs plus an optional statemetrics.yaml,
// moves into the project and loads its config.
func newTestEnv(t *testing.T, mode output.OutputMode, yaml string) *testEnv {
	t.Helper()

	files := testutil.WriteInputs(t)
	if yaml != "" {
		testutil.WriteFile(t, filepath.Join(files.Dir, config.ConfigFileName), yaml)
	}
	t.Chdir(files.Dir)

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)

	return &testEnv{
		Files:  files,
		Cfg:    cfg,
		Out:    &bytes.Buffer{},
		ErrOut: &bytes.Buffer{},
		mode:   mode,
	}
}

// run executes cmd with args against the environment.
func (e *testEnv) run(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	e.Out.Reset()
	e.ErrOut.Reset()

	r := output.NewRendererWithTTY(e.Out, e.ErrOut, false, e.mode)
	ctx := config.WithConfig(context.Background(), e.Cfg)
	ctx = context.WithValue(ctx, config.LoggerKey(), testutil.NewTestLogger(t))
	ctx = output.WithRenderer(ctx, r)

	cmd.SetContext(ctx)
	cmd.SetOut(e.Out)
	cmd.SetErr(e.ErrOut)
	cmd.SetArgs(args)
	return cmd.Execute()
}
