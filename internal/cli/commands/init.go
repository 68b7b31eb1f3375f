package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/statemetrics/internal/cli/config"
	"github.com/leapstack-labs/statemetrics/internal/cli/output"
	"github.com/leapstack-labs/statemetrics/internal/report"
)

const initHeader = `# statemetrics configuration.
# Relative paths resolve against this file's directory.
# Every key can be overridden with STATEMETRICS_<KEY> (nested keys joined by __).

`

type initInput struct {
	File      string `yaml:"file"`
	Delimiter string `yaml:"delimiter"`
	HeaderRow int    `yaml:"header_row"`
	ValueRow  int    `yaml:"value_row,omitempty"`
}

type initOverride struct {
	Metric string  `yaml:"metric"`
	Key    string  `yaml:"key"`
	Value  float64 `yaml:"value"`
	Mode   string  `yaml:"mode"`
}

type initFile struct {
	InputsDir string               `yaml:"inputs_dir"`
	Inputs    map[string]initInput `yaml:"inputs"`
	Output    string               `yaml:"output"`
	Scope     string               `yaml:"scope"`
	Ranking   map[string]string    `yaml:"ranking"`
	Overrides []initOverride       `yaml:"overrides"`
	Blurbs    map[string]string    `yaml:"blurbs"`
	Sinks     map[string]string    `yaml:"sinks"`
}

// starterConfig returns the default configuration in file form.
func starterConfig(inputsDir string) initFile {
	f := initFile{
		InputsDir: inputsDir,
		Inputs: map[string]initInput{
			"keys":       {File: config.DefaultKeysFile, Delimiter: "comma"},
			"income":     {File: config.DefaultIncomeFile, Delimiter: "comma", ValueRow: 1},
			"population": {File: config.DefaultPopulationFile, Delimiter: "tab", ValueRow: 1},
			"sale_price": {File: config.DefaultSalePriceFile, Delimiter: "comma", HeaderRow: 1},
		},
		Output:  config.DefaultOutput,
		Scope:   report.DefaultScope,
		Ranking: map[string]string{"method": string(report.RankDense)},
		Blurbs:  report.DefaultBlurbTemplates,
		Sinks:   map[string]string{"duckdb": "", "sqlite": "", "postgres": ""},
	}
	for _, o := range report.DefaultOverrides() {
		f.Overrides = append(f.Overrides, initOverride{
			Metric: string(o.Metric),
			Key:    o.Key,
			Value:  o.Value,
			Mode:   string(o.Mode),
		})
	}
	return f
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var inputsDir string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter statemetrics.yaml",
		Long: `Write a statemetrics.yaml holding the default configuration.

The file lists the input tables, the output path, the overrides applied to
the district and the territory, the blurb templates and the optional sinks.`,
		Example: `  # Initialize in current directory
  statemetrics init

  # Inputs live in ./data
  statemetrics init --inputs-dir data

  # Force overwrite existing config
  statemetrics init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			r := output.FromContext(cmd.Context())
			if r == nil {
				r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto)
			}
			return runInit(r, dir, inputsDir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().StringVar(&inputsDir, "inputs-dir", config.DefaultInputsDir, "Input directory written to the config")

	return cmd
}

func runInit(r *output.Renderer, dir, inputsDir string, force bool) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
	}

	var buf bytes.Buffer
	buf.WriteString(initHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(starterConfig(inputsDir)); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(configPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	r.Success("Created " + configPath)
	return nil
}
