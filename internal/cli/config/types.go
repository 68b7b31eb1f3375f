// Package config provides configuration management for the statemetrics CLI.
//
// Configuration is layered with koanf: built-in defaults, then
// statemetrics.yaml, then STATEMETRICS_* environment variables, then
// explicitly set flags.
package config

import (
	"github.com/leapstack-labs/statemetrics/internal/report"
)

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`

	InputsDir       string          `koanf:"inputs_dir"`
	Inputs          InputsConfig    `koanf:"inputs"`
	Output          string          `koanf:"output"`
	OutputDelimiter Delimiter       `koanf:"output_delimiter"`
	OutputFormat    string          `koanf:"output_format"`
	Verbose         bool            `koanf:"verbose"`
	LogFormat       string          `koanf:"log_format"`
	AggregateKey    string          `koanf:"aggregate_key"`
	Scope           string          `koanf:"scope"`
	Ranking         RankingConfig   `koanf:"ranking"`
	Overrides       []OverrideEntry `koanf:"overrides"`
	// Blurbs maps a metric name to its sentence template.
	Blurbs map[string]string `koanf:"blurbs"`
	Sinks  SinksConfig       `koanf:"sinks"`
}

// InputsConfig describes the four source tables.
type InputsConfig struct {
	Keys       InputConfig `koanf:"keys"`
	Income     InputConfig `koanf:"income"`
	Population InputConfig `koanf:"population"`
	SalePrice  InputConfig `koanf:"sale_price"`
}

// InputConfig describes one delimited input file.
type InputConfig struct {
	File      string    `koanf:"file"`
	Delimiter Delimiter `koanf:"delimiter"`
	// HeaderRow is the 0-based line holding the column names.
	HeaderRow int `koanf:"header_row"`
	// ValueRow is the 0-based data row holding the values of a wide table.
	ValueRow int `koanf:"value_row"`
}

// RankingConfig holds ranking options.
type RankingConfig struct {
	Method string `koanf:"method"`
}

// OverrideEntry pins a metric value for one key row.
type OverrideEntry struct {
	Metric string  `koanf:"metric"`
	Key    string  `koanf:"key"`
	Value  float64 `koanf:"value"`
	Mode   string  `koanf:"mode"`
}

// SinksConfig enables the optional report sinks. An empty value disables a sink.
type SinksConfig struct {
	DuckDB   string `koanf:"duckdb"`
	SQLite   string `koanf:"sqlite"`
	Postgres string `koanf:"postgres"`
}

// Enabled returns sink name to DSN for every configured sink, in a fixed order.
func (s SinksConfig) Enabled() [][2]string {
	var out [][2]string
	for _, e := range [][2]string{{"duckdb", s.DuckDB}, {"sqlite", s.SQLite}, {"postgres", s.Postgres}} {
		if e[1] != "" {
			out = append(out, e)
		}
	}
	return out
}

// Default configuration values.
const (
	DefaultInputsDir      = "."
	DefaultOutput         = "output/state_metrics.csv"
	DefaultOutputFormat   = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogFormat      = "text"
	DefaultKeysFile       = "KEYS.csv"
	DefaultIncomeFile     = "CENSUS_MHI_STATE.csv"
	DefaultPopulationFile = "CENSUS_POPULATION_STATE.csv"
	DefaultSalePriceFile  = "REDFIN_MEDIAN_SALE_PRICE.csv"
	ConfigFileName        = "statemetrics.yaml"
	EnvPrefix             = "STATEMETRICS_"
)

// Defaults returns the built-in configuration as a flat koanf map.
func Defaults() map[string]interface{} {
	overrides := make([]interface{}, 0, len(report.DefaultOverrides()))
	for _, o := range report.DefaultOverrides() {
		overrides = append(overrides, map[string]interface{}{
			"metric": string(o.Metric),
			"key":    o.Key,
			"value":  o.Value,
			"mode":   string(o.Mode),
		})
	}

	blurbs := make(map[string]interface{}, len(report.DefaultBlurbTemplates))
	for name, tmpl := range report.DefaultBlurbTemplates {
		blurbs[name] = tmpl
	}

	return map[string]interface{}{
		"inputs_dir":                   DefaultInputsDir,
		"inputs.keys.file":             DefaultKeysFile,
		"inputs.keys.delimiter":        "comma",
		"inputs.keys.header_row":       0,
		"inputs.income.file":           DefaultIncomeFile,
		"inputs.income.delimiter":      "comma",
		"inputs.income.header_row":     0,
		"inputs.income.value_row":      1,
		"inputs.population.file":       DefaultPopulationFile,
		"inputs.population.delimiter":  "tab",
		"inputs.population.header_row": 0,
		"inputs.population.value_row":  1,
		"inputs.sale_price.file":       DefaultSalePriceFile,
		"inputs.sale_price.delimiter":  "comma",
		"inputs.sale_price.header_row": 1,
		"output":                       DefaultOutput,
		"output_delimiter":             "comma",
		"output_format":                DefaultOutputFormat,
		"verbose":                      false,
		"log_format":                   DefaultLogFormat,
		"aggregate_key":                report.DefaultAggregateKey,
		"scope":                        report.DefaultScope,
		"ranking.method":               string(report.RankDense),
		"overrides":                    overrides,
		"blurbs":                       blurbs,
	}
}
