package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/statemetrics/internal/blurb"
	"github.com/leapstack-labs/statemetrics/internal/report"
)

var (
	outputFormats = []string{"auto", "text", "markdown", "json"}
	logFormats    = []string{"text", "json"}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	if !contains(outputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output_format %q (expected one of %v)", c.OutputFormat, outputFormats)
	}
	if !contains(logFormats, c.LogFormat) {
		return fmt.Errorf("invalid log_format %q (expected one of %v)", c.LogFormat, logFormats)
	}
	if _, err := report.ParseRankMethod(c.Ranking.Method); err != nil {
		return fmt.Errorf("invalid ranking.method: %w", err)
	}
	if _, err := c.ReportOverrides(); err != nil {
		return err
	}
	for name := range c.Blurbs {
		if _, err := report.ParseMetric(name); err != nil {
			return fmt.Errorf("invalid blurbs key: %w", err)
		}
	}
	for name, in := range map[string]InputConfig{
		"keys":       c.Inputs.Keys,
		"income":     c.Inputs.Income,
		"population": c.Inputs.Population,
		"sale_price": c.Inputs.SalePrice,
	} {
		if in.File == "" {
			return fmt.Errorf("inputs.%s.file is required", name)
		}
		if in.HeaderRow < 0 || in.ValueRow < 0 {
			return fmt.Errorf("inputs.%s: header_row and value_row must not be negative", name)
		}
	}
	return nil
}

// ValidateInputs checks that every input file exists.
func (c *Config) ValidateInputs() error {
	for _, in := range c.Inputs.all() {
		if _, err := os.Stat(in.File); os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s\nHint: Use --inputs-dir or the inputs section in %s", in.File, ConfigFileName)
		}
	}
	return nil
}

// Sources returns the input tables in the form the loader reads them.
func (c *Config) Sources() report.Sources {
	source := func(in InputConfig) report.Source {
		return report.Source{
			Path:      in.File,
			Delimiter: in.Delimiter.Rune(),
			HeaderRow: in.HeaderRow,
			ValueRow:  in.ValueRow,
		}
	}
	return report.Sources{
		Keys:       source(c.Inputs.Keys),
		Income:     source(c.Inputs.Income),
		Population: source(c.Inputs.Population),
		SalePrice:  source(c.Inputs.SalePrice),
	}
}

// ReportOverrides converts the configured overrides.
func (c *Config) ReportOverrides() ([]report.Override, error) {
	out := make([]report.Override, 0, len(c.Overrides))
	for i, o := range c.Overrides {
		metric, err := report.ParseMetric(o.Metric)
		if err != nil {
			return nil, fmt.Errorf("invalid overrides[%d]: %w", i, err)
		}
		mode, err := report.ParseOverrideMode(o.Mode)
		if err != nil {
			return nil, fmt.Errorf("invalid overrides[%d]: %w", i, err)
		}
		if o.Key == "" {
			return nil, fmt.Errorf("invalid overrides[%d]: key is required", i)
		}
		out = append(out, report.Override{Metric: metric, Key: o.Key, Value: o.Value, Mode: mode})
	}
	return out, nil
}

// BuilderOptions returns report builder options for this configuration.
func (c *Config) BuilderOptions(logger *slog.Logger) (report.Options, error) {
	method, err := report.ParseRankMethod(c.Ranking.Method)
	if err != nil {
		return report.Options{}, err
	}

	overrides, err := c.ReportOverrides()
	if err != nil {
		return report.Options{}, err
	}

	// Configured blurbs replace defaults per metric.
	templates := make(map[string]string, len(report.DefaultBlurbTemplates))
	for name, tmpl := range report.DefaultBlurbTemplates {
		templates[name] = tmpl
	}
	for name, tmpl := range c.Blurbs {
		templates[name] = tmpl
	}
	blurbs, err := blurb.NewSet(templates)
	if err != nil {
		return report.Options{}, fmt.Errorf("invalid blurb template: %w", err)
	}

	return report.Options{
		AggregateKey: c.AggregateKey,
		Scope:        c.Scope,
		RankMethod:   method,
		Overrides:    overrides,
		Blurbs:       blurbs,
		Logger:       logger,
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
