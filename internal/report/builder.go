package report

// builder.go - join, override, rank and blurb stage

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/leapstack-labs/statemetrics/internal/blurb"
)

// Default build settings.
const (
	DefaultAggregateKey = "united_states"
	DefaultScope        = "states, DC, and Puerto Rico"
)

// DefaultBlurbTemplates are the sentences written for each metric.
// Templates see name, key, rank, value, month and scope.
var DefaultBlurbTemplates = map[string]string{
	string(MetricPopulation): "{{ name }} is {{ rank }} in the nation in population among {{ scope }}.",
	string(MetricIncome):     "{{ name }} is {{ rank }} in the nation in median household income among {{ scope }}.",
	string(MetricSalePrice): "{{ name }} has the {{ rank }} highest median sale price on homes in the nation among {{ scope }}, " +
		"according to Redfin data from {{ month }}.",
	string(MetricAffordability): "{{ name }} has the {{ rank }} lowest house affordability ratio in the nation among {{ scope }}, " +
		"according to Redfin data from {{ month }}.",
}

// OverrideMode controls when an override applies.
type OverrideMode string

// OverrideMode values.
const (
	// OverrideFill sets the value only when the source has none.
	OverrideFill OverrideMode = "fill"
	// OverrideReplace always sets the value.
	OverrideReplace OverrideMode = "replace"
)

// ParseOverrideMode converts a config string into an OverrideMode.
func ParseOverrideMode(s string) (OverrideMode, error) {
	switch m := OverrideMode(s); m {
	case OverrideFill, OverrideReplace:
		return m, nil
	case "":
		return OverrideReplace, nil
	}
	return "", fmt.Errorf("unknown override mode %q (expected fill or replace)", s)
}

// Override pins a metric value for one key row. The source exports have gaps
// for the district and the territory that are patched this way.
type Override struct {
	Metric Metric
	Key    string
	Value  float64
	Mode   OverrideMode
}

// DefaultOverrides returns the built-in patches for DC and Puerto Rico.
func DefaultOverrides() []Override {
	return []Override{
		{Metric: MetricPopulation, Key: "washington_dc", Value: 678972, Mode: OverrideFill},
		{Metric: MetricSalePrice, Key: "washington_dc", Value: 565000, Mode: OverrideReplace},
		{Metric: MetricSalePrice, Key: "puerto_rico", Value: 138000, Mode: OverrideReplace},
	}
}

// Options configures a Builder.
type Options struct {
	// AggregateKey is the nationwide key row excluded from the report.
	AggregateKey string
	// Scope is the phrase naming the ranked population, used by the blurbs.
	Scope      string
	RankMethod RankMethod
	Overrides  []Override
	// Blurbs renders the per-metric sentences. Nil uses DefaultBlurbTemplates.
	Blurbs *blurb.Set
	Logger *slog.Logger
}

// Builder joins a Dataset into a Report.
type Builder struct {
	opts   Options
	blurbs *blurb.Set
	logger *slog.Logger
}

// NewBuilder creates a Builder, filling unset options with defaults.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.AggregateKey == "" {
		opts.AggregateKey = DefaultAggregateKey
	}
	if opts.Scope == "" {
		opts.Scope = DefaultScope
	}
	if opts.RankMethod == "" {
		opts.RankMethod = RankDense
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	blurbs := opts.Blurbs
	if blurbs == nil {
		var err error
		blurbs, err = blurb.NewSet(DefaultBlurbTemplates)
		if err != nil {
			return nil, fmt.Errorf("failed to parse default blurbs: %w", err)
		}
	}

	return &Builder{opts: opts, blurbs: blurbs, logger: logger}, nil
}

// Build joins, ranks and describes every state in ds.
func (b *Builder) Build(ds *Dataset) (*Report, error) {
	idx := NewNameIndex(ds.Keys)

	rows := make([]Row, 0, len(ds.Keys))
	for _, k := range ds.Keys {
		if k.KeyRow == b.opts.AggregateKey {
			continue
		}
		row := Row{KeyRow: k.KeyRow, Name: DisplayName(k.KeyRow)}
		if raw, ok := ds.Population[k.AlternativeName]; ok {
			row.Population.Measure = b.parse(MetricPopulation, k.KeyRow, raw, ParseNumber)
		}
		rows = append(rows, row)
	}

	b.applyOverrides(rows, MetricPopulation)

	kept := rows[:0]
	for _, row := range rows {
		if !row.Population.Valid {
			b.logger.Debug("dropping state without population", "key_row", row.KeyRow)
			continue
		}
		kept = append(kept, row)
	}
	rows = kept

	b.join(rows, MetricIncome, ds.Income, ParseNumber, idx.ByMSA, idx.ByName)
	b.applyOverrides(rows, MetricIncome)

	b.join(rows, MetricSalePrice, ds.SalePrices, ParseDollar, idx.ByName)
	b.applyOverrides(rows, MetricSalePrice)

	// Ratios are ranked unrounded; the rounded value is what gets reported.
	ratios := make(map[string]float64, len(rows))
	for i := range rows {
		row := &rows[i]
		if !row.SalePrice.Valid || !row.Income.Valid || row.Income.Value == 0 {
			continue
		}
		ratio := row.SalePrice.Value / row.Income.Value
		ratios[row.KeyRow] = ratio
		row.Affordability.Measure = Some(scalar.RoundEven(ratio, 1))
	}
	for _, o := range b.overrides(MetricAffordability) {
		for i := range rows {
			row := &rows[i]
			if row.KeyRow != o.Key || (o.Mode == OverrideFill && row.Affordability.Valid) {
				continue
			}
			row.Affordability.Measure = Some(o.Value)
			ratios[row.KeyRow] = o.Value
		}
	}

	b.rank(rows, MetricPopulation, nil, Descending)
	b.rank(rows, MetricIncome, nil, Descending)
	b.rank(rows, MetricSalePrice, nil, Descending)
	b.rank(rows, MetricAffordability, ratios, Ascending)

	rep := &Report{
		RunID: uuid.New().String(),
		Month: ds.Month,
		Rows:  rows,
	}

	if err := b.describe(rep); err != nil {
		return nil, err
	}

	b.logger.Debug("built report", "run_id", rep.RunID, "rows", len(rep.Rows))
	return rep, nil
}

// parse converts a raw cell, logging values that carry text but do not parse.
func (b *Builder) parse(m Metric, key, raw string, parse func(string) (float64, bool)) Measure {
	v, ok := parse(raw)
	if !ok {
		if !IsMissing(raw) {
			b.logger.Debug("skipping unparseable value", "metric", m, "key_row", key, "value", raw)
		}
		return Measure{}
	}
	return Some(v)
}

// join resolves every source name to a key row and stores the parsed value
// on the matching rows. Resolvers are tried in priority order: a key matched
// by an earlier resolver is never taken over by a later one.
func (b *Builder) join(rows []Row, m Metric, raw map[string]string, parse func(string) (float64, bool), resolvers ...func(string) (string, bool)) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make(map[string]Measure, len(names))
	for _, resolve := range resolvers {
		for _, name := range names {
			key, ok := resolve(name)
			if !ok {
				continue
			}
			if _, done := values[key]; done {
				continue
			}
			values[key] = b.parse(m, key, raw[name], parse)
		}
	}

	for i := range rows {
		if v, ok := values[rows[i].KeyRow]; ok {
			rows[i].Stat(m).Measure = v
		}
	}
}

func (b *Builder) overrides(m Metric) []Override {
	var out []Override
	for _, o := range b.opts.Overrides {
		if o.Metric == m {
			out = append(out, o)
		}
	}
	return out
}

func (b *Builder) applyOverrides(rows []Row, m Metric) {
	for _, o := range b.overrides(m) {
		for i := range rows {
			stat := rows[i].Stat(m)
			if rows[i].KeyRow != o.Key || (o.Mode == OverrideFill && stat.Valid) {
				continue
			}
			b.logger.Debug("applying override", "metric", m, "key_row", o.Key, "value", o.Value, "mode", o.Mode)
			stat.Measure = Some(o.Value)
		}
	}
}

// rank ranks the metric over the rows. When values is nil the rows' own
// values are ranked.
func (b *Builder) rank(rows []Row, m Metric, values map[string]float64, order Order) {
	if values == nil {
		values = make(map[string]float64, len(rows))
		for i := range rows {
			if stat := rows[i].Stat(m); stat.Valid {
				values[rows[i].KeyRow] = stat.Value
			}
		}
	}

	ranks := Rank(values, order, b.opts.RankMethod)
	for i := range rows {
		rows[i].Stat(m).Rank = ranks[rows[i].KeyRow]
	}
}

// describe renders the blurb for every ranked stat.
func (b *Builder) describe(rep *Report) error {
	for i := range rep.Rows {
		row := &rep.Rows[i]
		for _, m := range Metrics {
			stat := row.Stat(m)
			if stat.Rank == 0 {
				continue
			}
			text, err := b.blurbs.Render(string(m), blurb.Vars{
				"name":  row.Name,
				"key":   row.KeyRow,
				"rank":  Ordinal(stat.Rank),
				"value": FormatValue(m, stat.Value),
				"month": rep.Month,
				"scope": b.opts.Scope,
			})
			if err != nil {
				return fmt.Errorf("failed to render %s blurb for %s: %w", m, row.KeyRow, err)
			}
			stat.Blurb = text
		}
	}
	return nil
}
