package report

// loader.go - reading the four source tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Column names and header conventions of the source exports.
const (
	ColKeyRow          = "key_row"
	ColAlternativeName = "alternative_name"
	ColCensusMSA       = "census_msa"
	ColRegion          = "Region"

	// PopulationSuffix marks the total-population estimate columns: "Alabama!!Estimate".
	PopulationSuffix = "!!Estimate"
	// IncomeMarker marks the median income estimate columns:
	// "Alabama!!Median income (dollars)!!Estimate".
	IncomeMarker = "!!Median income (dollars)!!Estimate"

	headerSep = "!!"
)

// Source describes one delimited input file.
type Source struct {
	Path string
	// Delimiter separates fields. Zero means comma.
	Delimiter rune
	// HeaderRow is the 0-based line holding the column names; earlier lines are skipped.
	HeaderRow int
	// ValueRow is the 0-based data row (after the header) holding the values of
	// wide census tables.
	ValueRow int
}

// Sources groups the four inputs of a build.
type Sources struct {
	Keys       Source
	Income     Source
	Population Source
	SalePrice  Source
}

// MissingColumnError is returned when a required column is absent from a table.
type MissingColumnError struct {
	Path   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: required column %q not found", e.Path, e.Column)
}

// Table is a parsed delimited file with trimmed column names.
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row, col or "" when the row is short.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// ReadTable reads a delimited file. Malformed records are skipped.
func ReadTable(src Source, logger *slog.Logger) (*Table, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", src.Path, err)
	}
	defer func() { _ = f.Close() }()

	return parseTable(f, src, logger)
}

func parseTable(r io.Reader, src Source, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	reader := csv.NewReader(r)
	reader.Comma = src.Delimiter
	if reader.Comma == 0 {
		reader.Comma = ','
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	t := &Table{Path: src.Path}
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				logger.Debug("skipping malformed record", "path", src.Path, "line", perr.Line, "error", perr.Err)
				line++
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", src.Path, err)
		}

		switch {
		case line < src.HeaderRow:
		case line == src.HeaderRow:
			t.Header = make([]string, len(record))
			for i, h := range record {
				t.Header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
			}
		default:
			t.Rows = append(t.Rows, record)
		}
		line++
	}

	if t.Header == nil {
		return nil, fmt.Errorf("%s: no header at row %d", src.Path, src.HeaderRow)
	}
	return t, nil
}

// ReadKeys reads the key table.
func ReadKeys(src Source, logger *slog.Logger) ([]Key, error) {
	t, err := ReadTable(src, logger)
	if err != nil {
		return nil, err
	}
	return keysFromTable(t)
}

func keysFromTable(t *Table) ([]Key, error) {
	keyCol := t.Index(ColKeyRow)
	if keyCol < 0 {
		return nil, &MissingColumnError{Path: t.Path, Column: ColKeyRow}
	}
	altCol := t.Index(ColAlternativeName)
	if altCol < 0 {
		return nil, &MissingColumnError{Path: t.Path, Column: ColAlternativeName}
	}
	msaCol := t.Index(ColCensusMSA)

	keys := make([]Key, 0, len(t.Rows))
	for i := range t.Rows {
		k := Key{
			KeyRow:          t.Cell(i, keyCol),
			AlternativeName: t.Cell(i, altCol),
			CensusMSA:       t.Cell(i, msaCol),
		}
		if k.KeyRow == "" {
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// ReadWide reads a wide census table where each state is a column.
// match extracts the state name from a column header; the value comes from src.ValueRow.
func ReadWide(src Source, match func(col string) (string, bool), logger *slog.Logger) (map[string]string, error) {
	t, err := ReadTable(src, logger)
	if err != nil {
		return nil, err
	}
	return wideValues(t, src.ValueRow, match), nil
}

func wideValues(t *Table, valueRow int, match func(col string) (string, bool)) map[string]string {
	values := make(map[string]string)
	// The first column holds row labels.
	for col := 1; col < len(t.Header); col++ {
		name, ok := match(t.Header[col])
		if !ok {
			continue
		}
		if _, dup := values[name]; dup {
			continue
		}
		values[name] = t.Cell(valueRow, col)
	}
	return values
}

// PopulationColumn matches "<Name>!!Estimate" headers.
func PopulationColumn(col string) (string, bool) {
	name, ok := strings.CutSuffix(col, PopulationSuffix)
	if !ok || name == "" || strings.Contains(name, headerSep) {
		return "", false
	}
	return name, true
}

// IncomeColumn matches "<Name>!!Median income (dollars)!!Estimate" headers.
func IncomeColumn(col string) (string, bool) {
	if !strings.Contains(col, IncomeMarker) {
		return "", false
	}
	name, _, _ := strings.Cut(col, headerSep)
	if name == "" {
		return "", false
	}
	return name, true
}

// ReadSalePrices reads the Redfin table and returns the latest month with
// each region's raw price for that month.
func ReadSalePrices(src Source, logger *slog.Logger) (string, map[string]string, error) {
	t, err := ReadTable(src, logger)
	if err != nil {
		return "", nil, err
	}
	return salePricesFromTable(t)
}

func salePricesFromTable(t *Table) (string, map[string]string, error) {
	regionCol := t.Index(ColRegion)
	if regionCol < 0 {
		return "", nil, &MissingColumnError{Path: t.Path, Column: ColRegion}
	}

	monthCol := len(t.Header) - 1
	for monthCol >= 0 && t.Header[monthCol] == "" {
		monthCol--
	}
	if monthCol <= regionCol {
		return "", nil, fmt.Errorf("%s: no month columns after %q", t.Path, ColRegion)
	}
	month := t.Header[monthCol]

	prices := make(map[string]string)
	for i := range t.Rows {
		region := t.Cell(i, regionCol)
		if region == "" {
			continue
		}
		if _, dup := prices[region]; dup {
			continue
		}
		prices[region] = t.Cell(i, monthCol)
	}
	return month, prices, nil
}

// Dataset holds the raw cells read from the four inputs, keyed by source name.
type Dataset struct {
	Keys []Key
	// Population and Income are keyed by the census column name.
	Population map[string]string
	Income     map[string]string
	// SalePrices is keyed by Redfin region for Month.
	SalePrices map[string]string
	Month      string
}

// Load reads all four inputs.
func Load(sources Sources, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	keys, err := ReadKeys(sources.Keys, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load keys: %w", err)
	}
	logger.Debug("loaded keys", "path", sources.Keys.Path, "count", len(keys))

	population, err := ReadWide(sources.Population, PopulationColumn, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load population: %w", err)
	}
	logger.Debug("loaded population", "path", sources.Population.Path, "columns", len(population))

	income, err := ReadWide(sources.Income, IncomeColumn, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load income: %w", err)
	}
	logger.Debug("loaded income", "path", sources.Income.Path, "columns", len(income))

	month, prices, err := ReadSalePrices(sources.SalePrice, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load sale prices: %w", err)
	}
	logger.Info("using most recent month for median sale prices", "month", month)

	return &Dataset{
		Keys:       keys,
		Population: population,
		Income:     income,
		SalePrices: prices,
		Month:      month,
	}, nil
}
