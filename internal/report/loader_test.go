package report

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/statemetrics/internal/testutil"
)

// fixtureSources returns Sources for the testutil fixture input set.
func fixtureSources(files testutil.InputFiles) Sources {
	return Sources{
		Keys:       Source{Path: files.Keys, Delimiter: ','},
		Income:     Source{Path: files.Income, Delimiter: ',', ValueRow: 1},
		Population: Source{Path: files.Population, Delimiter: '\t', ValueRow: 1},
		SalePrice:  Source{Path: files.SalePrice, Delimiter: ',', HeaderRow: 1},
	}
}

func TestParseTable_HeaderRowAndTrim(t *testing.T) {
	input := "title line\n" +
		"\ufeff a , b ,c\n" +
		"1,2,3\n" +
		"4,5\n"

	tbl, err := parseTable(strings.NewReader(input), Source{Path: "t.csv", HeaderRow: 1}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "3", tbl.Cell(0, tbl.Index("c")))
	assert.Equal(t, "", tbl.Cell(1, tbl.Index("c")), "short rows read as blank")
	assert.Equal(t, -1, tbl.Index("d"))
}

func TestParseTable_NoHeader(t *testing.T) {
	_, err := parseTable(strings.NewReader("only\n"), Source{Path: "t.csv", HeaderRow: 3}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header")
}

func TestReadKeys(t *testing.T) {
	files := testutil.WriteInputs(t)

	keys, err := ReadKeys(Source{Path: files.Keys}, testutil.NewTestLogger(t))
	require.NoError(t, err)

	require.Len(t, keys, 9)
	assert.Equal(t, Key{KeyRow: "united_states", AlternativeName: "United States"}, keys[0])
	assert.Equal(t, Key{KeyRow: "new_york", AlternativeName: "New York", CensusMSA: "New York State"}, keys[3])
}

func TestReadKeys_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.csv")
	testutil.WriteFile(t, path, "state,name\nalabama,Alabama\n")

	_, err := ReadKeys(Source{Path: path}, nil)
	require.Error(t, err)

	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, ColKeyRow, mce.Column)
}

func TestReadWide(t *testing.T) {
	files := testutil.WriteInputs(t)
	sources := fixtureSources(files)

	population, err := ReadWide(sources.Population, PopulationColumn, nil)
	require.NoError(t, err)
	assert.Equal(t, "5,024,279", population["Alabama"])
	assert.Equal(t, "*****", population["District of Columbia"])
	assert.Equal(t, "", population["Wyoming"])
	assert.NotContains(t, population, "Alabama!!Margin of Error")

	income, err := ReadWide(sources.Income, IncomeColumn, nil)
	require.NoError(t, err)
	assert.Equal(t, "79557", income["New York State"])
	assert.Equal(t, "24,002", income["Puerto Rico"])
	assert.Len(t, income, 7)
}

func TestColumnMatchers(t *testing.T) {
	name, ok := PopulationColumn("Alabama!!Estimate")
	assert.True(t, ok)
	assert.Equal(t, "Alabama", name)

	_, ok = PopulationColumn("Alabama!!Margin of Error")
	assert.False(t, ok)

	_, ok = PopulationColumn("Alabama!!Median income (dollars)!!Estimate")
	assert.False(t, ok)

	name, ok = IncomeColumn("Texas!!Median income (dollars)!!Estimate")
	assert.True(t, ok)
	assert.Equal(t, "Texas", name)

	_, ok = IncomeColumn("Texas!!Median income (dollars)!!Margin of Error")
	assert.False(t, ok)
}

func TestReadSalePrices(t *testing.T) {
	files := testutil.WriteInputs(t)

	month, prices, err := ReadSalePrices(fixtureSources(files).SalePrice, nil)
	require.NoError(t, err)

	assert.Equal(t, "March 2025", month)
	assert.Equal(t, "$270K", prices["Alabama"])
	assert.Equal(t, "", prices["District of Columbia"])
	assert.NotContains(t, prices, "Puerto Rico")
}

func TestReadSalePrices_NoMonths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redfin.csv")
	testutil.WriteFile(t, path, "Region\nAlabama\n")

	_, _, err := ReadSalePrices(Source{Path: path}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no month columns")
}

func TestLoad(t *testing.T) {
	files := testutil.WriteInputs(t)

	ds, err := Load(fixtureSources(files), testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Len(t, ds.Keys, 9)
	assert.Equal(t, "March 2025", ds.Month)
	assert.Equal(t, "39,538,223", ds.Population["California"])
	assert.Equal(t, "$820K", ds.SalePrices["California"])
}

func TestLoad_MissingFile(t *testing.T) {
	files := testutil.WriteInputs(t)
	sources := fixtureSources(files)
	sources.Income.Path = filepath.Join(files.Dir, "missing.csv")

	_, err := Load(sources, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load income")
}
