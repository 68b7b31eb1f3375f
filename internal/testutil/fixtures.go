package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Default input file names, matching the source exports.
const (
	KeysFile       = "KEYS.csv"
	IncomeFile     = "CENSUS_MHI_STATE.csv"
	PopulationFile = "CENSUS_POPULATION_STATE.csv"
	SalePriceFile  = "REDFIN_MEDIAN_SALE_PRICE.csv"
)

// InputFiles holds the paths of a fixture input set.
type InputFiles struct {
	Dir        string
	Keys       string
	Income     string
	Population string
	SalePrice  string
}

// Keys lists six states plus the national row, a state without population
// (wyoming) and a duplicated key (texas). Header cells carry stray spaces.
const keysCSV = `key_row ,alternative_name, census_msa
united_states,United States,
alabama,Alabama,
california,California,
new_york,New York,New York State
texas,Texas,
washington_dc,District of Columbia,
puerto_rico,Puerto Rico,
wyoming,Wyoming,
texas,Texas,
`

// Income is matched through census_msa for New York.
const incomeCSV = `Label (Grouping),United States!!Median income (dollars)!!Estimate,United States!!Median income (dollars)!!Margin of Error,Alabama!!Median income (dollars)!!Estimate,California!!Median income (dollars)!!Estimate,New York State!!Median income (dollars)!!Estimate,Texas!!Median income (dollars)!!Estimate,District of Columbia!!Median income (dollars)!!Estimate,Puerto Rico!!Median income (dollars)!!Estimate
Households,,,,,,,,
    Median income,75149,±170,59609,91905,79557,73035,101722,"24,002"
`

// Population is tab separated; DC carries the census "*****" marker and
// Wyoming is blank.
const populationTSV = "Label (Grouping)\tUnited States!!Estimate\tAlabama!!Estimate\tAlabama!!Margin of Error\tCalifornia!!Estimate\tNew York!!Estimate\tTexas!!Estimate\tDistrict of Columbia!!Estimate\tPuerto Rico!!Estimate\tWyoming!!Estimate\n" +
	"SEX AND AGE\t\t\t\t\t\t\t\t\t\n" +
	"    Total population\t331,449,281\t5,024,279\t*****\t39,538,223\t20,201,249\t29,145,505\t*****\t3,285,874\t\n"

// Sale prices have a title line above the header. DC has no value for the
// latest month and Puerto Rico is absent.
const salePriceCSV = `Median Sale Price,,,
Region,January 2025,February 2025, March 2025 
National,$400K,$405K,$410K
Alabama,$260K,$265K,$270K
California,$800K,$810K,$820K
New York,$450K,$455K,$460K
Texas,$340K,$345K,$350K
District of Columbia,$600K,$610K,
Wyoming,$300K,$305K,$310K
`

// WriteInputs writes the fixture input set into a temporary directory.
func WriteInputs(t testing.TB) InputFiles {
	t.Helper()

	dir := t.TempDir()
	files := InputFiles{
		Dir:        dir,
		Keys:       filepath.Join(dir, KeysFile),
		Income:     filepath.Join(dir, IncomeFile),
		Population: filepath.Join(dir, PopulationFile),
		SalePrice:  filepath.Join(dir, SalePriceFile),
	}

	WriteFile(t, files.Keys, keysCSV)
	WriteFile(t, files.Income, incomeCSV)
	WriteFile(t, files.Population, populationTSV)
	WriteFile(t, files.SalePrice, salePriceCSV)

	return files
}

// WriteFile writes content to path, failing the test on error.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
