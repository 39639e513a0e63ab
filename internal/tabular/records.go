package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/stwalsh4118/agristat/internal/location"
	"github.com/stwalsh4118/agristat/internal/models"
)

// Table names used for the four record collections.
const (
	FarmersTable     = "farmers"
	CropsTable       = "crops"
	LivestockTable   = "livestock"
	AquacultureTable = "aquaculture"
)

// Column headers per table. They match the JSON field names of the records.
var (
	FarmerColumns = []string{
		"id", "name", "gender", "year_of_birth", "county", "subcounty", "ward",
		"crop_production", "livestock_production",
		"highest_level_of_formal_education", "formal_training_in_agriculture",
	}
	CropColumns = []string{
		"id", "farmer_id", "crop_name", "acreage", "county", "subcounty", "ward",
		"water_source", "production_system", "purpose", "use_of_certified_seeds",
	}
	// LivestockColumns omits total_livestock_count on input; it is derived.
	LivestockColumns = []string{
		"id", "farmer_id", "livestock_name", "livestock_sub_category",
		"county", "subcounty", "ward", "male_livestock_count",
		"female_livestock_count", "production_system", "age_group",
	}
	AquacultureColumns = []string{
		"id", "farmer_id", "aquaculture_species", "aquaculture_species_category",
		"county", "subcounty", "ward", "type_of_production_system",
		"estimated_no_of_fingerlings",
	}
)

const totalLivestockColumn = "total_livestock_count"

// numericColumns are written as numbers in XLSX exports; every other column
// is written as text.
var numericColumns = map[string]bool{
	"id":                             true,
	"farmer_id":                      true,
	"year_of_birth":                  true,
	"formal_training_in_agriculture": true,
	"crop_production":                true,
	"livestock_production":           true,
	"acreage":                        true,
	"use_of_certified_seeds":         true,
	"male_livestock_count":           true,
	"female_livestock_count":         true,
	totalLivestockColumn:             true,
	"estimated_no_of_fingerlings":    true,
}

// intLimit is the smallest float above every int value.
const intLimit = -float64(math.MinInt)

// rowReader reads typed cells from one row and remembers the first error.
type rowReader struct {
	table *Table
	index map[string]int
	row   []string
	line  int
	err   error
}

func newRowReader(t *Table, required []string) (*rowReader, error) {
	index := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing columns %s", t.Name, strings.Join(missing, ", "))
	}

	return &rowReader{table: t, index: index}, nil
}

func (r *rowReader) reset(line int, row []string) {
	r.line = line
	r.row = row
	r.err = nil
}

func (r *rowReader) str(col string) string {
	i := r.index[col]
	if i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

func (r *rowReader) fail(col, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s row %d column %q: invalid value %q: %w", r.table.Name, r.line, col, value, err)
	}
}

func (r *rowReader) int(col string) int {
	v := r.str(col)
	n, err := strconv.Atoi(v)
	if err != nil {
		// Spreadsheet exports frequently write whole numbers as "12.0".
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != math.Trunc(f) || f < math.MinInt || f >= intLimit {
			r.fail(col, v, err)
			return 0
		}
		n = int(f)
	}
	return n
}

func (r *rowReader) float(col string) float64 {
	v := r.str(col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(col, v, err)
		return 0
	}
	return f
}

func (r *rowReader) flag(col string) models.Flag {
	v := r.str(col)
	f, err := models.ParseFlag(v)
	if err != nil {
		r.fail(col, v, err)
	}
	return f
}

func (r *rowReader) location() location.Location {
	return location.Location{
		County:    r.str("county"),
		Subcounty: r.str("subcounty"),
		Ward:      r.str("ward"),
	}
}

// blank reports whether every cell of the current row is empty. Trailing
// blank rows are common in spreadsheet exports and are skipped.
func (r *rowReader) blank() bool {
	for _, cell := range r.row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// decode runs fn for every non-blank row; line numbers are 1-based and
// count the header.
func decode[T any](t *Table, columns []string, fn func(r *rowReader) T) ([]T, error) {
	r, err := newRowReader(t, columns)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(t.Rows))
	for i, row := range t.Rows {
		r.reset(i+2, row)
		if r.blank() {
			continue
		}
		rec := fn(r)
		if r.err != nil {
			return nil, r.err
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeFarmers converts a farmers table into records.
func DecodeFarmers(t *Table) ([]models.Farmer, error) {
	return decode(t, FarmerColumns, func(r *rowReader) models.Farmer {
		return models.Farmer{
			Location:            r.location(),
			ID:                  r.int("id"),
			Name:                r.str("name"),
			Gender:              r.str("gender"),
			YearOfBirth:         r.int("year_of_birth"),
			CropProduction:      r.flag("crop_production"),
			LivestockProduction: r.flag("livestock_production"),
			Education:           r.str("highest_level_of_formal_education"),
			TrainingScore:       r.int("formal_training_in_agriculture"),
		}
	})
}

// DecodeCrops converts a crops table into records.
func DecodeCrops(t *Table) ([]models.Crop, error) {
	return decode(t, CropColumns, func(r *rowReader) models.Crop {
		return models.Crop{
			Location:         r.location(),
			ID:               r.int("id"),
			FarmerID:         r.int("farmer_id"),
			CropName:         r.str("crop_name"),
			Acreage:          r.float("acreage"),
			WaterSource:      r.str("water_source"),
			ProductionSystem: r.str("production_system"),
			Purpose:          r.str("purpose"),
			CertifiedSeeds:   r.flag("use_of_certified_seeds"),
		}
	})
}

// DecodeLivestock converts a livestock table into records. A
// total_livestock_count column, if present, is ignored.
func DecodeLivestock(t *Table) ([]models.Livestock, error) {
	return decode(t, LivestockColumns, func(r *rowReader) models.Livestock {
		return models.Livestock{
			Location:         r.location(),
			ID:               r.int("id"),
			FarmerID:         r.int("farmer_id"),
			LivestockName:    r.str("livestock_name"),
			SubCategory:      r.str("livestock_sub_category"),
			MaleCount:        r.int("male_livestock_count"),
			FemaleCount:      r.int("female_livestock_count"),
			ProductionSystem: r.str("production_system"),
			AgeGroup:         r.str("age_group"),
		}
	})
}

// DecodeAquaculture converts an aquaculture table into records.
func DecodeAquaculture(t *Table) ([]models.Aquaculture, error) {
	return decode(t, AquacultureColumns, func(r *rowReader) models.Aquaculture {
		return models.Aquaculture{
			Location:         r.location(),
			ID:               r.int("id"),
			FarmerID:         r.int("farmer_id"),
			Species:          r.str("aquaculture_species"),
			SpeciesCategory:  r.str("aquaculture_species_category"),
			ProductionSystem: r.str("type_of_production_system"),
			Fingerlings:      r.int("estimated_no_of_fingerlings"),
		}
	})
}

// EncodeFarmers converts farmers into a table.
func EncodeFarmers(farmers []models.Farmer) *Table {
	t := &Table{Name: FarmersTable, Header: FarmerColumns}
	for _, f := range farmers {
		t.Rows = append(t.Rows, []string{
			itoa(f.ID), f.Name, f.Gender, itoa(f.YearOfBirth),
			f.County, f.Subcounty, f.Ward,
			f.CropProduction.String(), f.LivestockProduction.String(),
			f.Education, itoa(f.TrainingScore),
		})
	}
	return t
}

// EncodeCrops converts crop records into a table.
func EncodeCrops(crops []models.Crop) *Table {
	t := &Table{Name: CropsTable, Header: CropColumns}
	for _, c := range crops {
		t.Rows = append(t.Rows, []string{
			itoa(c.ID), itoa(c.FarmerID), c.CropName,
			strconv.FormatFloat(c.Acreage, 'f', -1, 64),
			c.County, c.Subcounty, c.Ward,
			c.WaterSource, c.ProductionSystem, c.Purpose, c.CertifiedSeeds.String(),
		})
	}
	return t
}

// EncodeLivestock converts herd records into a table, including the derived
// total column for readers of the exported file.
func EncodeLivestock(herds []models.Livestock) *Table {
	header := append(append([]string{}, LivestockColumns...), totalLivestockColumn)
	t := &Table{Name: LivestockTable, Header: header}
	for _, l := range herds {
		t.Rows = append(t.Rows, []string{
			itoa(l.ID), itoa(l.FarmerID), l.LivestockName, l.SubCategory,
			l.County, l.Subcounty, l.Ward,
			itoa(l.MaleCount), itoa(l.FemaleCount),
			l.ProductionSystem, l.AgeGroup, itoa(l.TotalCount()),
		})
	}
	return t
}

// EncodeAquaculture converts aquaculture records into a table.
func EncodeAquaculture(records []models.Aquaculture) *Table {
	t := &Table{Name: AquacultureTable, Header: AquacultureColumns}
	for _, a := range records {
		t.Rows = append(t.Rows, []string{
			itoa(a.ID), itoa(a.FarmerID), a.Species, a.SpeciesCategory,
			a.County, a.Subcounty, a.Ward,
			a.ProductionSystem, itoa(a.Fingerlings),
		})
	}
	return t
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
