package models

import (
	"encoding/json"

	"github.com/stwalsh4118/agristat/internal/location"
)

// Farmer is a registered farmer. Field tags double as the tabular column
// headers used by the file and postgres providers.
type Farmer struct {
	location.Location
	Name                string `json:"name"`
	Gender              string `json:"gender"`
	Education           string `json:"highest_level_of_formal_education"`
	ID                  int    `json:"id"`
	YearOfBirth         int    `json:"year_of_birth"`
	TrainingScore       int    `json:"formal_training_in_agriculture"`
	CropProduction      Flag   `json:"crop_production"`
	LivestockProduction Flag   `json:"livestock_production"`
}

// Crop is a crop planting record. FarmerID is not guaranteed to reference
// an existing farmer.
type Crop struct {
	location.Location
	CropName         string  `json:"crop_name"`
	WaterSource      string  `json:"water_source"`
	ProductionSystem string  `json:"production_system"`
	Purpose          string  `json:"purpose"`
	Acreage          float64 `json:"acreage"`
	ID               int     `json:"id"`
	FarmerID         int     `json:"farmer_id"`
	CertifiedSeeds   Flag    `json:"use_of_certified_seeds"`
}

// Livestock is a herd record. The total head count is always derived from
// the male and female counts.
type Livestock struct {
	location.Location
	LivestockName    string `json:"livestock_name"`
	SubCategory      string `json:"livestock_sub_category"`
	ProductionSystem string `json:"production_system"`
	AgeGroup         string `json:"age_group"`
	ID               int    `json:"id"`
	FarmerID         int    `json:"farmer_id"`
	MaleCount        int    `json:"male_livestock_count"`
	FemaleCount      int    `json:"female_livestock_count"`
}

// TotalCount returns male + female head count.
func (l Livestock) TotalCount() int {
	return l.MaleCount + l.FemaleCount
}

// MarshalJSON adds the derived total_livestock_count field.
func (l Livestock) MarshalJSON() ([]byte, error) {
	type plain Livestock
	return json.Marshal(struct {
		plain
		TotalCount int `json:"total_livestock_count"`
	}{
		plain:      plain(l),
		TotalCount: l.TotalCount(),
	})
}

// Aquaculture is a fish farming record.
type Aquaculture struct {
	location.Location
	Species          string `json:"aquaculture_species"`
	SpeciesCategory  string `json:"aquaculture_species_category"`
	ProductionSystem string `json:"type_of_production_system"`
	ID               int    `json:"id"`
	FarmerID         int    `json:"farmer_id"`
	Fingerlings      int    `json:"estimated_no_of_fingerlings"`
}

// Located is implemented by every record type that carries a location.
type Located interface {
	Place() location.Location
}

// Place returns the record's location.
func (f Farmer) Place() location.Location { return f.Location }

// Place returns the record's location.
func (c Crop) Place() location.Location { return c.Location }

// Place returns the record's location.
func (l Livestock) Place() location.Location { return l.Location }

// Place returns the record's location.
func (a Aquaculture) Place() location.Location { return a.Location }

// Dataset holds the four record collections produced by a data provider.
type Dataset struct {
	Farmers     []Farmer
	Crops       []Crop
	Livestock   []Livestock
	Aquaculture []Aquaculture
}

// EmptyDataset returns a dataset whose collections are empty but non-nil,
// so they serialize as [] rather than null.
func EmptyDataset() *Dataset {
	return &Dataset{
		Farmers:     []Farmer{},
		Crops:       []Crop{},
		Livestock:   []Livestock{},
		Aquaculture: []Aquaculture{},
	}
}
