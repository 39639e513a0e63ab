package generator

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/stwalsh4118/agristat/internal/location"
	"github.com/stwalsh4118/agristat/internal/models"
)

// Default record counts used by the synthetic provider.
const (
	DefaultFarmerCount      = 100
	DefaultCropCount        = 150
	DefaultLivestockCount   = 120
	DefaultAquacultureCount = 80
	DefaultMaxAcreage       = 10.0
)

// Probability thresholds: a flag is set when a uniform draw exceeds them.
const (
	cropProductionThreshold      = 0.3
	livestockProductionThreshold = 0.4
	certifiedSeedThreshold       = 0.5
)

// Categorical values for generated records.
var (
	Genders         = []string{"Male", "Female"}
	EducationLevels = []string{"Primary", "Secondary", "Tertiary", "None"}

	CropTypes             = []string{"Maize", "Beans", "Wheat", "Rice", "Potatoes", "Cassava", "Sorghum"}
	WaterSources          = []string{"Rain-fed", "Irrigated", "Both", "None"}
	CropProductionSystems = []string{"Small-scale", "Large-scale", "Commercial", "Subsistence"}
	CropPurposes          = []string{"Commercial", "Subsistence", "Both"}

	LivestockTypes         = []string{"Cattle", "Goats", "Sheep", "Chicken", "Pigs", "Rabbits"}
	LivestockSubcategories = map[string][]string{
		"Cattle":  {"Dairy", "Beef", "Mixed"},
		"Goats":   {"Dairy", "Meat"},
		"Sheep":   {"Wool", "Meat"},
		"Chicken": {"Layers", "Broilers", "Indigenous"},
		"Pigs":    {"Breeding", "Fattening"},
		"Rabbits": {"Fur", "Meat"},
	}
	LivestockProductionSystems = []string{"Zero-grazing", "Free-range", "Semi-intensive", "Intensive"}
	AgeGroups                  = []string{"Young", "Adult", "Old"}

	AquacultureSpecies           = []string{"Tilapia", "Catfish", "Carp", "Trout", "Salmon"}
	AquacultureCategories        = []string{"Freshwater", "Marine", "Brackish"}
	AquacultureProductionSystems = []string{"Pond", "Cage", "Tank", "Recirculating Aquaculture System (RAS)"}
)

// Numeric ranges (inclusive).
const (
	MinYearOfBirth     = 1960
	MaxYearOfBirth     = 2000
	MaxTrainingScore   = 2
	MaxMaleLivestock   = 10
	MaxFemaleLivestock = 15
	MinFingerlings     = 100
	MaxFingerlings     = 1100
)

// DefaultSubcategory is used for livestock types without registered subcategories.
const DefaultSubcategory = "General"

// Generator produces internally consistent random records. A Generator is
// not safe for concurrent use because it owns its random source.
type Generator struct {
	rng        *rand.Rand
	hierarchy  *location.Hierarchy
	maxAcreage float64
}

// New creates a Generator drawing from rng. A nil hierarchy selects
// location.Default and a non-positive maxAcreage selects DefaultMaxAcreage.
func New(rng *rand.Rand, hierarchy *location.Hierarchy, maxAcreage float64) *Generator {
	if hierarchy == nil {
		hierarchy = location.Default()
	}
	if maxAcreage <= 0 {
		maxAcreage = DefaultMaxAcreage
	}
	return &Generator{
		rng:        rng,
		hierarchy:  hierarchy,
		maxAcreage: maxAcreage,
	}
}

// NewSeeded creates a Generator with a PCG source seeded from seed.
func NewSeeded(seed uint64, hierarchy *location.Hierarchy, maxAcreage float64) *Generator {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), hierarchy, maxAcreage)
}

// Farmers generates count farmers with ids 1..count.
func (g *Generator) Farmers(count int) []models.Farmer {
	farmers := make([]models.Farmer, 0, max(count, 0))
	for i := 1; i <= count; i++ {
		farmers = append(farmers, models.Farmer{
			Location:            g.hierarchy.Resolve(g.rng),
			ID:                  i,
			Name:                fmt.Sprintf("Farmer %d", i),
			Gender:              g.choice(Genders),
			YearOfBirth:         MinYearOfBirth + g.rng.IntN(MaxYearOfBirth-MinYearOfBirth+1),
			CropProduction:      g.flag(cropProductionThreshold),
			LivestockProduction: g.flag(livestockProductionThreshold),
			Education:           g.choice(EducationLevels),
			TrainingScore:       g.rng.IntN(MaxTrainingScore + 1),
		})
	}
	return farmers
}

// Crops generates count crop records. Each farmer_id is drawn uniformly from
// [1, farmerCount] and is not checked against any farmer collection.
func (g *Generator) Crops(count, farmerCount int) []models.Crop {
	crops := make([]models.Crop, 0, max(count, 0))
	for i := 1; i <= count; i++ {
		farmerID := g.farmerID(farmerCount)
		crops = append(crops, models.Crop{
			ID:               i,
			FarmerID:         farmerID,
			CropName:         g.choice(CropTypes),
			Acreage:          round2(g.rng.Float64() * g.maxAcreage),
			Location:         g.hierarchy.Resolve(g.rng),
			WaterSource:      g.choice(WaterSources),
			ProductionSystem: g.choice(CropProductionSystems),
			Purpose:          g.choice(CropPurposes),
			CertifiedSeeds:   g.flag(certifiedSeedThreshold),
		})
	}
	return crops
}

// Livestock generates count herd records with subcategories consistent with
// their livestock type.
func (g *Generator) Livestock(count, farmerCount int) []models.Livestock {
	herds := make([]models.Livestock, 0, max(count, 0))
	for i := 1; i <= count; i++ {
		farmerID := g.farmerID(farmerCount)
		kind := g.choice(LivestockTypes)
		sub := g.choice(Subcategories(kind))
		loc := g.hierarchy.Resolve(g.rng)

		herds = append(herds, models.Livestock{
			ID:               i,
			FarmerID:         farmerID,
			LivestockName:    kind,
			SubCategory:      sub,
			Location:         loc,
			MaleCount:        g.rng.IntN(MaxMaleLivestock + 1),
			FemaleCount:      g.rng.IntN(MaxFemaleLivestock + 1),
			ProductionSystem: g.choice(LivestockProductionSystems),
			AgeGroup:         g.choice(AgeGroups),
		})
	}
	return herds
}

// Aquaculture generates count aquaculture records.
func (g *Generator) Aquaculture(count, farmerCount int) []models.Aquaculture {
	records := make([]models.Aquaculture, 0, max(count, 0))
	for i := 1; i <= count; i++ {
		farmerID := g.farmerID(farmerCount)
		records = append(records, models.Aquaculture{
			ID:               i,
			FarmerID:         farmerID,
			Species:          g.choice(AquacultureSpecies),
			SpeciesCategory:  g.choice(AquacultureCategories),
			Location:         g.hierarchy.Resolve(g.rng),
			ProductionSystem: g.choice(AquacultureProductionSystems),
			Fingerlings:      MinFingerlings + g.rng.IntN(MaxFingerlings-MinFingerlings+1),
		})
	}
	return records
}

// Subcategories returns the subcategories registered for a livestock type,
// or DefaultSubcategory when none are.
func Subcategories(livestockType string) []string {
	if options, ok := LivestockSubcategories[livestockType]; ok && len(options) > 0 {
		return options
	}
	return []string{DefaultSubcategory}
}

func (g *Generator) choice(options []string) string {
	return options[g.rng.IntN(len(options))]
}

func (g *Generator) flag(threshold float64) models.Flag {
	return models.Flag(g.rng.Float64() > threshold)
}

func (g *Generator) farmerID(farmerCount int) int {
	return 1 + g.rng.IntN(max(farmerCount, 1))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
