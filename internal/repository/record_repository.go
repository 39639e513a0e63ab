package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/agristat/internal/database"
	"github.com/stwalsh4118/agristat/internal/models"
)

// RecordRepository defines read access to the four record tables.
type RecordRepository interface {
	// ListFarmers returns every row of the farmers table ordered by id.
	// Returns an empty slice if the table is empty (not an error).
	ListFarmers(ctx context.Context) ([]models.Farmer, error)

	// ListCrops returns every row of the crops table ordered by id.
	ListCrops(ctx context.Context) ([]models.Crop, error)

	// ListLivestock returns every row of the livestock table ordered by id.
	// Any stored total column is ignored; totals are derived from the counts.
	ListLivestock(ctx context.Context) ([]models.Livestock, error)

	// ListAquaculture returns every row of the aquaculture table ordered by id.
	ListAquaculture(ctx context.Context) ([]models.Aquaculture, error)
}

// recordRepository is the concrete implementation of RecordRepository.
type recordRepository struct {
	db *database.Database
}

// NewRecordRepository creates a new instance of RecordRepository.
func NewRecordRepository(db *database.Database) RecordRepository {
	return &recordRepository{
		db: db,
	}
}

// ListFarmers reads the farmers table.
func (r *recordRepository) ListFarmers(ctx context.Context) ([]models.Farmer, error) {
	query := `
		SELECT
			id,
			name,
			gender,
			year_of_birth,
			county,
			subcounty,
			ward,
			crop_production,
			livestock_production,
			highest_level_of_formal_education,
			formal_training_in_agriculture
		FROM farmers
		ORDER BY id
	`

	return queryAll(ctx, r.db, "farmers", query, func(row pgx.Rows) (models.Farmer, error) {
		var f models.Farmer
		var crop, livestock bool
		err := row.Scan(
			&f.ID,
			&f.Name,
			&f.Gender,
			&f.YearOfBirth,
			&f.County,
			&f.Subcounty,
			&f.Ward,
			&crop,
			&livestock,
			&f.Education,
			&f.TrainingScore,
		)
		f.CropProduction = models.Flag(crop)
		f.LivestockProduction = models.Flag(livestock)
		return f, err
	})
}

// ListCrops reads the crops table.
func (r *recordRepository) ListCrops(ctx context.Context) ([]models.Crop, error) {
	query := `
		SELECT
			id,
			farmer_id,
			crop_name,
			acreage,
			county,
			subcounty,
			ward,
			water_source,
			production_system,
			purpose,
			use_of_certified_seeds
		FROM crops
		ORDER BY id
	`

	return queryAll(ctx, r.db, "crops", query, func(row pgx.Rows) (models.Crop, error) {
		var c models.Crop
		var certified bool
		err := row.Scan(
			&c.ID,
			&c.FarmerID,
			&c.CropName,
			&c.Acreage,
			&c.County,
			&c.Subcounty,
			&c.Ward,
			&c.WaterSource,
			&c.ProductionSystem,
			&c.Purpose,
			&certified,
		)
		c.CertifiedSeeds = models.Flag(certified)
		return c, err
	})
}

// ListLivestock reads the livestock table.
func (r *recordRepository) ListLivestock(ctx context.Context) ([]models.Livestock, error) {
	query := `
		SELECT
			id,
			farmer_id,
			livestock_name,
			livestock_sub_category,
			county,
			subcounty,
			ward,
			male_livestock_count,
			female_livestock_count,
			production_system,
			age_group
		FROM livestock
		ORDER BY id
	`

	return queryAll(ctx, r.db, "livestock", query, func(row pgx.Rows) (models.Livestock, error) {
		var l models.Livestock
		err := row.Scan(
			&l.ID,
			&l.FarmerID,
			&l.LivestockName,
			&l.SubCategory,
			&l.County,
			&l.Subcounty,
			&l.Ward,
			&l.MaleCount,
			&l.FemaleCount,
			&l.ProductionSystem,
			&l.AgeGroup,
		)
		return l, err
	})
}

// ListAquaculture reads the aquaculture table.
func (r *recordRepository) ListAquaculture(ctx context.Context) ([]models.Aquaculture, error) {
	query := `
		SELECT
			id,
			farmer_id,
			aquaculture_species,
			aquaculture_species_category,
			county,
			subcounty,
			ward,
			type_of_production_system,
			estimated_no_of_fingerlings
		FROM aquaculture
		ORDER BY id
	`

	return queryAll(ctx, r.db, "aquaculture", query, func(row pgx.Rows) (models.Aquaculture, error) {
		var a models.Aquaculture
		err := row.Scan(
			&a.ID,
			&a.FarmerID,
			&a.Species,
			&a.SpeciesCategory,
			&a.County,
			&a.Subcounty,
			&a.Ward,
			&a.ProductionSystem,
			&a.Fingerlings,
		)
		return a, err
	})
}

// queryAll runs query and scans every row with scan.
func queryAll[T any](ctx context.Context, db *database.Database, table, query string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	results := []T{}
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		results = append(results, rec)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", table, err)
	}

	return results, nil
}

// Schema creates the four record tables if they do not exist. It is used by
// integration tests and by operators bootstrapping an empty database.
const Schema = `
	CREATE TABLE IF NOT EXISTS farmers (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		gender TEXT NOT NULL,
		year_of_birth INTEGER NOT NULL,
		county TEXT NOT NULL,
		subcounty TEXT NOT NULL,
		ward TEXT NOT NULL,
		crop_production BOOLEAN NOT NULL,
		livestock_production BOOLEAN NOT NULL,
		highest_level_of_formal_education TEXT NOT NULL,
		formal_training_in_agriculture INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS crops (
		id INTEGER PRIMARY KEY,
		farmer_id INTEGER NOT NULL,
		crop_name TEXT NOT NULL,
		acreage DOUBLE PRECISION NOT NULL,
		county TEXT NOT NULL,
		subcounty TEXT NOT NULL,
		ward TEXT NOT NULL,
		water_source TEXT NOT NULL,
		production_system TEXT NOT NULL,
		purpose TEXT NOT NULL,
		use_of_certified_seeds BOOLEAN NOT NULL
	);
	CREATE TABLE IF NOT EXISTS livestock (
		id INTEGER PRIMARY KEY,
		farmer_id INTEGER NOT NULL,
		livestock_name TEXT NOT NULL,
		livestock_sub_category TEXT NOT NULL,
		county TEXT NOT NULL,
		subcounty TEXT NOT NULL,
		ward TEXT NOT NULL,
		male_livestock_count INTEGER NOT NULL,
		female_livestock_count INTEGER NOT NULL,
		production_system TEXT NOT NULL,
		age_group TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS aquaculture (
		id INTEGER PRIMARY KEY,
		farmer_id INTEGER NOT NULL,
		aquaculture_species TEXT NOT NULL,
		aquaculture_species_category TEXT NOT NULL,
		county TEXT NOT NULL,
		subcounty TEXT NOT NULL,
		ward TEXT NOT NULL,
		type_of_production_system TEXT NOT NULL,
		estimated_no_of_fingerlings INTEGER NOT NULL
	);
`

// EnsureSchema executes Schema.
func EnsureSchema(ctx context.Context, db *database.Database) error {
	if _, err := db.Pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create record tables: %w", err)
	}
	return nil
}

// InsertDataset writes a dataset into the record tables in one batch.
// Existing rows with the same id are replaced.
func InsertDataset(ctx context.Context, db *database.Database, ds *models.Dataset) error {
	batch := &pgx.Batch{}

	for _, f := range ds.Farmers {
		batch.Queue(`
			INSERT INTO farmers VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, gender = EXCLUDED.gender, year_of_birth = EXCLUDED.year_of_birth,
				county = EXCLUDED.county, subcounty = EXCLUDED.subcounty, ward = EXCLUDED.ward,
				crop_production = EXCLUDED.crop_production, livestock_production = EXCLUDED.livestock_production,
				highest_level_of_formal_education = EXCLUDED.highest_level_of_formal_education,
				formal_training_in_agriculture = EXCLUDED.formal_training_in_agriculture`,
			f.ID, f.Name, f.Gender, f.YearOfBirth, f.County, f.Subcounty, f.Ward,
			bool(f.CropProduction), bool(f.LivestockProduction), f.Education, f.TrainingScore)
	}
	for _, c := range ds.Crops {
		batch.Queue(`
			INSERT INTO crops VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				farmer_id = EXCLUDED.farmer_id, crop_name = EXCLUDED.crop_name, acreage = EXCLUDED.acreage,
				county = EXCLUDED.county, subcounty = EXCLUDED.subcounty, ward = EXCLUDED.ward,
				water_source = EXCLUDED.water_source, production_system = EXCLUDED.production_system,
				purpose = EXCLUDED.purpose, use_of_certified_seeds = EXCLUDED.use_of_certified_seeds`,
			c.ID, c.FarmerID, c.CropName, c.Acreage, c.County, c.Subcounty, c.Ward,
			c.WaterSource, c.ProductionSystem, c.Purpose, bool(c.CertifiedSeeds))
	}
	for _, l := range ds.Livestock {
		batch.Queue(`
			INSERT INTO livestock VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				farmer_id = EXCLUDED.farmer_id, livestock_name = EXCLUDED.livestock_name,
				livestock_sub_category = EXCLUDED.livestock_sub_category,
				county = EXCLUDED.county, subcounty = EXCLUDED.subcounty, ward = EXCLUDED.ward,
				male_livestock_count = EXCLUDED.male_livestock_count,
				female_livestock_count = EXCLUDED.female_livestock_count,
				production_system = EXCLUDED.production_system, age_group = EXCLUDED.age_group`,
			l.ID, l.FarmerID, l.LivestockName, l.SubCategory, l.County, l.Subcounty, l.Ward,
			l.MaleCount, l.FemaleCount, l.ProductionSystem, l.AgeGroup)
	}
	for _, a := range ds.Aquaculture {
		batch.Queue(`
			INSERT INTO aquaculture VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				farmer_id = EXCLUDED.farmer_id, aquaculture_species = EXCLUDED.aquaculture_species,
				aquaculture_species_category = EXCLUDED.aquaculture_species_category,
				county = EXCLUDED.county, subcounty = EXCLUDED.subcounty, ward = EXCLUDED.ward,
				type_of_production_system = EXCLUDED.type_of_production_system,
				estimated_no_of_fingerlings = EXCLUDED.estimated_no_of_fingerlings`,
			a.ID, a.FarmerID, a.Species, a.SpeciesCategory, a.County, a.Subcounty, a.Ward,
			a.ProductionSystem, a.Fingerlings)
	}

	if batch.Len() == 0 {
		return nil
	}

	results := db.Pool.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert record %d of batch: %w", i+1, err)
		}
	}
	return results.Close()
}
