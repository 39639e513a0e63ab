// Package store holds the record collections loaded once at startup.
package store

import (
	"context"
	"slices"
	"time"

	"github.com/stwalsh4118/agristat/internal/logger"
	"github.com/stwalsh4118/agristat/internal/models"
	"github.com/stwalsh4118/agristat/internal/provider"
)

// Counts reports the size of each collection.
type Counts struct {
	Farmers     int `json:"farmers"`
	Crops       int `json:"crops"`
	Livestock   int `json:"livestock"`
	Aquaculture int `json:"aquaculture"`
}

// Store is an immutable snapshot of the four collections. It is written once
// in New and only read afterwards, so it is safe for concurrent use.
type Store struct {
	data    *models.Dataset
	source  string
	loadErr error
}

// New runs the provider once. A failed load is logged and leaves the store
// with four empty collections; New itself never fails.
func New(ctx context.Context, p provider.DataProvider, log *logger.Logger) *Store {
	start := time.Now()

	ds, err := p.Load(ctx)
	if err != nil {
		log.Error("Failed to load data, serving empty collections", err, map[string]interface{}{
			"provider": p.Name(),
		})
		return &Store{data: models.EmptyDataset(), source: p.Name(), loadErr: err}
	}

	s := &Store{data: normalize(ds), source: p.Name()}
	counts := s.Counts()
	log.Info("Data loaded", map[string]interface{}{
		"provider":    p.Name(),
		"farmers":     counts.Farmers,
		"crops":       counts.Crops,
		"livestock":   counts.Livestock,
		"aquaculture": counts.Aquaculture,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return s
}

// FromDataset builds a store directly from a dataset.
func FromDataset(source string, ds *models.Dataset) *Store {
	return &Store{data: normalize(ds), source: source}
}

func normalize(ds *models.Dataset) *models.Dataset {
	out := models.EmptyDataset()
	if ds == nil {
		return out
	}
	if ds.Farmers != nil {
		out.Farmers = ds.Farmers
	}
	if ds.Crops != nil {
		out.Crops = ds.Crops
	}
	if ds.Livestock != nil {
		out.Livestock = ds.Livestock
	}
	if ds.Aquaculture != nil {
		out.Aquaculture = ds.Aquaculture
	}
	return out
}

// Farmers returns a copy of the farmer collection.
func (s *Store) Farmers() []models.Farmer {
	return slices.Clone(s.data.Farmers)
}

// Crops returns a copy of the crop collection.
func (s *Store) Crops() []models.Crop {
	return slices.Clone(s.data.Crops)
}

// Livestock returns a copy of the livestock collection.
func (s *Store) Livestock() []models.Livestock {
	return slices.Clone(s.data.Livestock)
}

// Aquaculture returns a copy of the aquaculture collection.
func (s *Store) Aquaculture() []models.Aquaculture {
	return slices.Clone(s.data.Aquaculture)
}

// Source returns the provider name the store was loaded from.
func (s *Store) Source() string {
	return s.source
}

// LoadErr returns the load error, or nil if the provider succeeded.
func (s *Store) LoadErr() error {
	return s.loadErr
}

// Counts returns the collection sizes.
func (s *Store) Counts() Counts {
	return Counts{
		Farmers:     len(s.data.Farmers),
		Crops:       len(s.data.Crops),
		Livestock:   len(s.data.Livestock),
		Aquaculture: len(s.data.Aquaculture),
	}
}
