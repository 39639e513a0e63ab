package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/agristat/internal/logger"
	"github.com/stwalsh4118/agristat/internal/models"
	"github.com/stwalsh4118/agristat/internal/provider"
)

type stubProvider struct {
	ds  *models.Dataset
	err error
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) Load(context.Context) (*models.Dataset, error) {
	return p.ds, p.err
}

func TestNew_Success(t *testing.T) {
	opts := provider.DefaultSyntheticOptions()
	opts.Seed = 9

	s := New(context.Background(), provider.NewSynthetic(opts), logger.New("test"))

	require.NoError(t, s.LoadErr())
	assert.Equal(t, "synthetic", s.Source())
	assert.Equal(t, Counts{Farmers: 100, Crops: 150, Livestock: 120, Aquaculture: 80}, s.Counts())
}

func TestNew_FallsBackToEmpty(t *testing.T) {
	loadErr := errors.New("data directory not found")
	s := New(context.Background(), stubProvider{err: loadErr}, logger.New("test"))

	assert.ErrorIs(t, s.LoadErr(), loadErr)
	assert.Equal(t, "stub", s.Source())
	assert.Equal(t, Counts{}, s.Counts())

	// Empty, never nil, so JSON encodes [] rather than null.
	assert.NotNil(t, s.Farmers())
	assert.NotNil(t, s.Crops())
	assert.NotNil(t, s.Livestock())
	assert.NotNil(t, s.Aquaculture())
}

func TestNew_NilCollections(t *testing.T) {
	s := New(context.Background(), stubProvider{ds: &models.Dataset{
		Farmers: []models.Farmer{{ID: 1}},
	}}, logger.New("test"))

	require.NoError(t, s.LoadErr())
	assert.Len(t, s.Farmers(), 1)
	assert.NotNil(t, s.Crops())
	assert.NotNil(t, s.Livestock())
	assert.NotNil(t, s.Aquaculture())
}

func TestAccessors_ReturnCopies(t *testing.T) {
	s := FromDataset("test", &models.Dataset{
		Farmers: []models.Farmer{{ID: 1, Name: "Farmer 1"}},
		Crops:   []models.Crop{{ID: 1, CropName: "Maize"}},
	})

	farmers := s.Farmers()
	farmers[0].Name = "changed"
	crops := s.Crops()
	crops[0].CropName = "changed"

	assert.Equal(t, "Farmer 1", s.Farmers()[0].Name)
	assert.Equal(t, "Maize", s.Crops()[0].CropName)
}

func TestFromDataset_Nil(t *testing.T) {
	s := FromDataset("test", nil)
	assert.Equal(t, Counts{}, s.Counts())
	assert.NoError(t, s.LoadErr())
}
