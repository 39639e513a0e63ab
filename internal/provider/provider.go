// Package provider loads the four record collections from a configured source.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stwalsh4118/agristat/internal/generator"
	"github.com/stwalsh4118/agristat/internal/location"
	"github.com/stwalsh4118/agristat/internal/models"
	"github.com/stwalsh4118/agristat/internal/repository"
	"github.com/stwalsh4118/agristat/internal/tabular"
	"golang.org/x/sync/errgroup"
)

// Data source modes.
const (
	ModeSynthetic = "synthetic"
	ModeFile      = "file"
	ModePostgres  = "postgres"
)

// ErrUnknownMode is returned for a data mode other than synthetic, file or postgres.
var ErrUnknownMode = errors.New("unknown data mode")

// DataProvider produces the full dataset once at startup.
type DataProvider interface {
	// Name identifies the source in logs and the info endpoint.
	Name() string

	// Load returns all four collections. Collections are never nil on success.
	Load(ctx context.Context) (*models.Dataset, error)
}

// ValidMode reports whether mode names a known provider.
func ValidMode(mode string) bool {
	switch mode {
	case ModeSynthetic, ModeFile, ModePostgres:
		return true
	}
	return false
}

// SyntheticOptions configures the synthetic provider. Zero counts are
// honored; negative counts are treated as zero.
type SyntheticOptions struct {
	Seed        uint64
	Farmers     int
	Crops       int
	Livestock   int
	Aquaculture int
	MaxAcreage  float64
	Hierarchy   *location.Hierarchy
}

// DefaultSyntheticOptions returns the default record counts.
func DefaultSyntheticOptions() SyntheticOptions {
	return SyntheticOptions{
		Farmers:     generator.DefaultFarmerCount,
		Crops:       generator.DefaultCropCount,
		Livestock:   generator.DefaultLivestockCount,
		Aquaculture: generator.DefaultAquacultureCount,
		MaxAcreage:  generator.DefaultMaxAcreage,
	}
}

// Synthetic generates random but internally consistent records.
type Synthetic struct {
	opts SyntheticOptions
}

// NewSynthetic creates a synthetic provider. A zero seed draws a new seed
// from the clock on every Load.
func NewSynthetic(opts SyntheticOptions) *Synthetic {
	return &Synthetic{opts: opts}
}

// Name implements DataProvider.
func (s *Synthetic) Name() string {
	return ModeSynthetic
}

// Load generates the four collections. Child records reference farmer ids in
// [1, Farmers] without checking them against the generated farmers.
func (s *Synthetic) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed := s.opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	g := generator.NewSeeded(seed, s.opts.Hierarchy, s.opts.MaxAcreage)
	return &models.Dataset{
		Farmers:     g.Farmers(s.opts.Farmers),
		Crops:       g.Crops(s.opts.Crops, s.opts.Farmers),
		Livestock:   g.Livestock(s.opts.Livestock, s.opts.Farmers),
		Aquaculture: g.Aquaculture(s.opts.Aquaculture, s.opts.Farmers),
	}, nil
}

// File reads one table per collection from a directory.
type File struct {
	dir    string
	format string
}

// NewFile creates a file provider reading dir/<table>.<format>.
func NewFile(dir, format string) *File {
	return &File{dir: dir, format: format}
}

// Name implements DataProvider.
func (f *File) Name() string {
	return ModeFile + ":" + f.format
}

// Load reads and decodes the farmers, crops, livestock and aquaculture
// tables concurrently. The first failing table cancels the others and its
// error is returned.
func (f *File) Load(ctx context.Context) (*models.Dataset, error) {
	if !tabular.ValidFormat(f.format) {
		return nil, fmt.Errorf("%w: %q", tabular.ErrUnsupportedFormat, f.format)
	}

	ds := &models.Dataset{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		ds.Farmers, err = loadTable(gctx, f, tabular.FarmersTable, tabular.DecodeFarmers)
		return err
	})
	g.Go(func() (err error) {
		ds.Crops, err = loadTable(gctx, f, tabular.CropsTable, tabular.DecodeCrops)
		return err
	})
	g.Go(func() (err error) {
		ds.Livestock, err = loadTable(gctx, f, tabular.LivestockTable, tabular.DecodeLivestock)
		return err
	})
	g.Go(func() (err error) {
		ds.Aquaculture, err = loadTable(gctx, f, tabular.AquacultureTable, tabular.DecodeAquaculture)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

func loadTable[T any](ctx context.Context, f *File, name string, decode func(*tabular.Table) ([]T, error)) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := tabular.Read(tabular.Path(f.dir, name, f.format))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	records, err := decode(table)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return records, nil
}

// Postgres reads the record tables through a RecordRepository.
type Postgres struct {
	repo repository.RecordRepository
}

// NewPostgres creates a postgres provider.
func NewPostgres(repo repository.RecordRepository) *Postgres {
	return &Postgres{repo: repo}
}

// Name implements DataProvider.
func (p *Postgres) Name() string {
	return ModePostgres
}

// Load reads all four tables.
func (p *Postgres) Load(ctx context.Context) (*models.Dataset, error) {
	farmers, err := p.repo.ListFarmers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load farmers: %w", err)
	}
	crops, err := p.repo.ListCrops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load crops: %w", err)
	}
	herds, err := p.repo.ListLivestock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load livestock: %w", err)
	}
	fish, err := p.repo.ListAquaculture(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aquaculture: %w", err)
	}

	return &models.Dataset{
		Farmers:     nonNil(farmers),
		Crops:       nonNil(crops),
		Livestock:   nonNil(herds),
		Aquaculture: nonNil(fish),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Unavailable stands in for a source that could not be opened, such as a
// database that refused connections at startup. Load always fails with the
// error it was given so the store falls back to empty collections.
type Unavailable struct {
	name string
	err  error
}

// NewUnavailable creates a provider that reports err from every Load.
func NewUnavailable(name string, err error) *Unavailable {
	return &Unavailable{name: name, err: err}
}

// Name implements DataProvider.
func (u *Unavailable) Name() string {
	return u.name
}

// Load implements DataProvider.
func (u *Unavailable) Load(context.Context) (*models.Dataset, error) {
	return nil, fmt.Errorf("%s source unavailable: %w", u.name, u.err)
}
