package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/stwalsh4118/agristat/internal/location"
	"github.com/stwalsh4118/agristat/internal/logger"
	"github.com/stwalsh4118/agristat/internal/models"
)

// AllOption is the filter value that imposes no constraint.
const AllOption = "All"

// Dataset names accepted by LocationOptions.
const (
	DatasetFarmers     = "farmers"
	DatasetCrops       = "crops"
	DatasetLivestock   = "livestock"
	DatasetAquaculture = "aquaculture"
)

// Service-level errors
var (
	ErrUnknownDataset = errors.New("unknown dataset")
)

// Criteria narrows records by location. Empty fields and AllOption impose no
// constraint.
type Criteria struct {
	County    string
	Subcounty string
	Ward      string
}

// Matches reports whether loc satisfies every constrained field.
func (c Criteria) Matches(loc location.Location) bool {
	return matchField(c.County, loc.County) &&
		matchField(c.Subcounty, loc.Subcounty) &&
		matchField(c.Ward, loc.Ward)
}

func matchField(criterion, value string) bool {
	return criterion == "" || criterion == AllOption || criterion == value
}

// FarmerSummary aggregates farmer production flags.
type FarmerSummary struct {
	TotalFarmers      int `json:"total_farmers"`
	CropFarmers       int `json:"crop_farmers"`
	LivestockFarmers  int `json:"livestock_farmers"`
	FarmingHouseholds int `json:"farming_households"`
}

// CropSummary aggregates crop records.
type CropSummary struct {
	TotalRecords       int                `json:"total_records"`
	TotalAcreage       float64            `json:"total_acreage"`
	CertifiedSeedUsers int                `json:"certified_seed_users"`
	AcreageByCrop      map[string]float64 `json:"acreage_by_crop"`
}

// LivestockSummary aggregates herd records.
type LivestockSummary struct {
	TotalRecords    int            `json:"total_records"`
	MaleCount       int            `json:"male_livestock_count"`
	FemaleCount     int            `json:"female_livestock_count"`
	TotalLivestock  int            `json:"total_livestock_count"`
	HeadCountByType map[string]int `json:"head_count_by_type"`
}

// AquacultureSummary aggregates aquaculture records.
type AquacultureSummary struct {
	TotalRecords      int            `json:"total_records"`
	TotalFingerlings  int            `json:"total_fingerlings"`
	RecordsByCategory map[string]int `json:"records_by_category"`
}

// LocationOptions lists the values a cascading location filter may offer.
type LocationOptions struct {
	Counties    []string `json:"counties"`
	Subcounties []string `json:"subcounties"`
	Wards       []string `json:"wards"`
}

// RecordSource provides the loaded collections. *store.Store implements it.
type RecordSource interface {
	Farmers() []models.Farmer
	Crops() []models.Crop
	Livestock() []models.Livestock
	Aquaculture() []models.Aquaculture
}

// RecordService defines the query operations over the loaded records.
type RecordService interface {
	// FilterFarmers returns the farmers matching criteria, in load order.
	FilterFarmers(criteria Criteria) []models.Farmer
	FilterCrops(criteria Criteria) []models.Crop
	FilterLivestock(criteria Criteria) []models.Livestock
	FilterAquaculture(criteria Criteria) []models.Aquaculture

	// Summary aggregates the whole farmer collection.
	Summary() FarmerSummary
	FarmerSummary(criteria Criteria) FarmerSummary
	CropSummary(criteria Criteria) CropSummary
	LivestockSummary(criteria Criteria) LivestockSummary
	AquacultureSummary(criteria Criteria) AquacultureSummary

	// LocationOptions returns filter options drawn from the named dataset.
	// Returns ErrUnknownDataset for names other than the four collections.
	LocationOptions(dataset, county, subcounty string) (LocationOptions, error)
}

// recordService is the concrete implementation of RecordService.
type recordService struct {
	source RecordSource
	log    *logger.Logger
}

// NewRecordService creates a new instance of RecordService.
func NewRecordService(source RecordSource, log *logger.Logger) RecordService {
	return &recordService{
		source: source,
		log:    log,
	}
}

// filter keeps the records whose location satisfies criteria. The result is
// never nil so it encodes as a JSON array.
func filter[T models.Located](records []T, criteria Criteria) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if criteria.Matches(r.Place()) {
			out = append(out, r)
		}
	}
	return out
}

func (s *recordService) FilterFarmers(criteria Criteria) []models.Farmer {
	return filter(s.source.Farmers(), criteria)
}

func (s *recordService) FilterCrops(criteria Criteria) []models.Crop {
	return filter(s.source.Crops(), criteria)
}

func (s *recordService) FilterLivestock(criteria Criteria) []models.Livestock {
	return filter(s.source.Livestock(), criteria)
}

func (s *recordService) FilterAquaculture(criteria Criteria) []models.Aquaculture {
	return filter(s.source.Aquaculture(), criteria)
}

func (s *recordService) Summary() FarmerSummary {
	return s.FarmerSummary(Criteria{})
}

// FarmerSummary counts a farmer with both flags once in FarmingHouseholds.
func (s *recordService) FarmerSummary(criteria Criteria) FarmerSummary {
	farmers := s.FilterFarmers(criteria)

	summary := FarmerSummary{TotalFarmers: len(farmers)}
	for _, f := range farmers {
		if f.CropProduction {
			summary.CropFarmers++
		}
		if f.LivestockProduction {
			summary.LivestockFarmers++
		}
		if f.CropProduction || f.LivestockProduction {
			summary.FarmingHouseholds++
		}
	}
	return summary
}

// CropSummary rounds acreage totals to two decimal places.
func (s *recordService) CropSummary(criteria Criteria) CropSummary {
	crops := s.FilterCrops(criteria)

	summary := CropSummary{
		TotalRecords:  len(crops),
		AcreageByCrop: make(map[string]float64),
	}
	for _, c := range crops {
		summary.TotalAcreage += c.Acreage
		summary.AcreageByCrop[c.CropName] += c.Acreage
		if c.CertifiedSeeds {
			summary.CertifiedSeedUsers++
		}
	}

	summary.TotalAcreage = round2(summary.TotalAcreage)
	for name, acreage := range summary.AcreageByCrop {
		summary.AcreageByCrop[name] = round2(acreage)
	}
	return summary
}

func (s *recordService) LivestockSummary(criteria Criteria) LivestockSummary {
	herds := s.FilterLivestock(criteria)

	summary := LivestockSummary{
		TotalRecords:    len(herds),
		HeadCountByType: make(map[string]int),
	}
	for _, l := range herds {
		summary.MaleCount += l.MaleCount
		summary.FemaleCount += l.FemaleCount
		summary.TotalLivestock += l.TotalCount()
		summary.HeadCountByType[l.LivestockName] += l.TotalCount()
	}
	return summary
}

func (s *recordService) AquacultureSummary(criteria Criteria) AquacultureSummary {
	records := s.FilterAquaculture(criteria)

	summary := AquacultureSummary{
		TotalRecords:      len(records),
		RecordsByCategory: make(map[string]int),
	}
	for _, a := range records {
		summary.TotalFingerlings += a.Fingerlings
		summary.RecordsByCategory[a.SpeciesCategory]++
	}
	return summary
}

// LocationOptions derives cascading options from the records actually
// present: counties in first-seen order, subcounties of the selected county
// and wards of the selected county and subcounty. An unselected parent
// yields just AllOption for its children.
func (s *recordService) LocationOptions(dataset, county, subcounty string) (LocationOptions, error) {
	places, err := s.places(dataset)
	if err != nil {
		s.log.Warn("Unknown dataset requested for options", map[string]interface{}{
			"dataset": dataset,
		})
		return LocationOptions{}, err
	}

	counties := newOrderedSet()
	subcounties := newOrderedSet()
	wards := newOrderedSet()
	subcounties.add(AllOption)
	wards.add(AllOption)

	countySelected := county != "" && county != AllOption
	subcountySelected := subcounty != "" && subcounty != AllOption

	for _, p := range places {
		counties.add(p.County)
		if !countySelected || p.County != county {
			continue
		}
		subcounties.add(p.Subcounty)
		if subcountySelected && p.Subcounty == subcounty {
			wards.add(p.Ward)
		}
	}

	return LocationOptions{
		Counties:    counties.items,
		Subcounties: subcounties.items,
		Wards:       wards.items,
	}, nil
}

func (s *recordService) places(dataset string) ([]location.Location, error) {
	switch dataset {
	case DatasetFarmers:
		return placesOf(s.source.Farmers()), nil
	case DatasetCrops:
		return placesOf(s.source.Crops()), nil
	case DatasetLivestock:
		return placesOf(s.source.Livestock()), nil
	case DatasetAquaculture:
		return placesOf(s.source.Aquaculture()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, dataset)
	}
}

func placesOf[T models.Located](records []T) []location.Location {
	out := make([]location.Location, len(records))
	for i, r := range records {
		out[i] = r.Place()
	}
	return out
}

// orderedSet keeps the first occurrence of each value.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
