package location

import (
	"fmt"
	"math/rand/v2"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultSubcounty is used when a county has no registered subcounties.
	DefaultSubcounty = "Central"
	// DefaultWard is used when a subcounty has no registered wards.
	DefaultWard = "Ward 1"
)

// Location is a resolved county/subcounty/ward triple.
type Location struct {
	County    string `json:"county"`
	Subcounty string `json:"subcounty"`
	Ward      string `json:"ward"`
}

// Hierarchy is the three-level county -> subcounty -> ward taxonomy.
// It is read-only once constructed and safe for concurrent use.
type Hierarchy struct {
	counties    []string
	subcounties map[string][]string
	wards       map[string][]string
}

// Default returns the built-in hierarchy. Only a handful of subcounties have
// wards registered; the rest resolve to DefaultWard.
func Default() *Hierarchy {
	return &Hierarchy{
		counties: []string{"Nairobi", "Kiambu", "Nakuru", "Mombasa", "Kisumu"},
		subcounties: map[string][]string{
			"Nairobi": {"Westlands", "Embakasi", "Dagoretti"},
			"Kiambu":  {"Kikuyu", "Thika", "Limuru"},
			"Nakuru":  {"Naivasha", "Gilgil", "Molo"},
			"Mombasa": {"Nyali", "Kisauni", "Likoni"},
			"Kisumu":  {"Kisumu Central", "Kisumu West", "Nyando"},
		},
		wards: map[string][]string{
			"Westlands": {"Parklands", "Mountain View", "Kangemi"},
			"Embakasi":  {"Pipeline", "Utawala", "Mihango"},
			"Kikuyu":    {"Karai", "Nachu", "Sigona"},
		},
	}
}

// Counties returns the registered counties in selection order.
func (h *Hierarchy) Counties() []string {
	return slices.Clone(h.counties)
}

// Subcounties returns the subcounties registered for county, or a single
// DefaultSubcounty entry when the county is unknown or has none.
func (h *Hierarchy) Subcounties(county string) []string {
	if options := h.subcounties[county]; len(options) > 0 {
		return slices.Clone(options)
	}
	return []string{DefaultSubcounty}
}

// Wards returns the wards registered for subcounty, or a single DefaultWard
// entry when the subcounty is unknown or its list is empty.
func (h *Hierarchy) Wards(subcounty string) []string {
	if options := h.wards[subcounty]; len(options) > 0 {
		return slices.Clone(options)
	}
	return []string{DefaultWard}
}

// Resolve picks a county, then a subcounty of that county, then a ward of
// that subcounty, each uniformly at random. It always succeeds.
func (h *Hierarchy) Resolve(rng *rand.Rand) Location {
	county := h.counties[rng.IntN(len(h.counties))]
	subcounty := pick(rng, h.Subcounties(county), DefaultSubcounty)
	ward := pick(rng, h.Wards(subcounty), DefaultWard)

	return Location{
		County:    county,
		Subcounty: subcounty,
		Ward:      ward,
	}
}

// Contains reports whether loc is consistent with the hierarchy, applying
// the same fallbacks Resolve uses.
func (h *Hierarchy) Contains(loc Location) bool {
	if !slices.Contains(h.counties, loc.County) {
		return false
	}
	if !slices.Contains(h.Subcounties(loc.County), loc.Subcounty) {
		return false
	}
	return slices.Contains(h.Wards(loc.Subcounty), loc.Ward)
}

// Tree returns the hierarchy as a nested structure for serialization.
func (h *Hierarchy) Tree() []County {
	tree := make([]County, 0, len(h.counties))
	for _, name := range h.counties {
		county := County{Name: name}
		for _, sub := range h.Subcounties(name) {
			county.Subcounties = append(county.Subcounties, Subcounty{
				Name:  sub,
				Wards: h.Wards(sub),
			})
		}
		tree = append(tree, county)
	}
	return tree
}

func pick(rng *rand.Rand, options []string, fallback string) string {
	if len(options) == 0 {
		return fallback
	}
	return options[rng.IntN(len(options))]
}

// County is the serialized form of a county and its subcounties.
type County struct {
	Name        string      `yaml:"name" json:"name"`
	Subcounties []Subcounty `yaml:"subcounties" json:"subcounties"`
}

// Subcounty is the serialized form of a subcounty and its wards.
type Subcounty struct {
	Name  string   `yaml:"name" json:"name"`
	Wards []string `yaml:"wards" json:"wards"`
}

type hierarchyFile struct {
	Counties []County `yaml:"counties"`
}

// LoadFile reads a hierarchy from a YAML file of the form
//
//	counties:
//	  - name: Nairobi
//	    subcounties:
//	      - name: Westlands
//	        wards: [Parklands, Kangemi]
func LoadFile(path string) (*Hierarchy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locations file: %w", err)
	}

	var file hierarchyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse locations file: %w", err)
	}

	return FromTree(file.Counties)
}

// FromTree builds a hierarchy from its nested form. County and subcounty
// names must be non-empty and unique.
func FromTree(counties []County) (*Hierarchy, error) {
	if len(counties) == 0 {
		return nil, fmt.Errorf("locations must define at least one county")
	}

	h := &Hierarchy{
		subcounties: make(map[string][]string),
		wards:       make(map[string][]string),
	}

	for _, county := range counties {
		if county.Name == "" {
			return nil, fmt.Errorf("county name is required")
		}
		if _, exists := h.subcounties[county.Name]; exists || slices.Contains(h.counties, county.Name) {
			return nil, fmt.Errorf("duplicate county %q", county.Name)
		}
		h.counties = append(h.counties, county.Name)

		subs := make([]string, 0, len(county.Subcounties))
		for _, sub := range county.Subcounties {
			if sub.Name == "" {
				return nil, fmt.Errorf("county %q: subcounty name is required", county.Name)
			}
			if _, exists := h.wards[sub.Name]; exists {
				return nil, fmt.Errorf("duplicate subcounty %q", sub.Name)
			}
			subs = append(subs, sub.Name)
			h.wards[sub.Name] = slices.Clone(sub.Wards)
		}
		h.subcounties[county.Name] = subs
	}

	return h, nil
}
