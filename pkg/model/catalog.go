package model

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Conductor is one catalog entry. Resistance and reactance are per-km
// line values; AmpacityA is the continuous thermal rating.
type Conductor struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	ROhmPerKM float64 `json:"r_ohm_per_km" yaml:"r_ohm_per_km"`
	XOhmPerKM float64 `json:"x_ohm_per_km" yaml:"x_ohm_per_km"`
	AmpacityA float64 `json:"ampacity_a" yaml:"ampacity_a"`
}

// Catalog is an ordered, read-only conductor table. The first entry is the
// default: segments naming an unknown conductor resolve to it silently, so
// a half-edited diagram still solves.
type Catalog struct {
	entries []Conductor
	byID    map[string]int
}

// NewCatalog builds a catalog from an ordered entry list. Lookups are
// case-insensitive; the first occurrence of a duplicated ID wins.
func NewCatalog(entries []Conductor) *Catalog {
	c := &Catalog{
		entries: make([]Conductor, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	copy(c.entries, entries)
	for i, e := range c.entries {
		key := strings.ToLower(e.ID)
		if _, dup := c.byID[key]; !dup {
			c.byID[key] = i
		}
	}
	return c
}

// DefaultCatalog returns the built-in ACSR table, standard 20 C DC
// resistance and thermal ratings. Reactance depends on phase spacing
// rather than the conductor alone, so the built-in entries leave it
// zero; site catalogs loaded from file can carry measured values. Dog
// leads the table and is therefore the fallback conductor.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Conductor{
		{ID: "dog", Name: "ACSR Dog", ROhmPerKM: 0.2733, AmpacityA: 300},
		{ID: "squirrel", Name: "ACSR Squirrel", ROhmPerKM: 1.3740, AmpacityA: 115},
		{ID: "weasel", Name: "ACSR Weasel", ROhmPerKM: 0.9116, AmpacityA: 150},
		{ID: "rabbit", Name: "ACSR Rabbit", ROhmPerKM: 0.5449, AmpacityA: 185},
		{ID: "raccoon", Name: "ACSR Raccoon", ROhmPerKM: 0.3434, AmpacityA: 270},
		{ID: "wolf", Name: "ACSR Wolf", ROhmPerKM: 0.1871, AmpacityA: 405},
		{ID: "panther", Name: "ACSR Panther", ROhmPerKM: 0.1390, AmpacityA: 475},
	})
}

// LoadCatalog reads a user catalog from a YAML file. The file replaces the
// built-in table entirely, so its first entry becomes the default.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	var doc struct {
		Conductors []Conductor `yaml:"conductors"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	if len(doc.Conductors) == 0 {
		return nil, fmt.Errorf("catalog %s defines no conductors", path)
	}
	return NewCatalog(doc.Conductors), nil
}

// Default returns the fallback conductor.
func (c *Catalog) Default() Conductor {
	return c.entries[0]
}

// Resolve maps a conductor ID to its entry, falling back to the default
// for unknown or empty IDs.
func (c *Catalog) Resolve(id string) Conductor {
	if i, ok := c.byID[strings.ToLower(id)]; ok {
		return c.entries[i]
	}
	return c.entries[0]
}

// Known reports whether id names a real catalog entry.
func (c *Catalog) Known(id string) bool {
	_, ok := c.byID[strings.ToLower(id)]
	return ok
}

// Entries returns a copy of the table in catalog order.
func (c *Catalog) Entries() []Conductor {
	out := make([]Conductor, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the entry count.
func (c *Catalog) Len() int { return len(c.entries) }
