package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSchema mirrors the galaxy.yaml layout.
type fileSchema struct {
	Commodities []Commodity       `yaml:"commodities"`
	Locations   []Location        `yaml:"locations"`
	Milestones  []WealthMilestone `yaml:"wealth_milestones"`
	Ships       []ShipClass       `yaml:"ship_classes"`
	Tuning      Tuning            `yaml:"tuning"`
}

// Load reads and validates a galaxy configuration file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse validates raw YAML into an immutable Catalog.
func Parse(raw []byte) (*Catalog, error) {
	var f fileSchema
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		Commodities: f.Commodities,
		Locations:   f.Locations,
		Milestones:  f.Milestones,
		Ships:       f.Ships,
		Tuning:      f.Tuning,
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return c, nil
}
