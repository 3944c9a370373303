// Package catalog holds the static configuration of the galaxy: tradeable
// commodities, locations, wealth milestones, and the tuning constants that
// drive the market simulation. Everything here is immutable after Load.
package catalog

import "fmt"

// Commodity is a tradeable good. Tier controls when it enters the simulation.
type Commodity struct {
	ID              string  `yaml:"id" json:"id"`
	Name            string  `yaml:"name" json:"name"`
	Tier            int     `yaml:"tier" json:"tier"`                 // 1 = available from the start
	PriceMin        int     `yaml:"price_min" json:"price_min"`       // Base price band, credits per unit
	PriceMax        int     `yaml:"price_max" json:"price_max"`
	AvailMin        int     `yaml:"avail_min" json:"avail_min"`       // Canonical availability band, units
	AvailMax        int     `yaml:"avail_max" json:"avail_max"`
	RequiredLicense string  `yaml:"required_license,omitempty" json:"required_license,omitempty"`
}

// Location is a fixed node in the galaxy where commodities are traded.
type Location struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	FuelPrice int    `yaml:"fuel_price" json:"fuel_price"` // Credits per fuel unit at this depot

	// AvailabilityMod scales a commodity's canonical availability band at this
	// location. Missing entries default to 1.0.
	AvailabilityMod map[string]float64 `yaml:"availability_mod,omitempty" json:"availability_mod,omitempty"`

	// SpecialDemand lists commodities this location only imports: initial
	// stock is forced to zero so the player supplies the demand.
	SpecialDemand []string `yaml:"special_demand,omitempty" json:"special_demand,omitempty"`

	// IntelDiscount reduces quoted intel prices here (0.5 = half price).
	// Nonzero marks the location as an information hub.
	IntelDiscount float64 `yaml:"intel_discount,omitempty" json:"intel_discount,omitempty"`

	// IntelDurationMod stretches the expiry window of deals bought here.
	// Zero means no modifier (treated as 1.0).
	IntelDurationMod float64 `yaml:"intel_duration_mod,omitempty" json:"intel_duration_mod,omitempty"`

	// StartUnlocked marks locations the player can reach from day one.
	StartUnlocked bool `yaml:"start_unlocked,omitempty" json:"start_unlocked,omitempty"`
}

// WealthMilestone reveals a commodity tier once the player's credits reach
// Threshold. The table is ordered by ascending threshold.
type WealthMilestone struct {
	Threshold int64 `yaml:"threshold" json:"threshold"`
	Tier      int   `yaml:"tier" json:"tier"`
}

// ShipClass is a purchasable hull stocked by shipyards. Shipyard inventory
// shares the weekly restock cadence but none of the ledger invariants.
type ShipClass struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Price     int64  `yaml:"price" json:"price"`
	CargoHold int    `yaml:"cargo_hold" json:"cargo_hold"`
	FuelTank  int    `yaml:"fuel_tank" json:"fuel_tank"`
	MinTier   int    `yaml:"min_tier" json:"min_tier"` // Revealed tier required to see it
}

// Catalog is the validated, immutable aggregate of all static configuration.
type Catalog struct {
	Commodities []Commodity
	Locations   []Location
	Milestones  []WealthMilestone
	Ships       []ShipClass
	Tuning      Tuning

	commodityIdx map[string]int
	locationIdx  map[string]int
	averages     []int // galactic average per commodity index
}

// CommodityIndex maps a commodity id to its dense index, or -1 if unknown.
func (c *Catalog) CommodityIndex(id string) int {
	if i, ok := c.commodityIdx[id]; ok {
		return i
	}
	return -1
}

// LocationIndex maps a location id to its dense index, or -1 if unknown.
func (c *Catalog) LocationIndex(id string) int {
	if i, ok := c.locationIdx[id]; ok {
		return i
	}
	return -1
}

// GalacticAverage returns the session-wide reference price for a commodity
// index: the midpoint of its base price band. Returns 0 for a bad index.
func (c *Catalog) GalacticAverage(commIdx int) int {
	if commIdx < 0 || commIdx >= len(c.averages) {
		return 0
	}
	return c.averages[commIdx]
}

// AvailabilityMod returns the location's modifier for a commodity, 1.0 when
// unset.
func (c *Catalog) AvailabilityMod(locIdx, commIdx int) float64 {
	if locIdx < 0 || locIdx >= len(c.Locations) || commIdx < 0 || commIdx >= len(c.Commodities) {
		return 1.0
	}
	if m, ok := c.Locations[locIdx].AvailabilityMod[c.Commodities[commIdx].ID]; ok {
		return m
	}
	return 1.0
}

// IsSpecialDemand reports whether the location only imports the commodity.
func (c *Catalog) IsSpecialDemand(locIdx, commIdx int) bool {
	if locIdx < 0 || locIdx >= len(c.Locations) || commIdx < 0 || commIdx >= len(c.Commodities) {
		return false
	}
	id := c.Commodities[commIdx].ID
	for _, sd := range c.Locations[locIdx].SpecialDemand {
		if sd == id {
			return true
		}
	}
	return false
}

// MaxTier returns the highest commodity tier defined in the catalog.
func (c *Catalog) MaxTier() int {
	max := 1
	for _, cm := range c.Commodities {
		if cm.Tier > max {
			max = cm.Tier
		}
	}
	return max
}

// finish builds the derived indexes and validates cross-references. Called
// once by Parse; the catalog is read-only afterwards.
func (c *Catalog) finish() error {
	if len(c.Commodities) == 0 {
		return fmt.Errorf("catalog: no commodities defined")
	}
	if len(c.Locations) < 2 {
		return fmt.Errorf("catalog: need at least two locations, have %d", len(c.Locations))
	}

	c.commodityIdx = make(map[string]int, len(c.Commodities))
	c.averages = make([]int, len(c.Commodities))
	for i, cm := range c.Commodities {
		if cm.ID == "" {
			return fmt.Errorf("catalog: commodity %d has empty id", i)
		}
		if _, dup := c.commodityIdx[cm.ID]; dup {
			return fmt.Errorf("catalog: duplicate commodity id %q", cm.ID)
		}
		if cm.Tier < 1 {
			return fmt.Errorf("catalog: commodity %q tier %d, want >= 1", cm.ID, cm.Tier)
		}
		if cm.PriceMin < 1 || cm.PriceMax < cm.PriceMin {
			return fmt.Errorf("catalog: commodity %q has inverted price band [%d,%d]", cm.ID, cm.PriceMin, cm.PriceMax)
		}
		if cm.AvailMin < 0 || cm.AvailMax < cm.AvailMin {
			return fmt.Errorf("catalog: commodity %q has inverted availability band [%d,%d]", cm.ID, cm.AvailMin, cm.AvailMax)
		}
		c.commodityIdx[cm.ID] = i
		c.averages[i] = (cm.PriceMin + cm.PriceMax) / 2
	}

	c.locationIdx = make(map[string]int, len(c.Locations))
	for i, loc := range c.Locations {
		if loc.ID == "" {
			return fmt.Errorf("catalog: location %d has empty id", i)
		}
		if _, dup := c.locationIdx[loc.ID]; dup {
			return fmt.Errorf("catalog: duplicate location id %q", loc.ID)
		}
		for id := range loc.AvailabilityMod {
			if _, ok := c.commodityIdx[id]; !ok {
				return fmt.Errorf("catalog: location %q modifies unknown commodity %q", loc.ID, id)
			}
		}
		for _, id := range loc.SpecialDemand {
			if _, ok := c.commodityIdx[id]; !ok {
				return fmt.Errorf("catalog: location %q demands unknown commodity %q", loc.ID, id)
			}
		}
		if loc.IntelDiscount < 0 || loc.IntelDiscount >= 1 {
			return fmt.Errorf("catalog: location %q intel_discount %.2f out of [0,1)", loc.ID, loc.IntelDiscount)
		}
		c.locationIdx[loc.ID] = i
	}

	lastThreshold := int64(-1)
	for i, m := range c.Milestones {
		if m.Threshold <= lastThreshold {
			return fmt.Errorf("catalog: milestone %d threshold %d not ascending", i, m.Threshold)
		}
		if m.Tier < 1 || m.Tier > c.MaxTier() {
			return fmt.Errorf("catalog: milestone %d reveals unknown tier %d", i, m.Tier)
		}
		lastThreshold = m.Threshold
	}

	for _, s := range c.Ships {
		if s.ID == "" || s.Price < 1 || s.CargoHold < 1 {
			return fmt.Errorf("catalog: ship class %q is malformed", s.ID)
		}
	}

	return c.Tuning.validate()
}
