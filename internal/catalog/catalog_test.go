package catalog

import "testing"

const sampleYAML = `
commodities:
  - { id: plasteel, name: Plasteel, tier: 1, price_min: 80, price_max: 120, avail_min: 20, avail_max: 40 }
  - { id: medgel, name: Medical Gel, tier: 2, price_min: 120, price_max: 220, avail_min: 10, avail_max: 30 }
locations:
  - id: mars
    name: Mars
    fuel_price: 6
    availability_mod: { plasteel: 1.5 }
  - id: europa
    name: Europa
    fuel_price: 8
    special_demand: [plasteel]
    intel_discount: 0.5
wealth_milestones:
  - { threshold: 10000, tier: 2 }
`

func TestParseSample(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := c.CommodityIndex("plasteel"); got != 0 {
		t.Fatalf("CommodityIndex(plasteel) = %d, want 0", got)
	}
	if got := c.CommodityIndex("nope"); got != -1 {
		t.Fatalf("CommodityIndex(nope) = %d, want -1", got)
	}
	if got := c.LocationIndex("europa"); got != 1 {
		t.Fatalf("LocationIndex(europa) = %d, want 1", got)
	}
	if got := c.GalacticAverage(0); got != 100 {
		t.Fatalf("GalacticAverage(plasteel) = %d, want 100", got)
	}
	if got := c.GalacticAverage(99); got != 0 {
		t.Fatalf("GalacticAverage(bad index) = %d, want 0", got)
	}
	if got := c.AvailabilityMod(0, 0); got != 1.5 {
		t.Fatalf("AvailabilityMod(mars, plasteel) = %v, want 1.5", got)
	}
	if got := c.AvailabilityMod(1, 1); got != 1.0 {
		t.Fatalf("AvailabilityMod default = %v, want 1.0", got)
	}
	if !c.IsSpecialDemand(1, 0) {
		t.Fatal("IsSpecialDemand(europa, plasteel) = false, want true")
	}
	if c.IsSpecialDemand(0, 0) {
		t.Fatal("IsSpecialDemand(mars, plasteel) = true, want false")
	}
	if got := c.MaxTier(); got != 2 {
		t.Fatalf("MaxTier = %d, want 2", got)
	}

	// Omitted tuning values fall back to defaults.
	if c.Tuning.HoverDays != DefaultTuning().HoverDays {
		t.Fatalf("Tuning.HoverDays = %d, want default %d", c.Tuning.HoverDays, DefaultTuning().HoverDays)
	}
}

func TestParseRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no commodities", `
locations:
  - { id: a, name: A, fuel_price: 1 }
  - { id: b, name: B, fuel_price: 1 }
`},
		{"one location", `
commodities:
  - { id: x, name: X, tier: 1, price_min: 1, price_max: 2, avail_min: 1, avail_max: 2 }
locations:
  - { id: a, name: A, fuel_price: 1 }
`},
		{"inverted price band", `
commodities:
  - { id: x, name: X, tier: 1, price_min: 9, price_max: 2, avail_min: 1, avail_max: 2 }
locations:
  - { id: a, name: A, fuel_price: 1 }
  - { id: b, name: B, fuel_price: 1 }
`},
		{"zero tier", `
commodities:
  - { id: x, name: X, tier: 0, price_min: 1, price_max: 2, avail_min: 1, avail_max: 2 }
locations:
  - { id: a, name: A, fuel_price: 1 }
  - { id: b, name: B, fuel_price: 1 }
`},
		{"duplicate commodity", `
commodities:
  - { id: x, name: X, tier: 1, price_min: 1, price_max: 2, avail_min: 1, avail_max: 2 }
  - { id: x, name: X2, tier: 1, price_min: 1, price_max: 2, avail_min: 1, avail_max: 2 }
locations:
  - { id: a, name: A, fuel_price: 1 }
  - { id: b, name: B, fuel_price: 1 }
`},
		{"unknown modifier target", `
commodities:
  - { id: x, name: X, tier: 1, price_min: 1, price_max: 2, avail_min: 1, avail_max: 2 }
locations:
  - { id: a, name: A, fuel_price: 1, availability_mod: { ghost: 2.0 } }
  - { id: b, name: B, fuel_price: 1 }
`},
		{"unknown special demand", `
commodities:
  - { id: x, name: X, tier: 1, price_min: 1, price_max: 2, avail_min: 1, avail_max: 2 }
locations:
  - { id: a, name: A, fuel_price: 1, special_demand: [ghost] }
  - { id: b, name: B, fuel_price: 1 }
`},
		{"milestones out of order", `
commodities:
  - { id: x, name: X, tier: 1, price_min: 1, price_max: 2, avail_min: 1, avail_max: 2 }
  - { id: y, name: Y, tier: 2, price_min: 1, price_max: 2, avail_min: 1, avail_max: 2 }
locations:
  - { id: a, name: A, fuel_price: 1 }
  - { id: b, name: B, fuel_price: 1 }
wealth_milestones:
  - { threshold: 500, tier: 2 }
  - { threshold: 100, tier: 2 }
`},
		{"milestone unknown tier", `
commodities:
  - { id: x, name: X, tier: 1, price_min: 1, price_max: 2, avail_min: 1, avail_max: 2 }
locations:
  - { id: a, name: A, fuel_price: 1 }
  - { id: b, name: B, fuel_price: 1 }
wealth_milestones:
  - { threshold: 500, tier: 7 }
`},
	}

	for _, tc := range tests {
		if _, err := Parse([]byte(tc.yaml)); err == nil {
			t.Errorf("%s: Parse succeeded, want error", tc.name)
		}
	}
}

func TestTierFor(t *testing.T) {
	c := &Catalog{
		Milestones: []WealthMilestone{
			{Threshold: 10000, Tier: 2},
			{Threshold: 60000, Tier: 3},
			{Threshold: 250000, Tier: 4},
		},
	}

	tests := []struct {
		credits int64
		current int
		want    int
	}{
		{0, 1, 1},
		{9999, 1, 1},
		{10000, 1, 2},
		{59999, 1, 2},
		{60000, 1, 3},
		{250000, 1, 4},
		// Never goes backward: current tier is the floor.
		{0, 3, 3},
		{10000, 4, 4},
	}
	for _, tc := range tests {
		if got := c.TierFor(tc.credits, tc.current); got != tc.want {
			t.Errorf("TierFor(%d, %d) = %d, want %d", tc.credits, tc.current, got, tc.want)
		}
	}
}

func TestTierForMonotonicUnderFluctuation(t *testing.T) {
	c := &Catalog{
		Milestones: []WealthMilestone{
			{Threshold: 1000, Tier: 2},
			{Threshold: 5000, Tier: 3},
		},
	}

	tier := 1
	swings := []int64{0, 2000, 50, 6000, 10, 999, 5001}
	for _, credits := range swings {
		next := c.TierFor(credits, tier)
		if next < tier {
			t.Fatalf("tier dropped from %d to %d at credits %d", tier, next, credits)
		}
		tier = next
	}
	if tier != 3 {
		t.Fatalf("final tier = %d, want 3", tier)
	}
}

func TestTuningValidation(t *testing.T) {
	bad := DefaultTuning()
	bad.PressureDecay = 1.5
	if err := bad.validate(); err == nil {
		t.Fatal("validate accepted pressure_decay 1.5")
	}

	bad = DefaultTuning()
	bad.DiscountMin = 0.6
	bad.DiscountMax = 0.5
	if err := bad.validate(); err == nil {
		t.Fatal("validate accepted inverted discount band")
	}

	good := Tuning{}
	if err := good.validate(); err != nil {
		t.Fatalf("validate rejected zero tuning (defaults): %v", err)
	}
	if good.DriftStep != DefaultTuning().DriftStep {
		t.Fatalf("defaults not applied: drift_step = %v", good.DriftStep)
	}
}
