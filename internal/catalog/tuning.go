package catalog

import "fmt"

// Tuning collects every stochastic constant of the simulation. The random
// walk, reversion, and pressure numbers are balance levers, not invariants,
// so they live in configuration rather than in the market code.
type Tuning struct {
	// Daily price evolution.
	DriftStep     float64 `yaml:"drift_step" json:"drift_step"`         // Max fractional random-walk step per day
	ReversionRate float64 `yaml:"reversion_rate" json:"reversion_rate"` // Pull toward galactic average per day
	PressureBias  float64 `yaml:"pressure_bias" json:"pressure_bias"`   // Price bias per unit of market pressure
	MaxPressure   float64 `yaml:"max_pressure" json:"max_pressure"`     // Pressure accumulator clamp (absolute)

	// Market pressure bookkeeping.
	PressurePerUnit float64 `yaml:"pressure_per_unit" json:"pressure_per_unit"` // Deposited per traded unit
	PressureDecay   float64 `yaml:"pressure_decay" json:"pressure_decay"`       // Base fraction retained per idle day

	// Depletion handling.
	HoverDays       int     `yaml:"hover_days" json:"hover_days"`             // Reversion lock after a stockout
	RivalChance     float64 `yaml:"rival_chance" json:"rival_chance"`         // Chance a stockout spawns rival arbitrage
	RivalDays       int     `yaml:"rival_days" json:"rival_days"`             // Rival window length
	RivalRestock    float64 `yaml:"rival_restock" json:"rival_restock"`       // Fraction of canonical band restored at window end
	ScarcityBonus   float64 `yaml:"scarcity_bonus" json:"scarcity_bonus"`     // Sale price multiplier during a rival window
	HistoryCap      int     `yaml:"history_cap" json:"history_cap"`           // Retained price history points per entry

	// Scheduler cadences, in days.
	RestockInterval int `yaml:"restock_interval" json:"restock_interval"`
	IntelInterval   int `yaml:"intel_interval" json:"intel_interval"`

	// System-state regime changes.
	RegimeChance   float64 `yaml:"regime_chance" json:"regime_chance"`     // Per restock pass
	RegimeBiasMax  float64 `yaml:"regime_bias_max" json:"regime_bias_max"` // Max |boom/bust| price bias
	RegimeDaysMin  int     `yaml:"regime_days_min" json:"regime_days_min"`
	RegimeDaysMax  int     `yaml:"regime_days_max" json:"regime_days_max"`

	// Intel economics.
	IntelChance       float64 `yaml:"intel_chance" json:"intel_chance"`               // Per sale location per refresh
	DiscountMin       float64 `yaml:"discount_min" json:"discount_min"`
	DiscountMax       float64 `yaml:"discount_max" json:"discount_max"`
	PriceFractionMin  float64 `yaml:"price_fraction_min" json:"price_fraction_min"`   // Of player credits
	PriceFractionMax  float64 `yaml:"price_fraction_max" json:"price_fraction_max"`
	DurationMult      float64 `yaml:"duration_mult" json:"duration_mult"`             // Expiry = travel days × this
}

// DefaultTuning returns the shipped balance numbers. YAML values override
// individual fields; zero-valued fields fall back to these.
func DefaultTuning() Tuning {
	return Tuning{
		DriftStep:        0.04,
		ReversionRate:    0.08,
		PressureBias:     0.015,
		MaxPressure:      10,
		PressurePerUnit:  0.12,
		PressureDecay:    0.85,
		HoverDays:        5,
		RivalChance:      0.35,
		RivalDays:        9,
		RivalRestock:     0.5,
		ScarcityBonus:    1.25,
		HistoryCap:       30,
		RestockInterval:  7,
		IntelInterval:    120,
		RegimeChance:     0.08,
		RegimeBiasMax:    0.20,
		RegimeDaysMin:    10,
		RegimeDaysMax:    25,
		IntelChance:      0.7,
		DiscountMin:      0.15,
		DiscountMax:      0.50,
		PriceFractionMin: 0.10,
		PriceFractionMax: 0.20,
		DurationMult:     2.5,
	}
}

// applyDefaults fills zero-valued fields from DefaultTuning. Explicit zeros
// are not distinguishable from omitted fields; no tuning value is
// meaningfully zero, so that ambiguity costs nothing.
func (t *Tuning) applyDefaults() {
	d := DefaultTuning()
	if t.DriftStep == 0 {
		t.DriftStep = d.DriftStep
	}
	if t.ReversionRate == 0 {
		t.ReversionRate = d.ReversionRate
	}
	if t.PressureBias == 0 {
		t.PressureBias = d.PressureBias
	}
	if t.MaxPressure == 0 {
		t.MaxPressure = d.MaxPressure
	}
	if t.PressurePerUnit == 0 {
		t.PressurePerUnit = d.PressurePerUnit
	}
	if t.PressureDecay == 0 {
		t.PressureDecay = d.PressureDecay
	}
	if t.HoverDays == 0 {
		t.HoverDays = d.HoverDays
	}
	if t.RivalChance == 0 {
		t.RivalChance = d.RivalChance
	}
	if t.RivalDays == 0 {
		t.RivalDays = d.RivalDays
	}
	if t.RivalRestock == 0 {
		t.RivalRestock = d.RivalRestock
	}
	if t.ScarcityBonus == 0 {
		t.ScarcityBonus = d.ScarcityBonus
	}
	if t.HistoryCap == 0 {
		t.HistoryCap = d.HistoryCap
	}
	if t.RestockInterval == 0 {
		t.RestockInterval = d.RestockInterval
	}
	if t.IntelInterval == 0 {
		t.IntelInterval = d.IntelInterval
	}
	if t.RegimeChance == 0 {
		t.RegimeChance = d.RegimeChance
	}
	if t.RegimeBiasMax == 0 {
		t.RegimeBiasMax = d.RegimeBiasMax
	}
	if t.RegimeDaysMin == 0 {
		t.RegimeDaysMin = d.RegimeDaysMin
	}
	if t.RegimeDaysMax == 0 {
		t.RegimeDaysMax = d.RegimeDaysMax
	}
	if t.IntelChance == 0 {
		t.IntelChance = d.IntelChance
	}
	if t.DiscountMin == 0 {
		t.DiscountMin = d.DiscountMin
	}
	if t.DiscountMax == 0 {
		t.DiscountMax = d.DiscountMax
	}
	if t.PriceFractionMin == 0 {
		t.PriceFractionMin = d.PriceFractionMin
	}
	if t.PriceFractionMax == 0 {
		t.PriceFractionMax = d.PriceFractionMax
	}
	if t.DurationMult == 0 {
		t.DurationMult = d.DurationMult
	}
}

func (t *Tuning) validate() error {
	t.applyDefaults()

	if t.PressureDecay <= 0 || t.PressureDecay >= 1 {
		return fmt.Errorf("tuning: pressure_decay %.3f out of (0,1)", t.PressureDecay)
	}
	if t.DiscountMin < 0 || t.DiscountMax > 1 || t.DiscountMin > t.DiscountMax {
		return fmt.Errorf("tuning: discount band [%.2f,%.2f] invalid", t.DiscountMin, t.DiscountMax)
	}
	if t.PriceFractionMin <= 0 || t.PriceFractionMin > t.PriceFractionMax {
		return fmt.Errorf("tuning: price fraction band [%.2f,%.2f] invalid", t.PriceFractionMin, t.PriceFractionMax)
	}
	if t.RestockInterval < 1 || t.IntelInterval < 1 {
		return fmt.Errorf("tuning: cadences must be >= 1 day")
	}
	if t.RegimeDaysMin > t.RegimeDaysMax {
		return fmt.Errorf("tuning: regime day band [%d,%d] invalid", t.RegimeDaysMin, t.RegimeDaysMax)
	}
	return nil
}
