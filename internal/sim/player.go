package sim

import (
	"errors"
	"fmt"
)

// ErrInsufficientCredits rejects a debit larger than the player's balance.
var ErrInsufficientCredits = errors.New("sim: insufficient credits")

// Player is the single trader this session belongs to. It satisfies the
// intel package's Player interface.
type Player struct {
	credits   int64
	tier      int // Revealed commodity tier, monotonically non-decreasing
	location  int // Current location index
	unlocked  map[int]bool
	licenses  map[string]bool

	Cargo     map[int]int // commodity index → units held
	CargoMax  int
	Fuel      int
	FuelMax   int
	ShipClass string
}

// Credits returns the current balance.
func (p *Player) Credits() int64 { return p.credits }

// RevealedTier returns the highest commodity tier the player has unlocked.
func (p *Player) RevealedTier() int { return p.tier }

// CurrentLocation returns the index of the location the player is docked at.
func (p *Player) CurrentLocation() int { return p.location }

// Unlocked reports whether the player has access to a location.
func (p *Player) Unlocked(locIdx int) bool { return p.unlocked[locIdx] }

// HasLicense reports whether the player holds a commodity license. The
// empty license is always held.
func (p *Player) HasLicense(id string) bool {
	return id == "" || p.licenses[id]
}

// GrantLicense records a purchased or awarded license.
func (p *Player) GrantLicense(id string) {
	if id != "" {
		p.licenses[id] = true
	}
}

// Debit removes credits, failing rather than going negative.
func (p *Player) Debit(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("sim: negative debit %d", amount)
	}
	if p.credits < amount {
		return ErrInsufficientCredits
	}
	p.credits -= amount
	return nil
}

// Credit adds credits to the balance.
func (p *Player) Credit(amount int64) {
	if amount > 0 {
		p.credits += amount
	}
}

// CargoUsed returns the units currently in the hold.
func (p *Player) CargoUsed() int {
	used := 0
	for _, q := range p.Cargo {
		used += q
	}
	return used
}

// CargoFree returns the remaining hold space.
func (p *Player) CargoFree() int {
	free := p.CargoMax - p.CargoUsed()
	if free < 0 {
		return 0
	}
	return free
}
