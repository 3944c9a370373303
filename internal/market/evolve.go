package market

import (
	"fmt"
	"math"
)

// Tick advances every live ledger entry by one simulated day. Live means the
// commodity's tier is at or below revealedTier. The walk is bounded and
// mean-reverting: a small random step plus a pull toward the galactic
// average biased by accumulated trade pressure. Reversion is suppressed
// while an entry sits inside its post-stockout hover window, so a sold-out
// price signal persists. Total function: clamps instead of failing.
func (m *Market) Tick(day, revealedTier int) {
	if day <= m.lastEvolveDay {
		return
	}
	m.lastEvolveDay = day

	t := m.cat.Tuning
	if m.activeRegime != nil && day >= m.activeRegime.endDay {
		m.notify(day, "economy", "Sector price distortions settle back to normal.")
		m.activeRegime = nil
	}

	for li := range m.cat.Locations {
		for ci, comm := range m.cat.Commodities {
			if comm.Tier > revealedTier {
				continue
			}
			e := &m.entries[li*m.numComm+ci]

			// Pressure decay, paced by how stale the last trade is.
			factor := t.PressureDecay
			if day-e.LastInteractionDay > 3 {
				factor *= t.PressureDecay
			}
			e.Pressure *= factor
			if math.Abs(e.Pressure) < 0.01 {
				e.Pressure = 0
			}

			// Rival window closing: the competitor's buying spree ends and
			// part of their haul comes back on the market.
			if e.Rival.Active && day >= e.Rival.EndDay {
				e.Rival = Rival{}
				restored := int(t.RivalRestock * float64(m.sampleStock(li, ci)))
				e.Quantity = clampQty(e.Quantity + restored)
				m.notify(day, "economy", fmt.Sprintf(
					"Rival traders move on from %s; %s flows back onto the market.",
					m.cat.Locations[li].Name, comm.Name))
			}

			bias := e.Pressure * t.PressureBias
			if bias > 0.5 {
				bias = 0.5
			} else if bias < -0.5 {
				bias = -0.5
			}
			target := float64(m.cat.GalacticAverage(ci)) * (1 + bias) * m.regimeBias(li)

			walk := (m.rng.Float64()*2 - 1) * t.DriftStep * float64(e.Price)
			reversion := 0.0
			if day >= e.HoverUntilDay {
				reversion = (target - float64(e.Price)) * t.ReversionRate
			}

			e.Price = clampPrice(int(math.Round(float64(e.Price) + walk + reversion)))
			m.pushHistory(e, e.Price)
		}
	}
}

// regimeBias returns the sector boom/bust multiplier for a location, 1.0
// when no regime is active or the location is outside it.
func (m *Market) regimeBias(locIdx int) float64 {
	if m.activeRegime == nil || !m.activeRegime.locs[locIdx] {
		return 1.0
	}
	return 1 + m.activeRegime.bias
}

// RegimeActive reports whether a sector-wide boom/bust is currently applied
// to the given location.
func (m *Market) RegimeActive(locIdx int) bool {
	return m.activeRegime != nil && m.activeRegime.locs[locIdx]
}
