package market

import "fmt"

// Replenish runs the weekly restock pass. Guarded by its own cadence: calls
// before restock_interval days have passed since the last pass are no-ops,
// so the scheduler can invoke it every day. Each live entry not locked by a
// hover window and not inside a rival window moves halfway toward a freshly
// sampled stock target — a top-up, never a reset, so shelves don't visibly
// snap. The same pass rolls for sector-wide regime changes.
func (m *Market) Replenish(day, revealedTier int) bool {
	if day-m.lastRestockDay < m.cat.Tuning.RestockInterval {
		return false
	}
	m.lastRestockDay = day

	for li := range m.cat.Locations {
		for ci, comm := range m.cat.Commodities {
			if comm.Tier > revealedTier {
				continue
			}
			e := &m.entries[li*m.numComm+ci]
			if day < e.HoverUntilDay || e.Rival.Active {
				// Depleted shelves stay bare while the scarcity story plays
				// out; the rival window ends with its own partial restock.
				continue
			}
			target := m.sampleStock(li, ci)
			e.Quantity = clampQty(e.Quantity + (target-e.Quantity)/2)
		}
	}

	m.checkSystemState(day)
	return true
}

// checkSystemState occasionally starts a bounded sector-wide boom or bust: a
// multiplicative price bias over a handful of locations with a fixed end
// day. At most one regime runs at a time.
func (m *Market) checkSystemState(day int) {
	t := m.cat.Tuning
	if m.activeRegime != nil || m.rng.Float64() >= t.RegimeChance {
		return
	}

	count := 1 + m.rng.Intn(3)
	if count > len(m.cat.Locations) {
		count = len(m.cat.Locations)
	}
	locs := make(map[int]bool, count)
	for len(locs) < count {
		locs[m.rng.Intn(len(m.cat.Locations))] = true
	}

	bias := m.rng.Float64() * t.RegimeBiasMax
	kind := "boom"
	if m.rng.Float64() < 0.5 {
		bias = -bias
		kind = "slump"
	}
	span := t.RegimeDaysMin
	if t.RegimeDaysMax > t.RegimeDaysMin {
		span += m.rng.Intn(t.RegimeDaysMax - t.RegimeDaysMin + 1)
	}

	m.activeRegime = &regime{bias: bias, endDay: day + span, locs: locs}

	for li := range locs {
		m.notify(day, "economy", fmt.Sprintf(
			"Traders report a sector %s taking hold around %s.", kind, m.cat.Locations[li].Name))
	}
}
