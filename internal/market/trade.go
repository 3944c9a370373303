package market

import "fmt"

// ApplyTrade folds one legal player trade into the ledger. The caller has
// already validated funds, cargo space, and stock; this only mutates state.
// Buys remove stock and push pressure positive (price-upward bias on the
// next tick), sells do the opposite. No price is touched here: price
// response flows through the pressure deposited for the evolution tick,
// which keeps a single trade from snapping the price instantly.
func (m *Market) ApplyTrade(day, locIdx, commIdx, qty int, dir Direction) {
	if qty <= 0 {
		return
	}
	e := m.entry(locIdx, commIdx)
	if e == nil {
		return
	}

	t := m.cat.Tuning
	switch dir {
	case Buy:
		hadStock := e.Quantity > 0
		e.Quantity = clampQty(e.Quantity - qty)
		e.Pressure += float64(qty) * t.PressurePerUnit
		if hadStock && e.Quantity == 0 {
			m.deplete(day, locIdx, commIdx, e)
		}
	case Sell:
		e.Quantity += qty
		e.Pressure -= float64(qty) * t.PressurePerUnit
	}

	if e.Pressure > t.MaxPressure {
		e.Pressure = t.MaxPressure
	} else if e.Pressure < -t.MaxPressure {
		e.Pressure = -t.MaxPressure
	}
	e.LastInteractionDay = day
}

// deplete reacts to a commodity selling out at a location: the entry enters
// a hover window during which mean reversion is suppressed, and with tuned
// probability a rival trader starts working the route, opening a bounded
// scarcity window with elevated sell prices.
func (m *Market) deplete(day, locIdx, commIdx int, e *Entry) {
	t := m.cat.Tuning
	e.DepletionDay = day
	e.HoverUntilDay = day + t.HoverDays

	locName := m.cat.Locations[locIdx].Name
	commName := m.cat.Commodities[commIdx].Name
	m.notify(day, "market", fmt.Sprintf("%s has sold out of %s.", locName, commName))

	if m.rng.Float64() < t.RivalChance {
		e.Rival = Rival{Active: true, EndDay: day + t.RivalDays}
		m.notify(day, "market", fmt.Sprintf(
			"Word spreads that someone is buying up %s around %s.", commName, locName))
	}
}
