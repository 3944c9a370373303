// Package market owns the per-location, per-commodity price and stock state
// and advances it over simulated days: daily price evolution, trade impact,
// depletion handling, and the weekly restock pass.
package market

import (
	"math/rand"

	"github.com/talgya/starlanes/internal/catalog"
)

// Direction distinguishes the two sides of a player trade.
type Direction int

const (
	Buy Direction = iota
	Sell
)

func (d Direction) String() string {
	if d == Buy {
		return "buy"
	}
	return "sell"
}

// Rival tracks a scripted competitor window following a stockout.
type Rival struct {
	Active bool `json:"active"`
	EndDay int  `json:"end_day"`
}

// Entry is the mutable ledger record for one (location, commodity) pair.
// Price and Quantity are clamped at every mutation site: price never drops
// below 1 credit, stock never goes negative.
type Entry struct {
	Price    int     `json:"price"`
	Quantity int     `json:"quantity"`
	Pressure float64 `json:"pressure"` // Signed trade pressure, decays toward 0

	LastInteractionDay int `json:"last_interaction_day"`
	DepletionDay       int `json:"depletion_day"`
	HoverUntilDay      int `json:"hover_until_day"` // Reversion suppressed until this day

	Rival Rival `json:"rival"`

	history []int
}

// regime is a bounded sector-wide boom or bust applied to a set of locations.
type regime struct {
	bias   float64 // Multiplicative price bias, e.g. +0.15 for a boom
	endDay int
	locs   map[int]bool
}

// Market is the authoritative ledger plus the machinery that evolves it.
// Single-writer by construction: the session layer serializes all calls.
type Market struct {
	cat *catalog.Catalog
	rng *rand.Rand

	entries []Entry // locIdx*numCommodities + commIdx
	numComm int

	lastEvolveDay  int
	lastRestockDay int
	activeRegime   *regime

	// Notify, when set, receives noteworthy market events for the news feed.
	Notify func(day int, category, description string)
}

// New seeds a ledger for every (location, commodity) pair: price uniform in
// the commodity's base band, stock drawn from the canonical availability band
// scaled by the location modifier, zero where the location lists the
// commodity as special demand. Entries live for the whole session.
func New(cat *catalog.Catalog, seed int64) *Market {
	m := &Market{
		cat:     cat,
		rng:     rand.New(rand.NewSource(seed)),
		numComm: len(cat.Commodities),
		entries: make([]Entry, len(cat.Locations)*len(cat.Commodities)),
	}

	for li := range cat.Locations {
		for ci, comm := range cat.Commodities {
			e := &m.entries[li*m.numComm+ci]
			e.Price = comm.PriceMin + m.rng.Intn(comm.PriceMax-comm.PriceMin+1)
			if cat.IsSpecialDemand(li, ci) {
				e.Quantity = 0
			} else {
				e.Quantity = m.sampleStock(li, ci)
			}
			e.history = make([]int, 0, cat.Tuning.HistoryCap)
		}
	}
	return m
}

// entry returns the ledger record for a pair, or nil for bad indexes.
func (m *Market) entry(locIdx, commIdx int) *Entry {
	if locIdx < 0 || commIdx < 0 || commIdx >= m.numComm {
		return nil
	}
	i := locIdx*m.numComm + commIdx
	if i >= len(m.entries) {
		return nil
	}
	return &m.entries[i]
}

// Price returns the ledger price for a pair, 0 for unknown indexes. Intel
// overrides are the session layer's concern; this is the raw ledger value.
func (m *Market) Price(locIdx, commIdx int) int {
	e := m.entry(locIdx, commIdx)
	if e == nil {
		return 0
	}
	return e.Price
}

// Stock returns the current units on hand for a pair, 0 for unknown indexes.
func (m *Market) Stock(locIdx, commIdx int) int {
	e := m.entry(locIdx, commIdx)
	if e == nil {
		return 0
	}
	return e.Quantity
}

// Snapshot returns a copy of the ledger record for display, without the
// price history. The zero Entry is returned for unknown indexes.
func (m *Market) Snapshot(locIdx, commIdx int) Entry {
	e := m.entry(locIdx, commIdx)
	if e == nil {
		return Entry{}
	}
	cp := *e
	cp.history = nil
	return cp
}

// History returns a copy of the retained price history, oldest first.
func (m *Market) History(locIdx, commIdx int) []int {
	e := m.entry(locIdx, commIdx)
	if e == nil || len(e.history) == 0 {
		return nil
	}
	out := make([]int, len(e.history))
	copy(out, e.history)
	return out
}

// RestoreEntry overwrites a ledger record from a saved snapshot, clamping
// the invariants on the way in. History is rebuilt from the saved series.
func (m *Market) RestoreEntry(locIdx, commIdx int, e Entry, history []int) {
	cur := m.entry(locIdx, commIdx)
	if cur == nil {
		return
	}
	e.Price = clampPrice(e.Price)
	e.Quantity = clampQty(e.Quantity)
	e.history = make([]int, 0, m.cat.Tuning.HistoryCap)
	*cur = e
	for _, p := range history {
		m.pushHistory(cur, clampPrice(p))
	}
}

// SetClock restores the cadence guards from a saved session so a resumed
// game doesn't immediately re-run its weekly and refresh passes.
func (m *Market) SetClock(lastEvolveDay, lastRestockDay int) {
	m.lastEvolveDay = lastEvolveDay
	m.lastRestockDay = lastRestockDay
}

// SaleBonus returns the sell-side price multiplier at a pair: elevated while
// a rival-arbitrage scarcity window is open, 1.0 otherwise.
func (m *Market) SaleBonus(locIdx, commIdx int) float64 {
	e := m.entry(locIdx, commIdx)
	if e == nil || !e.Rival.Active {
		return 1.0
	}
	return m.cat.Tuning.ScarcityBonus
}

// sampleStock draws a fresh stock target from the canonical band, skewed
// toward the low end, scaled by the location's availability modifier.
func (m *Market) sampleStock(locIdx, commIdx int) int {
	comm := m.cat.Commodities[commIdx]
	span := comm.AvailMax - comm.AvailMin
	// Min of two uniforms skews the draw low: shortages are the norm,
	// abundance the exception.
	u := m.rng.Float64()
	if v := m.rng.Float64(); v < u {
		u = v
	}
	target := float64(comm.AvailMin) + u*float64(span)
	target *= m.cat.AvailabilityMod(locIdx, commIdx)
	if target < 0 {
		return 0
	}
	return int(target + 0.5)
}

// pushHistory appends a price point, dropping the oldest past the cap.
func (m *Market) pushHistory(e *Entry, price int) {
	limit := m.cat.Tuning.HistoryCap
	if limit <= 0 {
		return
	}
	e.history = append(e.history, price)
	if len(e.history) > limit {
		e.history = e.history[len(e.history)-limit:]
	}
}

func (m *Market) notify(day int, category, description string) {
	if m.Notify != nil {
		m.Notify(day, category, description)
	}
}

func clampPrice(p int) int {
	if p < 1 {
		return 1
	}
	return p
}

func clampQty(q int) int {
	if q < 0 {
		return 0
	}
	return q
}
