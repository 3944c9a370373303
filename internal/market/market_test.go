package market

import (
	"math/rand"
	"testing"

	"github.com/talgya/starlanes/internal/catalog"
)

const marsYAML = `
commodities:
  - { id: plasteel, name: Plasteel, tier: 1, price_min: 100, price_max: 100, avail_min: 20, avail_max: 40 }
  - { id: medgel, name: Medical Gel, tier: 2, price_min: 120, price_max: 220, avail_min: 10, avail_max: 30 }
locations:
  - { id: mars, name: Mars, fuel_price: 6 }
  - { id: europa, name: Europa, fuel_price: 8 }
`

// testCatalog parses the fixture and lets a test pin tuning values so the
// stochastic terms stay out of the way of exact assertions.
func testCatalog(t *testing.T, tweak func(*catalog.Tuning)) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(marsYAML))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	if tweak != nil {
		tweak(&c.Tuning)
	}
	return c
}

// quiet pins the random terms near zero so price movement is purely
// deterministic reversion.
func quiet(tn *catalog.Tuning) {
	tn.DriftStep = 1e-12
	tn.RivalChance = 1e-12
	tn.RegimeChance = 1e-12
}

func TestSeedingRespectsBands(t *testing.T) {
	cat := testCatalog(t, nil)
	m := New(cat, 1)

	for li := range cat.Locations {
		for ci, comm := range cat.Commodities {
			p := m.Price(li, ci)
			if p < comm.PriceMin || p > comm.PriceMax {
				t.Errorf("%s/%s seeded price %d outside [%d,%d]",
					cat.Locations[li].ID, comm.ID, p, comm.PriceMin, comm.PriceMax)
			}
			if q := m.Stock(li, ci); q < 0 {
				t.Errorf("%s/%s seeded stock %d < 0", cat.Locations[li].ID, comm.ID, q)
			}
		}
	}
}

func TestInvariantsUnderRandomActivity(t *testing.T) {
	cat := testCatalog(t, nil)
	m := New(cat, 99)
	rng := rand.New(rand.NewSource(7))

	for day := 1; day <= 200; day++ {
		for i := 0; i < 4; i++ {
			li := rng.Intn(len(cat.Locations))
			ci := rng.Intn(len(cat.Commodities))
			qty := 1 + rng.Intn(50)
			dir := Buy
			if rng.Intn(2) == 0 {
				dir = Sell
			}
			m.ApplyTrade(day, li, ci, qty, dir)
		}
		m.Tick(day, 2)
		m.Replenish(day, 2)

		for li := range cat.Locations {
			for ci := range cat.Commodities {
				if p := m.Price(li, ci); p < 1 {
					t.Fatalf("day %d: price(%d,%d) = %d, want >= 1", day, li, ci, p)
				}
				if q := m.Stock(li, ci); q < 0 {
					t.Fatalf("day %d: stock(%d,%d) = %d, want >= 0", day, li, ci, q)
				}
				e := m.Snapshot(li, ci)
				if e.Pressure > cat.Tuning.MaxPressure || e.Pressure < -cat.Tuning.MaxPressure {
					t.Fatalf("day %d: pressure(%d,%d) = %v outside clamp", day, li, ci, e.Pressure)
				}
			}
		}
	}
}

func TestTradeImpactDepositsPressureOnly(t *testing.T) {
	cat := testCatalog(t, quiet)
	m := New(cat, 1)
	m.RestoreEntry(0, 0, Entry{Price: 100, Quantity: 50}, nil)

	m.ApplyTrade(3, 0, 0, 10, Buy)
	e := m.Snapshot(0, 0)
	if e.Quantity != 40 {
		t.Fatalf("stock after buy 10 = %d, want 40", e.Quantity)
	}
	want := 10 * cat.Tuning.PressurePerUnit
	if e.Pressure != want {
		t.Fatalf("pressure after buy = %v, want %v", e.Pressure, want)
	}
	if e.LastInteractionDay != 3 {
		t.Fatalf("lastInteractionDay = %d, want 3", e.LastInteractionDay)
	}
	if e.Price != 100 {
		t.Fatalf("price mutated by trade: %d, want 100", e.Price)
	}

	m.ApplyTrade(3, 0, 0, 10, Sell)
	e = m.Snapshot(0, 0)
	if e.Quantity != 50 {
		t.Fatalf("stock after sell-back = %d, want 50", e.Quantity)
	}
	if e.Pressure != 0 {
		t.Fatalf("pressure after symmetric trades = %v, want 0", e.Pressure)
	}
}

func TestDepletionScenario(t *testing.T) {
	cat := testCatalog(t, quiet)
	m := New(cat, 5)
	// Mars/plasteel: stock 30, price 200, galactic average 100.
	m.RestoreEntry(0, 0, Entry{Price: 200, Quantity: 30}, nil)

	m.ApplyTrade(1, 0, 0, 30, Buy)

	e := m.Snapshot(0, 0)
	if e.Quantity != 0 {
		t.Fatalf("stock after buyout = %d, want 0", e.Quantity)
	}
	if e.DepletionDay != 1 {
		t.Fatalf("depletionDay = %d, want 1", e.DepletionDay)
	}
	wantHover := 1 + cat.Tuning.HoverDays
	if e.HoverUntilDay != wantHover {
		t.Fatalf("hoverUntilDay = %d, want %d", e.HoverUntilDay, wantHover)
	}

	pressureBefore := e.Pressure
	m.Tick(2, 1)
	e = m.Snapshot(0, 0)

	// Hover lock: no reversion toward the galactic average.
	if e.Price != 200 {
		t.Fatalf("price under hover lock = %d, want 200 (no reversion)", e.Price)
	}
	// Pressure still decays.
	if e.Pressure >= pressureBefore || e.Pressure <= 0 {
		t.Fatalf("pressure after tick = %v, want decayed from %v but positive", e.Pressure, pressureBefore)
	}

	// Control: without a hover lock the same entry reverts.
	ctrl := New(testCatalog(t, quiet), 5)
	ctrl.RestoreEntry(0, 0, Entry{Price: 200, Quantity: 30}, nil)
	ctrl.Tick(1, 1)
	if p := ctrl.Price(0, 0); p >= 200 {
		t.Fatalf("price without hover lock = %d, want < 200 (reversion active)", p)
	}

	// Weekly restock fires once the hover lock has lapsed: stock moves
	// toward a sampled target, not straight back to 30.
	if !m.Replenish(7, 1) {
		t.Fatal("Replenish(7) = false, want true")
	}
	e = m.Snapshot(0, 0)
	if e.Quantity <= 0 || e.Quantity > 40 {
		t.Fatalf("stock after restock = %d, want in (0,40]", e.Quantity)
	}
	if m.Replenish(8, 1) {
		t.Fatal("Replenish(8) fired one day after the last pass")
	}
}

func TestTickIgnoresRepeatedDay(t *testing.T) {
	cat := testCatalog(t, quiet)
	m := New(cat, 2)
	m.RestoreEntry(0, 0, Entry{Price: 150, Quantity: 10}, nil)

	m.Tick(1, 1)
	after := m.Price(0, 0)
	m.Tick(1, 1)
	if got := m.Price(0, 0); got != after {
		t.Fatalf("second Tick(1) moved price %d -> %d", after, got)
	}
	if h := m.History(0, 0); len(h) != 1 {
		t.Fatalf("history after repeated day = %d points, want 1", len(h))
	}
}

func TestDeterministicPacing(t *testing.T) {
	script := func() *Market {
		m := New(testCatalog(t, nil), 12345)
		trades := []struct {
			loc, comm, qty int
			dir            Direction
		}{
			{0, 0, 5, Buy}, {0, 0, 3, Buy}, {1, 0, 8, Sell},
			{0, 1, 2, Buy}, {1, 1, 4, Sell}, {0, 0, 1, Sell},
		}
		for _, tr := range trades {
			m.ApplyTrade(1, tr.loc, tr.comm, tr.qty, tr.dir)
		}
		m.Tick(1, 2)
		return m
	}

	a, b := script(), script()
	for li := 0; li < 2; li++ {
		for ci := 0; ci < 2; ci++ {
			ea, eb := a.Snapshot(li, ci), b.Snapshot(li, ci)
			if ea.Price != eb.Price || ea.Quantity != eb.Quantity || ea.Pressure != eb.Pressure {
				t.Fatalf("entry (%d,%d) diverged under identical seed: %+v vs %+v", li, ci, ea, eb)
			}
		}
	}
}

func TestRivalArbitrageWindow(t *testing.T) {
	cat := testCatalog(t, func(tn *catalog.Tuning) {
		quiet(tn)
		tn.RivalChance = 0.999999
	})
	m := New(cat, 3)
	m.RestoreEntry(0, 0, Entry{Price: 100, Quantity: 5}, nil)

	m.ApplyTrade(1, 0, 0, 5, Buy)
	e := m.Snapshot(0, 0)
	if !e.Rival.Active {
		t.Fatal("rival window not opened on depletion")
	}
	wantEnd := 1 + cat.Tuning.RivalDays
	if e.Rival.EndDay != wantEnd {
		t.Fatalf("rival endDay = %d, want %d", e.Rival.EndDay, wantEnd)
	}
	if b := m.SaleBonus(0, 0); b != cat.Tuning.ScarcityBonus {
		t.Fatalf("SaleBonus during rival window = %v, want %v", b, cat.Tuning.ScarcityBonus)
	}

	// Restock skips the entry while the window is open.
	m.Replenish(7, 1)
	if q := m.Stock(0, 0); q != 0 {
		t.Fatalf("stock restocked during rival window: %d, want 0", q)
	}

	for day := 2; day <= wantEnd; day++ {
		m.Tick(day, 1)
	}
	e = m.Snapshot(0, 0)
	if e.Rival.Active {
		t.Fatal("rival window still open past its end day")
	}
	if e.Quantity <= 0 {
		t.Fatalf("no partial restock at rival window end: stock = %d", e.Quantity)
	}
	if b := m.SaleBonus(0, 0); b != 1.0 {
		t.Fatalf("SaleBonus after rival window = %v, want 1.0", b)
	}
}

func TestHistoryCap(t *testing.T) {
	cat := testCatalog(t, func(tn *catalog.Tuning) {
		quiet(tn)
		tn.HistoryCap = 5
	})
	m := New(cat, 8)

	for day := 1; day <= 12; day++ {
		m.Tick(day, 1)
	}
	h := m.History(0, 0)
	if len(h) != 5 {
		t.Fatalf("history length = %d, want cap 5", len(h))
	}
	if h[len(h)-1] != m.Price(0, 0) {
		t.Fatalf("history tail %d != current price %d", h[len(h)-1], m.Price(0, 0))
	}
}

func TestTierGateSkipsLockedCommodities(t *testing.T) {
	cat := testCatalog(t, quiet)
	m := New(cat, 4)
	m.RestoreEntry(0, 1, Entry{Price: 500, Quantity: 10}, nil) // medgel, tier 2

	for day := 1; day <= 10; day++ {
		m.Tick(day, 1) // only tier 1 live
	}
	if p := m.Price(0, 1); p != 500 {
		t.Fatalf("tier-locked price moved to %d, want 500", p)
	}
	if h := m.History(0, 1); h != nil {
		t.Fatalf("tier-locked entry accrued history: %v", h)
	}

	m.Tick(11, 2)
	if h := m.History(0, 1); len(h) != 1 {
		t.Fatalf("unlocked entry history = %v, want one point", h)
	}
}

func TestRegimeChange(t *testing.T) {
	cat := testCatalog(t, func(tn *catalog.Tuning) {
		quiet(tn)
		tn.RegimeChance = 0.999999
		tn.RegimeDaysMin = 2
		tn.RegimeDaysMax = 2
	})
	m := New(cat, 6)

	m.Replenish(7, 1)
	active := false
	for li := range cat.Locations {
		if m.RegimeActive(li) {
			active = true
		}
	}
	if !active {
		t.Fatal("no regime started despite forced chance")
	}

	m.Tick(8, 1)
	m.Tick(9, 1)
	m.Tick(10, 1)
	for li := range cat.Locations {
		if m.RegimeActive(li) {
			t.Fatal("regime still active past its end day")
		}
	}
}

func TestQueriesRejectBadIndexes(t *testing.T) {
	m := New(testCatalog(t, nil), 1)

	if p := m.Price(-1, 0); p != 0 {
		t.Fatalf("Price(-1,0) = %d, want 0", p)
	}
	if q := m.Stock(0, 99); q != 0 {
		t.Fatalf("Stock(0,99) = %d, want 0", q)
	}
	if h := m.History(17, 0); h != nil {
		t.Fatalf("History(17,0) = %v, want nil", h)
	}
	// Mutations on bad indexes are no-ops, not panics.
	m.ApplyTrade(1, 99, 99, 10, Buy)
	m.RestoreEntry(-1, -1, Entry{Price: 5}, nil)
}

func TestRestoreEntryClampsInvariants(t *testing.T) {
	m := New(testCatalog(t, nil), 1)
	m.RestoreEntry(0, 0, Entry{Price: -50, Quantity: -3}, []int{0, -2, 77})

	e := m.Snapshot(0, 0)
	if e.Price != 1 {
		t.Fatalf("restored price = %d, want clamped 1", e.Price)
	}
	if e.Quantity != 0 {
		t.Fatalf("restored quantity = %d, want clamped 0", e.Quantity)
	}
	h := m.History(0, 0)
	if len(h) != 3 || h[0] != 1 || h[1] != 1 || h[2] != 77 {
		t.Fatalf("restored history = %v, want [1 1 77]", h)
	}
}
