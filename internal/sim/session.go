package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/starlanes/internal/catalog"
	"github.com/talgya/starlanes/internal/galaxy"
	"github.com/talgya/starlanes/internal/intel"
	"github.com/talgya/starlanes/internal/market"
)

// Business-rule rejections surfaced to the action layer. Nothing here is
// retried: an operation either lands or comes back with a reason.
var (
	ErrUnknownID         = errors.New("sim: unknown location or commodity id")
	ErrNotDocked         = errors.New("sim: player is not at that location")
	ErrInsufficientStock = errors.New("sim: not enough stock for that trade")
	ErrCargoFull         = errors.New("sim: not enough cargo space")
	ErrNoCargo           = errors.New("sim: not enough cargo to sell")
	ErrLicenseRequired   = errors.New("sim: commodity requires a license")
	ErrNoRoute           = errors.New("sim: no route to that location")
	ErrInsufficientFuel  = errors.New("sim: not enough fuel for that route")
)

// Event is a notable occurrence surfaced to the news feed.
type Event struct {
	Day         int    `json:"day" db:"day"`
	Category    string `json:"category" db:"category"` // "market", "economy", "intel", "player"
	Description string `json:"description" db:"description"`
}

const maxEvents = 500

// Session is one single-player game: the catalog, the travel graph, the
// market ledger, the intel manager, and the player, advanced one day at a
// time by the engine. All mutation is serialized through this layer, so the
// ledger has exactly one writer.
type Session struct {
	Catalog *catalog.Catalog
	Graph   *galaxy.Graph
	Market  *market.Market
	Intel   *intel.Manager
	Player  *Player

	day    int
	events []Event

	shipyards       map[int][]ShipStock
	lastShipyardDay int

	// OnEvent, when set, receives every recorded event as it happens.
	OnEvent func(Event)
}

// Config seeds a new session.
type Config struct {
	Seed          int64
	StartCredits  int64
	StartLocation string
}

// NewSession builds a fresh game: seeded ledger, empty intel inventory,
// player docked at the start location with tier-1 commodities live.
func NewSession(cat *catalog.Catalog, graph *galaxy.Graph, cfg Config) (*Session, error) {
	startIdx := cat.LocationIndex(cfg.StartLocation)
	if startIdx < 0 {
		return nil, fmt.Errorf("sim: unknown start location %q", cfg.StartLocation)
	}

	unlocked := make(map[int]bool)
	unlocked[startIdx] = true
	for li, loc := range cat.Locations {
		if loc.StartUnlocked {
			unlocked[li] = true
		}
	}

	player := &Player{
		credits:  cfg.StartCredits,
		tier:     cat.TierFor(cfg.StartCredits, 1),
		location: startIdx,
		unlocked: unlocked,
		licenses: make(map[string]bool),
		Cargo:    make(map[int]int),
		CargoMax: 60,
		Fuel:     80,
		FuelMax:  80,
	}
	if len(cat.Ships) > 0 {
		s := cat.Ships[0]
		player.ShipClass = s.ID
		player.CargoMax = s.CargoHold
		player.FuelMax = s.FuelTank
		player.Fuel = s.FuelTank
	}

	sess := &Session{
		Catalog:   cat,
		Graph:     graph,
		Market:    market.New(cat, cfg.Seed),
		Intel:     intel.NewManager(cat, graph, cfg.Seed+1),
		Player:    player,
		shipyards: make(map[int][]ShipStock),
	}
	sess.Market.Notify = sess.record
	sess.Intel.Notify = sess.record
	sess.restockShipyards(0)
	return sess, nil
}

// Day returns the most recently processed day.
func (s *Session) Day() int { return s.day }

// Restore rewinds a freshly built session onto a saved clock and player
// state. The ledger itself is restored entry by entry by the persistence
// layer before play resumes.
func (s *Session) Restore(day int, credits int64, tier int) {
	s.day = day
	s.Player.credits = credits
	if tier > s.Player.tier {
		s.Player.tier = tier
	}
	s.Market.SetClock(day, day)
}

// Step is the engine's daily callback: evolve prices, expire intel, then
// give the lower-cadence passes their chance (each guards its own interval).
func (s *Session) Step(day int) {
	s.AdvanceDay(day)
	s.MaybeReplenish(day)
	s.MaybeIntelRefresh(day)
}

// AdvanceDay runs the daily evolution tick and intel expiry for one day.
func (s *Session) AdvanceDay(day int) {
	if day <= s.day {
		return
	}
	s.day = day
	s.Market.Tick(day, s.Player.tier)
	s.Intel.Tick(day)
	s.refreshTier()
}

// MaybeReplenish runs the weekly restock pass; the market enforces the
// cadence, so calling it every day is safe.
func (s *Session) MaybeReplenish(day int) {
	if s.Market.Replenish(day, s.Player.tier) {
		s.restockShipyards(day)
	}
}

// MaybeIntelRefresh regenerates intel inventory on its 120-day cadence.
func (s *Session) MaybeIntelRefresh(day int) {
	s.Intel.Refresh(day, s.Player)
}

// refreshTier advances the revealed tier when the player's wealth clears a
// milestone. The tier never moves backward, whatever credits do later.
func (s *Session) refreshTier() {
	next := s.Catalog.TierFor(s.Player.credits, s.Player.tier)
	if next > s.Player.tier {
		s.Player.tier = next
		s.record(s.day, "player", fmt.Sprintf("New markets open up: tier %d commodities are now traded.", next))
	}
}

// GetPrice resolves the effective price for a pair: the active intel
// override when it matches, the ledger price otherwise. 0 for unknown ids.
func (s *Session) GetPrice(locationID, commodityID string) int {
	li := s.Catalog.LocationIndex(locationID)
	ci := s.Catalog.CommodityIndex(commodityID)
	if li < 0 || ci < 0 {
		return 0
	}
	return s.effectivePrice(li, ci)
}

func (s *Session) effectivePrice(locIdx, commIdx int) int {
	if deal := s.Intel.Active(); deal != nil && deal.DealLocation == locIdx && deal.Commodity == commIdx {
		return deal.OverridePrice
	}
	return s.Market.Price(locIdx, commIdx)
}

// GetStock returns units on hand for a pair, 0 for unknown ids.
func (s *Session) GetStock(locationID, commodityID string) int {
	li := s.Catalog.LocationIndex(locationID)
	ci := s.Catalog.CommodityIndex(commodityID)
	if li < 0 || ci < 0 {
		return 0
	}
	return s.Market.Stock(li, ci)
}

// GetPriceHistory returns the retained daily prices for a pair, oldest
// first. Nil for unknown ids or before the first tick.
func (s *Session) GetPriceHistory(locationID, commodityID string) []int {
	li := s.Catalog.LocationIndex(locationID)
	ci := s.Catalog.CommodityIndex(commodityID)
	if li < 0 || ci < 0 {
		return nil
	}
	return s.Market.History(li, ci)
}

// ApplyTrade validates and executes one player trade at a location. Buys pay
// the effective (intel-aware) price per unit; sells earn the ledger price
// lifted by any scarcity bonus. The ledger mutation itself — stock delta,
// pressure deposit, depletion handling — happens inside the market.
func (s *Session) ApplyTrade(locationID, commodityID string, qty int, dir market.Direction) error {
	li := s.Catalog.LocationIndex(locationID)
	ci := s.Catalog.CommodityIndex(commodityID)
	if li < 0 || ci < 0 {
		return ErrUnknownID
	}
	if qty <= 0 {
		return fmt.Errorf("sim: trade quantity %d, want > 0", qty)
	}
	if s.Player.location != li {
		return ErrNotDocked
	}
	comm := s.Catalog.Commodities[ci]
	if comm.Tier > s.Player.tier {
		return ErrUnknownID
	}
	if !s.Player.HasLicense(comm.RequiredLicense) {
		return ErrLicenseRequired
	}

	switch dir {
	case market.Buy:
		if s.Market.Stock(li, ci) < qty {
			return ErrInsufficientStock
		}
		if s.Player.CargoFree() < qty {
			return ErrCargoFull
		}
		cost := int64(s.effectivePrice(li, ci)) * int64(qty)
		if err := s.Player.Debit(cost); err != nil {
			return err
		}
		s.Player.Cargo[ci] += qty
	case market.Sell:
		if s.Player.Cargo[ci] < qty {
			return ErrNoCargo
		}
		unit := int64(math.Floor(float64(s.Market.Price(li, ci)) * s.Market.SaleBonus(li, ci)))
		s.Player.Cargo[ci] -= qty
		if s.Player.Cargo[ci] == 0 {
			delete(s.Player.Cargo, ci)
		}
		s.Player.Credit(unit * int64(qty))
	default:
		return fmt.Errorf("sim: unknown trade direction %d", dir)
	}

	s.Market.ApplyTrade(s.day, li, ci, qty, dir)
	s.refreshTier()
	return nil
}

// Travel moves the player along a lane, consuming fuel and unlocking the
// destination. Day advancement stays with the engine; travel itself is
// instantaneous from the scheduler's point of view.
func (s *Session) Travel(locationID string) error {
	dest := s.Catalog.LocationIndex(locationID)
	if dest < 0 {
		return ErrUnknownID
	}
	route, ok := s.Graph.Route(s.Player.location, dest)
	if !ok {
		return ErrNoRoute
	}
	if s.Player.Fuel < route.FuelCost {
		return ErrInsufficientFuel
	}
	s.Player.Fuel -= route.FuelCost
	s.Player.location = dest
	s.Player.unlocked[dest] = true
	s.record(s.day, "player", fmt.Sprintf("Docked at %s.", s.Catalog.Locations[dest].Name))
	return nil
}

// Refuel buys fuel at the docked location's price, clamped to tank space.
func (s *Session) Refuel(units int) error {
	if units <= 0 {
		return fmt.Errorf("sim: refuel units %d, want > 0", units)
	}
	space := s.Player.FuelMax - s.Player.Fuel
	if units > space {
		units = space
	}
	if units == 0 {
		return nil
	}
	cost := int64(units) * int64(s.Catalog.Locations[s.Player.location].FuelPrice)
	if err := s.Player.Debit(cost); err != nil {
		return err
	}
	s.Player.Fuel += units
	return nil
}

// GetAvailableIntel lists the packets on display at a sale location.
func (s *Session) GetAvailableIntel(saleLocationID string) []*intel.Packet {
	li := s.Catalog.LocationIndex(saleLocationID)
	if li < 0 {
		return nil
	}
	return s.Intel.AvailableAt(li)
}

// QuoteIntel prices a packet at the player's current location.
func (s *Session) QuoteIntel(packetID string) (int64, error) {
	loc := s.Player.location
	for _, p := range s.Intel.AvailableAt(loc) {
		if p.ID == packetID && !p.Purchased {
			return s.Intel.Quote(p, s.Player.credits, loc), nil
		}
	}
	return 0, intel.ErrUnknownPacket
}

// PurchaseIntel buys a packet at its quoted price. The player must be
// docked at the sale location; the intel manager enforces the single-active-
// deal rule and the credit check.
func (s *Session) PurchaseIntel(packetID, saleLocationID string, quoted int64) (*intel.Packet, error) {
	li := s.Catalog.LocationIndex(saleLocationID)
	if li < 0 {
		return nil, ErrUnknownID
	}
	if s.Player.location != li {
		return nil, ErrNotDocked
	}
	return s.Intel.Purchase(s.day, packetID, li, quoted, s.Player)
}

// Events returns up to limit recent events, oldest first.
func (s *Session) Events(limit int) []Event {
	start := 0
	if limit > 0 && len(s.events) > limit {
		start = len(s.events) - limit
	}
	out := make([]Event, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

func (s *Session) record(day int, category, description string) {
	ev := Event{Day: day, Category: category, Description: description}
	s.events = append(s.events, ev)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	if s.OnEvent != nil {
		s.OnEvent(ev)
	}
}
