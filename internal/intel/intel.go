// Package intel generates, prices, sells, and expires trade intel: purchasable
// tips that temporarily override a commodity's price at a distant location.
// At most one purchased deal is ever active at a time.
package intel

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/talgya/starlanes/internal/catalog"
	"github.com/talgya/starlanes/internal/galaxy"
)

var (
	// ErrDealActive rejects a purchase while another deal is still running.
	ErrDealActive = errors.New("intel: a deal is already active")
	// ErrInsufficientCredits rejects a purchase the player cannot afford.
	ErrInsufficientCredits = errors.New("intel: insufficient credits")
	// ErrUnknownPacket rejects a purchase of a packet that is not on sale.
	ErrUnknownPacket = errors.New("intel: no such packet at this location")
)

// Player is the read-mostly view of the player the manager needs: wealth for
// dynamic pricing, tier and unlocks for packet generation, and position for
// travel-time expiry math. Debit is the only mutation.
type Player interface {
	Credits() int64
	Debit(amount int64) error
	RevealedTier() int
	Unlocked(locIdx int) bool
	CurrentLocation() int
}

// Packet is one purchasable tip: a discounted price on a commodity at a
// specific deal location, sold somewhere else.
type Packet struct {
	ID            string  `json:"id"`
	SaleLocation  int     `json:"sale_location"`
	DealLocation  int     `json:"deal_location"`
	Commodity     int     `json:"commodity"`
	Discount      float64 `json:"discount"`         // Fraction off the galactic average, [0.15, 0.50]
	ValueMult     float64 `json:"value_mult"`       // Pricing weight derived from the discount
	MessageKey    string  `json:"message_key"`      // Flavor text selector
	Purchased     bool    `json:"purchased"`
	PricePaid     int64   `json:"price_paid"`
	ExpiryDay     int     `json:"expiry_day"` // Set at purchase, zero until then
}

// ActiveDeal is the single live price override produced by a purchased
// packet. Any price lookup consults this before the ledger.
type ActiveDeal struct {
	DealLocation  int    `json:"deal_location"`
	Commodity     int    `json:"commodity"`
	OverridePrice int    `json:"override_price"`
	ExpiryDay     int    `json:"expiry_day"`
	PacketID      string `json:"packet_id"`
	SaleLocation  int    `json:"sale_location"`
}

// messageKeys is the flavor pool; refresh draws without repeats per sale
// location until the pool is exhausted, then reuses.
var messageKeys = []string{
	"intel_overheard_dock", "intel_drunk_navigator", "intel_customs_leak",
	"intel_freight_manifest", "intel_mining_strike", "intel_convoy_delay",
	"intel_warehouse_fire", "intel_insider_broker", "intel_pirate_selloff",
	"intel_surplus_auction", "intel_refinery_glut", "intel_smuggler_cache",
}

// Manager owns the packet lists per sale location and the active-deal slot.
type Manager struct {
	cat   *catalog.Catalog
	graph *galaxy.Graph
	rng   *rand.Rand

	packets        map[int][]*Packet // sale location index → live packets
	active         *ActiveDeal
	lastRefreshDay int

	// Notify, when set, receives intel events for the news feed.
	Notify func(day int, category, description string)
}

// NewManager creates an intel manager with its own seeded RNG.
func NewManager(cat *catalog.Catalog, graph *galaxy.Graph, seed int64) *Manager {
	return &Manager{
		cat:     cat,
		graph:   graph,
		rng:     rand.New(rand.NewSource(seed)),
		packets: make(map[int][]*Packet),
	}
}

// Active returns the current deal, or nil. Callers resolve effective prices
// against this before falling back to the ledger.
func (mg *Manager) Active() *ActiveDeal {
	return mg.active
}

// AvailableAt lists the packets on display at a sale location: everything
// unpurchased plus any purchased packet whose deal is still running.
func (mg *Manager) AvailableAt(saleLoc int) []*Packet {
	live := mg.packets[saleLoc]
	out := make([]*Packet, 0, len(live))
	for _, p := range live {
		if !p.Purchased {
			out = append(out, p)
			continue
		}
		if mg.active != nil && mg.active.PacketID == p.ID {
			out = append(out, p)
		}
	}
	return out
}

// Refresh regenerates the intel inventory. Guarded by its own cadence
// (intel_interval days); early calls are no-ops. Unpurchased packets from
// the previous batch are pruned, then each sale location rolls for 1–3 new
// packets pointing at an unlocked location other than itself and a
// tier-unlocked commodity.
func (mg *Manager) Refresh(day int, player Player) bool {
	if day-mg.lastRefreshDay < mg.cat.Tuning.IntelInterval {
		return false
	}
	mg.lastRefreshDay = day

	t := mg.cat.Tuning
	for saleLoc := range mg.cat.Locations {
		kept := mg.packets[saleLoc][:0]
		for _, p := range mg.packets[saleLoc] {
			if p.Purchased {
				kept = append(kept, p)
			}
		}
		mg.packets[saleLoc] = kept

		if mg.rng.Float64() >= t.IntelChance {
			continue
		}
		n := 1 + mg.rng.Intn(3)
		for i := 0; i < n; i++ {
			if p := mg.generate(saleLoc, player); p != nil {
				mg.packets[saleLoc] = append(mg.packets[saleLoc], p)
			}
		}
	}
	return true
}

// generate builds one packet for a sale location, or nil when no legal
// (deal location, commodity) pair exists yet.
func (mg *Manager) generate(saleLoc int, player Player) *Packet {
	var dealChoices []int
	for li := range mg.cat.Locations {
		if li != saleLoc && player.Unlocked(li) {
			dealChoices = append(dealChoices, li)
		}
	}
	var commChoices []int
	for ci, comm := range mg.cat.Commodities {
		if comm.Tier <= player.RevealedTier() {
			commChoices = append(commChoices, ci)
		}
	}
	if len(dealChoices) == 0 || len(commChoices) == 0 {
		return nil
	}

	t := mg.cat.Tuning
	discount := t.DiscountMin + mg.rng.Float64()*(t.DiscountMax-t.DiscountMin)

	return &Packet{
		ID:           uuid.NewString(),
		SaleLocation: saleLoc,
		DealLocation: dealChoices[mg.rng.Intn(len(dealChoices))],
		Commodity:    commChoices[mg.rng.Intn(len(commChoices))],
		Discount:     discount,
		ValueMult:    1 + 2*discount, // Juicier discounts cost more
		MessageKey:   mg.pickMessageKey(saleLoc),
	}
}

// pickMessageKey avoids repeating a key among the live packets at one sale
// location, falling back to reuse once the pool runs dry.
func (mg *Manager) pickMessageKey(saleLoc int) string {
	used := make(map[string]bool, len(mg.packets[saleLoc]))
	for _, p := range mg.packets[saleLoc] {
		used[p.MessageKey] = true
	}
	start := mg.rng.Intn(len(messageKeys))
	for i := 0; i < len(messageKeys); i++ {
		key := messageKeys[(start+i)%len(messageKeys)]
		if !used[key] {
			return key
		}
	}
	return messageKeys[start]
}

// Quote prices a packet against the player's wealth: a random fraction of
// current credits weighted by the packet's value multiplier, reduced by the
// sale location's information-hub discount, floored to the nearest 100
// credits and never below 100.
func (mg *Manager) Quote(p *Packet, credits int64, saleLoc int) int64 {
	t := mg.cat.Tuning
	fraction := t.PriceFractionMin + mg.rng.Float64()*(t.PriceFractionMax-t.PriceFractionMin)
	price := float64(credits) * fraction * p.ValueMult

	if saleLoc >= 0 && saleLoc < len(mg.cat.Locations) {
		price *= 1 - mg.cat.Locations[saleLoc].IntelDiscount
	}

	quoted := (int64(price) / 100) * 100
	if quoted < 100 {
		quoted = 100
	}
	return quoted
}

// Purchase sells a packet at its quoted price. Fails with ErrDealActive
// while another deal runs, ErrUnknownPacket for a packet not on sale, and
// ErrInsufficientCredits when the player cannot pay. On success the player
// is debited, the packet marked, and the single active deal installed with
// an expiry proportional to the travel time from the player's current
// location to the deal location: distant deals stay open longer.
func (mg *Manager) Purchase(day int, packetID string, saleLoc int, quoted int64, player Player) (*Packet, error) {
	if mg.active != nil {
		return nil, ErrDealActive
	}

	var packet *Packet
	for _, p := range mg.packets[saleLoc] {
		if p.ID == packetID && !p.Purchased {
			packet = p
			break
		}
	}
	if packet == nil {
		return nil, ErrUnknownPacket
	}
	if player.Credits() < quoted {
		return nil, ErrInsufficientCredits
	}
	if err := player.Debit(quoted); err != nil {
		return nil, err
	}

	travelDays := 1
	if r, ok := mg.graph.Route(player.CurrentLocation(), packet.DealLocation); ok {
		travelDays = r.Days
	}
	durationMod := mg.cat.Locations[saleLoc].IntelDurationMod
	if durationMod <= 0 {
		durationMod = 1
	}
	expiry := day + int(math.Ceil(float64(travelDays)*mg.cat.Tuning.DurationMult*durationMod))

	packet.Purchased = true
	packet.PricePaid = quoted
	packet.ExpiryDay = expiry

	avg := mg.cat.GalacticAverage(packet.Commodity)
	override := int(math.Floor(float64(avg) * (1 - packet.Discount)))
	if override < 1 {
		override = 1
	}

	mg.active = &ActiveDeal{
		DealLocation:  packet.DealLocation,
		Commodity:     packet.Commodity,
		OverridePrice: override,
		ExpiryDay:     expiry,
		PacketID:      packet.ID,
		SaleLocation:  saleLoc,
	}

	mg.notify(day, "intel", fmt.Sprintf(
		"A contact whispers of cheap %s at %s. The window closes on day %d.",
		mg.cat.Commodities[packet.Commodity].Name,
		mg.cat.Locations[packet.DealLocation].Name,
		expiry))

	return packet, nil
}

// Tick expires the active deal once its day has passed, removing the spent
// packet from its sale location's display list.
func (mg *Manager) Tick(day int) {
	if mg.active == nil || day <= mg.active.ExpiryDay {
		return
	}
	deal := mg.active
	mg.active = nil

	kept := mg.packets[deal.SaleLocation][:0]
	for _, p := range mg.packets[deal.SaleLocation] {
		if p.ID != deal.PacketID {
			kept = append(kept, p)
		}
	}
	mg.packets[deal.SaleLocation] = kept

	mg.notify(day, "intel", fmt.Sprintf(
		"The tip about %s at %s has gone cold.",
		mg.cat.Commodities[deal.Commodity].Name,
		mg.cat.Locations[deal.DealLocation].Name))
}

func (mg *Manager) notify(day int, category, description string) {
	if mg.Notify != nil {
		mg.Notify(day, category, description)
	}
}
