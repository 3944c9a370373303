package sim

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/talgya/starlanes/internal/catalog"
)

// ErrShipUnavailable rejects buying a hull the local yard doesn't stock.
var ErrShipUnavailable = errors.New("sim: ship class not in stock here")

// ShipStock is one hull line at a location's shipyard. A plain inventory:
// it rides the weekly restock cadence but carries none of the ledger's
// pressure or depletion machinery.
type ShipStock struct {
	ShipID    string `json:"ship_id"`
	Available int    `json:"available"`
}

// restockShipyards refreshes every location's yard from the catalog's ship
// table, gated by the player's revealed tier. Shares the restock pass
// trigger rather than keeping its own clock.
func (s *Session) restockShipyards(day int) {
	// Derive the roll from the day so restocks differ week to week but a
	// replayed session sees the same yards.
	rng := rand.New(rand.NewSource(int64(day)*7919 + 17))

	for li := range s.Catalog.Locations {
		var stock []ShipStock
		for _, ship := range s.Catalog.Ships {
			if ship.MinTier > s.Player.tier {
				continue
			}
			n := rng.Intn(3) // 0–2 hulls per line
			if n > 0 {
				stock = append(stock, ShipStock{ShipID: ship.ID, Available: n})
			}
		}
		s.shipyards[li] = stock
	}
	s.lastShipyardDay = day
}

// ShipyardAt lists the hulls on offer at a location, nil for unknown ids.
func (s *Session) ShipyardAt(locationID string) []ShipStock {
	li := s.Catalog.LocationIndex(locationID)
	if li < 0 {
		return nil
	}
	return s.shipyards[li]
}

// BuyShip swaps the player onto a new hull from the local yard, debiting
// its price. Cargo must fit in the new hold.
func (s *Session) BuyShip(shipID string) error {
	var class *ShipStock
	stock := s.shipyards[s.Player.location]
	for i := range stock {
		if stock[i].ShipID == shipID && stock[i].Available > 0 {
			class = &stock[i]
			break
		}
	}
	if class == nil {
		return ErrShipUnavailable
	}

	var ship *catalog.ShipClass
	for i := range s.Catalog.Ships {
		if s.Catalog.Ships[i].ID == shipID {
			ship = &s.Catalog.Ships[i]
			break
		}
	}
	if ship == nil {
		return ErrShipUnavailable
	}
	if s.Player.CargoUsed() > ship.CargoHold {
		return ErrCargoFull
	}
	if err := s.Player.Debit(ship.Price); err != nil {
		return err
	}

	class.Available--
	s.Player.ShipClass = ship.ID
	s.Player.CargoMax = ship.CargoHold
	s.Player.FuelMax = ship.FuelTank
	if s.Player.Fuel > ship.FuelTank {
		s.Player.Fuel = ship.FuelTank
	}
	s.record(s.day, "player", fmt.Sprintf("Took delivery of a new hull: %s.", ship.Name))
	return nil
}
