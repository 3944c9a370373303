// Package api serves the session over HTTP: read-only market observation
// endpoints, player action endpoints, and a WebSocket ticker feed. All
// session access is serialized through the server's mutex, so the ledger
// keeps its single-writer guarantee while the engine runs in the background.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/talgya/starlanes/internal/intel"
	"github.com/talgya/starlanes/internal/market"
	"github.com/talgya/starlanes/internal/sim"
)

// Server serves one game session.
type Server struct {
	Sess *sim.Session
	Eng  *sim.Engine
	Hub  *Hub
	Port int

	// Mu serializes every session call: handler reads and writes, and the
	// engine's daily step (the daemon locks it around OnDay).
	Mu sync.Mutex
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	actionLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Observation endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/locations", s.handleLocations)
	mux.HandleFunc("/api/v1/market", s.handleMarket)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/intel", s.handleIntel)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/shipyard", s.handleShipyard)

	// Action endpoints.
	mux.HandleFunc("/api/v1/trade", RateLimitMiddleware(actionLimiter, s.handleTrade))
	mux.HandleFunc("/api/v1/travel", RateLimitMiddleware(actionLimiter, s.handleTravel))
	mux.HandleFunc("/api/v1/refuel", RateLimitMiddleware(actionLimiter, s.handleRefuel))
	mux.HandleFunc("/api/v1/intel/quote", RateLimitMiddleware(actionLimiter, s.handleIntelQuote))
	mux.HandleFunc("/api/v1/intel/purchase", RateLimitMiddleware(actionLimiter, s.handleIntelPurchase))
	mux.HandleFunc("/api/v1/speed", s.handleSpeed)

	// Ticker feed.
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWs(s.Hub, w, r)
	})

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// rejectionStatus maps business-rule rejections onto HTTP statuses so the
// frontend can phrase them; anything unrecognized is a plain 400.
func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, sim.ErrUnknownID), errors.Is(err, sim.ErrNoRoute), errors.Is(err, intel.ErrUnknownPacket):
		return http.StatusNotFound
	case errors.Is(err, sim.ErrInsufficientCredits), errors.Is(err, intel.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, intel.ErrDealActive), errors.Is(err, sim.ErrInsufficientStock),
		errors.Is(err, sim.ErrCargoFull), errors.Is(err, sim.ErrNoCargo),
		errors.Is(err, sim.ErrNotDocked), errors.Is(err, sim.ErrLicenseRequired),
		errors.Is(err, sim.ErrInsufficientFuel), errors.Is(err, sim.ErrShipUnavailable):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// handleStatus reports the player and clock state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	p := s.Sess.Player
	cargo := make(map[string]int)
	for ci, qty := range p.Cargo {
		cargo[s.Sess.Catalog.Commodities[ci].ID] = qty
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"day":      s.Sess.Day(),
		"date":     sim.SimDate(s.Sess.Day()),
		"speed":    s.Eng.Speed,
		"credits":  p.Credits(),
		"tier":     p.RevealedTier(),
		"location": s.Sess.Catalog.Locations[p.CurrentLocation()].ID,
		"fuel":     p.Fuel,
		"fuel_max": p.FuelMax,
		"cargo":    cargo,
		"hold":     p.CargoMax,
		"ship":     p.ShipClass,
	})
}

// handleLocations lists the locations the player has unlocked, with their
// generated map coordinates and routes from the player's position.
func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	from := s.Sess.Player.CurrentLocation()
	type locView struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Days     int     `json:"days,omitempty"`
		FuelCost int     `json:"fuel_cost,omitempty"`
	}

	var out []locView
	for li, loc := range s.Sess.Catalog.Locations {
		if !s.Sess.Player.Unlocked(li) {
			continue
		}
		x, y := s.Sess.Graph.Coord(li)
		v := locView{ID: loc.ID, Name: loc.Name, X: x, Y: y}
		if route, ok := s.Sess.Graph.Route(from, li); ok {
			v.Days = route.Days
			v.FuelCost = route.FuelCost
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleMarket renders the effective board at one location:
// /api/v1/market?location=mars
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	locID := r.URL.Query().Get("location")
	li := s.Sess.Catalog.LocationIndex(locID)
	if li < 0 {
		writeError(w, http.StatusNotFound, sim.ErrUnknownID)
		return
	}

	type row struct {
		Commodity string `json:"commodity"`
		Name      string `json:"name"`
		Tier      int    `json:"tier"`
		Price     int    `json:"price"`
		Stock     int    `json:"stock"`
		IntelDeal bool   `json:"intel_deal,omitempty"`
	}

	deal := s.Sess.Intel.Active()
	var rows []row
	for ci, comm := range s.Sess.Catalog.Commodities {
		if comm.Tier > s.Sess.Player.RevealedTier() {
			continue
		}
		rows = append(rows, row{
			Commodity: comm.ID,
			Name:      comm.Name,
			Tier:      comm.Tier,
			Price:     s.Sess.GetPrice(locID, comm.ID),
			Stock:     s.Sess.GetStock(locID, comm.ID),
			IntelDeal: deal != nil && deal.DealLocation == li && deal.Commodity == ci,
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleHistory returns the retained daily prices for one pair:
// /api/v1/history?location=mars&commodity=plasteel
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	hist := s.Sess.GetPriceHistory(r.URL.Query().Get("location"), r.URL.Query().Get("commodity"))
	if hist == nil {
		hist = []int{}
	}
	writeJSON(w, http.StatusOK, hist)
}

// handleIntel lists packets on display at a sale location.
func (s *Server) handleIntel(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	locID := r.URL.Query().Get("location")
	if s.Sess.Catalog.LocationIndex(locID) < 0 {
		writeError(w, http.StatusNotFound, sim.ErrUnknownID)
		return
	}
	packets := s.Sess.GetAvailableIntel(locID)
	if packets == nil {
		packets = []*intel.Packet{}
	}
	writeJSON(w, http.StatusOK, packets)
}

// handleEvents returns recent news-feed events, oldest first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, s.Sess.Events(limit))
}

// handleShipyard lists the hulls on offer at a location.
func (s *Server) handleShipyard(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	locID := r.URL.Query().Get("location")
	if s.Sess.Catalog.LocationIndex(locID) < 0 {
		writeError(w, http.StatusNotFound, sim.ErrUnknownID)
		return
	}
	stock := s.Sess.ShipyardAt(locID)
	if stock == nil {
		stock = []sim.ShipStock{}
	}
	writeJSON(w, http.StatusOK, stock)
}

type tradeRequest struct {
	Location  string `json:"location"`
	Commodity string `json:"commodity"`
	Quantity  int    `json:"quantity"`
	Direction string `json:"direction"` // "buy" or "sell"
}

// handleTrade executes one player trade.
func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	dir := market.Buy
	if req.Direction == "sell" {
		dir = market.Sell
	} else if req.Direction != "buy" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("direction %q, want buy or sell", req.Direction))
		return
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	if err := s.Sess.ApplyTrade(req.Location, req.Commodity, req.Quantity, dir); err != nil {
		writeError(w, rejectionStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"credits": s.Sess.Player.Credits(),
		"stock":   s.Sess.GetStock(req.Location, req.Commodity),
	})
}

// handleTravel moves the player along a lane.
func (s *Server) handleTravel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Location string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	if err := s.Sess.Travel(req.Location); err != nil {
		writeError(w, rejectionStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"location": req.Location,
		"fuel":     s.Sess.Player.Fuel,
	})
}

// handleRefuel tops up the tank at the docked location.
func (s *Server) handleRefuel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Units int `json:"units"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	if err := s.Sess.Refuel(req.Units); err != nil {
		writeError(w, rejectionStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fuel":    s.Sess.Player.Fuel,
		"credits": s.Sess.Player.Credits(),
	})
}

// handleIntelQuote prices a packet for display. Quotes are drawn fresh each
// call; the client passes the quoted figure back on purchase.
func (s *Server) handleIntelQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Packet string `json:"packet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	quote, err := s.Sess.QuoteIntel(req.Packet)
	if err != nil {
		writeError(w, rejectionStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"packet": req.Packet, "price": quote})
}

// handleIntelPurchase buys a packet at its quoted price.
func (s *Server) handleIntelPurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Packet   string `json:"packet"`
		Location string `json:"location"`
		Quoted   int64  `json:"quoted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	packet, err := s.Sess.PurchaseIntel(req.Packet, req.Location, req.Quoted)
	if err != nil {
		writeError(w, rejectionStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"packet":  packet,
		"deal":    s.Sess.Intel.Active(),
		"credits": s.Sess.Player.Credits(),
	})
}

// handleSpeed adjusts the engine pacing (0 pauses).
func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Speed < 0 || req.Speed > 60 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("speed %.1f out of [0,60]", req.Speed))
		return
	}
	s.Eng.Speed = req.Speed
	writeJSON(w, http.StatusOK, map[string]any{"speed": req.Speed})
}
