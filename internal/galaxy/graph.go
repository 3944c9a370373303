// Package galaxy provides the procedurally generated travel graph: for every
// ordered pair of locations, the days of travel and the fuel cost of the
// trip. Generated once per session from a seed and read-only afterwards.
package galaxy

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Route is one directed lane between two locations.
type Route struct {
	Days     int `json:"days"`      // Travel time in simulated days, >= 1
	FuelCost int `json:"fuel_cost"` // Fuel units consumed, >= 1
}

// GenConfig holds travel graph generation parameters.
type GenConfig struct {
	Seed       int64   // 0 = random
	MapRadius  float64 // Disc radius locations are scattered over
	DaysPerAU  float64 // Base travel days per distance unit
	FuelPerAU  float64 // Base fuel per distance unit
	Turbulence float64 // Congestion noise weight on lane cost (0–1)
}

// DefaultGenConfig returns the shipped generation parameters.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		MapRadius:  40,
		DaysPerAU:  0.25,
		FuelPerAU:  1.4,
		Turbulence: 0.35,
	}
}

// Graph maps ordered location-index pairs to routes.
type Graph struct {
	n      int
	coords [][2]float64
	routes []Route // n*n, from*n+to
}

// Generate scatters n locations over a disc and derives every directed
// route. Distance sets the baseline; a congestion noise field sampled per
// ordered pair perturbs it, so outbound and return lanes differ.
func Generate(n int, cfg GenConfig) *Graph {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	congestion := opensimplex.NewNormalized(seed + 1)

	g := &Graph{
		n:      n,
		coords: make([][2]float64, n),
		routes: make([]Route, n*n),
	}

	// Scatter locations with a minimum spacing so no two share a lane of
	// near-zero length. Rejection sampling with a bounded retry budget.
	minSpacing := cfg.MapRadius / math.Sqrt(float64(n)) * 0.8
	for i := 0; i < n; i++ {
		for attempt := 0; ; attempt++ {
			angle := rng.Float64() * 2 * math.Pi
			radius := math.Sqrt(rng.Float64()) * cfg.MapRadius
			x := math.Cos(angle) * radius
			y := math.Sin(angle) * radius

			ok := true
			for j := 0; j < i; j++ {
				if dist(x, y, g.coords[j][0], g.coords[j][1]) < minSpacing {
					ok = false
					break
				}
			}
			if ok || attempt > 50 {
				g.coords[i] = [2]float64{x, y}
				break
			}
		}
	}

	for from := 0; from < n; from++ {
		for to := 0; to < n; to++ {
			if from == to {
				continue
			}
			d := dist(g.coords[from][0], g.coords[from][1], g.coords[to][0], g.coords[to][1])

			// Sample congestion at the lane midpoint, offset by direction so
			// the two directions of a lane see different fields.
			mx := (g.coords[from][0] + g.coords[to][0]) / 2
			my := (g.coords[from][1] + g.coords[to][1]) / 2
			noise := congestion.Eval3(mx*0.05, my*0.05, float64(from-to)*0.17)
			mod := 1 + (noise-0.5)*2*cfg.Turbulence

			days := int(math.Ceil(d * cfg.DaysPerAU * mod))
			fuel := int(math.Ceil(d * cfg.FuelPerAU * mod))
			if days < 1 {
				days = 1
			}
			if fuel < 1 {
				fuel = 1
			}
			g.routes[from*n+to] = Route{Days: days, FuelCost: fuel}
		}
	}

	return g
}

// Route returns the directed route between two location indexes. The second
// return is false for out-of-range indexes or for from == to.
func (g *Graph) Route(from, to int) (Route, bool) {
	if from < 0 || from >= g.n || to < 0 || to >= g.n || from == to {
		return Route{}, false
	}
	return g.routes[from*g.n+to], true
}

// Coord returns the generated map position of a location index.
func (g *Graph) Coord(i int) (x, y float64) {
	if i < 0 || i >= g.n {
		return 0, 0
	}
	return g.coords[i][0], g.coords[i][1]
}

// Size returns the number of locations in the graph.
func (g *Graph) Size() int {
	return g.n
}

func dist(x1, y1, x2, y2 float64) float64 {
	return math.Sqrt((x2-x1)*(x2-x1) + (y2-y1)*(y2-y1))
}
