// Command starlanes runs the galactic trading simulation daemon: a single
// persistent session whose markets keep evolving while the player trades.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/talgya/starlanes/internal/api"
	"github.com/talgya/starlanes/internal/catalog"
	"github.com/talgya/starlanes/internal/galaxy"
	"github.com/talgya/starlanes/internal/persistence"
	"github.com/talgya/starlanes/internal/sim"
)

func main() {
	var (
		configPath = flag.String("config", "galaxy.yaml", "catalog configuration file")
		dbPath     = flag.String("db", "data/starlanes.db", "session database path")
		port       = flag.Int("port", 8080, "HTTP API port")
		seed       = flag.Int64("seed", 0, "session seed (0 = random)")
		speed      = flag.Float64("speed", 1.0, "days per pacing interval")
		credits    = flag.Int64("credits", 2000, "starting credits for a fresh session")
		startLoc   = flag.String("start", "", "starting location id (default: first catalog entry)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// ── Catalog ───────────────────────────────────────────────────────
	cat, err := catalog.Load(*configPath)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded",
		"commodities", len(cat.Commodities),
		"locations", len(cat.Locations),
		"milestones", len(cat.Milestones),
	)

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(*dbPath), 0755)
	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", *dbPath)

	// ── Session seed ──────────────────────────────────────────────────
	// A resumed session reuses its original seed so the travel graph and
	// ledger come out identical; a fresh one records the seed it rolled.
	sessionSeed := *seed
	startDay := 0
	if db.HasSession() {
		if v, err := db.GetMeta("seed"); err == nil {
			if s, err := strconv.ParseInt(v, 10, 64); err == nil {
				sessionSeed = s
			}
		}
		if v, err := db.GetMeta("day"); err == nil {
			if d, err := strconv.Atoi(v); err == nil {
				startDay = d
			}
		}
	}
	if sessionSeed == 0 {
		sessionSeed = rand.Int63()
	}

	// ── Travel graph (deterministic from seed) ────────────────────────
	genCfg := galaxy.DefaultGenConfig()
	genCfg.Seed = sessionSeed
	graph := galaxy.Generate(len(cat.Locations), genCfg)
	slog.Info("travel graph generated", "locations", graph.Size(), "seed", sessionSeed)

	// ── Session ───────────────────────────────────────────────────────
	start := *startLoc
	if start == "" {
		start = cat.Locations[0].ID
	}
	sess, err := sim.NewSession(cat, graph, sim.Config{
		Seed:          sessionSeed,
		StartCredits:  *credits,
		StartLocation: start,
	})
	if err != nil {
		slog.Error("failed to create session", "error", err)
		os.Exit(1)
	}
	if err := db.SaveMeta("seed", strconv.FormatInt(sessionSeed, 10)); err != nil {
		slog.Error("seed save failed", "error", err)
	}

	if startDay > 0 {
		savedCredits := *credits
		savedTier := 1
		if v, err := db.GetMeta("credits"); err == nil {
			if c, err := strconv.ParseInt(v, 10, 64); err == nil {
				savedCredits = c
			}
		}
		if v, err := db.GetMeta("tier"); err == nil {
			if t, err := strconv.Atoi(v); err == nil {
				savedTier = t
			}
		}
		sess.Restore(startDay, savedCredits, savedTier)
		if err := db.LoadLedger(sess); err != nil {
			slog.Error("ledger restore failed", "error", err)
			os.Exit(1)
		}
		slog.Info("session restored", "day", startDay, "credits", savedCredits, "tier", savedTier)
	}

	// ── Engine + API ──────────────────────────────────────────────────
	eng := sim.NewEngine()
	eng.Day = startDay
	eng.Speed = *speed

	hub := api.NewHub()
	go hub.Run()

	apiServer := &api.Server{
		Sess: sess,
		Eng:  eng,
		Hub:  hub,
		Port: *port,
	}

	sess.OnEvent = hub.PublishEvent

	eng.OnDay = func(day int) {
		apiServer.Mu.Lock()
		sess.Step(day)
		apiServer.Mu.Unlock()
		hub.PublishDay(day)

		// Snapshot weekly rather than daily; the ledger is small but the
		// history rows add up.
		if day%7 == 0 {
			apiServer.Mu.Lock()
			err := db.SaveSession(sess)
			apiServer.Mu.Unlock()
			if err != nil {
				slog.Error("snapshot failed", "error", err)
			}
		}
	}

	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\nStarlanes is open for business: %d commodities across %d locations.\n",
		len(cat.Commodities), len(cat.Locations))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", *port)
	if startDay > 0 {
		fmt.Printf("Resuming from day %d (%s)\n", startDay, sim.SimDate(startDay))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	slog.Info("final snapshot...")
	apiServer.Mu.Lock()
	if err := db.SaveSession(sess); err != nil {
		slog.Error("final snapshot failed", "error", err)
	}
	apiServer.Mu.Unlock()

	fmt.Println("Simulation stopped. Session saved.")
}
