// Package sim provides the day-based simulation loop and the session layer
// that wires the player, market, intel, and travel systems together.
package sim

import (
	"fmt"
	"log/slog"
	"time"
)

// Engine drives the day counter forward. It is the single source of day
// advancement: days only ever increase, one at a time, and every scheduled
// system hangs off the OnDay callback with its own cadence guard.
type Engine struct {
	Day      int           // Current simulated day (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = one day per interval, 0 = paused
	Interval time.Duration // Real time per simulated day at speed 1.0
	Running  bool

	// OnDay runs once per simulated day, after the counter advances.
	OnDay func(day int)
}

// NewEngine creates an engine with default pacing.
func NewEngine() *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: 5 * time.Second,
	}
}

// Run starts the loop. Blocks until Stop is called.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("simulation engine started", "day", e.Day, "speed", e.Speed)

	for e.Running {
		if e.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.Step()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "day", e.Day)
}

// Stop halts the loop after the current day completes.
func (e *Engine) Stop() {
	e.Running = false
}

// Step advances exactly one day. Tests drive the clock through this.
func (e *Engine) Step() {
	e.Day++
	if e.OnDay != nil {
		e.OnDay(e.Day)
	}
}

// SimDate renders a day counter as a session date string.
func SimDate(day int) string {
	year := day/360 + 1
	dayOfYear := day%360 + 1
	return fmt.Sprintf("Year %d, Day %d", year, dayOfYear)
}
