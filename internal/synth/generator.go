// Package synth produces plausible synthetic sensor readings for tester
// mode, feeding the same ingest path as live device data.
package synth

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/telemetry"
)

// Generator emits a random-walk reading on a fixed period. It owns its
// ticker goroutine: Start after Start replaces the previous one, so at most
// one ticker is ever live.
type Generator struct {
	interval time.Duration
	emit     func(telemetry.Reading)
	logger   *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	last telemetry.Reading
}

func New(interval time.Duration, emit func(telemetry.Reading), logger *slog.Logger) *Generator {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Generator{
		interval: interval,
		emit:     emit,
		logger:   logger,
		last: telemetry.Reading{
			Temperature: 22,
			Humidity:    50,
			Pressure:    1013,
			PM1:         5,
			PM25:        8,
			PM10:        11,
		},
	}
}

// Start begins emitting. An already-running generator is restarted.
func (g *Generator) Start() {
	g.mu.Lock()
	g.stopLocked()
	stop := make(chan struct{})
	g.stop = stop
	g.mu.Unlock()

	g.logger.Info("tester generator started", "interval", g.interval)
	go g.run(stop)
}

// Stop halts emission. Safe to call when not running.
func (g *Generator) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked()
}

func (g *Generator) stopLocked() {
	if g.stop != nil {
		close(g.stop)
		g.stop = nil
	}
}

func (g *Generator) run(stop <-chan struct{}) {
	// First sample right away so the dashboard isn't blank for a period.
	g.emit(g.next())

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			g.logger.Info("tester generator stopped")
			return
		case <-ticker.C:
			g.emit(g.next())
		}
	}
}

// next advances the random walk, keeping each sensor inside a plausible
// range so the classifier exercises every band over time.
func (g *Generator) next() telemetry.Reading {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.last
	r.Temperature = walk(r.Temperature, 0.6, 5, 38)
	r.Humidity = walk(r.Humidity, 2, 15, 90)
	r.Pressure = walk(r.Pressure, 1.2, 982, 1035)
	r.PM25 = walk(r.PM25, 2.5, 0, 180)
	r.PM1 = r.PM25 * 0.6
	r.PM10 = r.PM25 * 1.5
	g.last = r
	return r
}

func walk(v, step, lo, hi float64) float64 {
	v += (rand.Float64()*2 - 1) * step
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
