/*
broadcaster.go - Periodic stats push

PURPOSE:
  Game events only fire on hour and day boundaries. Dashboards also want
  the clock and derived income between them, so the broadcaster samples
  the game on a wall-clock interval and pushes a "stats" message to the
  hub.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Reads only through the game's copying accessors

CONFIGURATION:
  - Interval: How often to push (default: 1 second)
  - Enabled: Whether the broadcaster runs (default: true)

USAGE:
  b := NewStatsBroadcaster(g, hub)
  b.Start()
  // ... later
  b.Stop()

SEE ALSO:
  - hub.go: websocket fan-out
  - game/scheduler.go: the pulse loop driving the game itself
*/
package api

import (
	"log/slog"
	"sync"
	"time"

	"github.com/warp/gridtycoon/game"
)

// StatsSample is the payload of a "stats" message.
type StatsSample struct {
	Date        time.Time           `json:"date"`
	Clock       game.Clock          `json:"clock"`
	Balance     string              `json:"balance"`
	Kwh         string              `json:"kwh"`
	TotalIncome string              `json:"totalIncome"`
	Weather     *game.ActiveWeather `json:"weather,omitempty"`
}

// StatsBroadcaster pushes game samples to the hub on an interval.
type StatsBroadcaster struct {
	Game     *game.Game
	Hub      *Hub
	Interval time.Duration
	Enabled  bool
	Logger   *slog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewStatsBroadcaster creates a new broadcaster.
func NewStatsBroadcaster(g *game.Game, hub *Hub) *StatsBroadcaster {
	return &StatsBroadcaster{
		Game:     g,
		Hub:      hub,
		Interval: time.Second,
		Enabled:  true,
		Logger:   slog.Default().With("component", "broadcaster"),
	}
}

// Start begins the broadcaster. Starting twice is a no-op.
func (b *StatsBroadcaster) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.Enabled {
		b.Logger.Info("disabled, not starting")
		return
	}
	if b.ticker != nil {
		return
	}

	b.ticker = time.NewTicker(b.Interval)
	b.stop = make(chan struct{})
	b.wg.Add(1)

	go b.run(b.ticker, b.stop)

	b.Logger.Info("started", "interval", b.Interval)
}

// Stop stops the broadcaster and waits for the loop to exit.
func (b *StatsBroadcaster) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ticker != nil {
		b.ticker.Stop()
		close(b.stop)
		b.wg.Wait()
		b.ticker = nil
		b.Logger.Info("stopped")
	}
}

func (b *StatsBroadcaster) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer b.wg.Done()

	for {
		select {
		case <-ticker.C:
			b.push()
		case <-stop:
			return
		}
	}
}

func (b *StatsBroadcaster) push() {
	b.Hub.Broadcast(Message{Type: "stats", Payload: Sample(b.Game)})
}

// Sample reads the current stats view of g.
func Sample(g *game.Game) StatsSample {
	return StatsSample{
		Date:        g.Date(),
		Clock:       g.Clock(),
		Balance:     g.Balance(),
		Kwh:         g.Kwh(),
		TotalIncome: g.TotalIncome(),
		Weather:     g.Weather(),
	}
}
