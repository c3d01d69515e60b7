/*
game.go - The session controller that owns the State aggregate

PURPOSE:
  Game is the single writer of State. Every intent (buy, hire, tab switch,
  scheduler pulse) is one atomic transition under Game's mutex: validate
  against the current state, build the next state, then swap it in. A
  rejected intent returns an error and the state is left untouched.

CONCURRENCY:
  Mutators and Pulse serialize on mu. Listeners are invoked after the
  transition commits and after mu is released, so a listener may call
  back into Game (e.g. autosave calling SaveGame).

READS:
  Accessors return deep copies. Callers can keep them without racing the
  scheduler.

SEE ALSO:
  - producers.go, upgrades.go, workers.go: mutators by entity
  - scheduler.go: Pulse and the Scheduler task
  - save.go: SaveGame / LoadGame / ResetGame
*/
package game

import (
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/gridtycoon/numeric"
)

// =============================================================================
// EVENTS
// =============================================================================

type EventKind string

const (
	EventPulse          EventKind = "pulse"
	EventHour           EventKind = "hour"
	EventDay            EventKind = "day"
	EventWeather        EventKind = "weather"
	EventProducerBought EventKind = "producer_bought"
	EventProducerSold   EventKind = "producer_sold"
	EventUpgradeBought  EventKind = "upgrade_bought"
	EventWorkerHired    EventKind = "worker_hired"
	EventWorkerFired    EventKind = "worker_fired"
	EventLoaded         EventKind = "loaded"
	EventReset          EventKind = "reset"
)

// Event describes a committed transition.
type Event struct {
	Kind       EventKind      `json:"kind"`
	Date       time.Time      `json:"date"`
	Balance    string         `json:"balance"`
	Settlement *Settlement    `json:"settlement,omitempty"`
	Day        *DayReport     `json:"day,omitempty"`
	Weather    *ActiveWeather `json:"weather,omitempty"`
	Subject    string         `json:"subject,omitempty"` // itemId, upgrade id or worker id
}

// Listener receives committed events. It runs on the goroutine that made
// the transition and must not block for long.
type Listener func(Event)

// =============================================================================
// GAME
// =============================================================================

// Game owns one session's State.
type Game struct {
	mu      sync.Mutex
	state   State
	catalog *Catalog

	now    func() time.Time
	newID  func() string
	rng    *rand.Rand
	logger *slog.Logger

	lmu       sync.RWMutex
	listeners []Listener
}

// Option configures a Game.
type Option func(*Game)

// WithCatalog replaces the built-in catalog.
func WithCatalog(c *Catalog) Option {
	return func(g *Game) { g.catalog = c }
}

// WithClock sets the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// WithIDGenerator sets the id source for producers, workers and modifiers.
func WithIDGenerator(f func() string) Option {
	return func(g *Game) { g.newID = f }
}

// WithRand sets the weather random source.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Game) { g.logger = l }
}

// New creates a Game in the initial state.
func New(opts ...Option) *Game {
	g := &Game{
		catalog: DefaultCatalog(),
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(uint64(g.now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	g.logger = g.logger.With("component", "game")
	g.state = g.initialState()
	return g
}

// Catalog returns the catalog the game was built with.
func (g *Game) Catalog() *Catalog { return g.catalog }

// Subscribe registers a listener for committed events.
func (g *Game) Subscribe(l Listener) {
	g.lmu.Lock()
	defer g.lmu.Unlock()
	g.listeners = append(g.listeners, l)
}

func (g *Game) publish(events ...Event) {
	if len(events) == 0 {
		return
	}
	g.lmu.RLock()
	listeners := slices.Clone(g.listeners)
	g.lmu.RUnlock()
	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}

// apply runs fn against a copy of the state and commits it only when fn
// succeeds. A non-empty kind publishes one event after commit.
func (g *Game) apply(kind EventKind, subject string, fn func(s *State) error) error {
	g.mu.Lock()
	next := g.state.Clone()
	if err := fn(&next); err != nil {
		g.mu.Unlock()
		return err
	}
	g.state = next
	ev := Event{Kind: kind, Date: next.Date, Balance: next.Balance, Subject: subject}
	g.mu.Unlock()

	if kind != "" {
		g.publish(ev)
	}
	return nil
}

// read runs fn under the lock against the live state. fn must not retain
// references into the state.
func (g *Game) read(fn func(s *State)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.state)
}

// =============================================================================
// INITIAL STATE
// =============================================================================

// Initial values of a fresh session.
const (
	InitialBalance  = "10000"
	InitialDpkw     = "1"
	InitialSaveName = "New Game"
)

func (g *Game) initialState() State {
	now := g.now().UTC()
	s := State{
		SaveName: InitialSaveName,
		Version:  SaveVersion,
		Balance:  InitialBalance,
		Kwh:      "0",
		Dpkw:     InitialDpkw,
		Date:     time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Entities: Entities{
			Workers:   []Worker{},
			Producers: []Producer{},
			Upgrades:  []Upgrade{},
			Modifiers: []Modifier{},
		},
		Settings: Settings{AutoSave: true, GameSpeed: SpeedNormal, Workforce: true},
		UI: UI{
			MainWindow:   WindowMain,
			RightSideBar: TabProducers,
			LeftSideBar:  TabNews,
			BuyQuantity:  1,
		},
	}
	g.refreshShop(&s)
	return s
}

// refreshShop rebuilds the shop snapshot with prices at the selected quantity.
func (g *Game) refreshShop(s *State) {
	qty := s.UI.BuyQuantity
	if qty <= 0 {
		qty = 1
	}
	available := g.catalog.AvailableProducers(s.Entities.Producers, s.Unlocked)
	producers := make([]ProducerTemplate, 0, len(available))
	for _, t := range available {
		t.CurrentPrice = shopPrice(t, s.Entities.Producers, s.Entities.Upgrades, qty).String()
		producers = append(producers, t)
	}
	s.Shop = Shop{
		Producers: producers,
		Upgrades:  g.catalog.AvailableUpgrades(s.Entities.Producers, s.Entities.Upgrades),
	}
	if s.Shop.Upgrades == nil {
		s.Shop.Upgrades = []Upgrade{}
	}

	for i := range s.Entities.Producers {
		p := &s.Entities.Producers[i]
		p.CurrentPrice = UnitPrice(p.BasePrice, p.Count).String()
	}
}

// =============================================================================
// READ ACCESSORS
// =============================================================================

// Snapshot returns a deep copy of the whole state.
func (g *Game) Snapshot() State {
	var out State
	g.read(func(s *State) { out = s.Clone() })
	return out
}

func (g *Game) Balance() string {
	var out string
	g.read(func(s *State) { out = s.Balance })
	return out
}

func (g *Game) Kwh() string {
	var out string
	g.read(func(s *State) { out = s.Kwh })
	return out
}

func (g *Game) Dpkw() string {
	var out string
	g.read(func(s *State) { out = s.Dpkw })
	return out
}

func (g *Game) Date() time.Time {
	var out time.Time
	g.read(func(s *State) { out = s.Date })
	return out
}

func (g *Game) Clock() Clock {
	var out Clock
	g.read(func(s *State) { out = s.Clock })
	return out
}

// Weather returns the active weather, or nil.
func (g *Game) Weather() *ActiveWeather {
	var out *ActiveWeather
	g.read(func(s *State) { out = cloneActiveWeather(s.CurrentWeather) })
	return out
}

func (g *Game) Producers() []Producer {
	var out []Producer
	g.read(func(s *State) { out = cloneProducers(s.Entities.Producers) })
	return out
}

func (g *Game) Workers() []Worker {
	var out []Worker
	g.read(func(s *State) { out = cloneWorkers(s.Entities.Workers) })
	return out
}

func (g *Game) Upgrades() []Upgrade {
	var out []Upgrade
	g.read(func(s *State) { out = cloneUpgrades(s.Entities.Upgrades) })
	return out
}

func (g *Game) Modifiers() []Modifier {
	var out []Modifier
	g.read(func(s *State) { out = cloneModifiers(s.Entities.Modifiers) })
	return out
}

func (g *Game) Shop() Shop {
	var out Shop
	g.read(func(s *State) { out = cloneShop(s.Shop) })
	return out
}

func (g *Game) Settings() Settings {
	var out Settings
	g.read(func(s *State) { out = s.Settings })
	return out
}

func (g *Game) UI() UI {
	var out UI
	g.read(func(s *State) { out = s.UI })
	return out
}

// LockedProducers lists templates the shop does not offer yet.
func (g *Game) LockedProducers() []ProducerTemplate {
	var out []ProducerTemplate
	g.read(func(s *State) { out = g.catalog.LockedProducers(s.Entities.Producers, s.Unlocked) })
	return out
}

// =============================================================================
// DERIVED STATS
// =============================================================================

// ProducerStats computes the stats of the owned producer itemID. The
// boolean is false when nothing with that itemId is owned.
func (g *Game) ProducerStats(itemID string) (ProducerStats, bool) {
	var (
		out ProducerStats
		ok  bool
	)
	g.read(func(s *State) {
		i, found := s.producerByItem(itemID)
		if !found {
			return
		}
		out, ok = producerStats(s, s.Entities.Producers[i]), true
	})
	return out, ok
}

// AllProducerStats computes stats for every owned producer in ownership order.
func (g *Game) AllProducerStats() []ProducerStats {
	var out []ProducerStats
	g.read(func(s *State) {
		out = make([]ProducerStats, 0, len(s.Entities.Producers))
		for _, p := range s.Entities.Producers {
			out = append(out, producerStats(s, p))
		}
	})
	return out
}

// WorkerStats summarizes the staff of the producer with id producerID.
func (g *Game) WorkerStats(producerID string) (WorkerStats, bool) {
	var (
		out WorkerStats
		ok  bool
	)
	g.read(func(s *State) {
		i, found := s.producerByID(producerID)
		if !found {
			return
		}
		p := s.Entities.Producers[i]
		out, ok = ComputeWorkerStats(p.ID, p.ItemID, s.Entities.Workers, s.Entities.Upgrades), true
	})
	return out, ok
}

// TotalIncome sums effectiveKwh over every owned producer. It is derived
// and never written back.
func (g *Game) TotalIncome() string {
	var total float64
	g.read(func(s *State) {
		for _, p := range s.Entities.Producers {
			total += producerStats(s, p).EffectiveKwh
		}
	})
	return numeric.Real(total).String()
}

func producerStats(s *State, p Producer) ProducerStats {
	return ComputeProducerStats(StatsInput{
		Producer:  p,
		Workers:   s.Entities.Workers,
		Upgrades:  s.Entities.Upgrades,
		Modifiers: activeModifiers(s),
		Workforce: s.Settings.Workforce,
	})
}
