/*
scheduler.go - Tick state machine and the task that drives it

PURPOSE:
  Advances virtual time. Every pulse is one atomic transition on Game;
  thresholds are fixed, only the wall-clock pulse interval depends on
  game speed.

STATE MACHINE:
  pulse           → subTick++, modifier lifetimes--
  subTick == 150  → hour rollover: subTick = 0, hourOfDay++, settlement,
                    date += 1h
  hourOfDay == 23 → day rollover: hourOfDay = 0, workforce day, weather roll

USAGE:
  sched := game.NewScheduler(g)
  sched.Start(ctx)
  // ... later
  sched.Stop()

SEE ALSO:
  - settlement.go: hourly collection
  - workers.go: workforceDay
  - weather.go: rollWeather
*/
package game

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Tick thresholds.
const (
	TicksPerHour      = 150
	DayRolloverHour   = 23
	BasePulseInterval = 50 * time.Millisecond
)

// PulseInterval is the wall-clock time between pulses at speed.
func PulseInterval(speed Speed) time.Duration {
	if !speed.Valid() {
		speed = SpeedNormal
	}
	return BasePulseInterval / time.Duration(speed)
}

// Pulse advances the clock by one tick.
func (g *Game) Pulse() {
	g.mu.Lock()
	events := g.pulse(&g.state)
	g.mu.Unlock()

	g.publish(events...)
}

// Pulses runs n pulses back to back.
func (g *Game) Pulses(n int) {
	for i := 0; i < n; i++ {
		g.Pulse()
	}
}

func (g *Game) pulse(s *State) []Event {
	s.Clock.SubTick++
	tickModifiers(s)

	events := []Event{{Kind: EventPulse, Date: s.Date, Balance: s.Balance}}
	if s.Clock.SubTick >= TicksPerHour {
		events = append(events, g.hourRollover(s)...)
	}
	return events
}

// tickModifiers decrements lifetimes and drops expired modifiers.
func tickModifiers(s *State) {
	kept := s.Entities.Modifiers[:0]
	for _, m := range s.Entities.Modifiers {
		m.Length--
		if m.Length > 0 {
			kept = append(kept, m)
		}
	}
	s.Entities.Modifiers = kept
}

func (g *Game) hourRollover(s *State) []Event {
	s.Clock.SubTick = 0
	s.Clock.HourOfDay++

	settlement := settle(s)
	s.Date = s.Date.Add(time.Hour)

	events := []Event{{Kind: EventHour, Date: s.Date, Balance: s.Balance, Settlement: &settlement}}
	g.logger.Debug("hour settled",
		"date", s.Date, "kwh", settlement.TotalKwh, "income", settlement.TotalMoney, "balance", s.Balance)

	if s.Clock.HourOfDay >= DayRolloverHour {
		events = append(events, g.dayRollover(s)...)
	}
	return events
}

func (g *Game) dayRollover(s *State) []Event {
	s.Clock.HourOfDay = 0

	report := workforceDay(s)
	events := []Event{{Kind: EventDay, Date: s.Date, Balance: s.Balance, Day: &report}}
	for _, id := range report.Quit {
		g.logger.Info("worker quit", "worker", id)
	}

	if g.rollWeather(s) {
		events = append(events, Event{Kind: EventWeather, Date: s.Date, Balance: s.Balance,
			Weather: cloneActiveWeather(s.CurrentWeather)})
		if s.CurrentWeather != nil {
			g.logger.Info("weather changed", "weather", s.CurrentWeather.Name)
		}
	}
	return events
}

// NextHour advances the stored date by one calendar hour without settling.
func (g *Game) NextHour() {
	_ = g.apply("", "", func(s *State) error {
		s.Date = s.Date.Add(time.Hour)
		return nil
	})
}

// =============================================================================
// SCHEDULER
// =============================================================================

// Scheduler drives Game.Pulse from a ticker. It can be started once and
// stopped any number of times; the pending pulse is cancelled exactly once.
type Scheduler struct {
	Game   *Game
	Logger *slog.Logger

	mu       sync.Mutex
	started  bool
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler for g.
func NewScheduler(g *Game) *Scheduler {
	return &Scheduler{
		Game:   g,
		Logger: g.logger.With("component", "scheduler"),
		stop:   make(chan struct{}),
	}
}

// Start launches the pulse loop. It runs until ctx is done or Stop is called.
func (sc *Scheduler) Start(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	select {
	case <-sc.stop:
		return ErrSchedulerStopped
	default:
	}
	if sc.started {
		return ErrSchedulerStarted
	}
	sc.started = true

	interval := PulseInterval(sc.Game.Settings().GameSpeed)
	sc.wg.Add(1)
	go sc.run(ctx, interval)

	sc.Logger.Info("scheduler started", "interval", interval)
	return nil
}

// Stop cancels the loop and waits for the in-flight pulse to finish.
func (sc *Scheduler) Stop() {
	sc.stopOnce.Do(func() {
		sc.mu.Lock()
		close(sc.stop)
		sc.mu.Unlock()
		sc.wg.Wait()
		sc.Logger.Info("scheduler stopped", "date", sc.Game.Date())
	})
}

// Running reports whether the loop has been started and not stopped.
func (sc *Scheduler) Running() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	select {
	case <-sc.stop:
		return false
	default:
		return sc.started
	}
}

func (sc *Scheduler) run(ctx context.Context, interval time.Duration) {
	defer sc.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sc.stop:
			return
		case <-ticker.C:
			sc.Game.Pulse()
			if next := PulseInterval(sc.Game.Settings().GameSpeed); next != interval {
				interval = next
				ticker.Reset(interval)
				sc.Logger.Debug("pulse interval changed", "interval", interval)
			}
		}
	}
}
