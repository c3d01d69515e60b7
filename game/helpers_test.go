package game_test

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/warp/gridtycoon/game"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGame(t *testing.T, cat *game.Catalog, opts ...game.Option) *game.Game {
	t.Helper()
	base := []game.Option{
		game.WithClock(func() time.Time { return testNow }),
		game.WithIDGenerator(seqIDs()),
		game.WithRand(rand.New(rand.NewPCG(1, 2))),
		game.WithLogger(quietLogger()),
	}
	if cat != nil {
		base = append(base, game.WithCatalog(cat))
	}
	return game.New(append(base, opts...)...)
}

// twinCatalog has two identical solar producers, each with a bound +1 kWh
// upgrade, and no weather.
func twinCatalog() *game.Catalog {
	solar := func(id, name string) game.ProducerTemplate {
		return game.ProducerTemplate{
			ItemID: id, Name: name, BasePrice: "1000", Type: game.TypeSolar,
			Stats: game.BaseStats{BaseKwh: "2.4", BaseEfficiency: 60},
		}
	}
	battery := func(id, target string) game.Upgrade {
		return game.Upgrade{
			ID: id, Name: "Better Batteries", Cost: "750", Category: game.CategoryEfficiency,
			ProducerBound: target,
			Effects:       []game.UpgradeEffect{{Type: game.EffectKwhAdd, Target: target, Value: 1}},
		}
	}
	return &game.Catalog{
		Producers: []game.ProducerTemplate{solar("0", "Solar Panel"), solar("1", "Solar Twin")},
		Upgrades:  []game.Upgrade{battery("sp_0", "0"), battery("sp_1", "1")},
	}
}

type eventLog struct {
	events []game.Event
}

func (l *eventLog) listen(ev game.Event) {
	if ev.Kind != game.EventPulse {
		l.events = append(l.events, ev)
	}
}

func (l *eventLog) of(kind game.EventKind) []game.Event {
	var out []game.Event
	for _, ev := range l.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
