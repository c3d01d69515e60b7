package game

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// SaveVersion is written into every save. Loads accept any 1.x version.
const SaveVersion = "1.0.0"

// SaveGame stamps lastSaved and returns a deep copy of the whole aggregate.
func (g *Game) SaveGame() State {
	var out State
	_ = g.apply("", "", func(s *State) error {
		s.LastSaved = g.now().UTC()
		s.Version = SaveVersion
		out = s.Clone()
		return nil
	})
	return out
}

// LoadGame replaces the entire state with save. Nothing is merged.
func (g *Game) LoadGame(save State) error {
	if err := ValidateSave(save); err != nil {
		return err
	}
	loaded := save.Clone()
	normalize(&loaded)
	err := g.apply(EventLoaded, loaded.SaveName, func(s *State) error {
		*s = loaded
		return nil
	})
	if err == nil {
		g.logger.Info("save loaded", "save", loaded.SaveName, "version", loaded.Version, "date", loaded.Date)
	}
	return err
}

// ResetGame discards the session and starts over from the initial state.
func (g *Game) ResetGame() {
	_ = g.apply(EventReset, "", func(s *State) error {
		*s = g.initialState()
		return nil
	})
	g.logger.Info("game reset")
}

// RenameSave sets the save name used for the next SaveGame.
func (g *Game) RenameSave(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty save name", ErrInvalidSetting)
	}
	return g.apply("", "", func(s *State) error {
		s.SaveName = name
		return nil
	})
}

// =============================================================================
// ENCODING
// =============================================================================

// EncodeSave serializes a save aggregate to JSON.
func EncodeSave(s State) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSave parses and validates a JSON save aggregate.
func DecodeSave(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	if err := ValidateSave(s); err != nil {
		return State{}, err
	}
	return s, nil
}

// ValidateSave rejects aggregates Game could not run from.
func ValidateSave(s State) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidSave, fmt.Sprintf(format, args...))
	}

	if !strings.HasPrefix(s.Version, "1.") {
		return invalid("unsupported version %q", s.Version)
	}
	if s.Date.IsZero() {
		return invalid("missing date")
	}
	if !s.Settings.GameSpeed.Valid() {
		return invalid("game speed %d", s.Settings.GameSpeed)
	}
	if s.Clock.SubTick < 0 || s.Clock.SubTick >= TicksPerHour ||
		s.Clock.HourOfDay < 0 || s.Clock.HourOfDay >= DayRolloverHour {
		return invalid("clock out of range")
	}

	items := make(map[string]bool)
	ids := make(map[string]bool)
	for _, p := range s.Entities.Producers {
		if items[p.ItemID] {
			return invalid("duplicate producer itemId %q", p.ItemID)
		}
		if ids[p.ID] {
			return invalid("duplicate producer id %q", p.ID)
		}
		if p.Count < 0 {
			return invalid("producer %q has negative count", p.ItemID)
		}
		items[p.ItemID], ids[p.ID] = true, true
	}

	upgrades := make(map[string]bool)
	for _, u := range s.Entities.Upgrades {
		if upgrades[u.ID] {
			return invalid("duplicate upgrade %q", u.ID)
		}
		upgrades[u.ID] = true
	}

	workers := make(map[string]bool)
	for _, w := range s.Entities.Workers {
		if workers[w.ID] {
			return invalid("duplicate worker %q", w.ID)
		}
		if !ids[w.ProducerID] {
			return invalid("worker %q assigned to unknown producer %q", w.ID, w.ProducerID)
		}
		workers[w.ID] = true
	}

	modifiers := make(map[string]bool)
	for _, m := range s.Entities.Modifiers {
		if modifiers[m.ID] {
			return invalid("duplicate modifier %q", m.ID)
		}
		modifiers[m.ID] = true
	}
	return nil
}

// normalize replaces nil collections so a loaded state encodes like a fresh one.
func normalize(s *State) {
	if s.Entities.Workers == nil {
		s.Entities.Workers = []Worker{}
	}
	if s.Entities.Producers == nil {
		s.Entities.Producers = []Producer{}
	}
	if s.Entities.Upgrades == nil {
		s.Entities.Upgrades = []Upgrade{}
	}
	if s.Entities.Modifiers == nil {
		s.Entities.Modifiers = []Modifier{}
	}
	if s.UI.BuyQuantity <= 0 {
		s.UI.BuyQuantity = 1
	}
	s.UI.BuyQuantity = min(s.UI.BuyQuantity, MaxBuyQuantity)
}

// =============================================================================
// DEEP COPY
// =============================================================================

// Clone returns a deep copy sharing no mutable memory with s.
func (s State) Clone() State {
	out := s
	out.Entities = Entities{
		Workers:   cloneWorkers(s.Entities.Workers),
		Producers: cloneProducers(s.Entities.Producers),
		Upgrades:  cloneUpgrades(s.Entities.Upgrades),
		Modifiers: cloneModifiers(s.Entities.Modifiers),
	}
	out.Unlocked = slices.Clone(s.Unlocked)
	out.Shop = cloneShop(s.Shop)
	out.CurrentWeather = cloneActiveWeather(s.CurrentWeather)
	return out
}

func cloneProducers(ps []Producer) []Producer { return slices.Clone(ps) }

func cloneWorkers(ws []Worker) []Worker {
	out := slices.Clone(ws)
	for i := range out {
		if out[i].Bench != nil {
			b := *out[i].Bench
			out[i].Bench = &b
		}
	}
	return out
}

func cloneUpgrade(u Upgrade) Upgrade {
	u.Requires = slices.Clone(u.Requires)
	u.Effects = slices.Clone(u.Effects)
	if u.UnlockedAt != nil {
		t := *u.UnlockedAt
		u.UnlockedAt = &t
	}
	return u
}

func cloneUpgrades(us []Upgrade) []Upgrade {
	if us == nil {
		return nil
	}
	out := make([]Upgrade, len(us))
	for i, u := range us {
		out[i] = cloneUpgrade(u)
	}
	return out
}

func cloneModifier(m Modifier) Modifier {
	m.Mods = slices.Clone(m.Mods)
	return m
}

func cloneModifiers(ms []Modifier) []Modifier {
	if ms == nil {
		return nil
	}
	out := make([]Modifier, len(ms))
	for i, m := range ms {
		out[i] = cloneModifier(m)
	}
	return out
}

func cloneWeather(w Weather) Weather {
	if w.Length != nil {
		n := *w.Length
		w.Length = &n
	}
	effects := make([]WeatherEffect, len(w.Effects))
	for i, e := range w.Effects {
		e.Mods = slices.Clone(e.Mods)
		effects[i] = e
	}
	if w.Effects == nil {
		effects = nil
	}
	w.Effects = effects
	return w
}

func cloneActiveWeather(w *ActiveWeather) *ActiveWeather {
	if w == nil {
		return nil
	}
	return &ActiveWeather{Weather: cloneWeather(w.Weather), DaysActive: w.DaysActive}
}

func cloneShop(s Shop) Shop {
	return Shop{Producers: slices.Clone(s.Producers), Upgrades: cloneUpgrades(s.Upgrades)}
}
