package game

import (
	"context"
	"log/slog"
	"time"
)

// SlotInfo describes a stored save without decoding it.
type SlotInfo struct {
	Name     string    `json:"name"`
	Version  string    `json:"version"`
	SavedAt  time.Time `json:"savedAt"`
	GameDate time.Time `json:"gameDate"`
	Balance  string    `json:"balance"`
	Size     int       `json:"size"` // stored bytes
}

// SlotStore persists save aggregates by name. Put overwrites.
//
// Implementations:
//   - game/store.Memory: in-process, for tests and dev
//   - store/sqlite.Store: durable, compressed and checksummed
type SlotStore interface {
	Put(ctx context.Context, name string, s State) error
	Get(ctx context.Context, name string) (State, error)
	List(ctx context.Context) ([]SlotInfo, error)
	Delete(ctx context.Context, name string) error
}

// =============================================================================
// AUTOSAVE
// =============================================================================

// Autosaver writes the session to a slot at every day rollover while the
// autoSave setting is on.
type Autosaver struct {
	Game    *Game
	Store   SlotStore
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewAutosaver creates an autosaver; call Attach to start listening.
func NewAutosaver(g *Game, store SlotStore) *Autosaver {
	return &Autosaver{
		Game:    g,
		Store:   store,
		Timeout: 5 * time.Second,
		Logger:  g.logger.With("component", "autosave"),
	}
}

// Attach subscribes the autosaver to day events.
func (a *Autosaver) Attach() {
	a.Game.Subscribe(func(ev Event) {
		if ev.Kind != EventDay || !a.Game.Settings().AutoSave {
			return
		}
		if err := a.Save(context.Background()); err != nil {
			a.Logger.Error("autosave failed", "error", err)
		}
	})
}

// Save writes the current session to its slot now.
func (a *Autosaver) Save(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	s := a.Game.SaveGame()
	if err := a.Store.Put(ctx, s.SaveName, s); err != nil {
		return err
	}
	a.Logger.Info("game saved", "save", s.SaveName, "date", s.Date)
	return nil
}
