package game

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// =============================================================================
// SETTLEMENT LEDGER - Append-only record of hourly income
// =============================================================================

// LedgerEntry is one hourly settlement as persisted. Entries are never
// updated; a reset starts a new session id instead.
type LedgerEntry struct {
	ID         string    `json:"id"`
	Session    string    `json:"session"`
	At         time.Time `json:"at"` // in-game date of the settlement
	TotalKwh   string    `json:"totalKwh"`
	Dpkw       string    `json:"dpkw"`
	TotalMoney string    `json:"totalMoney"`
	Balance    string    `json:"balance"`
}

// Ledger stores settlement entries. Recent returns newest first.
type Ledger interface {
	Append(ctx context.Context, e LedgerEntry) error
	Recent(ctx context.Context, session string, limit int) ([]LedgerEntry, error)
}

// LedgerRecorder appends every hour settlement of a game to a Ledger.
type LedgerRecorder struct {
	Game   *Game
	Ledger Ledger
	Logger *slog.Logger

	mu      sync.Mutex
	session string
}

// NewLedgerRecorder creates a recorder keyed by the game's save name.
func NewLedgerRecorder(g *Game, l Ledger) *LedgerRecorder {
	return &LedgerRecorder{
		Game:    g,
		Ledger:  l,
		Logger:  g.logger.With("component", "ledger"),
		session: g.Snapshot().SaveName,
	}
}

// Attach subscribes the recorder. Loads and resets re-key the session.
func (r *LedgerRecorder) Attach() {
	r.Game.Subscribe(func(ev Event) {
		switch ev.Kind {
		case EventLoaded, EventReset:
			name := r.Game.Snapshot().SaveName
			r.mu.Lock()
			r.session = name
			r.mu.Unlock()
		case EventHour:
			if ev.Settlement == nil {
				return
			}
			if err := r.Ledger.Append(context.Background(), r.entry(*ev.Settlement)); err != nil {
				r.Logger.Error("append settlement failed", "error", err)
			}
		}
	})
}

// Session returns the session key entries are currently written under.
func (r *LedgerRecorder) Session() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

func (r *LedgerRecorder) entry(st Settlement) LedgerEntry {
	return LedgerEntry{
		ID:         r.Game.newID(),
		Session:    r.Session(),
		At:         st.At,
		TotalKwh:   st.TotalKwh,
		Dpkw:       st.Dpkw,
		TotalMoney: st.TotalMoney,
		Balance:    st.Balance,
	}
}
