// Package store provides in-process implementations of the game storage
// interfaces.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/gridtycoon/game"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements game.SlotStore and game.Ledger.
type Memory struct {
	mu      sync.RWMutex
	slots   map[string]slot
	entries map[string][]game.LedgerEntry // by session, oldest first
}

type slot struct {
	info  game.SlotInfo
	state game.State
}

func NewMemory() *Memory {
	return &Memory{
		slots:   make(map[string]slot),
		entries: make(map[string][]game.LedgerEntry),
	}
}

// Put stores a deep copy of s under name, replacing any previous save.
func (m *Memory) Put(_ context.Context, name string, s game.State) error {
	data, err := game.EncodeSave(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[name] = slot{
		info: game.SlotInfo{
			Name:     name,
			Version:  s.Version,
			SavedAt:  s.LastSaved,
			GameDate: s.Date,
			Balance:  s.Balance,
			Size:     len(data),
		},
		state: s.Clone(),
	}
	return nil
}

func (m *Memory) Get(_ context.Context, name string) (game.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sl, ok := m.slots[name]
	if !ok {
		return game.State{}, game.ErrSaveNotFound
	}
	return sl.state.Clone(), nil
}

// List returns slot summaries ordered by name.
func (m *Memory) List(_ context.Context) ([]game.SlotInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]game.SlotInfo, 0, len(m.slots))
	for _, sl := range m.slots {
		out = append(out, sl.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.slots[name]; !ok {
		return game.ErrSaveNotFound
	}
	delete(m.slots, name)
	return nil
}

// =============================================================================
// LEDGER
// =============================================================================

// Append adds a settlement entry. Append-only.
func (m *Memory) Append(_ context.Context, e game.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	txs := m.entries[e.Session]
	// keep in-game date order even if entries arrive out of order
	i := sort.Search(len(txs), func(i int) bool {
		return txs[i].At.After(e.At)
	})
	txs = append(txs, game.LedgerEntry{})
	copy(txs[i+1:], txs[i:])
	txs[i] = e
	m.entries[e.Session] = txs
	return nil
}

// Recent returns up to limit entries of a session, newest first. A
// non-positive limit returns all of them.
func (m *Memory) Recent(_ context.Context, session string, limit int) ([]game.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txs := m.entries[session]
	if limit <= 0 || limit > len(txs) {
		limit = len(txs)
	}
	out := make([]game.LedgerEntry, 0, limit)
	for i := len(txs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, txs[i])
	}
	return out, nil
}

