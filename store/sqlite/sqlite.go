/*
Package sqlite provides a SQLite-backed implementation of the game storage interfaces.

PURPOSE:
  Durable save slots and the settlement ledger for the host server. The game
  core never touches the database; the host wires this store behind
  game.SlotStore and game.Ledger.

INTERFACES IMPLEMENTED:
  game.SlotStore: Named save slots (put overwrites)
  game.Ledger:    Append-only hourly settlements

SAVE PAYLOADS:
  A slot row carries the JSON save aggregate compressed with LZ4 and the
  BLAKE3 hex digest of the uncompressed JSON. Get recomputes the digest and
  refuses a payload that does not match, so a torn or edited row surfaces
  as ErrCorruptSave instead of a half-loaded game.

APPEND-ONLY ENFORCEMENT:
  The settlements table is never updated or deleted from, except by Reset.

KEY TABLES:
  save_slots:  One row per save name
  settlements: Ledger of hourly income per session

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of database/sql.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/gridtycoon.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  game.NewAutosaver(g, store).Attach()

SEE ALSO:
  - game/slots.go: SlotStore interface and autosave
  - game/ledger.go: Ledger interface and recorder
  - game/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pierrec/lz4/v4"
	"github.com/warp/gridtycoon/game"
	"lukechampine.com/blake3"
)

// ErrCorruptSave is returned when a stored payload fails its checksum or
// cannot be decompressed.
var ErrCorruptSave = errors.New("corrupt save payload")

// Store implements game.SlotStore and game.Ledger using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Save slots (one row per name, overwritten on save)
	CREATE TABLE IF NOT EXISTS save_slots (
		name TEXT PRIMARY KEY,
		version TEXT NOT NULL,
		saved_at TEXT NOT NULL,
		game_date TEXT NOT NULL,
		balance TEXT NOT NULL,
		payload BLOB NOT NULL,
		raw_size INTEGER NOT NULL,
		checksum TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Settlements (append-only ledger)
	CREATE TABLE IF NOT EXISTS settlements (
		id TEXT PRIMARY KEY,
		session TEXT NOT NULL,
		settled_at TEXT NOT NULL,
		total_kwh TEXT NOT NULL,
		dpkw TEXT NOT NULL,
		total_money TEXT NOT NULL,
		balance TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Recent history per session (hot path for the api)
	CREATE INDEX IF NOT EXISTS idx_settlements_session_date
		ON settlements(session, settled_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SAVE SLOTS
// =============================================================================

// Put stores the save aggregate under name, replacing any previous save.
func (s *Store) Put(ctx context.Context, name string, st game.State) error {
	raw, err := game.EncodeSave(st)
	if err != nil {
		return err
	}
	payload, err := compress(raw)
	if err != nil {
		return fmt.Errorf("compress save %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO save_slots (name, version, saved_at, game_date, balance, payload, raw_size, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			saved_at = excluded.saved_at,
			game_date = excluded.game_date,
			balance = excluded.balance,
			payload = excluded.payload,
			raw_size = excluded.raw_size,
			checksum = excluded.checksum,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		name,
		st.Version,
		st.LastSaved.UTC().Format(time.RFC3339),
		st.Date.UTC().Format(time.RFC3339),
		st.Balance,
		payload,
		len(raw),
		checksum(raw),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Get loads and verifies the save stored under name.
func (s *Store) Get(ctx context.Context, name string) (game.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		payload []byte
		rawSize int
		sum     string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT payload, raw_size, checksum FROM save_slots WHERE name = ?",
		name,
	).Scan(&payload, &rawSize, &sum)

	if err == sql.ErrNoRows {
		return game.State{}, game.ErrSaveNotFound
	}
	if err != nil {
		return game.State{}, err
	}

	raw, err := decompress(payload)
	if err != nil {
		return game.State{}, fmt.Errorf("%w: %q: %v", ErrCorruptSave, name, err)
	}
	if len(raw) != rawSize || checksum(raw) != sum {
		return game.State{}, fmt.Errorf("%w: %q: checksum mismatch", ErrCorruptSave, name)
	}
	return game.DecodeSave(raw)
}

// List returns slot summaries ordered by name without decoding payloads.
func (s *Store) List(ctx context.Context) ([]game.SlotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, version, saved_at, game_date, balance, length(payload) FROM save_slots ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	infos := []game.SlotInfo{}
	for rows.Next() {
		var info game.SlotInfo
		var savedAt, gameDate string
		if err := rows.Scan(&info.Name, &info.Version, &savedAt, &gameDate, &info.Balance, &info.Size); err != nil {
			return nil, err
		}
		info.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
		info.GameDate, _ = time.Parse(time.RFC3339, gameDate)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a save slot.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM save_slots WHERE name = ?", name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return game.ErrSaveNotFound
	}
	return nil
}

// =============================================================================
// SETTLEMENT LEDGER
// =============================================================================

// Append records one settlement. Append-only.
func (s *Store) Append(ctx context.Context, e game.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settlements (id, session, settled_at, total_kwh, dpkw, total_money, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Session,
		e.At.UTC().Format(time.RFC3339),
		e.TotalKwh,
		e.Dpkw,
		e.TotalMoney,
		e.Balance,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Recent returns up to limit settlements of a session, newest first. A
// non-positive limit returns all of them.
func (s *Store) Recent(ctx context.Context, session string, limit int) ([]game.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session, settled_at, total_kwh, dpkw, total_money, balance
		FROM settlements
		WHERE session = ?
		ORDER BY settled_at DESC, rowid DESC
		LIMIT ?`,
		session, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []game.LedgerEntry{}
	for rows.Next() {
		var e game.LedgerEntry
		var at string
		if err := rows.Scan(&e.ID, &e.Session, &at, &e.TotalKwh, &e.Dpkw, &e.TotalMoney, &e.Balance); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"settlements", "save_slots"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zr := lz4.NewReader(bytes.NewReader(src))
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
