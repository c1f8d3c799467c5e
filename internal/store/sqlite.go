package store

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"BinaryTrade/internal/model"
)

// SQLiteStore persists wagers to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers (e.g. an inspection shell) don't block writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite wager store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS wagers (
			id               TEXT PRIMARY KEY,
			amount           REAL NOT NULL,
			direction        TEXT NOT NULL,
			entry_price      REAL NOT NULL,
			placed_at        INTEGER NOT NULL,
			expires_at       INTEGER NOT NULL,
			duration_ms      INTEGER NOT NULL,
			status           TEXT NOT NULL,
			result           REAL,
			settlement_price REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wagers_placed ON wagers(placed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_wagers_status ON wagers(status)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveWager(w *model.Wager) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO wagers
		(id, amount, direction, entry_price, placed_at, expires_at, duration_ms,
		 status, result, settlement_price)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			result = excluded.result,
			settlement_price = excluded.settlement_price`,
		w.ID, w.Amount, string(w.Direction), w.EntryPrice,
		w.PlacedAt.UnixMilli(), w.ExpiresAt.UnixMilli(), w.DurationMs,
		string(w.Status), w.Result, w.SettlementPrice,
	)
	return err
}

func (s *SQLiteStore) LoadWagers() ([]model.Wager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, amount, direction, entry_price,
		placed_at, expires_at, duration_ms, status, result, settlement_price
		FROM wagers ORDER BY placed_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query wagers: %w", err)
	}
	defer rows.Close()

	var out []model.Wager
	for rows.Next() {
		var w model.Wager
		var placedAt, expiresAt int64
		var direction, status string
		if err := rows.Scan(&w.ID, &w.Amount, &direction, &w.EntryPrice,
			&placedAt, &expiresAt, &w.DurationMs, &status,
			&w.Result, &w.SettlementPrice); err != nil {
			return nil, fmt.Errorf("scan wager: %w", err)
		}
		w.Direction = model.Direction(direction)
		w.Status = model.WagerStatus(status)
		w.PlacedAt = time.UnixMilli(placedAt)
		w.ExpiresAt = time.UnixMilli(expiresAt)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite wager store")
	return s.db.Close()
}
