package store

import "BinaryTrade/internal/model"

// WagerStore persists the wager list between runs. Persistence is
// best-effort: the ledger logs a failed save and carries on, and a reload is
// always followed by a reconciliation sweep.
type WagerStore interface {
	// SaveWager inserts the wager or, if the id already exists, updates its
	// settlement fields.
	SaveWager(w *model.Wager) error
	// LoadWagers returns all persisted wagers in placement order.
	LoadWagers() ([]model.Wager, error)
	Close() error
}
