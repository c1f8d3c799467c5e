package model

import (
	"fmt"
	"time"
)

// Direction is the side of a wager: will price finish higher or lower than
// the entry price.
type Direction string

const (
	DirectionHigher Direction = "higher"
	DirectionLower  Direction = "lower"
)

// ParseDirection resolves a wager direction from its wire form.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionHigher:
		return DirectionHigher, nil
	case DirectionLower:
		return DirectionLower, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// WagerStatus is the lifecycle state of a wager. Active transitions exactly
// once to won or lost; both are terminal.
type WagerStatus string

const (
	StatusActive WagerStatus = "active"
	StatusWon    WagerStatus = "won"
	StatusLost   WagerStatus = "lost"
)

// Wager is a stake on the price direction over a fixed duration. The ledger
// owns the canonical copy; everything handed outward is a value copy.
type Wager struct {
	ID              string      `json:"id"`
	Amount          float64     `json:"amount"`
	Direction       Direction   `json:"direction"`
	EntryPrice      float64     `json:"entry_price"`
	PlacedAt        time.Time   `json:"placed_at"`
	ExpiresAt       time.Time   `json:"expires_at"`
	DurationMs      int64       `json:"duration_ms"`
	Status          WagerStatus `json:"status"`
	Result          float64     `json:"result,omitempty"`
	SettlementPrice float64     `json:"settlement_price,omitempty"`
}

// Terminal reports whether the wager has been settled.
func (w *Wager) Terminal() bool {
	return w.Status != StatusActive
}

// Wins reports whether the given settlement price resolves in the wager's
// favor. Strict inequality: an exact tie always loses.
func (w *Wager) Wins(settlementPrice float64) bool {
	if w.Direction == DirectionHigher {
		return settlementPrice > w.EntryPrice
	}
	return settlementPrice < w.EntryPrice
}
