package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// ErrBalanceUpdate wraps failures from the balance collaborator. The
// collaborator is authoritative: after such a failure callers re-read
// Balance instead of assuming the mutation applied.
var ErrBalanceUpdate = errors.New("balance update failed")

// BalanceLedger is the external account collaborator. The engine mutates the
// balance only through Debit at placement and Credit at settlement.
type BalanceLedger interface {
	Balance() float64
	Debit(amount float64) error
	Credit(amount float64) error
}

// balanceState is the persisted form of the account.
type balanceState struct {
	Balance   float64   `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileLedger keeps the account balance in a JSON file, every mutation going
// through one mutex-guarded point and saved immediately.
type FileLedger struct {
	mu       sync.Mutex
	state    balanceState
	filePath string
}

// NewFileLedger loads the balance from disk, seeding a fresh file with
// initialBalance.
func NewFileLedger(filePath string, initialBalance float64) (*FileLedger, error) {
	l := &FileLedger{filePath: filePath}

	data, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &l.state); err != nil {
			return nil, fmt.Errorf("parse balance state: %w", err)
		}
	case os.IsNotExist(err):
		l.state.Balance = initialBalance
	default:
		return nil, fmt.Errorf("read balance state: %w", err)
	}

	if err := l.save(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLedger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balance
}

// Debit re-checks funds under the lock, so a concurrent placement cannot
// overdraw between the caller's balance check and the debit itself.
func (l *FileLedger) Debit(amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount > l.state.Balance {
		return fmt.Errorf("%w: debit %.2f exceeds balance %.2f",
			ErrBalanceUpdate, amount, l.state.Balance)
	}
	l.state.Balance -= amount
	return l.save()
}

func (l *FileLedger) Credit(amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Balance += amount
	return l.save()
}

func (l *FileLedger) save() error {
	l.state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal state: %v", ErrBalanceUpdate, err)
	}
	if err := os.WriteFile(l.filePath, data, 0644); err != nil {
		return fmt.Errorf("%w: write state: %v", ErrBalanceUpdate, err)
	}
	return nil
}
