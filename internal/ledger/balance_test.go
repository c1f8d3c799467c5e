package ledger

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestFileLedger_SeedsFreshState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	l, err := NewFileLedger(path, 10000)
	if err != nil {
		t.Fatalf("new file ledger: %v", err)
	}
	if got := l.Balance(); got != 10000 {
		t.Errorf("balance = %.2f, want 10000", got)
	}
}

func TestFileLedger_DebitCreditPersistAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	l, err := NewFileLedger(path, 500)
	if err != nil {
		t.Fatalf("new file ledger: %v", err)
	}
	if err := l.Debit(120); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := l.Credit(50); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if got := l.Balance(); got != 430 {
		t.Fatalf("balance = %.2f, want 430", got)
	}

	// The initial balance is ignored once state exists on disk.
	reloaded, err := NewFileLedger(path, 99999)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Balance(); got != 430 {
		t.Errorf("reloaded balance = %.2f, want 430", got)
	}
}

func TestFileLedger_DebitBeyondBalanceFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	l, err := NewFileLedger(path, 100)
	if err != nil {
		t.Fatalf("new file ledger: %v", err)
	}
	if err := l.Debit(150); !errors.Is(err, ErrBalanceUpdate) {
		t.Fatalf("error = %v, want ErrBalanceUpdate", err)
	}
	if got := l.Balance(); got != 100 {
		t.Errorf("balance = %.2f, want 100 (unchanged after rejected debit)", got)
	}
}
