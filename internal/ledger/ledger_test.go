package ledger

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"BinaryTrade/internal/model"
	"BinaryTrade/internal/store"
)

// fakeBalance implements BalanceLedger with controllable failures and
// mutation counters.
type fakeBalance struct {
	mu        sync.Mutex
	balance   float64
	debitErr  error
	creditErr error
	debits    int
	credits   int
}

func (f *fakeBalance) Balance() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance
}

func (f *fakeBalance) Debit(amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.debitErr != nil {
		return f.debitErr
	}
	f.balance -= amount
	f.debits++
	return nil
}

func (f *fakeBalance) Credit(amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.creditErr != nil {
		return f.creditErr
	}
	f.balance += amount
	f.credits++
	return nil
}

func newTestLedger(balance float64) (*WagerLedger, *fakeBalance, *store.MemoryStore) {
	fb := &fakeBalance{balance: balance}
	st := store.NewMemoryStore()
	return NewWagerLedger(fb, st), fb, st
}

func TestOpen_InvalidAmount(t *testing.T) {
	l, fb, _ := newTestLedger(1000)
	for _, amount := range []float64{0, -5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := l.Open(amount, model.DirectionHigher, 100, time.Minute)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Open(%v) error = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if fb.Balance() != 1000 {
		t.Errorf("balance changed to %.2f after rejected placements", fb.Balance())
	}
	if n := len(l.All()); n != 0 {
		t.Errorf("%d wagers created by rejected placements", n)
	}
}

func TestOpen_InsufficientBalance(t *testing.T) {
	l, fb, _ := newTestLedger(100)
	_, err := l.Open(150, model.DirectionHigher, 100, time.Minute)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("error = %v, want ErrInsufficientBalance", err)
	}
	if fb.Balance() != 100 {
		t.Errorf("balance = %.2f, want 100 (unchanged)", fb.Balance())
	}
}

func TestOpen_DebitsStakeImmediately(t *testing.T) {
	l, fb, _ := newTestLedger(1000)
	placed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return placed }

	w, err := l.Open(100, model.DirectionLower, 42.5, time.Minute)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if fb.Balance() != 900 {
		t.Errorf("balance = %.2f, want 900 (stake at risk before outcome)", fb.Balance())
	}
	if w.Status != model.StatusActive {
		t.Errorf("status = %s, want active", w.Status)
	}
	if w.EntryPrice != 42.5 {
		t.Errorf("entry price = %.2f, want 42.5", w.EntryPrice)
	}
	if !w.ExpiresAt.Equal(placed.Add(time.Minute)) {
		t.Errorf("expiresAt = %s, want placedAt+1m", w.ExpiresAt)
	}
	if w.DurationMs != 60000 {
		t.Errorf("durationMs = %d, want 60000", w.DurationMs)
	}
	if w.ID == "" {
		t.Error("empty wager id")
	}
}

func TestOpen_DebitFailureCreatesNoWager(t *testing.T) {
	l, fb, st := newTestLedger(1000)
	fb.debitErr = fmt.Errorf("%w: ledger offline", ErrBalanceUpdate)

	_, err := l.Open(100, model.DirectionHigher, 50, time.Minute)
	if !errors.Is(err, ErrBalanceUpdate) {
		t.Fatalf("error = %v, want ErrBalanceUpdate", err)
	}
	if n := len(l.All()); n != 0 {
		t.Errorf("%d wagers exist after failed debit", n)
	}
	persisted, _ := st.LoadWagers()
	if len(persisted) != 0 {
		t.Errorf("%d wagers persisted after failed debit", len(persisted))
	}
}

func TestSettle_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		direction  model.Direction
		settlement float64
		wantStatus model.WagerStatus
		wantResult float64
	}{
		{"higher wins above entry", model.DirectionHigher, 101, model.StatusWon, 190},
		{"higher loses on tie", model.DirectionHigher, 100, model.StatusLost, 0},
		{"higher loses below entry", model.DirectionHigher, 99, model.StatusLost, 0},
		{"lower wins below entry", model.DirectionLower, 99, model.StatusWon, 190},
		{"lower loses on tie", model.DirectionLower, 100, model.StatusLost, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, fb, _ := newTestLedger(1000)
			w, err := l.Open(100, tt.direction, 100, time.Minute)
			if err != nil {
				t.Fatalf("open: %v", err)
			}

			settled, did, err := l.Settle(w.ID, tt.settlement)
			if err != nil {
				t.Fatalf("settle: %v", err)
			}
			if !did {
				t.Fatal("settle reported no transition")
			}
			if settled.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", settled.Status, tt.wantStatus)
			}
			if settled.Result != tt.wantResult {
				t.Errorf("result = %.2f, want %.2f", settled.Result, tt.wantResult)
			}
			if settled.SettlementPrice != tt.settlement {
				t.Errorf("settlement price = %.2f, want %.2f", settled.SettlementPrice, tt.settlement)
			}

			wantBalance := 900.0 // stake already debited
			if tt.wantStatus == model.StatusWon {
				wantBalance += tt.wantResult
			}
			if fb.Balance() != wantBalance {
				t.Errorf("balance = %.2f, want %.2f", fb.Balance(), wantBalance)
			}
		})
	}
}

func TestSettle_Idempotent(t *testing.T) {
	l, fb, _ := newTestLedger(1000)
	w, err := l.Open(100, model.DirectionHigher, 100, time.Minute)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	first, did, _ := l.Settle(w.ID, 120)
	if !did || first.Status != model.StatusWon {
		t.Fatalf("first settle: did=%v status=%s", did, first.Status)
	}

	// Second settlement at a losing price must change nothing and must not
	// credit again.
	second, did, _ := l.Settle(w.ID, 80)
	if did {
		t.Error("second settle performed a transition")
	}
	if second.Status != model.StatusWon || second.SettlementPrice != 120 {
		t.Errorf("terminal state changed: status=%s settlement=%.2f", second.Status, second.SettlementPrice)
	}
	if fb.credits != 1 {
		t.Errorf("credits = %d, want exactly 1", fb.credits)
	}
	if fb.Balance() != 1090 {
		t.Errorf("balance = %.2f, want 1090", fb.Balance())
	}
}

func TestSettle_AbsentWager(t *testing.T) {
	l, fb, _ := newTestLedger(1000)
	if _, did, err := l.Settle("no-such-id", 100); did || err != nil {
		t.Errorf("settle of absent wager: did=%v err=%v", did, err)
	}
	if fb.credits != 0 || fb.debits != 0 {
		t.Error("absent wager settlement touched the balance")
	}
}

func TestSettle_CreditFailureKeepsWin(t *testing.T) {
	l, fb, _ := newTestLedger(1000)
	w, err := l.Open(100, model.DirectionHigher, 100, time.Minute)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	fb.creditErr = fmt.Errorf("%w: ledger offline", ErrBalanceUpdate)

	settled, did, err := l.Settle(w.ID, 150)
	if !did {
		t.Fatal("settle reported no transition")
	}
	if !errors.Is(err, ErrBalanceUpdate) {
		t.Fatalf("error = %v, want ErrBalanceUpdate surfaced", err)
	}
	// The win stands with its result recorded; balance reconciliation is the
	// caller's follow-up against the authoritative collaborator.
	if settled.Status != model.StatusWon || settled.Result != 190 {
		t.Errorf("win not recorded: status=%s result=%.2f", settled.Status, settled.Result)
	}
}

func TestOnSettled_CallbackObservesTerminalWager(t *testing.T) {
	l, _, _ := newTestLedger(1000)
	got := make(chan model.Wager, 1)
	l.OnSettled(func(w model.Wager) { got <- w })

	w, _ := l.Open(100, model.DirectionLower, 100, time.Minute)
	l.Settle(w.ID, 90)

	select {
	case cb := <-got:
		if cb.ID != w.ID || cb.Status != model.StatusWon {
			t.Errorf("callback saw %s/%s, want %s/won", cb.ID, cb.Status, w.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("settlement callback never fired")
	}
}

func TestRestore_SkipsDuplicatesAndKeepsOrder(t *testing.T) {
	l, _, _ := newTestLedger(1000)
	first, _ := l.Open(10, model.DirectionHigher, 100, time.Minute)

	restored := []model.Wager{
		{ID: first.ID, Amount: 999, Status: model.StatusActive}, // duplicate, must not clobber
		{ID: "w-old", Amount: 20, Status: model.StatusLost},
		{ID: "w-active", Amount: 30, Status: model.StatusActive},
	}
	l.Restore(restored)

	if w, ok := l.Get(first.ID); !ok || w.Amount != 10 {
		t.Errorf("restore clobbered an existing wager: %+v", w)
	}
	active := l.Active()
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2", len(active))
	}
	all := l.All()
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}
	// All() is newest-first.
	if all[0].ID != "w-active" || all[len(all)-1].ID != first.ID {
		t.Errorf("unexpected ordering: first=%s last=%s", all[0].ID, all[len(all)-1].ID)
	}
}

func TestOpenAndSettle_PersistToStore(t *testing.T) {
	l, _, st := newTestLedger(1000)
	w, _ := l.Open(100, model.DirectionHigher, 100, time.Minute)
	l.Settle(w.ID, 101)

	persisted, err := st.LoadWagers()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("persisted = %d, want 1", len(persisted))
	}
	if persisted[0].Status != model.StatusWon || persisted[0].SettlementPrice != 101 {
		t.Errorf("settlement not persisted: %+v", persisted[0])
	}
}
