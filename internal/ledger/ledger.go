package ledger

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"BinaryTrade/internal/model"
	"BinaryTrade/internal/store"
)

// PayoutMultiplier is the gross return on a winning wager: the stake back
// plus 90% profit. A losing wager returns nothing; the stake was already
// debited at placement.
const PayoutMultiplier = 1.9

var (
	// ErrInvalidAmount rejects non-positive or non-finite stakes before any
	// state mutation.
	ErrInvalidAmount = errors.New("invalid wager amount")
	// ErrInsufficientBalance rejects stakes above the available balance,
	// before any debit.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// SettledFunc observes wagers as they reach a terminal state.
type SettledFunc func(w model.Wager)

// WagerLedger owns the wager collection and its lifecycle transitions:
// active -> won | lost, terminal, exactly once.
type WagerLedger struct {
	mu      sync.Mutex
	wagers  map[string]*model.Wager
	order   []string // placement order, oldest first
	balance BalanceLedger
	store   store.WagerStore
	now     func() time.Time

	cbMu      sync.Mutex
	onSettled []SettledFunc
}

func NewWagerLedger(balance BalanceLedger, st store.WagerStore) *WagerLedger {
	return &WagerLedger{
		wagers:  make(map[string]*model.Wager),
		balance: balance,
		store:   st,
		now:     time.Now,
	}
}

// OnSettled registers a callback invoked after each settlement, outside the
// ledger lock.
func (l *WagerLedger) OnSettled(fn SettledFunc) {
	l.cbMu.Lock()
	l.onSettled = append(l.onSettled, fn)
	l.cbMu.Unlock()
}

// Open validates and places a new wager against the given entry price. The
// stake is debited immediately and stays at risk until settlement. If the
// debit fails the wager is never created.
func (l *WagerLedger) Open(amount float64, direction model.Direction, entryPrice float64, duration time.Duration) (model.Wager, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return model.Wager{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if amount > l.balance.Balance() {
		return model.Wager{}, fmt.Errorf("%w: stake %.2f, balance %.2f",
			ErrInsufficientBalance, amount, l.balance.Balance())
	}
	if err := l.balance.Debit(amount); err != nil {
		return model.Wager{}, err
	}

	now := l.now()
	w := &model.Wager{
		ID:         uuid.NewString(),
		Amount:     amount,
		Direction:  direction,
		EntryPrice: entryPrice,
		PlacedAt:   now,
		ExpiresAt:  now.Add(duration),
		DurationMs: duration.Milliseconds(),
		Status:     model.StatusActive,
	}
	l.wagers[w.ID] = w
	l.order = append(l.order, w.ID)

	if err := l.store.SaveWager(w); err != nil {
		log.Printf("[ERROR] persist wager %s: %v", w.ID, err)
	}
	log.Printf("[INFO] wager opened: %s %s %.2f @ %.4f, expires %s",
		w.ID, w.Direction, w.Amount, w.EntryPrice, w.ExpiresAt.Format(time.RFC3339))
	return *w, nil
}

// Settle resolves a wager against the given price. It is idempotent: an
// absent or already-terminal wager is left untouched and no second credit
// occurs, regardless of whether the call came from a timer, a reconciliation
// sweep, or a manual late check.
//
// The returned bool reports whether this call performed the transition. A
// non-nil error means the win stands but the payout credit was rejected; the
// balance must be re-read from the collaborator.
func (l *WagerLedger) Settle(id string, settlementPrice float64) (model.Wager, bool, error) {
	l.mu.Lock()
	w, ok := l.wagers[id]
	if !ok {
		l.mu.Unlock()
		return model.Wager{}, false, nil
	}
	if w.Terminal() {
		out := *w
		l.mu.Unlock()
		return out, false, nil
	}

	var creditErr error
	if w.Wins(settlementPrice) {
		w.Status = model.StatusWon
		w.Result = w.Amount * PayoutMultiplier
		if err := l.balance.Credit(w.Result); err != nil {
			// The win stands with its result recorded; the balance is
			// reconciled against the authoritative collaborator.
			creditErr = err
			log.Printf("[ERROR] credit payout for wager %s: %v (authoritative balance %.2f)",
				w.ID, err, l.balance.Balance())
		}
	} else {
		w.Status = model.StatusLost
		w.Result = 0
	}
	w.SettlementPrice = settlementPrice

	if err := l.store.SaveWager(w); err != nil {
		log.Printf("[ERROR] persist settled wager %s: %v", w.ID, err)
	}
	out := *w
	l.mu.Unlock()

	log.Printf("[INFO] wager settled: %s %s @ %.4f (entry %.4f, result %.2f)",
		out.ID, out.Status, out.SettlementPrice, out.EntryPrice, out.Result)
	l.notifySettled(out)
	return out, true, creditErr
}

// Restore loads previously persisted wagers into the collection. Call once
// at startup, before the expiry scheduler reconciles.
func (l *WagerLedger) Restore(wagers []model.Wager) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range wagers {
		w := wagers[i]
		if _, exists := l.wagers[w.ID]; exists {
			continue
		}
		l.wagers[w.ID] = &w
		l.order = append(l.order, w.ID)
	}
	log.Printf("[INFO] restored %d wagers", len(wagers))
}

// Get returns a copy of one wager.
func (l *WagerLedger) Get(id string) (model.Wager, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.wagers[id]
	if !ok {
		return model.Wager{}, false
	}
	return *w, true
}

// Active returns copies of all unsettled wagers, oldest first.
func (l *WagerLedger) Active() []model.Wager {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Wager
	for _, id := range l.order {
		if w := l.wagers[id]; !w.Terminal() {
			out = append(out, *w)
		}
	}
	return out
}

// All returns copies of every wager, newest first, the order a trade history
// panel wants them in.
func (l *WagerLedger) All() []model.Wager {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Wager, 0, len(l.order))
	for i := len(l.order) - 1; i >= 0; i-- {
		out = append(out, *l.wagers[l.order[i]])
	}
	return out
}

func (l *WagerLedger) notifySettled(w model.Wager) {
	l.cbMu.Lock()
	cbs := make([]SettledFunc, len(l.onSettled))
	copy(cbs, l.onSettled)
	l.cbMu.Unlock()
	for _, fn := range cbs {
		fn(w)
	}
}
