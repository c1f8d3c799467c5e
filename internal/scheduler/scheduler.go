package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"BinaryTrade/internal/ledger"
	"BinaryTrade/internal/market"
	"BinaryTrade/internal/model"
	"BinaryTrade/internal/notifier"
)

// retryDelay spaces out settlement attempts while the feed has no price to
// settle against.
const retryDelay = 500 * time.Millisecond

// Scheduler settles wagers when they expire: a one-shot timer per wager,
// plus a cron reconciliation sweep that catches anything the timers missed
// (process restarts, clock jumps). Both paths funnel into the ledger's
// idempotent Settle, so a wager is paid out at most once.
type Scheduler struct {
	Cron     *cron.Cron
	Ledger   *ledger.WagerLedger
	Feed     *market.Feed
	Notifier notifier.Notifier
	Ctx      context.Context

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewScheduler creates a Scheduler.
func NewScheduler(ctx context.Context, wl *ledger.WagerLedger, feed *market.Feed, n notifier.Notifier) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Ledger:   wl,
		Feed:     feed,
		Notifier: n,
		Ctx:      ctx,
		timers:   make(map[string]*time.Timer),
	}
}

// Register arms the periodic reconciliation sweep.
func (s *Scheduler) Register(sweepCron string) error {
	if _, err := s.Cron.AddFunc(sweepCron, s.Reconcile); err != nil {
		return fmt.Errorf("register reconciliation sweep: %w", err)
	}
	return nil
}

// Start starts the cron sweep.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] expiry scheduler started")
}

// Stop stops the cron sweep. Armed one-shot timers keep running: a wager
// always settles.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] expiry scheduler stopped")
}

// Arm schedules a one-shot settlement at the wager's expiry. Timers are
// never cancelled once armed; settlement is reachable from this registry no
// matter what happens to the client that placed the wager.
func (s *Scheduler) Arm(w model.Wager) {
	if w.Terminal() {
		return
	}
	delay := time.Until(w.ExpiresAt)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.timers[w.ID]; exists {
		return
	}
	id := w.ID
	s.timers[id] = time.AfterFunc(delay, func() { s.settle(id) })
}

// Reconcile settles every active wager whose expiry has already passed and
// re-arms restored wagers that have no timer yet. Safe to run at any time.
func (s *Scheduler) Reconcile() {
	now := time.Now()
	for _, w := range s.Ledger.Active() {
		if w.ExpiresAt.After(now) {
			s.Arm(w)
		} else {
			s.settle(w.ID)
		}
	}
}

func (s *Scheduler) settle(id string) {
	price, err := s.Feed.CurrentPrice()
	if err != nil {
		// No price to settle against: retry on the next tick instead of
		// defaulting to zero.
		log.Printf("[WARN] settle %s: %v, retrying", id, err)
		s.rearm(id, retryDelay)
		return
	}

	w, settled, err := s.Ledger.Settle(id, price)
	if err != nil {
		log.Printf("[ERROR] settle %s: %v", id, err)
	}

	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	if settled {
		s.trySend(notifier.FormatSettlement(&w))
	}
}

func (s *Scheduler) rearm(id string, d time.Duration) {
	s.mu.Lock()
	s.timers[id] = time.AfterFunc(d, func() { s.settle(id) })
	s.mu.Unlock()
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(s.Ctx, text); err != nil {
		log.Printf("[ERROR] send settlement notice: %v", err)
	}
}
