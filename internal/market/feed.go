package market

import (
	"errors"
	"log"
	"sync"
	"time"

	"BinaryTrade/internal/model"
)

// ErrFeedUnavailable is returned when no generator is live, so there is no
// current price to quote or settle against.
var ErrFeedUnavailable = errors.New("feed unavailable: no live price")

// DefaultTickInterval is the simulation cadence. It is independent of the
// selected timeframe; a 1h chart still moves every half second.
const DefaultTickInterval = 500 * time.Millisecond

// SubscriberFunc receives the candle window and the live price on every tick
// and whenever the selection changes. The slice is a copy; subscribers must
// not assume it is shared.
type SubscriberFunc func(candles []model.Candle, price float64)

// Feed owns one PriceSource per (asset, timeframe) selection and drives it
// on a fixed cadence. Switching either parameter discards the old source and
// its history; the feed is the sole writer of the series.
type Feed struct {
	tickEvery time.Duration

	mu      sync.Mutex
	src     PriceSource
	asset   model.Asset
	tf      model.Timeframe
	subs    map[int]SubscriberFunc
	nextSub int
	stop    chan struct{} // owned by the current tick loop; nil when idle
}

// NewFeed creates an idle feed. Call Select to start a simulation.
func NewFeed(tickEvery time.Duration) *Feed {
	if tickEvery <= 0 {
		tickEvery = DefaultTickInterval
	}
	return &Feed{
		tickEvery: tickEvery,
		subs:      make(map[int]SubscriberFunc),
	}
}

// Select switches the live (asset, timeframe) pair. The previous tick loop
// is stopped before the new generator starts, so two generators never write
// competing histories. History does not carry over across selections.
func (f *Feed) Select(assetID string, tf model.Timeframe) {
	asset := model.AssetByID(assetID)

	gen := NewGenerator(asset, tf)
	gen.Initialize()

	f.mu.Lock()
	if f.stop != nil {
		close(f.stop)
	}
	stop := make(chan struct{})
	f.src = gen
	f.asset = asset
	f.tf = tf
	f.stop = stop
	candles := f.src.Candles()
	price := f.src.CurrentPrice()
	subs := f.snapshotSubs()
	f.mu.Unlock()

	log.Printf("[INFO] feed selected %s/%s", asset.ID, tf.Label)
	publish(subs, candles, price)
	go f.loop(stop)
}

// Subscribe registers fn and returns its unsubscribe func. When a selection
// is live the current state is delivered immediately.
func (f *Feed) Subscribe(fn SubscriberFunc) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	var candles []model.Candle
	var price float64
	live := f.src != nil
	if live {
		candles = f.src.Candles()
		price = f.src.CurrentPrice()
	}
	f.mu.Unlock()

	if live {
		fn(candles, price)
	}
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// CurrentPrice returns the live price, or ErrFeedUnavailable before the
// first selection.
func (f *Feed) CurrentPrice() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.src == nil {
		return 0, ErrFeedUnavailable
	}
	return f.src.CurrentPrice(), nil
}

// Candles returns a copy of the current candle window.
func (f *Feed) Candles() []model.Candle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.src == nil {
		return nil
	}
	return f.src.Candles()
}

// Selection returns the active asset and timeframe.
func (f *Feed) Selection() (model.Asset, model.Timeframe) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.asset, f.tf
}

// Stop halts the tick loop. The last price stays readable so pending
// settlements are not stranded.
func (f *Feed) Stop() {
	f.mu.Lock()
	if f.stop != nil {
		close(f.stop)
		f.stop = nil
	}
	f.mu.Unlock()
	log.Println("[INFO] feed stopped")
}

func (f *Feed) loop(stop chan struct{}) {
	t := time.NewTicker(f.tickEvery)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			f.tick(stop)
		}
	}
}

// tick applies one step and republishes. Ticks are serialized: one loop
// goroutine per selection, and a loop that has been superseded by a newer
// Select drops its step instead of writing to the new source.
func (f *Feed) tick(stop chan struct{}) {
	f.mu.Lock()
	if f.stop != stop {
		f.mu.Unlock()
		return
	}
	res := f.src.Tick()
	candles := f.src.Candles()
	subs := f.snapshotSubs()
	f.mu.Unlock()

	publish(subs, candles, res.Price)
}

func (f *Feed) snapshotSubs() []SubscriberFunc {
	out := make([]SubscriberFunc, 0, len(f.subs))
	for _, fn := range f.subs {
		out = append(out, fn)
	}
	return out
}

func publish(subs []SubscriberFunc, candles []model.Candle, price float64) {
	for _, fn := range subs {
		fn(candles, price)
	}
}
