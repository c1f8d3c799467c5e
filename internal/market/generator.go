package market

import (
	"math"
	"math/rand"
	"time"

	"BinaryTrade/internal/model"
)

// SeriesLength is the number of candles retained in the sliding window.
// The oldest candle is evicted when a new one pushes past this bound.
const SeriesLength = 100

const (
	// trendScale is the per-tick log-return contributed by a full-strength
	// trend. Combined with the uniform noise below it keeps single-tick
	// moves under about 1.25%.
	trendScale      = 0.005
	randomHalfRange = 0.0075
	priceFloor      = 0.01
)

// PriceSource produces a candle series and advances it one simulated step at
// a time. A live exchange adapter would implement the same contract behind
// the feed.
type PriceSource interface {
	Initialize() []model.Candle
	Tick() TickResult
	Candles() []model.Candle
	CurrentPrice() float64
}

// TickResult describes what one simulation step changed.
type TickResult struct {
	Updated model.Candle // the in-progress candle after this step
	Rolled  bool         // true when the step opened a new candle
	Price   float64
}

// Generator synthesizes a regime-switching random walk: a trend direction
// and strength persist for a bounded run of ticks, then are redrawn. This
// produces visible momentum instead of pure noise.
type Generator struct {
	asset    model.Asset
	interval int64 // candle interval, seconds
	rng      *rand.Rand
	now      func() time.Time

	state   model.GeneratorState
	candles []model.Candle
}

// NewGenerator creates a generator for one (asset, timeframe) pair. Each
// instance carries its own rand source so series never repeat across
// selections.
func NewGenerator(asset model.Asset, tf model.Timeframe) *Generator {
	return &Generator{
		asset:    asset,
		interval: tf.IntervalSeconds(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// Initialize builds the backfill: exactly SeriesLength candles ending at the
// current time, each aligned to an interval boundary. The starting price is
// drawn uniformly from the asset's base range.
func (g *Generator) Initialize() []model.Candle {
	now := g.now().Unix()
	price := g.asset.BasePrice(g.rng)

	g.state = model.GeneratorState{
		TrendDirection: g.drawDirection(),
		TrendStrength:  0.3 + g.rng.Float64()*0.7,
		TrendTicksLeft: 5 + g.rng.Intn(10),
		Volatility:     0.005,
	}

	g.candles = make([]model.Candle, 0, SeriesLength)
	for i := 0; i < SeriesLength; i++ {
		t := (now - int64(SeriesLength-1-i)*g.interval) / g.interval * g.interval
		g.advanceRegime()

		open := price
		price = math.Max(open*(1+g.step()), priceFloor)

		// Widen the wicks by an independent volatility draw (0.5%~1.5%)
		// so high/low always bracket open/close.
		wick := 0.005 + g.rng.Float64()*0.01
		g.candles = append(g.candles, model.Candle{
			Time:  t,
			Open:  open,
			High:  math.Max(open, price) * (1 + wick),
			Low:   math.Min(open, price) * (1 - wick),
			Close: price,
		})
	}

	g.state.LastPrice = price
	return g.Candles()
}

// Tick advances the series by one simulated step: the price walks, and
// either the in-progress candle is extended in place or a new candle is
// opened when wall-clock time crosses an interval boundary.
func (g *Generator) Tick() TickResult {
	if len(g.candles) == 0 {
		g.Initialize()
	}

	now := g.now().Unix()
	g.advanceRegime()

	price := math.Max(g.state.LastPrice*(1+g.step()), priceFloor)
	g.state.LastPrice = price

	last := &g.candles[len(g.candles)-1]
	if now-last.Time >= g.interval {
		c := model.Candle{
			Time:  now / g.interval * g.interval,
			Open:  last.Close,
			High:  math.Max(last.Close, price),
			Low:   math.Min(last.Close, price),
			Close: price,
		}
		g.candles = append(g.candles, c)
		if len(g.candles) > SeriesLength {
			g.candles = g.candles[len(g.candles)-SeriesLength:]
		}
		return TickResult{Updated: c, Rolled: true, Price: price}
	}

	// Earlier candles are immutable; only the most recent one is extended.
	last.High = math.Max(last.High, price)
	last.Low = math.Min(last.Low, price)
	last.Close = price
	return TickResult{Updated: *last, Price: price}
}

// Candles returns a copy of the retained window, oldest first.
func (g *Generator) Candles() []model.Candle {
	out := make([]model.Candle, len(g.candles))
	copy(out, g.candles)
	return out
}

// CurrentPrice returns the live price after the most recent step.
func (g *Generator) CurrentPrice() float64 {
	return g.state.LastPrice
}

// advanceRegime consumes one tick of the current trend regime, redrawing
// direction, strength and duration when the run is exhausted.
func (g *Generator) advanceRegime() {
	if g.state.TrendTicksLeft <= 0 {
		g.state.TrendDirection = g.drawDirection()
		g.state.TrendStrength = 0.3 + g.rng.Float64()*0.7
		g.state.TrendTicksLeft = 5 + g.rng.Intn(10)
	}
	g.state.TrendTicksLeft--
}

// step draws one log-return: trend drift plus uniform noise.
func (g *Generator) step() float64 {
	trend := float64(g.state.TrendDirection) * g.state.TrendStrength * trendScale
	noise := (g.rng.Float64() - 0.5) * 2 * randomHalfRange
	return trend + noise
}

func (g *Generator) drawDirection() int {
	if g.rng.Float64() > 0.5 {
		return 1
	}
	return -1
}
