package model

// Candle represents a single OHLC bar. Time is epoch seconds, always aligned
// to the active timeframe's interval boundary.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// GeneratorState is the sole source of continuity between ticks of a price
// series generator. It is owned by exactly one generator instance and never
// shared.
type GeneratorState struct {
	LastPrice      float64
	TrendDirection int     // -1, 0 or +1
	TrendStrength  float64 // 0.3 ~ 1.0
	TrendTicksLeft int     // regime is redrawn when this reaches 0
	Volatility     float64
}
