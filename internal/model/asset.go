package model

import (
	"fmt"
	"math/rand"
	"time"
)

// Asset identifies a simulated instrument and the price range its series
// starts from.
type Asset struct {
	ID      string
	Symbol  string
	Name    string
	BaseMin float64
	BaseMax float64
}

// Assets is the built-in instrument catalog.
var Assets = []Asset{
	{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", BaseMin: 30000, BaseMax: 40000},
	{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", BaseMin: 2000, BaseMax: 3000},
	{ID: "binancecoin", Symbol: "BNB", Name: "BNB", BaseMin: 300, BaseMax: 400},
	{ID: "ripple", Symbol: "XRP", Name: "XRP", BaseMin: 0.5, BaseMax: 0.7},
	{ID: "cardano", Symbol: "ADA", Name: "Cardano", BaseMin: 0.3, BaseMax: 0.5},
}

// AssetByID looks up a catalog asset. Unknown ids get a generic range so a
// selection never fails outright.
func AssetByID(id string) Asset {
	for _, a := range Assets {
		if a.ID == id {
			return a
		}
	}
	return Asset{ID: id, Symbol: id, Name: id, BaseMin: 100, BaseMax: 1000}
}

// BasePrice draws a starting price uniformly from the asset's base range.
func (a Asset) BasePrice(rng *rand.Rand) float64 {
	return a.BaseMin + rng.Float64()*(a.BaseMax-a.BaseMin)
}

// Timeframe is one entry of the duration vocabulary shared by the chart
// interval selector and the wager duration selector.
type Timeframe struct {
	Label    string
	Duration time.Duration
}

// Timeframes lists the supported durations in ascending order.
var Timeframes = []Timeframe{
	{Label: "30s", Duration: 30 * time.Second},
	{Label: "1m", Duration: time.Minute},
	{Label: "5m", Duration: 5 * time.Minute},
	{Label: "10m", Duration: 10 * time.Minute},
	{Label: "15m", Duration: 15 * time.Minute},
	{Label: "30m", Duration: 30 * time.Minute},
	{Label: "1h", Duration: time.Hour},
}

// ParseTimeframe resolves a duration label like "30s" or "1m".
func ParseTimeframe(label string) (Timeframe, error) {
	for _, tf := range Timeframes {
		if tf.Label == label {
			return tf, nil
		}
	}
	return Timeframe{}, fmt.Errorf("unknown timeframe %q", label)
}

// IntervalSeconds returns the candle interval length in whole seconds.
func (tf Timeframe) IntervalSeconds() int64 {
	return int64(tf.Duration / time.Second)
}

// Millis returns the duration in milliseconds.
func (tf Timeframe) Millis() int64 {
	return tf.Duration.Milliseconds()
}
