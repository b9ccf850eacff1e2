// Package market holds the core market-data types shared by the feed, the
// data cache and the simulated exchange: candles, ticks, timeframes and
// per-instrument metadata.
package market

import "time"

// Candle represents one OHLCV bar for an instrument over a fixed timeframe.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Clamped returns a copy of the candle with High raised to at least
// max(Open, Close) and Low lowered to at most min(Open, Close). Source feeds
// occasionally deliver bars that violate this; every consumer assumes it
// holds, so bad bars are corrected rather than dropped.
func (c Candle) Clamped() Candle {
	if c.Open > c.High {
		c.High = c.Open
	}
	if c.Close > c.High {
		c.High = c.Close
	}
	if c.Open < c.Low {
		c.Low = c.Open
	}
	if c.Close < c.Low {
		c.Low = c.Close
	}
	return c
}

// ClampSeries applies Clamped to every candle in place.
func ClampSeries(candles []Candle) {
	for i := range candles {
		candles[i] = candles[i].Clamped()
	}
}

// SliceRange returns the candles whose timestamps fall within [start, end],
// inclusive on both ends. The input must already be sorted by time.
func SliceRange(candles []Candle, start, end time.Time) []Candle {
	lo := 0
	for lo < len(candles) && candles[lo].Time.Before(start) {
		lo++
	}
	hi := len(candles)
	for hi > lo && candles[hi-1].Time.After(end) {
		hi--
	}
	return candles[lo:hi]
}
