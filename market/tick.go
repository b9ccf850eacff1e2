package market

import "time"

// Tick is a single bid/ask quote for a symbol. In backtests it is derived
// from the currently replayed candle plus the instrument's simulated spread.
type Tick struct {
	Symbol string
	Time   time.Time
	Bid    float64
	Ask    float64
	Volume float64
}

// Mid returns the midpoint between bid and ask.
func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

// Spread returns the ask-bid difference.
func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}
