// Package strategies holds the signal generators the backtest runner
// consults. A strategy only reads closed bars and emits a Signal; it never
// talks to the broker and it never sizes positions.
package strategies

import (
	"github.com/traderforge/fxbot/market"
)

// Action is the trading signal a strategy emits for the latest bar.
type Action string

const (
	ActionBuy     Action = "buy"
	ActionSell    Action = "sell"
	ActionNeutral Action = "neutral"
)

// Signal is the result of one Analyze call. Stop and target are absolute
// price levels; zero means the strategy offers none. Values carries the
// indicator readings behind the decision for journaling.
type Signal struct {
	Action     Action
	StopLoss   float64
	TakeProfit float64
	Strength   float64 // 0..1 confidence
	Values     map[string]float64
}

// Neutral is the no-signal result.
func Neutral() Signal {
	return Signal{Action: ActionNeutral}
}

// Strategy analyzes a window of closed bars, oldest first. Analyze must be
// a pure function of the window; per-run state belongs in the instance
// returned by the factory, never in package globals.
type Strategy interface {
	Name() string
	Analyze(bars []market.Candle) Signal
}

// Params are the per-binding tuning knobs from configuration.
type Params map[string]float64

// Get returns the parameter or def when absent.
func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Int returns the parameter truncated to int, or def when absent.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}
