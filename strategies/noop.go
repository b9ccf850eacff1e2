package strategies

import "github.com/traderforge/fxbot/market"

func init() {
	Register("noop", func(Params) (Strategy, error) { return NoopStrategy{}, nil })
}

// NoopStrategy never signals. Useful as a baseline and in tests.
type NoopStrategy struct{}

func (NoopStrategy) Name() string { return "noop" }

func (NoopStrategy) Analyze([]market.Candle) Signal { return Neutral() }
