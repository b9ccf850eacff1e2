package strategies

import (
	"fmt"
	"math"

	"github.com/traderforge/fxbot/indicators"
	"github.com/traderforge/fxbot/market"
)

func init() {
	Register("trend", NewTrendFollowing)
}

// TrendFollowing goes with the prevailing direction: BUY when the close sits
// above a rising baseline SMA, SELL when below a falling one. Stops are an
// ATR multiple from the close so they widen with volatility.
type TrendFollowing struct {
	period    int
	atrPeriod int
	atrMult   float64
	rr        float64
}

// NewTrendFollowing builds the trend strategy. Parameters: period (50),
// atr_period (14), atr_mult (2.0), rr (2.0).
func NewTrendFollowing(params Params) (Strategy, error) {
	s := &TrendFollowing{
		period:    params.Int("period", 50),
		atrPeriod: params.Int("atr_period", 14),
		atrMult:   params.Get("atr_mult", 2.0),
		rr:        params.Get("rr", 2.0),
	}
	if s.period <= 1 || s.atrPeriod <= 0 {
		return nil, fmt.Errorf("trend: need period > 1 and atr_period > 0, got period=%d atr_period=%d", s.period, s.atrPeriod)
	}
	if s.atrMult <= 0 {
		s.atrMult = 2.0
	}
	if s.rr <= 0 {
		s.rr = 2.0
	}
	return s, nil
}

func (s *TrendFollowing) Name() string { return "trend" }

func (s *TrendFollowing) Analyze(bars []market.Candle) Signal {
	need := s.period + 1
	if n := s.atrPeriod + 1; n > need {
		need = n
	}
	if len(bars) < need {
		return Neutral()
	}

	smaPrev, err := indicators.SMA(bars[:len(bars)-1], s.period)
	if err != nil {
		return Neutral()
	}
	smaNow, err := indicators.SMA(bars, s.period)
	if err != nil {
		return Neutral()
	}
	atr, err := indicators.ATR(bars, s.atrPeriod)
	if err != nil || atr <= 0 {
		return Neutral()
	}

	close := bars[len(bars)-1].Close
	rising := smaNow > smaPrev
	falling := smaNow < smaPrev
	stopDist := s.atrMult * atr

	sig := Signal{
		Values: map[string]float64{
			"sma": smaNow,
			"atr": atr,
		},
	}

	switch {
	case close > smaNow && rising:
		sig.Action = ActionBuy
		sig.StopLoss = close - stopDist
		sig.TakeProfit = close + stopDist*s.rr
	case close < smaNow && falling:
		sig.Action = ActionSell
		sig.StopLoss = close + stopDist
		sig.TakeProfit = close - stopDist*s.rr
	default:
		return Neutral()
	}

	sig.Strength = math.Min(1, math.Abs(close-smaNow)/stopDist)
	return sig
}
