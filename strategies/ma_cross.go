package strategies

import (
	"fmt"
	"math"

	"github.com/traderforge/fxbot/indicators"
	"github.com/traderforge/fxbot/market"
)

func init() {
	Register("ma-cross", NewMACross)
}

// MACross signals on a fast/slow EMA crossover:
// bull cross (fast moves above slow) emits BUY, bear cross emits SELL,
// anything else is NEUTRAL. Stops are a fixed pip distance from the last
// close, targets a risk-reward multiple of the stop.
type MACross struct {
	fast     int
	slow     int
	pipValue float64
	stopPips float64
	rr       float64
}

// NewMACross builds the crossover strategy. Parameters: fast (10),
// slow (30), pip_value (0.0001), stop_pips (20), rr (2.0).
func NewMACross(params Params) (Strategy, error) {
	s := &MACross{
		fast:     params.Int("fast", 10),
		slow:     params.Int("slow", 30),
		pipValue: params.Get("pip_value", 0.0001),
		stopPips: params.Get("stop_pips", 20),
		rr:       params.Get("rr", 2.0),
	}
	if s.fast <= 0 || s.slow <= 0 || s.fast >= s.slow {
		return nil, fmt.Errorf("ma-cross: need 0 < fast < slow, got fast=%d slow=%d", s.fast, s.slow)
	}
	if s.pipValue <= 0 || s.stopPips <= 0 {
		return nil, fmt.Errorf("ma-cross: pip_value and stop_pips must be positive")
	}
	if s.rr <= 0 {
		s.rr = 2.0
	}
	return s, nil
}

func (s *MACross) Name() string { return "ma-cross" }

func (s *MACross) Analyze(bars []market.Candle) Signal {
	// One extra bar so the previous fast/slow distance exists.
	if len(bars) < s.slow+1 {
		return Neutral()
	}

	fastPrev, err := indicators.EMA(bars[:len(bars)-1], s.fast)
	if err != nil {
		return Neutral()
	}
	slowPrev, err := indicators.EMA(bars[:len(bars)-1], s.slow)
	if err != nil {
		return Neutral()
	}
	fastNow, err := indicators.EMA(bars, s.fast)
	if err != nil {
		return Neutral()
	}
	slowNow, err := indicators.EMA(bars, s.slow)
	if err != nil {
		return Neutral()
	}

	prevDiff := fastPrev - slowPrev
	diff := fastNow - slowNow

	bullCross := diff > 0 && prevDiff <= 0
	bearCross := diff < 0 && prevDiff >= 0
	if !bullCross && !bearCross {
		return Neutral()
	}

	close := bars[len(bars)-1].Close
	stopDist := s.stopPips * s.pipValue

	sig := Signal{
		Strength: math.Min(1, math.Abs(diff)/stopDist),
		Values: map[string]float64{
			"fast": fastNow,
			"slow": slowNow,
		},
	}
	if bullCross {
		sig.Action = ActionBuy
		sig.StopLoss = close - stopDist
		sig.TakeProfit = close + stopDist*s.rr
	} else {
		sig.Action = ActionSell
		sig.StopLoss = close + stopDist
		sig.TakeProfit = close - stopDist*s.rr
	}
	return sig
}
