// Package risk sizes positions and gates trade intents before submission.
package risk

import (
	"fmt"
	"math"
)

// LotStep is the broker lot granularity sizes are rounded down to.
const LotStep = 0.01

// Policy holds the account-level risk limits.
type Policy struct {
	RiskPct       float64 // fraction of balance risked per trade, e.g. 0.01
	MaxOpenTrades int
	MinRR         float64 // minimum reward/risk ratio, 0 disables the check
	MinSize       float64 // smallest size ever submitted
	MaxSize       float64 // 0 means uncapped
}

// DefaultPolicy returns conservative limits: 1% per trade, at most three
// concurrent positions, 1.5 reward per unit of risk.
func DefaultPolicy() Policy {
	return Policy{
		RiskPct:       0.01,
		MaxOpenTrades: 3,
		MinRR:         1.5,
		MinSize:       LotStep,
	}
}

// SizeInputs is everything the sizer needs for one intent.
type SizeInputs struct {
	Balance      float64
	Entry        float64
	Stop         float64
	PipValue     float64
	ContractSize float64
}

// SizeResult reports the computed size and the numbers behind it.
type SizeResult struct {
	Size       float64
	StopPips   float64
	RiskAmount float64
}

// Size computes the position size that loses RiskPct of the balance if a
// trade entered at Entry hits Stop:
//
//	size = (balance * risk_pct) / (stop_pips * contract_size)
//
// The result is floored to LotStep and clamped into [MinSize, MaxSize].
func (p Policy) Size(in SizeInputs) (SizeResult, error) {
	if in.Balance <= 0 {
		return SizeResult{}, fmt.Errorf("size: balance must be positive, got %g", in.Balance)
	}
	if in.PipValue <= 0 || in.ContractSize <= 0 {
		return SizeResult{}, fmt.Errorf("size: pip value and contract size must be positive")
	}

	stopDist := math.Abs(in.Entry - in.Stop)
	if stopDist <= 0 {
		return SizeResult{}, fmt.Errorf("size: entry %g and stop %g give no stop distance", in.Entry, in.Stop)
	}

	stopPips := stopDist / in.PipValue
	riskAmt := in.Balance * p.RiskPct

	size := riskAmt / (stopPips * in.ContractSize)
	size = math.Floor(size/LotStep) * LotStep

	min := p.MinSize
	if min <= 0 {
		min = LotStep
	}
	if size < min {
		size = min
	}
	if p.MaxSize > 0 && size > p.MaxSize {
		size = p.MaxSize
	}

	return SizeResult{Size: size, StopPips: stopPips, RiskAmount: riskAmt}, nil
}

// RR returns the reward/risk ratio of an intent, or 0 when the stop
// distance is zero.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(takeProfit-entry) / risk
}
