package backtest

import (
	"sort"

	"github.com/traderforge/fxbot/trade"
)

// Stats summarizes the closed-trade history of a run.
type Stats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // wins / closed trades, 0..1
	TotalProfit   float64 // sum of winning profits
	TotalLoss     float64 // absolute sum of losing profits
	ProfitFactor  float64 // TotalProfit / TotalLoss, 0 when no losses
	AverageWin    float64
	AverageLoss   float64 // absolute

	// Drawdown is measured over trade-closing balance points only, not the
	// full equity curve, so intraday troughs between closes are invisible
	// to it. Changing that silently changes every reported number.
	MaxDrawdown    float64
	MaxDrawdownPct float64
}

// ComputeStats walks the closed trades in close-time order, counting wins
// (profit > 0) and losses (profit <= 0) and tracking the running balance
// from the initial deposit against its running peak.
func ComputeStats(initialBalance float64, trades []*trade.Trade) Stats {
	ordered := append([]*trade.Trade(nil), trades...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CloseTime.Before(ordered[j].CloseTime)
	})

	var s Stats
	balance := initialBalance
	peak := initialBalance

	for _, t := range ordered {
		if !t.IsClosed() {
			continue
		}
		s.TotalTrades++

		if t.Profit > 0 {
			s.WinningTrades++
			s.TotalProfit += t.Profit
		} else {
			s.LosingTrades++
			s.TotalLoss += -t.Profit
		}

		balance += t.Profit
		if balance > peak {
			peak = balance
		}
		if balance < peak {
			dd := peak - balance
			if dd > s.MaxDrawdown {
				s.MaxDrawdown = dd
				if peak > 0 {
					s.MaxDrawdownPct = dd / peak
				}
			}
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	}
	if s.TotalLoss > 0 {
		s.ProfitFactor = s.TotalProfit / s.TotalLoss
	}
	if s.WinningTrades > 0 {
		s.AverageWin = s.TotalProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AverageLoss = s.TotalLoss / float64(s.LosingTrades)
	}

	return s
}
