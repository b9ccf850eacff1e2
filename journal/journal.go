// Package journal persists the record of a run: every closed trade and the
// sampled equity curve, keyed by run id so multiple backtests can share a
// sink.
package journal

import (
	"time"

	"github.com/traderforge/fxbot/trade"
)

// TradeRecord is one closed trade as journaled.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Symbol     string
	Direction  string
	Size       float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	Profit     float64
	Reason     string
}

// EquitySnapshot is one point of the sampled equity curve.
type EquitySnapshot struct {
	RunID      string
	Time       time.Time
	Balance    float64
	Equity     float64
	Margin     float64
	FreeMargin float64
}

// Journal is the sink interface the runner writes to.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// FromTrade converts a closed trade into its journal record.
func FromTrade(runID string, t *trade.Trade) TradeRecord {
	return TradeRecord{
		RunID:      runID,
		TradeID:    t.ID,
		Symbol:     t.Symbol,
		Direction:  string(t.Direction),
		Size:       t.Size,
		EntryPrice: t.ExecutedPrice,
		ExitPrice:  t.ClosePrice,
		OpenTime:   t.OpenTime,
		CloseTime:  t.CloseTime,
		Profit:     t.Profit,
		Reason:     string(t.CloseReason),
	}
}
