// Package broker defines the interface between the orchestration layer and
// any execution venue, live or simulated. The core engine only ever talks to
// this interface; the simulated exchange in package sim is its one in-tree
// implementation.
package broker

import (
	"context"
	"time"

	"github.com/traderforge/fxbot/market"
	"github.com/traderforge/fxbot/trade"
)

// Broker is the venue-facing surface consumed by strategies and the
// backtest runner.
//
// SubmitOrder, ModifyOrder and CloseOrder mutate the passed trade in place
// (status, executed price, profit, ...) and report only infrastructure
// failures as errors; a rejected trade is a successful call that leaves the
// trade in the Rejected state.
type Broker interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	SubmitOrder(ctx context.Context, t *trade.Trade) error
	ModifyOrder(ctx context.Context, t *trade.Trade) error
	CloseOrder(ctx context.Context, t *trade.Trade) error

	GetAccountInfo(ctx context.Context) (AccountInfo, error)
	GetOpenPositions(ctx context.Context) ([]*trade.Trade, error)
	GetPendingOrders(ctx context.Context) ([]*trade.Trade, error)

	GetHistoricalData(ctx context.Context, symbol string, tf market.Timeframe, start, end time.Time) ([]market.Candle, error)
	GetCurrentPrice(ctx context.Context, symbol string) (market.Tick, error)
	GetSymbols(ctx context.Context) ([]string, error)
}

// AccountInfo is a snapshot of the account ledger.
//
// Invariants maintained by implementations:
//
//	equity = balance + sum of unrealized profit of open positions
//	margin = sum of required margin of open positions
//	free margin = equity - margin
//
// Balance changes only when a position closes.
type AccountInfo struct {
	Balance    float64
	Equity     float64
	Margin     float64
	FreeMargin float64
	Profit     float64 // total unrealized P&L across open positions
	Currency   string
	Leverage   float64
}
