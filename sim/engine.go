// Package sim implements the simulated exchange: an order and position book
// matched against replayed historical bars, with an account ledger derived
// from the open position set. It satisfies broker.Broker so strategies and
// the backtest runner cannot tell it apart from a live venue.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/traderforge/fxbot/broker"
	"github.com/traderforge/fxbot/datafeed"
	"github.com/traderforge/fxbot/internal/id"
	"github.com/traderforge/fxbot/market"
	"github.com/traderforge/fxbot/trade"
)

// ErrNoPrice is returned when no quote can be derived for a symbol at the
// current replay time. Callers treat it as a data problem: warn and skip.
var ErrNoPrice = errors.New("no current price available")

// Config describes the simulated account and the tradable universe.
type Config struct {
	Symbols        map[string]market.Instrument
	Currency       string
	InitialBalance float64
	Leverage       float64
}

type seriesKey struct {
	symbol string
	tf     market.Timeframe
}

// Engine is one run-scoped simulated exchange instance. It owns the pending
// order and open position sets exclusively for the duration of a run;
// concurrent runs must use independent engines.
type Engine struct {
	mu sync.Mutex

	cfg  Config
	feed *datafeed.Feed // optional; historical-data delegation outside replay
	log  *zap.Logger

	connected bool
	now       time.Time // zero until the replay starts

	series  map[seriesKey][]market.Candle
	pending []*trade.Trade
	open    []*trade.Trade
	closed  []*trade.Trade

	acct broker.AccountInfo
}

// NewEngine creates a simulated exchange. The data feed may be nil when the
// engine will only ever serve preloaded series.
func NewEngine(cfg Config, fd *datafeed.Feed, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		cfg:    cfg,
		feed:   fd,
		log:    logger,
		series: make(map[seriesKey][]market.Candle),
	}
	e.resetLocked()
	return e
}

// Reset clears the book, the replay clock and the account back to the
// initial deposit. Loaded series are kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.now = time.Time{}
	e.pending = nil
	e.open = nil
	e.closed = nil
	e.acct = broker.AccountInfo{
		Balance:    e.cfg.InitialBalance,
		Equity:     e.cfg.InitialBalance,
		FreeMargin: e.cfg.InitialBalance,
		Currency:   e.cfg.Currency,
		Leverage:   e.cfg.Leverage,
	}
}

// Connect is a no-op that always succeeds.
func (e *Engine) Connect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connected = true
	return nil
}

// Disconnect is a no-op that always succeeds.
func (e *Engine) Disconnect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connected = false
	return nil
}

// LoadSeries installs a historical series for matching and price derivation.
// Bars are sorted and clamped on the way in.
func (e *Engine) LoadSeries(symbol string, tf market.Timeframe, candles []market.Candle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cs := append([]market.Candle(nil), candles...)
	market.ClampSeries(cs)
	sort.Slice(cs, func(i, j int) bool { return cs[i].Time.Before(cs[j].Time) })
	e.series[seriesKey{symbol, tf}] = cs
}

// Now returns the current replay time (zero when not running).
func (e *Engine) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// Advance moves the replay clock to t and runs the tick in the contractual
// order: pending-order matching first, then stop/target matching, then the
// ledger recompute. A position opened by this tick's pending match is still
// checked against its own stop/target at this tick's price.
func (e *Engine) Advance(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.now = t
	e.matchPendingLocked()
	e.checkStopsLocked()
	e.updateAccountLocked()
}

// SubmitOrder validates and executes (or books) a trade. Validation
// failures reject the trade and return nil; only infrastructure problems
// surface as errors.
func (e *Engine) SubmitOrder(ctx context.Context, t *trade.Trade) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.connected {
		e.connected = true
	}

	if _, ok := e.instrument(t.Symbol); !ok {
		e.log.Warn("rejecting trade: no instrument metadata", zap.String("symbol", t.Symbol))
		return t.MarkRejected(fmt.Sprintf("no instrument metadata for %s", t.Symbol))
	}

	if t.Size <= 0 {
		e.log.Warn("rejecting trade: invalid size", zap.String("symbol", t.Symbol), zap.Float64("size", t.Size))
		return t.MarkRejected("invalid trade size")
	}

	t.ID = id.New()

	switch t.Type {
	case trade.Market:
		tick, err := e.currentPriceLocked(t.Symbol)
		if err != nil {
			e.log.Warn("rejecting market order: no price",
				zap.String("symbol", t.Symbol), zap.Error(err))
			return t.MarkRejected(fmt.Sprintf("failed to get price for %s", t.Symbol))
		}

		price := tick.Ask
		if t.Direction == trade.Sell {
			price = tick.Bid
		}
		if err := t.MarkOpen(price, tick.Time); err != nil {
			return err
		}
		e.open = append(e.open, t)
		e.updateAccountLocked()
		e.log.Info("market order executed",
			zap.String("id", t.ID), zap.String("symbol", t.Symbol),
			zap.String("direction", string(t.Direction)), zap.Float64("price", price))

	case trade.Limit, trade.Stop:
		if t.EntryPrice == nil {
			e.log.Warn("rejecting pending order: no entry price", zap.String("symbol", t.Symbol))
			return t.MarkRejected("entry price required for pending orders")
		}
		e.pending = append(e.pending, t)
		e.log.Info("pending order placed",
			zap.String("id", t.ID), zap.String("symbol", t.Symbol),
			zap.String("type", string(t.Type)), zap.Float64("entry", *t.EntryPrice))

	default:
		return t.MarkRejected(fmt.Sprintf("unsupported order type %q", t.Type))
	}

	return nil
}

// ModifyOrder updates the live order/position matching t.ID. Only fields
// explicitly provided are touched: entry price for pending orders,
// stop loss / take profit for either. An unknown id is a logged no-op.
func (e *Engine) ModifyOrder(ctx context.Context, t *trade.Trade) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t.ID == "" {
		e.log.Warn("cannot modify trade: missing id")
		return nil
	}

	for _, pos := range e.open {
		if pos.ID != t.ID {
			continue
		}
		if t.StopLoss != nil {
			pos.StopLoss = t.StopLoss
		}
		if t.TakeProfit != nil {
			pos.TakeProfit = t.TakeProfit
		}
		e.log.Info("modified position", zap.String("id", pos.ID))
		return nil
	}

	for _, ord := range e.pending {
		if ord.ID != t.ID {
			continue
		}
		if t.EntryPrice != nil {
			ord.EntryPrice = t.EntryPrice
		}
		if t.StopLoss != nil {
			ord.StopLoss = t.StopLoss
		}
		if t.TakeProfit != nil {
			ord.TakeProfit = t.TakeProfit
		}
		e.log.Info("modified pending order", zap.String("id", ord.ID))
		return nil
	}

	e.log.Warn("trade not found for modification", zap.String("id", t.ID))
	return nil
}

// CloseOrder closes an open position at the current quote (reason MANUAL) or
// cancels a pending order. An unknown id is a logged no-op.
func (e *Engine) CloseOrder(ctx context.Context, t *trade.Trade) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t.ID == "" {
		e.log.Warn("cannot close trade: missing id")
		return nil
	}

	for _, pos := range e.open {
		if pos.ID != t.ID {
			continue
		}
		tick, err := e.currentPriceLocked(pos.Symbol)
		if err != nil {
			e.log.Warn("cannot close position: no price",
				zap.String("id", pos.ID), zap.String("symbol", pos.Symbol), zap.Error(err))
			return nil
		}
		price := tick.Bid
		if pos.Direction == trade.Sell {
			price = tick.Ask
		}
		if err := e.closePositionLocked(pos, price, trade.CloseManual); err != nil {
			return err
		}
		e.updateAccountLocked()
		return nil
	}

	for _, ord := range e.pending {
		if ord.ID != t.ID {
			continue
		}
		if err := ord.MarkCancelled(); err != nil {
			return err
		}
		e.removePending(ord)
		e.log.Info("pending order cancelled", zap.String("id", ord.ID))
		return nil
	}

	e.log.Warn("trade not found for closing", zap.String("id", t.ID))
	return nil
}

// GetAccountInfo returns the current ledger snapshot.
func (e *Engine) GetAccountInfo(ctx context.Context) (broker.AccountInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acct, nil
}

// GetOpenPositions returns a snapshot of the open position set.
func (e *Engine) GetOpenPositions(ctx context.Context) ([]*trade.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*trade.Trade(nil), e.open...), nil
}

// GetPendingOrders returns a snapshot of the pending order set.
func (e *Engine) GetPendingOrders(ctx context.Context) ([]*trade.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*trade.Trade(nil), e.pending...), nil
}

// GetHistoricalData serves bars from the loaded replay series truncated to
// the current replay time (no look-ahead). Outside a replay it delegates to
// the data cache.
func (e *Engine) GetHistoricalData(ctx context.Context, symbol string, tf market.Timeframe, start, end time.Time) ([]market.Candle, error) {
	e.mu.Lock()
	if candles, ok := e.series[seriesKey{symbol, tf}]; ok && !e.now.IsZero() {
		limit := end
		if e.now.Before(limit) {
			limit = e.now
		}
		out := market.SliceRange(candles, start, limit)
		e.mu.Unlock()
		return out, nil
	}
	fd := e.feed
	e.mu.Unlock()

	if fd == nil {
		return nil, nil
	}
	return fd.FetchHistorical(ctx, symbol, tf, start, end)
}

// GetCurrentPrice derives a bid/ask quote from the most recent replayed bar
// plus the instrument's simulated spread.
func (e *Engine) GetCurrentPrice(ctx context.Context, symbol string) (market.Tick, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPriceLocked(symbol)
}

// GetSymbols lists the configured tradable symbols.
func (e *Engine) GetSymbols(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.cfg.Symbols))
	for s := range e.cfg.Symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// ForceCloseAll closes every remaining open position at the last available
// price with reason MANUAL. Used at end of replay so the closed-trade
// history is the complete record.
func (e *Engine) ForceCloseAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := append([]*trade.Trade(nil), e.open...)
	for _, pos := range snapshot {
		price := pos.ExecutedPrice
		if tick, err := e.currentPriceLocked(pos.Symbol); err == nil {
			price = tick.Bid
			if pos.Direction == trade.Sell {
				price = tick.Ask
			}
		} else {
			e.log.Warn("force close without quote, using executed price",
				zap.String("id", pos.ID), zap.String("symbol", pos.Symbol))
		}
		if err := e.closePositionLocked(pos, price, trade.CloseManual); err != nil {
			e.log.Warn("force close failed", zap.String("id", pos.ID), zap.Error(err))
		}
	}
	e.updateAccountLocked()
}

// CancelPending cancels every remaining pending order.
func (e *Engine) CancelPending() {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := append([]*trade.Trade(nil), e.pending...)
	for _, ord := range snapshot {
		if err := ord.MarkCancelled(); err != nil {
			e.log.Warn("cancel failed", zap.String("id", ord.ID), zap.Error(err))
			continue
		}
	}
	e.pending = nil
}

// DrainClosed moves the closed-trade history out of the engine. Ownership
// transfers to the caller; the engine's history is emptied.
func (e *Engine) DrainClosed() []*trade.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.closed
	e.closed = nil
	return out
}

func (e *Engine) instrument(symbol string) (market.Instrument, bool) {
	meta, ok := e.cfg.Symbols[symbol]
	if !ok || meta.PipValue <= 0 || meta.ContractSize <= 0 {
		return market.Instrument{}, false
	}
	return meta, true
}

func (e *Engine) currentPriceLocked(symbol string) (market.Tick, error) {
	if e.now.IsZero() {
		return market.Tick{}, fmt.Errorf("%w for %s: simulation not running", ErrNoPrice, symbol)
	}

	meta, ok := e.cfg.Symbols[symbol]
	if !ok {
		return market.Tick{}, fmt.Errorf("%w: unknown symbol %s", ErrNoPrice, symbol)
	}

	// Finest loaded timeframe wins.
	for _, tf := range market.ReplayTimeframes {
		candles, ok := e.series[seriesKey{symbol, tf}]
		if !ok || len(candles) == 0 {
			continue
		}
		idx := sort.Search(len(candles), func(i int) bool {
			return candles[i].Time.After(e.now)
		}) - 1
		if idx < 0 {
			continue
		}

		c := candles[idx]
		spread := meta.SimulatedSpread(c.Close)
		return market.Tick{
			Symbol: symbol,
			Time:   e.now,
			Bid:    c.Close - spread/2,
			Ask:    c.Close + spread/2,
			Volume: c.Volume,
		}, nil
	}

	return market.Tick{}, fmt.Errorf("%w for %s at %s", ErrNoPrice, symbol, e.now)
}

// matchPendingLocked runs the pending-order pass. Iteration happens over a
// snapshot; the live collection mutates as orders fill.
func (e *Engine) matchPendingLocked() {
	snapshot := append([]*trade.Trade(nil), e.pending...)
	for _, ord := range snapshot {
		tick, err := e.currentPriceLocked(ord.Symbol)
		if err != nil {
			e.log.Warn("skipping pending order: no price",
				zap.String("id", ord.ID), zap.String("symbol", ord.Symbol))
			continue
		}

		entry := *ord.EntryPrice
		triggered := false
		switch ord.Type {
		case trade.Limit:
			if ord.Direction == trade.Buy {
				triggered = tick.Ask <= entry
			} else {
				triggered = tick.Bid >= entry
			}
		case trade.Stop:
			if ord.Direction == trade.Buy {
				triggered = tick.Ask >= entry
			} else {
				triggered = tick.Bid <= entry
			}
		}
		if !triggered {
			continue
		}

		// Zero-slippage fill model: execute at the entry price itself.
		if err := ord.MarkOpen(entry, e.now); err != nil {
			e.log.Warn("pending order fill failed", zap.String("id", ord.ID), zap.Error(err))
			continue
		}
		e.removePending(ord)
		e.open = append(e.open, ord)
		e.log.Info("pending order executed",
			zap.String("id", ord.ID), zap.String("symbol", ord.Symbol), zap.Float64("price", entry))
	}
}

// checkStopsLocked runs the stop-loss / take-profit pass over a snapshot of
// the open set. Exits fill at the stop/target level itself.
func (e *Engine) checkStopsLocked() {
	snapshot := append([]*trade.Trade(nil), e.open...)
	for _, pos := range snapshot {
		tick, err := e.currentPriceLocked(pos.Symbol)
		if err != nil {
			e.log.Warn("skipping stop check: no price",
				zap.String("id", pos.ID), zap.String("symbol", pos.Symbol))
			continue
		}

		meta, ok := e.instrument(pos.Symbol)
		if ok {
			mark := tick.Bid
			if pos.Direction == trade.Sell {
				mark = tick.Ask
			}
			pos.Profit = positionProfit(pos, meta, mark)
		}

		if pos.StopLoss != nil {
			sl := *pos.StopLoss
			if (pos.Direction == trade.Buy && tick.Bid <= sl) ||
				(pos.Direction == trade.Sell && tick.Ask >= sl) {
				if err := e.closePositionLocked(pos, sl, trade.CloseStopLoss); err != nil {
					e.log.Warn("stop-loss close failed", zap.String("id", pos.ID), zap.Error(err))
				}
				continue
			}
		}

		if pos.TakeProfit != nil {
			tp := *pos.TakeProfit
			if (pos.Direction == trade.Buy && tick.Bid >= tp) ||
				(pos.Direction == trade.Sell && tick.Ask <= tp) {
				if err := e.closePositionLocked(pos, tp, trade.CloseTakeProfit); err != nil {
					e.log.Warn("take-profit close failed", zap.String("id", pos.ID), zap.Error(err))
				}
				continue
			}
		}
	}
}

// closePositionLocked realizes a position at price: computes the final
// profit, transitions the trade, moves it into the closed history, and
// credits the balance exactly once.
func (e *Engine) closePositionLocked(pos *trade.Trade, price float64, reason trade.CloseReason) error {
	meta, ok := e.instrument(pos.Symbol)
	if !ok {
		return fmt.Errorf("close %s: no instrument metadata for %s", pos.ID, pos.Symbol)
	}

	closeTime := e.now
	if closeTime.IsZero() {
		closeTime = time.Now().UTC()
	}

	profit := positionProfit(pos, meta, price)
	if err := pos.MarkClosed(price, profit, reason, closeTime); err != nil {
		return err
	}

	e.removeOpen(pos)
	e.closed = append(e.closed, pos)
	e.acct.Balance += profit

	e.log.Info("position closed",
		zap.String("id", pos.ID), zap.String("symbol", pos.Symbol),
		zap.String("reason", string(reason)), zap.Float64("profit", profit))
	return nil
}

// updateAccountLocked recomputes the ledger from the open position set:
// profit and margin sums, then equity and free margin.
func (e *Engine) updateAccountLocked() {
	var totalProfit, totalMargin float64

	for _, pos := range e.open {
		meta, ok := e.instrument(pos.Symbol)
		if !ok {
			continue
		}
		if tick, err := e.currentPriceLocked(pos.Symbol); err == nil {
			mark := tick.Bid
			if pos.Direction == trade.Sell {
				mark = tick.Ask
			}
			pos.Profit = positionProfit(pos, meta, mark)
		}
		totalProfit += pos.Profit
		totalMargin += positionMargin(pos, meta, e.cfg.Leverage)
	}

	e.acct.Profit = totalProfit
	e.acct.Margin = totalMargin
	e.acct.Equity = e.acct.Balance + totalProfit
	e.acct.FreeMargin = e.acct.Equity - totalMargin
}

func (e *Engine) removePending(t *trade.Trade) {
	for i, o := range e.pending {
		if o == t {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

func (e *Engine) removeOpen(t *trade.Trade) {
	for i, o := range e.open {
		if o == t {
			e.open = append(e.open[:i], e.open[i+1:]...)
			return
		}
	}
}
