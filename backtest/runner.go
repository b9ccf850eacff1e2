// Package backtest drives the simulated exchange through a historical
// window, feeding bars to strategies and collecting the run result.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/traderforge/fxbot/datafeed"
	"github.com/traderforge/fxbot/internal/id"
	"github.com/traderforge/fxbot/journal"
	"github.com/traderforge/fxbot/market"
	"github.com/traderforge/fxbot/risk"
	"github.com/traderforge/fxbot/sim"
	"github.com/traderforge/fxbot/strategies"
	"github.com/traderforge/fxbot/trade"
)

// Precondition failures reported to the user by name.
var (
	ErrNoStrategies   = errors.New("no strategies configured")
	ErrInvalidRange   = errors.New("invalid date range")
	ErrNoData         = errors.New("no market data in replay window")
	ErrEngineRequired = errors.New("simulated exchange is required")
)

// Binding attaches one strategy instance to the (symbol, timeframe) series
// it analyzes.
type Binding struct {
	Symbol     string
	Timeframe  market.Timeframe
	Instrument market.Instrument
	Strategy   strategies.Strategy
}

// Runner owns one backtest run. Engine and Bindings are required; Feed is
// optional when the engine's series were preloaded, Journal when no record
// is wanted.
type Runner struct {
	Engine  *sim.Engine
	Feed    *datafeed.Feed
	Policy  risk.Policy
	Journal journal.Journal
	Log     *zap.Logger

	Bindings []Binding
}

// Run replays [start, end]: per distinct bar timestamp it advances the
// exchange (pending match, stop/target match, ledger recompute), samples
// the equity curve, then lets every strategy see the bars visible so far.
// At the end, remaining positions are force-closed (reason MANUAL) and
// remaining pending orders cancelled, so Result.Trades is the complete
// history. Cancelling ctx stops the replay early; the partial result
// through the last processed tick is still returned.
func (r *Runner) Run(ctx context.Context, start, end time.Time) (Result, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	if r.Engine == nil {
		return Result{}, ErrEngineRequired
	}
	if len(r.Bindings) == 0 {
		return Result{}, ErrNoStrategies
	}
	if !start.Before(end) {
		return Result{}, fmt.Errorf("%w: start %s not before end %s", ErrInvalidRange, start, end)
	}

	if err := r.loadSeries(ctx, start, end); err != nil {
		return Result{}, err
	}

	seq := r.Engine.Timestamps(start, end)
	if len(seq) == 0 {
		return Result{}, fmt.Errorf("%w: %s to %s", ErrNoData, start, end)
	}

	r.Engine.Reset()

	runID := id.New()
	acct, err := r.Engine.GetAccountInfo(ctx)
	if err != nil {
		return Result{}, err
	}
	initial := acct.Balance

	log.Info("backtest starting",
		zap.String("run_id", runID),
		zap.Time("start", start), zap.Time("end", end),
		zap.Int("ticks", len(seq)), zap.Float64("balance", initial))

	curve := make([]EquityPoint, 0, len(seq))

	for _, ts := range seq {
		if ctx.Err() != nil {
			log.Warn("replay interrupted", zap.Time("at", ts))
			break
		}

		r.Engine.Advance(ts)

		acct, err = r.Engine.GetAccountInfo(ctx)
		if err != nil {
			return Result{}, err
		}
		point := EquityPoint{Time: ts, Balance: acct.Balance, Equity: acct.Equity}
		curve = append(curve, point)
		if r.Journal != nil {
			if jerr := r.Journal.RecordEquity(journal.EquitySnapshot{
				RunID: runID, Time: ts,
				Balance: acct.Balance, Equity: acct.Equity,
				Margin: acct.Margin, FreeMargin: acct.FreeMargin,
			}); jerr != nil {
				log.Warn("journal equity failed", zap.Error(jerr))
			}
		}

		for i := range r.Bindings {
			r.step(ctx, log, &r.Bindings[i], start, ts, acct.Balance)
		}
	}

	r.Engine.ForceCloseAll()
	r.Engine.CancelPending()

	closed := r.Engine.DrainClosed()
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].CloseTime.Before(closed[j].CloseTime)
	})
	if r.Journal != nil {
		for _, t := range closed {
			if jerr := r.Journal.RecordTrade(journal.FromTrade(runID, t)); jerr != nil {
				log.Warn("journal trade failed", zap.String("id", t.ID), zap.Error(jerr))
			}
		}
	}

	acct, err = r.Engine.GetAccountInfo(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		RunID:          runID,
		InitialBalance: initial,
		FinalBalance:   acct.Balance,
		Profit:         acct.Balance - initial,
		Trades:         closed,
		EquityCurve:    curve,
		Stats:          ComputeStats(initial, closed),
		Start:          start,
		End:            end,
	}

	log.Info("backtest finished",
		zap.String("run_id", runID),
		zap.Int("trades", res.Stats.TotalTrades),
		zap.Float64("profit", res.Profit))
	return res, nil
}

// loadSeries pulls every bound series through the cache into the engine.
// An empty series is a data problem, not a fatal one; the empty-window
// check after loading catches the case where nothing at all arrived.
func (r *Runner) loadSeries(ctx context.Context, start, end time.Time) error {
	if r.Feed == nil {
		return nil
	}

	type key struct {
		symbol string
		tf     market.Timeframe
	}
	seen := make(map[key]bool)

	for _, b := range r.Bindings {
		k := key{b.Symbol, b.Timeframe}
		if seen[k] {
			continue
		}
		seen[k] = true

		bars, err := r.Feed.FetchHistorical(ctx, b.Symbol, b.Timeframe, start, end)
		if err != nil {
			return fmt.Errorf("load %s %s: %w", b.Symbol, b.Timeframe, err)
		}
		r.Engine.LoadSeries(b.Symbol, b.Timeframe, bars)
	}
	return nil
}

// step runs one strategy against the bars visible at ts and turns a signal
// into a sized market order. Every data problem here downgrades to a
// warning; the replay goes on.
func (r *Runner) step(ctx context.Context, log *zap.Logger, b *Binding, start, ts time.Time, balance float64) {
	bars, err := r.Engine.GetHistoricalData(ctx, b.Symbol, b.Timeframe, start, ts)
	if err != nil || len(bars) == 0 {
		return
	}

	sig := b.Strategy.Analyze(bars)
	if sig.Action == strategies.ActionNeutral {
		return
	}

	tick, err := r.Engine.GetCurrentPrice(ctx, b.Symbol)
	if err != nil {
		log.Warn("no price for signal", zap.String("symbol", b.Symbol), zap.Error(err))
		return
	}

	dir := trade.Buy
	entry := tick.Ask
	if sig.Action == strategies.ActionSell {
		dir = trade.Sell
		entry = tick.Bid
	}

	open, err := r.Engine.GetOpenPositions(ctx)
	if err != nil {
		return
	}

	decision := r.Policy.Evaluate(risk.Intent{
		Entry:      entry,
		Stop:       sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		OpenTrades: len(open),
	})
	if !decision.Allowed {
		log.Debug("signal blocked by risk policy",
			zap.String("symbol", b.Symbol),
			zap.String("strategy", b.Strategy.Name()),
			zap.Any("violations", decision.Violations))
		return
	}

	size, err := r.Policy.Size(risk.SizeInputs{
		Balance:      balance,
		Entry:        entry,
		Stop:         sig.StopLoss,
		PipValue:     b.Instrument.PipValue,
		ContractSize: b.Instrument.ContractSize,
	})
	if err != nil {
		log.Warn("sizing failed", zap.String("symbol", b.Symbol), zap.Error(err))
		return
	}

	t := trade.New(b.Symbol, dir)
	if err := t.SetSize(size.Size); err != nil {
		log.Warn("invalid computed size", zap.String("symbol", b.Symbol), zap.Error(err))
		return
	}
	if sig.StopLoss != 0 {
		sl := sig.StopLoss
		t.StopLoss = &sl
	}
	if sig.TakeProfit != 0 {
		tp := sig.TakeProfit
		t.TakeProfit = &tp
	}
	t.SignalStrength = sig.Strength

	if err := r.Engine.SubmitOrder(ctx, t); err != nil {
		log.Warn("order submission failed", zap.String("symbol", b.Symbol), zap.Error(err))
	}
}
