package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traderforge/fxbot/market"
	"github.com/traderforge/fxbot/risk"
	"github.com/traderforge/fxbot/sim"
	"github.com/traderforge/fxbot/strategies"
	"github.com/traderforge/fxbot/trade"
)

var runBase = time.Date(2024, 4, 8, 9, 0, 0, 0, time.UTC)

var testInstrument = market.Instrument{
	Symbol:       "EURUSD",
	PipValue:     0.0001,
	ContractSize: 100000,
	SpreadPoints: 2,
}

// scriptStrategy signals exactly once, then stays neutral. onFirst runs
// just before the signal is returned.
type scriptStrategy struct {
	fired   bool
	signal  strategies.Signal
	onFirst func()
}

func (s *scriptStrategy) Name() string { return "script" }

func (s *scriptStrategy) Analyze([]market.Candle) strategies.Signal {
	if s.fired {
		return strategies.Neutral()
	}
	s.fired = true
	if s.onFirst != nil {
		s.onFirst()
	}
	return s.signal
}

func newRunEngine(t *testing.T, closes ...float64) (*sim.Engine, []time.Time) {
	t.Helper()
	e := sim.NewEngine(sim.Config{
		Symbols:        map[string]market.Instrument{"EURUSD": testInstrument},
		Currency:       "USD",
		InitialBalance: 10000,
		Leverage:       100,
	}, nil, nil)

	candles := make([]market.Candle, len(closes))
	times := make([]time.Time, len(closes))
	for i, c := range closes {
		tm := runBase.Add(time.Duration(i) * time.Minute)
		candles[i] = market.Candle{Time: tm, Open: c, High: c, Low: c, Close: c, Volume: 10}
		times[i] = tm
	}
	e.LoadSeries("EURUSD", market.M1, candles)
	return e, times
}

func TestRunPreconditions(t *testing.T) {
	t.Parallel()

	e, ts := newRunEngine(t, 1.1000)
	binding := Binding{
		Symbol: "EURUSD", Timeframe: market.M1,
		Instrument: testInstrument, Strategy: strategies.NoopStrategy{},
	}

	t.Run("engine required", func(t *testing.T) {
		t.Parallel()
		r := &Runner{Bindings: []Binding{binding}}
		_, err := r.Run(context.Background(), ts[0], ts[0].Add(time.Hour))
		assert.ErrorIs(t, err, ErrEngineRequired)
	})

	t.Run("no strategies configured", func(t *testing.T) {
		t.Parallel()
		r := &Runner{Engine: e}
		_, err := r.Run(context.Background(), ts[0], ts[0].Add(time.Hour))
		assert.ErrorIs(t, err, ErrNoStrategies)
	})

	t.Run("invalid date range", func(t *testing.T) {
		t.Parallel()
		r := &Runner{Engine: e, Bindings: []Binding{binding}}
		_, err := r.Run(context.Background(), ts[0].Add(time.Hour), ts[0])
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("empty replay window", func(t *testing.T) {
		t.Parallel()
		r := &Runner{Engine: e, Bindings: []Binding{binding}}
		_, err := r.Run(context.Background(), ts[0].Add(24*time.Hour), ts[0].Add(48*time.Hour))
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func TestRunNoSignalsIsValidEmptyOutcome(t *testing.T) {
	t.Parallel()

	e, ts := newRunEngine(t, 1.1000, 1.1001, 1.1002)
	r := &Runner{
		Engine: e,
		Policy: risk.DefaultPolicy(),
		Bindings: []Binding{{
			Symbol: "EURUSD", Timeframe: market.M1,
			Instrument: testInstrument, Strategy: strategies.NoopStrategy{},
		}},
	}

	res, err := r.Run(context.Background(), ts[0], ts[len(ts)-1])
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Zero(t, res.Stats.TotalTrades)
	assert.InDelta(t, 10000, res.FinalBalance, 1e-9)
	assert.Len(t, res.EquityCurve, 3)
	assert.NotEmpty(t, res.RunID)
}

func TestRunForceClosesAndCancelsAtEnd(t *testing.T) {
	t.Parallel()

	e, ts := newRunEngine(t, 1.1000, 1.1000, 1.1000)

	// The strategy opens one market BUY with a stop far out of reach, and
	// on the same first tick parks a LIMIT order far below the market so
	// it can never fill.
	strat := &scriptStrategy{
		signal: strategies.Signal{
			Action:   strategies.ActionBuy,
			StopLoss: 1.0500,
		},
	}
	strat.onFirst = func() {
		entry := 1.0000
		ord := trade.New("EURUSD", trade.Buy)
		if err := ord.SetSize(0.1); err != nil {
			t.Error(err)
		}
		if err := ord.SetEntry(trade.Limit, &entry); err != nil {
			t.Error(err)
		}
		if err := e.SubmitOrder(context.Background(), ord); err != nil {
			t.Error(err)
		}
	}

	r := &Runner{
		Engine: e,
		Policy: risk.Policy{RiskPct: 0.01, MaxOpenTrades: 5},
		Bindings: []Binding{{
			Symbol: "EURUSD", Timeframe: market.M1,
			Instrument: testInstrument, Strategy: strat,
		}},
	}

	res, err := r.Run(context.Background(), ts[0], ts[len(ts)-1])
	require.NoError(t, err)

	// The book is empty: the position was force-closed, the order cancelled.
	open, err := e.GetOpenPositions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, open)
	pending, err := e.GetPendingOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Only the force-closed position shows up in the history; the
	// cancelled limit order never does.
	require.Len(t, res.Trades, 1)
	closed := res.Trades[0]
	assert.Equal(t, trade.CloseManual, closed.CloseReason)
	assert.Equal(t, trade.Buy, closed.Direction)
	assert.InDelta(t, 1.1001, closed.ExecutedPrice, 1e-9) // opened at ask
	assert.InDelta(t, 1.0999, closed.ClosePrice, 1e-9)    // force-closed at bid
	assert.Equal(t, ts[len(ts)-1], closed.CloseTime)

	// Paying the spread on a 0.01 lot: 2 pips * 0.01 * 100000.
	wantProfit := (1.0999 - 1.1001) / 0.0001 * 0.01 * 100000
	assert.InDelta(t, wantProfit, closed.Profit, 1e-6)
	assert.InDelta(t, 10000+wantProfit, res.FinalBalance, 1e-6)
	assert.InDelta(t, wantProfit, res.Profit, 1e-6)

	assert.Equal(t, 1, res.Stats.TotalTrades)
	assert.Equal(t, 1, res.Stats.LosingTrades)
	assert.Len(t, res.EquityCurve, len(ts))
}

func TestRunStopsEarlyOnCancelledContext(t *testing.T) {
	t.Parallel()

	e, ts := newRunEngine(t, 1.1000, 1.1001, 1.1002)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{
		Engine: e,
		Policy: risk.DefaultPolicy(),
		Bindings: []Binding{{
			Symbol: "EURUSD", Timeframe: market.M1,
			Instrument: testInstrument, Strategy: strategies.NoopStrategy{},
		}},
	}

	res, err := r.Run(ctx, ts[0], ts[len(ts)-1])
	require.NoError(t, err)
	assert.Empty(t, res.EquityCurve) // nothing processed, result still valid
	assert.InDelta(t, 10000, res.FinalBalance, 1e-9)
}
