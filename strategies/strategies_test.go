package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traderforge/fxbot/market"
)

func flatBars(closes ...float64) []market.Candle {
	bars := make([]market.Candle, len(closes))
	for i, c := range closes {
		bars[i] = market.Candle{Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	s, err := New("noop", nil)
	require.NoError(t, err)
	assert.Equal(t, "noop", s.Name())

	_, err = New("does-not-exist", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")

	assert.Contains(t, Names(), "ma-cross")
	assert.Contains(t, Names(), "trend")
	assert.Contains(t, Names(), "noop")
}

func TestParams(t *testing.T) {
	t.Parallel()

	p := Params{"fast": 5, "rr": 1.5}
	assert.Equal(t, 5, p.Int("fast", 10))
	assert.Equal(t, 10, p.Int("missing", 10))
	assert.InDelta(t, 1.5, p.Get("rr", 2.0), 1e-9)
	assert.InDelta(t, 2.0, p.Get("missing", 2.0), 1e-9)
}

func TestNoopNeverSignals(t *testing.T) {
	t.Parallel()

	s, err := New("noop", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionNeutral, s.Analyze(flatBars(1, 2, 3)).Action)
}

func TestMACrossValidation(t *testing.T) {
	t.Parallel()

	_, err := New("ma-cross", Params{"fast": 30, "slow": 10})
	assert.Error(t, err)
	_, err = New("ma-cross", Params{"stop_pips": -1})
	assert.Error(t, err)
}

func TestMACrossSignals(t *testing.T) {
	t.Parallel()

	// fast=1 makes the fast EMA the last close, so the crossings below are
	// exact: with slow=2 the previous window is perfectly flat (diff 0) and
	// the final bar decides the side.
	newStrat := func(t *testing.T) Strategy {
		t.Helper()
		s, err := New("ma-cross", Params{
			"fast": 1, "slow": 2,
			"pip_value": 0.01, "stop_pips": 10, "rr": 2,
		})
		require.NoError(t, err)
		return s
	}

	t.Run("bull cross", func(t *testing.T) {
		t.Parallel()
		sig := newStrat(t).Analyze(flatBars(10, 10, 10, 12))
		require.Equal(t, ActionBuy, sig.Action)
		assert.InDelta(t, 12-0.1, sig.StopLoss, 1e-9)
		assert.InDelta(t, 12+0.2, sig.TakeProfit, 1e-9)
		assert.InDelta(t, 1.0, sig.Strength, 1e-9)
		assert.Contains(t, sig.Values, "fast")
		assert.Contains(t, sig.Values, "slow")
	})

	t.Run("bear cross", func(t *testing.T) {
		t.Parallel()
		sig := newStrat(t).Analyze(flatBars(10, 10, 10, 8))
		require.Equal(t, ActionSell, sig.Action)
		assert.InDelta(t, 8+0.1, sig.StopLoss, 1e-9)
		assert.InDelta(t, 8-0.2, sig.TakeProfit, 1e-9)
	})

	t.Run("no cross", func(t *testing.T) {
		t.Parallel()
		sig := newStrat(t).Analyze(flatBars(10, 10, 10, 10))
		assert.Equal(t, ActionNeutral, sig.Action)
	})

	t.Run("window too short", func(t *testing.T) {
		t.Parallel()
		sig := newStrat(t).Analyze(flatBars(10, 10))
		assert.Equal(t, ActionNeutral, sig.Action)
	})
}

func TestTrendFollowingSignals(t *testing.T) {
	t.Parallel()

	newStrat := func(t *testing.T) Strategy {
		t.Helper()
		s, err := New("trend", Params{
			"period": 2, "atr_period": 1, "atr_mult": 1, "rr": 2,
		})
		require.NoError(t, err)
		return s
	}

	t.Run("uptrend buys", func(t *testing.T) {
		t.Parallel()
		sig := newStrat(t).Analyze(flatBars(10, 11, 12))
		require.Equal(t, ActionBuy, sig.Action)
		assert.InDelta(t, 11, sig.StopLoss, 1e-9)  // ATR 1 below the close
		assert.InDelta(t, 14, sig.TakeProfit, 1e-9)
		assert.InDelta(t, 0.5, sig.Strength, 1e-9)
	})

	t.Run("downtrend sells", func(t *testing.T) {
		t.Parallel()
		sig := newStrat(t).Analyze(flatBars(12, 11, 10))
		require.Equal(t, ActionSell, sig.Action)
		assert.InDelta(t, 11, sig.StopLoss, 1e-9)
		assert.InDelta(t, 8, sig.TakeProfit, 1e-9)
	})

	t.Run("flat market stays out", func(t *testing.T) {
		t.Parallel()
		sig := newStrat(t).Analyze(flatBars(10, 10, 10))
		assert.Equal(t, ActionNeutral, sig.Action)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		_, err := New("trend", Params{"period": 1})
		assert.Error(t, err)
	})
}
