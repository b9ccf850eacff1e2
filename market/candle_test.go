package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCandleClamped(t *testing.T) {
	t.Parallel()

	c := Candle{Open: 1.10, High: 1.05, Low: 1.12, Close: 1.11}
	got := c.Clamped()

	assert.Equal(t, 1.11, got.High)
	assert.Equal(t, 1.10, got.Low)
	assert.Equal(t, c.Open, got.Open)
	assert.Equal(t, c.Close, got.Close)
}

func TestCandleClampedAlreadyConsistent(t *testing.T) {
	t.Parallel()

	c := Candle{Open: 1.10, High: 1.13, Low: 1.09, Close: 1.11}
	assert.Equal(t, c, c.Clamped())
}

func TestSliceRange(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var candles []Candle
	for i := 0; i < 5; i++ {
		candles = append(candles, Candle{Time: base.Add(time.Duration(i) * time.Hour)})
	}

	got := SliceRange(candles, base.Add(time.Hour), base.Add(3*time.Hour))
	assert.Len(t, got, 3)
	assert.Equal(t, base.Add(time.Hour), got[0].Time)
	assert.Equal(t, base.Add(3*time.Hour), got[2].Time)

	assert.Empty(t, SliceRange(candles, base.Add(10*time.Hour), base.Add(20*time.Hour)))
}

func TestTimeframeSeconds(t *testing.T) {
	t.Parallel()

	s, err := H1.Seconds()
	assert.NoError(t, err)
	assert.Equal(t, int64(3600), s)

	_, err = Timeframe("H7").Seconds()
	assert.Error(t, err)
}

func TestParseTimeframe(t *testing.T) {
	t.Parallel()

	tf, err := ParseTimeframe("M15")
	assert.NoError(t, err)
	assert.Equal(t, M15, tf)

	_, err = ParseTimeframe("15m")
	assert.Error(t, err)
}

func TestSimulatedSpread(t *testing.T) {
	t.Parallel()

	fixed := Instrument{PipValue: 0.0001, SpreadPoints: 20}
	assert.InDelta(t, 0.002, fixed.SimulatedSpread(1.1000), 1e-9)

	pipOnly := Instrument{PipValue: 0.0001}
	assert.InDelta(t, 0.001, pipOnly.SimulatedSpread(1.1000), 1e-9)

	bare := Instrument{}
	assert.InDelta(t, 1.1000*0.0001, bare.SimulatedSpread(1.1000), 1e-9)
}

func TestTickMidSpread(t *testing.T) {
	t.Parallel()

	tick := Tick{Bid: 1.0849, Ask: 1.0851}
	assert.InDelta(t, 1.0850, tick.Mid(), 1e-9)
	assert.InDelta(t, 0.0002, tick.Spread(), 1e-9)
}
