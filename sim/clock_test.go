package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traderforge/fxbot/market"
)

func TestTimestampsUnionAcrossSeries(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000)
	// EURUSD bars at minutes 0,1,2; GBPUSD at minutes 1,3. Minute 1 appears
	// in both and must show up once.
	loadCloses(t, e, "EURUSD", t0, 1.1, 1.1, 1.1)
	loadCloses(t, e, "GBPUSD", t0.Add(time.Minute), 1.3, 1.3)
	gb := []market.Candle{
		{Time: t0.Add(3 * time.Minute), Open: 1.3, High: 1.3, Low: 1.3, Close: 1.3},
	}
	e.LoadSeries("GBPUSD", market.M5, gb)

	seq := e.Timestamps(t0, t0.Add(time.Hour))
	want := []time.Time{t0, t0.Add(time.Minute), t0.Add(2 * time.Minute), t0.Add(3 * time.Minute)}
	assert.Equal(t, want, seq)
}

func TestTimestampsRespectsRange(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000)
	ts := loadCloses(t, e, "EURUSD", t0, 1.1, 1.1, 1.1, 1.1)

	seq := e.Timestamps(ts[1], ts[2])
	assert.Equal(t, []time.Time{ts[1], ts[2]}, seq)

	assert.Empty(t, e.Timestamps(t0.Add(time.Hour), t0.Add(2*time.Hour)))
}

func TestAdvanceTimeSingleSteps(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000)
	ts := loadCloses(t, e, "EURUSD", t0, 1.1000, 1.1010, 1.1020)

	// Not running yet.
	_, ok := e.AdvanceTime()
	assert.False(t, ok)

	e.Advance(ts[0])

	next, ok := e.AdvanceTime()
	require.True(t, ok)
	assert.Equal(t, ts[1], next)
	assert.Equal(t, ts[1], e.Now())

	next, ok = e.AdvanceTime()
	require.True(t, ok)
	assert.Equal(t, ts[2], next)

	// End of data: clock stays put.
	next, ok = e.AdvanceTime()
	assert.False(t, ok)
	assert.Equal(t, ts[2], next)
	assert.Equal(t, ts[2], e.Now())
}
