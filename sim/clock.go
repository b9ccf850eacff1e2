package sim

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Timestamps returns the ordered, de-duplicated union of bar timestamps
// across every loaded series, restricted to [start, end]. This union, not
// any single series, defines the replay tick sequence: different symbols
// and timeframes have independent bar boundaries.
//
// The sequence is recomputed on demand rather than maintained
// incrementally; backtests are batch runs, so regeneration cost is accepted.
func (e *Engine) Timestamps(start, end time.Time) []time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timestampsLocked(start, end)
}

func (e *Engine) timestampsLocked(start, end time.Time) []time.Time {
	set := make(map[int64]time.Time)
	for _, candles := range e.series {
		for _, c := range candles {
			if c.Time.Before(start) || c.Time.After(end) {
				continue
			}
			set[c.Time.UnixNano()] = c.Time
		}
	}

	out := make([]time.Time, 0, len(set))
	for _, t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// lastSeriesTimeLocked returns the newest bar timestamp across all loaded
// series, or the zero time when nothing is loaded.
func (e *Engine) lastSeriesTimeLocked() time.Time {
	var last time.Time
	for _, candles := range e.series {
		if n := len(candles); n > 0 && candles[n-1].Time.After(last) {
			last = candles[n-1].Time
		}
	}
	return last
}

// AdvanceTime single-steps the replay to the next distinct instant after the
// current one, running the tick's matching passes and ledger recompute. It
// returns false when the simulation is not running or no further data
// exists; the current time then stays put.
func (e *Engine) AdvanceTime() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.now.IsZero() {
		e.log.Warn("cannot advance time: simulation not running")
		return time.Time{}, false
	}

	seq := e.timestampsLocked(e.now, e.lastSeriesTimeLocked())
	if len(seq) < 2 {
		e.log.Warn("cannot advance time: reached end of data", zap.Time("now", e.now))
		return e.now, false
	}

	e.now = seq[1]
	e.matchPendingLocked()
	e.checkStopsLocked()
	e.updateAccountLocked()
	return e.now, true
}
