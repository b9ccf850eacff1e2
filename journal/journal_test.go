package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traderforge/fxbot/trade"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sampleTrade(id string, closeAt time.Time, profit float64) TradeRecord {
	return TradeRecord{
		RunID:      "run-1",
		TradeID:    id,
		Symbol:     "EURUSD",
		Direction:  "buy",
		Size:       0.1,
		EntryPrice: 1.1000,
		ExitPrice:  1.1050,
		OpenTime:   base,
		CloseTime:  closeAt,
		Profit:     profit,
		Reason:     "take_profit",
	}
}

func TestSQLiteJournalRoundTrip(t *testing.T) {
	t.Parallel()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer j.Close()

	// Insert out of close-time order; queries return close-time order.
	require.NoError(t, j.RecordTrade(sampleTrade("t2", base.Add(2*time.Hour), -80)))
	require.NoError(t, j.RecordTrade(sampleTrade("t1", base.Add(time.Hour), 50)))

	require.NoError(t, j.RecordEquity(EquitySnapshot{
		RunID: "run-1", Time: base, Balance: 10000, Equity: 10000, FreeMargin: 10000,
	}))
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		RunID: "run-1", Time: base.Add(time.Hour), Balance: 10050, Equity: 10020, Margin: 110, FreeMargin: 9910,
	}))

	trades, err := j.TradesByRun("run-1")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "t1", trades[0].TradeID)
	assert.Equal(t, "t2", trades[1].TradeID)
	assert.InDelta(t, 50, trades[0].Profit, 1e-9)
	assert.Equal(t, base.Add(time.Hour), trades[0].CloseTime)

	curve, err := j.EquityByRun("run-1")
	require.NoError(t, err)
	require.Len(t, curve, 2)
	assert.InDelta(t, 10050, curve[1].Balance, 1e-9)

	// Unknown run is empty, not an error.
	none, err := j.TradesByRun("run-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	require.NoError(t, j.RecordTrade(sampleTrade("t1", base.Add(time.Hour), 50)))
	require.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "run-1", Time: base, Balance: 10000, Equity: 10000}))
	require.NoError(t, j.Close())

	tf, err := os.Open(tradesPath)
	require.NoError(t, err)
	defer tf.Close()

	rows, err := csv.NewReader(tf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "run_id", rows[0][0])
	assert.Equal(t, "t1", rows[1][1])
	assert.Equal(t, "EURUSD", rows[1][2])
	assert.Equal(t, "take_profit", rows[1][10])

	ef, err := os.Open(equityPath)
	require.NoError(t, err)
	defer ef.Close()

	rows, err = csv.NewReader(ef).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, base.Format(time.RFC3339), rows[1][1])
}

func TestFromTrade(t *testing.T) {
	t.Parallel()

	tr := trade.New("GBPUSD", trade.Sell)
	tr.ID = "abc"
	require.NoError(t, tr.SetSize(0.3))
	require.NoError(t, tr.MarkOpen(1.2500, base))
	require.NoError(t, tr.MarkClosed(1.2400, 300, trade.CloseStopLoss, base.Add(time.Hour)))

	rec := FromTrade("run-9", tr)
	assert.Equal(t, "run-9", rec.RunID)
	assert.Equal(t, "abc", rec.TradeID)
	assert.Equal(t, "sell", rec.Direction)
	assert.InDelta(t, 1.2500, rec.EntryPrice, 1e-9)
	assert.InDelta(t, 1.2400, rec.ExitPrice, 1e-9)
	assert.InDelta(t, 300, rec.Profit, 1e-9)
	assert.Equal(t, "stop_loss", rec.Reason)
}
