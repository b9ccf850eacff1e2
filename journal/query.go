package journal

import "fmt"

// TradesByRun loads the closed trades of a run ordered by close time.
func (j *SQLiteJournal) TradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, trade_id, symbol, direction, size, entry_price, exit_price,
		       open_time, close_time, profit, reason
		FROM trades WHERE run_id = ? ORDER BY close_time`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.RunID, &t.TradeID, &t.Symbol, &t.Direction, &t.Size,
			&t.EntryPrice, &t.ExitPrice, &t.OpenTime, &t.CloseTime, &t.Profit, &t.Reason); err != nil {
			return nil, err
		}
		t.OpenTime = t.OpenTime.UTC()
		t.CloseTime = t.CloseTime.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// EquityByRun loads the equity curve of a run ordered by time.
func (j *SQLiteJournal) EquityByRun(runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, balance, equity, margin, free_margin
		FROM equity WHERE run_id = ? ORDER BY time`, runID)
	if err != nil {
		return nil, fmt.Errorf("query equity for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Time, &e.Balance, &e.Equity, &e.Margin, &e.FreeMargin); err != nil {
			return nil, err
		}
		e.Time = e.Time.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
