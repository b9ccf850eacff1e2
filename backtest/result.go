package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/traderforge/fxbot/trade"
)

// EquityPoint is one sample of the equity curve, taken once per replay tick
// after matching and the ledger recompute.
type EquityPoint struct {
	Time    time.Time
	Balance float64
	Equity  float64
}

// Result is the complete outcome of a backtest run. Trades holds the full
// closed-trade history including end-of-run force closes; cancelled pending
// orders never appear in it.
type Result struct {
	RunID string

	InitialBalance float64
	FinalBalance   float64
	Profit         float64

	Trades      []*trade.Trade
	EquityCurve []EquityPoint
	Stats       Stats

	Start time.Time
	End   time.Time
}

// Print writes a human-readable run summary.
func (r Result) Print(w io.Writer) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Stats.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Stats.WinningTrades)
	fmt.Fprintf(w, "Losses:        %d\n", r.Stats.LosingTrades)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.Stats.WinRate*100)
	if r.Stats.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.Stats.ProfitFactor)
	}
	if r.Stats.MaxDrawdown > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f (%.2f%%)\n", r.Stats.MaxDrawdown, r.Stats.MaxDrawdownPct*100)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.InitialBalance)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.FinalBalance)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.Profit)
	if r.InitialBalance > 0 {
		fmt.Fprintf(w, "Return:        %.2f%%\n", r.Profit/r.InitialBalance*100)
	}
	fmt.Fprintln(w)
}
