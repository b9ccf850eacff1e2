// Package bot wires the configured object graph: feed, cache, simulated
// exchange, strategies, risk policy and journal. It is the only place the
// full graph is constructed; everything it builds is scoped to one run.
package bot

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/traderforge/fxbot/backtest"
	"github.com/traderforge/fxbot/config"
	"github.com/traderforge/fxbot/datafeed"
	"github.com/traderforge/fxbot/feed"
	"github.com/traderforge/fxbot/journal"
	"github.com/traderforge/fxbot/market"
	"github.com/traderforge/fxbot/sim"
	"github.com/traderforge/fxbot/strategies"
)

// Bot runs the configured trading system.
type Bot struct {
	cfg *config.Config
	log *zap.Logger
}

// New creates a bot from a validated configuration.
func New(cfg *config.Config, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{cfg: cfg, log: logger}
}

// Run dispatches on the configured execution mode.
func (b *Bot) Run(ctx context.Context) (*backtest.Result, error) {
	switch b.cfg.Mode {
	case "", "backtest":
		return b.runBacktest(ctx)
	default:
		return nil, fmt.Errorf("mode %q is not supported", b.cfg.Mode)
	}
}

func (b *Bot) runBacktest(ctx context.Context) (*backtest.Result, error) {
	start, end, err := b.cfg.Backtest.Window()
	if err != nil {
		return nil, err
	}

	cachePath := b.cfg.Cache.Path
	if cachePath == "" {
		// No persistent cache configured; keep the bar store in memory for
		// the duration of the run.
		cachePath = ":memory:"
	}
	store, err := datafeed.OpenStore(cachePath)
	if err != nil {
		return nil, fmt.Errorf("open bar cache: %w", err)
	}

	src := feed.NewClient(b.cfg.Feed.BaseURL, b.cfg.Feed.Token)
	fd := datafeed.New(src, store, b.log)
	defer fd.Close()

	bindings, err := b.bindings()
	if err != nil {
		return nil, err
	}

	jnl, err := b.journal()
	if err != nil {
		return nil, err
	}
	if jnl != nil {
		defer jnl.Close()
	}

	engine := sim.NewEngine(sim.Config{
		Symbols:        b.cfg.Instruments(),
		Currency:       b.cfg.Account.Currency,
		InitialBalance: b.cfg.Account.InitialDeposit,
		Leverage:       b.cfg.Account.Leverage,
	}, fd, b.log)

	runner := &backtest.Runner{
		Engine:   engine,
		Feed:     fd,
		Policy:   b.cfg.Policy(),
		Journal:  jnl,
		Log:      b.log,
		Bindings: bindings,
	}

	res, err := runner.Run(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// bindings instantiates every configured strategy. Unknown strategy names
// fail here, before any data is touched. A binding's parameters inherit the
// symbol's pip value unless overridden.
func (b *Bot) bindings() ([]backtest.Binding, error) {
	symbols := make([]string, 0, len(b.cfg.Symbols))
	for sym := range b.cfg.Symbols {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var out []backtest.Binding
	for _, sym := range symbols {
		sc := b.cfg.Symbols[sym]
		meta, _ := b.cfg.Instrument(sym)

		for _, sb := range sc.Strategies {
			params := make(strategies.Params, len(sb.Params)+1)
			for k, v := range sb.Params {
				params[k] = v
			}
			if _, ok := params["pip_value"]; !ok {
				params["pip_value"] = sc.PipValue
			}

			strat, err := strategies.New(sb.Name, params)
			if err != nil {
				return nil, fmt.Errorf("symbol %s: %w", sym, err)
			}

			tf, err := market.ParseTimeframe(sb.Timeframe)
			if err != nil {
				return nil, fmt.Errorf("symbol %s strategy %s: %w", sym, sb.Name, err)
			}

			out = append(out, backtest.Binding{
				Symbol:     sym,
				Timeframe:  tf,
				Instrument: meta,
				Strategy:   strat,
			})
		}
	}
	return out, nil
}

// journal builds the configured sink, or nil when journaling is off.
func (b *Bot) journal() (journal.Journal, error) {
	switch b.cfg.Journal.Type {
	case "", "none":
		return nil, nil
	case "csv":
		return journal.NewCSV(b.cfg.Journal.TradesFile, b.cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(b.cfg.Journal.DBPath)
	default:
		return nil, fmt.Errorf("journal.type %q is not supported", b.cfg.Journal.Type)
	}
}
