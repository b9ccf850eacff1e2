package sim

import (
	"github.com/traderforge/fxbot/market"
	"github.com/traderforge/fxbot/trade"
)

// DefaultLeverage is used whenever the configured account leverage is
// missing or non-positive.
const DefaultLeverage = 100.0

// positionProfit computes the P&L of a position against closeQuote, which is
// the bid (buy) / ask (sell) when marking to market, or the explicit close
// price when realizing.
//
//	profit = (diff / pip_value) * size * contract_size - commission - swap
func positionProfit(t *trade.Trade, meta market.Instrument, closeQuote float64) float64 {
	var diff float64
	if t.Direction == trade.Buy {
		diff = closeQuote - t.ExecutedPrice
	} else {
		diff = t.ExecutedPrice - closeQuote
	}
	return diff/meta.PipValue*t.Size*meta.ContractSize - t.Commission - t.Swap
}

// positionMargin computes the margin a position locks up:
// executed price * size * contract size / leverage.
func positionMargin(t *trade.Trade, meta market.Instrument, leverage float64) float64 {
	if leverage <= 0 {
		leverage = DefaultLeverage
	}
	return t.ExecutedPrice * t.Size * meta.ContractSize / leverage
}
