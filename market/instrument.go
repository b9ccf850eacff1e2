package market

// Instrument carries the per-symbol metadata every P&L, margin and spread
// computation depends on. It is loaded from configuration; a trade on a
// symbol with no metadata is rejected outright.
type Instrument struct {
	Symbol       string
	PipValue     float64 // minimum price increment, e.g. 0.0001 for EUR_USD
	ContractSize float64 // units of the underlying per 1.0 of position size
	SpreadPoints float64 // fixed spread in points; 0 means not configured
}

// SimulatedSpread returns the ask-bid distance to apply around a mark price
// when no live quote exists. Configured fixed spread wins; otherwise one pip
// scaled by ten points; otherwise a 0.01% fallback on the price itself.
func (m Instrument) SimulatedSpread(price float64) float64 {
	if m.SpreadPoints > 0 && m.PipValue > 0 {
		return m.SpreadPoints * m.PipValue
	}
	if m.PipValue > 0 {
		return m.PipValue * 10
	}
	return price * 0.0001
}
