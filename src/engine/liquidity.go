package engine

// ----------------------------------------------------------------------------------
// Liquidity gate. A wide top-of-book spread means the printed price is not
// tradeable; such ticks clear any standing signal and skip evaluation.
// ----------------------------------------------------------------------------------

// SpreadPercent returns (ask - bid) / price * 100. A non-positive price
// yields 0 so the gate defers rather than dividing by zero.
func SpreadPercent(bid, ask, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return (ask - bid) / price * 100.0
}
