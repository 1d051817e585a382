package models

// Bias is the pre-assigned directional expectation for an instrument,
// produced by the pre-market watchlist builder.
type Bias string

const (
	BiasBullish Bias = "Bullish"
	BiasBearish Bias = "Bearish"
)

// MInstrument is one entry of the daily watchlist.
type MInstrument struct {
	Symbol string `json:"symbol"`
	Bias   Bias   `json:"bias"`
}
