package models

import "time"

// MWatchlistUpdate is the payload broadcast to websocket clients on the
// publish cadence: signals grouped by bias, plus tracked index states.
type MWatchlistUpdate struct {
	Type    string        `json:"type"`
	At      time.Time     `json:"at"`
	Bullish []MSignal     `json:"bullish"`
	Bearish []MSignal     `json:"bearish"`
	Indices []MIndexState `json:"indices"`
}

// MInstrumentDetail is the per-instrument drill-down served on request:
// current range, signal, bar count and the last two warmed-up indicator
// rows (oldest first).
type MInstrumentDetail struct {
	Token       string          `json:"token"`
	Symbol      string          `json:"symbol"`
	Bias        Bias            `json:"bias"`
	RangeHigh   float64         `json:"range_high"`
	RangeLow    float64         `json:"range_low"`
	RangeClosed bool            `json:"range_closed"`
	Synthetic   bool            `json:"synthetic_range"`
	BarCount    int             `json:"bar_count"`
	Signal      *MSignal        `json:"signal,omitempty"`
	Indicators  []MIndicatorRow `json:"indicators,omitempty"`
}

// MIndicatorRow is one aligned row of indicator values for a minute.
type MIndicatorRow struct {
	Minute     time.Time `json:"minute"`
	Close      float64   `json:"close"`
	RSI        float64   `json:"rsi"`
	MACD       float64   `json:"macd"`
	MACDSignal float64   `json:"macd_signal"`
	VWAP       float64   `json:"vwap"`
}
