package models

import "time"

// MSignal is the current best-known trade signal for an instrument.
// Score is 100 for the breakout plus the 0-100 confirmation component.
type MSignal struct {
	Token  string    `json:"token"`
	Symbol string    `json:"symbol"`
	Bias   Bias      `json:"bias"`
	Score  int       `json:"score"`
	Price  float64   `json:"price"`
	At     time.Time `json:"at"`
}

// MIndexState is the live state of a tracked index. Index ticks bypass
// the range/breakout/liquidity logic entirely.
type MIndexState struct {
	Token         string  `json:"token"`
	Name          string  `json:"name"`
	LTP           float64 `json:"ltp"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
}
