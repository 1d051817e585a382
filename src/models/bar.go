package models

import "time"

// MBar is one minute of aggregated trade data for an instrument.
type MBar struct {
	Token            string    `json:"token"`
	Minute           time.Time `json:"minute"` // start of the minute, in the session timezone
	Open             float64   `json:"open"`
	High             float64   `json:"high"`
	Low              float64   `json:"low"`
	Close            float64   `json:"close"`
	Volume           float64   `json:"volume"`            // traded this minute
	CumulativeVolume float64   `json:"cumulative_volume"` // provider counter at last update
}

// MHistoricalBar is one candle returned by the historical data API.
type MHistoricalBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}
