package models

import "time"

// MRawTick is one decoded feed packet, prices still in the provider's
// fixed-point representation (hundredths of a rupee).
type MRawTick struct {
	Token             string    `json:"token"`
	LastTradedPrice   int64     `json:"last_traded_price"`
	OpenPrice         int64     `json:"open_price"`
	VolumeTradedToday int64     `json:"volume_traded_today"`
	BestBidPrice      int64     `json:"best_bid_price"`
	BestAskPrice      int64     `json:"best_ask_price"`
	HasDepth          bool      `json:"has_depth"`
	EventTime         time.Time `json:"event_time"`
}

// MTick is the canonical tick after normalization. Prices are unscaled
// floats; the /100 conversion happens exactly once, in the normalizer.
type MTick struct {
	Token            string
	Price            float64
	Open             float64
	CumulativeVolume float64
	Bid              float64
	Ask              float64
	HasBook          bool
	EventTime        time.Time
}
