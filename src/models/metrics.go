package models

import "time"

// MPipelineMetrics is the point-in-time counters snapshot exposed on the
// metrics endpoint.
type MPipelineMetrics struct {
	TicksReceived   int64     `json:"ticks_received"`
	TicksDropped    int64     `json:"ticks_dropped"`    // queue full, newest discarded
	TicksRejected   int64     `json:"ticks_rejected"`   // failed normalization
	BarsBuilt       int64     `json:"bars_built"`       // minute bars opened
	RangesClosed    int64     `json:"ranges_closed"`    // opening ranges sealed
	SignalsEmitted  int64     `json:"signals_emitted"`  // breakout signals set
	SignalsCleared  int64     `json:"signals_cleared"`  // liquidity or non-breakout clears
	VolumeAnomalies int64     `json:"volume_anomalies"` // cumulative volume went backwards
	Broadcasts      int64     `json:"broadcasts"`
	StartedAt       time.Time `json:"started_at"`
}
