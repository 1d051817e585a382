package engine

import (
	"sync/atomic"
	"time"

	"orb-scanner/src/models"
)

// Metrics are plain atomic counters; cheap enough to bump on the hot path.
type Metrics struct {
	TicksRejected   atomic.Int64
	BarsBuilt       atomic.Int64
	RangesClosed    atomic.Int64
	SignalsEmitted  atomic.Int64
	SignalsCleared  atomic.Int64
	VolumeAnomalies atomic.Int64
	Broadcasts      atomic.Int64

	startedAt time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{startedAt: time.Now()}
}

// Snapshot merges the counters with the queue's receive/drop totals.
func (m *Metrics) Snapshot(received, dropped int64) models.MPipelineMetrics {
	return models.MPipelineMetrics{
		TicksReceived:   received,
		TicksDropped:    dropped,
		TicksRejected:   m.TicksRejected.Load(),
		BarsBuilt:       m.BarsBuilt.Load(),
		RangesClosed:    m.RangesClosed.Load(),
		SignalsEmitted:  m.SignalsEmitted.Load(),
		SignalsCleared:  m.SignalsCleared.Load(),
		VolumeAnomalies: m.VolumeAnomalies.Load(),
		Broadcasts:      m.Broadcasts.Load(),
		StartedAt:       m.startedAt,
	}
}
