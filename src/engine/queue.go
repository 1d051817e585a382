package engine

import (
	"sync/atomic"

	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// TickQueue is the bounded hand-off between feed goroutines and the single
// pipeline consumer. When full, the incoming (newest) tick is discarded:
// during a burst the already-queued ticks carry the fresher bars anyway, and
// the next tick for the same instrument re-delivers the cumulative volume.
// ----------------------------------------------------------------------------------

type TickQueue struct {
	ch       chan models.MRawTick
	received atomic.Int64
	dropped  atomic.Int64
}

func NewTickQueue(size int) *TickQueue {
	return &TickQueue{ch: make(chan models.MRawTick, size)}
}

// Offer never blocks. Returns false when the queue was full and the tick was
// dropped.
func (q *TickQueue) Offer(tick models.MRawTick) bool {
	q.received.Add(1)
	select {
	case q.ch <- tick:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// C is the consumer side. Exactly one goroutine drains it.
func (q *TickQueue) C() <-chan models.MRawTick {
	return q.ch
}

func (q *TickQueue) Received() int64 { return q.received.Load() }
func (q *TickQueue) Dropped() int64  { return q.dropped.Load() }
func (q *TickQueue) Depth() int      { return len(q.ch) }
