package engine

import (
	"sync"
	"time"

	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// BarStore owns every instrument's minute-bar series for the current session.
// The pipeline consumer is the only writer; readers get copies.
// ----------------------------------------------------------------------------------

type barSeries struct {
	bars          []models.MBar
	byMinute      map[time.Time]int
	lastCumVolume float64
}

type BarStore struct {
	mu     sync.RWMutex
	loc    *time.Location
	series map[string]*barSeries
}

func NewBarStore(loc *time.Location) *BarStore {
	return &BarStore{
		loc:    loc,
		series: make(map[string]*barSeries),
	}
}

// -----------------------------------------------------------------------------

// Apply folds one tick into the instrument's bar series. Per-minute volume is
// the delta of the provider's cumulative counter, clamped at zero when the
// counter goes backwards (anomaly reports that). Duplicate ticks with the
// same cumulative volume contribute zero volume but still move the close.
// Ticks for minutes older than any known bar are ignored.
func (s *BarStore) Apply(token string, price, cumulativeVolume float64, eventTime time.Time) (newBar bool, anomaly bool) {
	minute := eventTime.In(s.loc).Truncate(time.Minute)

	s.mu.Lock()
	defer s.mu.Unlock()

	ser, ok := s.series[token]
	if !ok {
		ser = &barSeries{byMinute: make(map[time.Time]int)}
		s.series[token] = ser
	}

	delta := cumulativeVolume - ser.lastCumVolume
	if delta < 0 {
		delta = 0
		anomaly = true
	}
	ser.lastCumVolume = cumulativeVolume

	if idx, exists := ser.byMinute[minute]; exists {
		bar := ser.bars[idx]
		if price > bar.High {
			bar.High = price
		}
		if price < bar.Low {
			bar.Low = price
		}
		bar.Close = price
		bar.Volume += delta
		bar.CumulativeVolume = cumulativeVolume
		ser.bars[idx] = bar
		return false, anomaly
	}

	if n := len(ser.bars); n > 0 && minute.Before(ser.bars[n-1].Minute) {
		// Late tick for a minute we never opened. Keep the series ordered.
		return false, anomaly
	}

	ser.bars = append(ser.bars, models.MBar{
		Token:            token,
		Minute:           minute,
		Open:             price,
		High:             price,
		Low:              price,
		Close:            price,
		Volume:           delta,
		CumulativeVolume: cumulativeVolume,
	})
	ser.byMinute[minute] = len(ser.bars) - 1
	return true, anomaly
}

// -----------------------------------------------------------------------------

// Bars returns a copy of the instrument's series, oldest first.
func (s *BarStore) Bars(token string) []models.MBar {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ser, ok := s.series[token]
	if !ok {
		return nil
	}
	out := make([]models.MBar, len(ser.bars))
	copy(out, ser.bars)
	return out
}

func (s *BarStore) BarCount(token string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ser, ok := s.series[token]; ok {
		return len(ser.bars)
	}
	return 0
}

// Reset drops every series. Called on session-date change.
func (s *BarStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = make(map[string]*barSeries)
}
