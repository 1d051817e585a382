package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"orb-scanner/src/interfaces"
	"orb-scanner/src/logger"
)

// ----------------------------------------------------------------------------------
// Opening range tracking. Per instrument the range moves through
// NotStarted -> Collecting -> Closed; once closed the band never changes.
// An instrument that missed the window gets one retroactive reconstruction
// from historical bars, with a synthetic band around the day's open as the
// fallback so it is never left without a reference.
// ----------------------------------------------------------------------------------

type RangeState int

const (
	RangeNotStarted RangeState = iota
	RangeCollecting
	RangeClosed
)

type OpeningRange struct {
	State     RangeState
	High      float64
	Low       float64
	Synthetic bool
	pending   bool // closed, waiting on the retroactive fetch
}

// RangeStatus is what the pipeline needs to know after observing a tick.
type RangeStatus struct {
	InWindow   bool
	Ready      bool
	JustClosed bool
	High       float64
	Low        float64
}

type RangeTracker struct {
	mu     sync.Mutex
	loc    *time.Location
	ranges map[string]*OpeningRange

	startMinute int // minutes since midnight, session timezone
	endMinute   int

	syntheticBandPct float64
	history          interfaces.IHistoryProvider
	log              *logger.Logger

	fetches sync.WaitGroup
}

// NewRangeTracker parses the "HH:MM" window bounds. history may be nil, in
// which case a missed window goes straight to the synthetic band.
func NewRangeTracker(loc *time.Location, startHM, endHM string, syntheticBandPct float64,
	history interfaces.IHistoryProvider, log *logger.Logger) (*RangeTracker, error) {

	start, err := parseMinuteOfDay(startHM)
	if err != nil {
		return nil, fmt.Errorf("opening range start: %w", err)
	}
	end, err := parseMinuteOfDay(endHM)
	if err != nil {
		return nil, fmt.Errorf("opening range end: %w", err)
	}
	return &RangeTracker{
		loc:              loc,
		ranges:           make(map[string]*OpeningRange),
		startMinute:      start,
		endMinute:        end,
		syntheticBandPct: syntheticBandPct,
		history:          history,
		log:              log,
	}, nil
}

func parseMinuteOfDay(hm string) (int, error) {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// -----------------------------------------------------------------------------

// Observe advances the instrument's range state for one tick. In-window ticks
// only widen the band; the caller stops evaluating there. After the window,
// Ready reports whether a closed band is installed yet.
func (rt *RangeTracker) Observe(token string, price, dayOpen float64, eventTime time.Time) RangeStatus {
	local := eventTime.In(rt.loc)
	minuteOfDay := local.Hour()*60 + local.Minute()

	rt.mu.Lock()
	defer rt.mu.Unlock()

	r, ok := rt.ranges[token]
	if !ok {
		r = &OpeningRange{State: RangeNotStarted}
		rt.ranges[token] = r
	}

	switch {
	case minuteOfDay < rt.startMinute:
		return RangeStatus{}

	case minuteOfDay < rt.endMinute:
		if r.State == RangeClosed {
			// Late tick after a retroactive close. The band stays fixed.
			return RangeStatus{Ready: !r.pending, High: r.High, Low: r.Low}
		}
		if r.State == RangeNotStarted {
			r.State = RangeCollecting
			r.High = price
			r.Low = price
		} else {
			if price > r.High {
				r.High = price
			}
			if price < r.Low {
				r.Low = price
			}
		}
		return RangeStatus{InWindow: true}

	default:
		justClosed := false
		switch r.State {
		case RangeCollecting:
			r.State = RangeClosed
			justClosed = true
		case RangeNotStarted:
			r.State = RangeClosed
			r.pending = true
			justClosed = true
			rt.fetches.Add(1)
			go func(day time.Time) {
				defer rt.fetches.Done()
				rt.reconstruct(token, dayOpen, day)
			}(local)
		}
		return RangeStatus{Ready: !r.pending, JustClosed: justClosed, High: r.High, Low: r.Low}
	}
}

// -----------------------------------------------------------------------------

// reconstruct fetches the window's minute bars and installs the band once.
// Runs off the consumer goroutine; the instrument stays ineligible until it
// finishes.
func (rt *RangeTracker) reconstruct(token string, dayOpen float64, day time.Time) {
	y, m, d := day.In(rt.loc).Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, rt.loc)
	from := midnight.Add(time.Duration(rt.startMinute) * time.Minute)
	to := midnight.Add(time.Duration(rt.endMinute) * time.Minute)

	high, low, ok := rt.fetchWindow(token, from, to)
	synthetic := false
	if !ok {
		band := dayOpen * rt.syntheticBandPct / 100.0
		high = dayOpen + band
		low = dayOpen - band
		synthetic = true
		if rt.log != nil {
			rt.log.Warning("range reconstruction failed for %s, using synthetic band %.2f-%.2f", token, low, high)
		}
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	r, okr := rt.ranges[token]
	if !okr || !r.pending {
		return
	}
	r.High = high
	r.Low = low
	r.Synthetic = synthetic
	r.pending = false
}

func (rt *RangeTracker) fetchWindow(token string, from, to time.Time) (high, low float64, ok bool) {
	if rt.history == nil {
		return 0, 0, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const layout = "2006-01-02 15:04"
	bars, err := rt.history.FetchMinuteBars(ctx, token, from.Format(layout), to.Format(layout))
	if err != nil || len(bars) == 0 {
		if err != nil && rt.log != nil {
			rt.log.Warning("historical fetch for %s failed: %v", token, err)
		}
		return 0, 0, false
	}

	high = bars[0].High
	low = bars[0].Low
	for _, b := range bars[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, true
}

// -----------------------------------------------------------------------------

// Get returns the instrument's current range for diagnostics.
func (rt *RangeTracker) Get(token string) (OpeningRange, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	r, ok := rt.ranges[token]
	if !ok {
		return OpeningRange{}, false
	}
	return *r, true
}

// Ready reports whether the range is closed with a usable band.
func (r OpeningRange) Ready() bool {
	return r.State == RangeClosed && !r.pending
}

// Reset drops every range. Called on session-date change.
func (rt *RangeTracker) Reset() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.ranges = make(map[string]*OpeningRange)
}

// WaitForFetches blocks until in-flight reconstructions finish. Used during
// shutdown and by tests.
func (rt *RangeTracker) WaitForFetches() {
	rt.fetches.Wait()
}
