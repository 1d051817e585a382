package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"orb-scanner/src/interfaces"
	"orb-scanner/src/models"
)

type stubHistory struct {
	bars  []models.MHistoricalBar
	err   error
	calls atomic.Int32
}

func (s *stubHistory) FetchMinuteBars(ctx context.Context, token, from, to string) ([]models.MHistoricalBar, error) {
	s.calls.Add(1)
	return s.bars, s.err
}

func (s *stubHistory) FetchDailyBars(ctx context.Context, token, from, to string) ([]models.MHistoricalBar, error) {
	return nil, errors.New("not used")
}

func newTestTracker(t *testing.T, history *stubHistory) *RangeTracker {
	t.Helper()
	var h interfaces.IHistoryProvider
	if history != nil {
		h = history
	}
	rt, err := NewRangeTracker(testLoc, "09:15", "09:30", 0.2, h, nil)
	if err != nil {
		t.Fatalf("NewRangeTracker: %v", err)
	}
	return rt
}

// -----------------------------------------------------------------------------

func TestRangeCollectsAndCloses(t *testing.T) {
	rt := newTestTracker(t, nil)

	st := rt.Observe("X", 100.0, 100.0, barTime(9, 16, 0))
	if !st.InWindow {
		t.Fatal("09:16 tick should be in-window")
	}
	st = rt.Observe("X", 101.5, 100.0, barTime(9, 20, 0))
	if !st.InWindow {
		t.Fatal("09:20 tick should be in-window")
	}
	st = rt.Observe("X", 99.0, 100.0, barTime(9, 25, 0))
	if !st.InWindow {
		t.Fatal("09:25 tick should be in-window")
	}

	st = rt.Observe("X", 102.0, 100.0, barTime(9, 31, 0))
	if st.InWindow || !st.Ready || !st.JustClosed {
		t.Fatalf("09:31 tick should close the range: %+v", st)
	}
	if st.High != 101.5 || st.Low != 99.0 {
		t.Errorf("range = %.2f/%.2f, want 101.50/99.00", st.High, st.Low)
	}
}

func TestRangeClosedIsImmutable(t *testing.T) {
	rt := newTestTracker(t, nil)

	rt.Observe("X", 100.0, 100.0, barTime(9, 16, 0))
	rt.Observe("X", 101.5, 100.0, barTime(9, 20, 0))
	rt.Observe("X", 102.0, 100.0, barTime(9, 31, 0))

	// Prices well outside the band must not move it.
	rt.Observe("X", 150.0, 100.0, barTime(9, 45, 0))
	st := rt.Observe("X", 50.0, 100.0, barTime(10, 0, 0))
	if st.High != 101.5 || st.Low != 100.0 {
		t.Errorf("closed range moved to %.2f/%.2f", st.High, st.Low)
	}
}

func TestRangePreWindowTicksIgnored(t *testing.T) {
	rt := newTestTracker(t, nil)

	st := rt.Observe("X", 95.0, 100.0, barTime(9, 10, 0))
	if st.InWindow || st.Ready {
		t.Fatalf("pre-window tick should do nothing: %+v", st)
	}

	st = rt.Observe("X", 100.0, 100.0, barTime(9, 16, 0))
	if !st.InWindow {
		t.Fatal("window open tick should start collecting")
	}
	if r, _ := rt.Get("X"); r.High != 100.0 || r.Low != 100.0 {
		t.Errorf("range seeded from pre-window price: %.2f/%.2f", r.High, r.Low)
	}
}

// -----------------------------------------------------------------------------

func TestRangeRetroactiveReconstruction(t *testing.T) {
	history := &stubHistory{bars: []models.MHistoricalBar{
		{High: 103.0, Low: 98.5},
		{High: 104.2, Low: 99.0},
		{High: 102.0, Low: 97.8},
	}}
	rt := newTestTracker(t, history)

	// First tick arrives after the window: NotStarted -> Closed, pending.
	st := rt.Observe("X", 105.0, 100.0, barTime(10, 0, 0))
	if st.Ready {
		t.Fatal("range should not be ready while the fetch is in flight")
	}
	rt.WaitForFetches()

	st = rt.Observe("X", 105.0, 100.0, barTime(10, 0, 10))
	if !st.Ready {
		t.Fatal("range should be ready after the fetch resolves")
	}
	if st.High != 104.2 || st.Low != 97.8 {
		t.Errorf("reconstructed range = %.2f/%.2f, want 104.20/97.80", st.High, st.Low)
	}

	// Reconstruction runs once, further post-window ticks are no-ops.
	rt.Observe("X", 105.0, 100.0, barTime(10, 1, 0))
	rt.WaitForFetches()
	if n := history.calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
}

func TestRangeSyntheticFallbackOnFetchFailure(t *testing.T) {
	history := &stubHistory{err: errors.New("rate limited")}
	rt := newTestTracker(t, history)

	rt.Observe("X", 105.0, 200.0, barTime(10, 0, 0))
	rt.WaitForFetches()

	r, ok := rt.Get("X")
	if !ok || !r.Ready() {
		t.Fatal("instrument left without a usable range")
	}
	if !r.Synthetic {
		t.Fatal("expected synthetic band")
	}
	// 0.2% band around the day's open of 200.00.
	if r.High != 200.4 || r.Low != 199.6 {
		t.Errorf("synthetic band = %.2f/%.2f, want 200.40/199.60", r.High, r.Low)
	}
}

func TestRangeResetDropsState(t *testing.T) {
	rt := newTestTracker(t, nil)

	rt.Observe("X", 100.0, 100.0, barTime(9, 16, 0))
	rt.Reset()
	if _, ok := rt.Get("X"); ok {
		t.Fatal("reset should drop all ranges")
	}
}

func TestRangeObserveIgnoresTimeOfDayDrift(t *testing.T) {
	rt := newTestTracker(t, nil)

	// UTC timestamp for 09:20 IST must land in the window.
	utc := time.Date(2025, 7, 14, 3, 50, 0, 0, time.UTC)
	st := rt.Observe("X", 100.0, 100.0, utc)
	if !st.InWindow {
		t.Fatal("event time should be evaluated in the session timezone")
	}
}
