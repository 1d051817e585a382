package engine

import (
	"testing"
	"time"
)

var testLoc = time.FixedZone("IST", 5*3600+1800)

func barTime(h, m, s int) time.Time {
	return time.Date(2025, 7, 14, h, m, s, 0, testLoc)
}

func TestBarOHLCInvariants(t *testing.T) {
	store := NewBarStore(testLoc)

	prices := []float64{100.0, 101.5, 99.2, 100.8, 100.1}
	cum := 0.0
	for i, p := range prices {
		cum += 500
		store.Apply("X", p, cum, barTime(10, 5, i*10))
	}

	bars := store.Bars("X")
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	b := bars[0]
	if b.Open != 100.0 || b.Close != 100.1 {
		t.Errorf("open/close = %.2f/%.2f, want 100.00/100.10", b.Open, b.Close)
	}
	if b.High != 101.5 || b.Low != 99.2 {
		t.Errorf("high/low = %.2f/%.2f, want 101.50/99.20", b.High, b.Low)
	}
	if b.Low > b.Open || b.Open > b.High || b.Low > b.Close || b.Close > b.High {
		t.Errorf("OHLC invariant violated: %+v", b)
	}
	if b.Volume != 2500 {
		t.Errorf("volume = %.0f, want 2500", b.Volume)
	}
}

func TestBarVolumeClampOnCounterReset(t *testing.T) {
	store := NewBarStore(testLoc)

	store.Apply("X", 100, 5000, barTime(10, 5, 0))
	_, anomaly := store.Apply("X", 101, 1000, barTime(10, 5, 30))
	if !anomaly {
		t.Fatal("expected anomaly when cumulative volume decreases")
	}

	b := store.Bars("X")[0]
	if b.Volume < 0 {
		t.Errorf("volume went negative: %.0f", b.Volume)
	}
	if b.Volume != 5000 {
		t.Errorf("volume = %.0f, want 5000 (delta clamped to 0)", b.Volume)
	}

	// Counter resumes from the new baseline.
	store.Apply("X", 102, 1400, barTime(10, 5, 45))
	b = store.Bars("X")[0]
	if b.Volume != 5400 {
		t.Errorf("volume = %.0f, want 5400", b.Volume)
	}
}

func TestBarDuplicateTickIsIdempotentForVolume(t *testing.T) {
	store := NewBarStore(testLoc)

	store.Apply("X", 100, 1000, barTime(10, 5, 0))
	store.Apply("X", 100.5, 1000, barTime(10, 5, 10))

	b := store.Bars("X")[0]
	if b.Volume != 1000 {
		t.Errorf("volume = %.0f, want 1000 (duplicate contributes zero)", b.Volume)
	}
	if b.Close != 100.5 {
		t.Errorf("close = %.2f, want 100.50 (last tick wins)", b.Close)
	}
}

func TestBarNewMinuteOpensNewBar(t *testing.T) {
	store := NewBarStore(testLoc)

	store.Apply("X", 100, 1000, barTime(10, 5, 50))
	newBar, _ := store.Apply("X", 100.2, 1500, barTime(10, 6, 5))
	if !newBar {
		t.Fatal("expected a new bar for the next minute")
	}

	bars := store.Bars("X")
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[1].Open != 100.2 || bars[1].Volume != 500 {
		t.Errorf("second bar = %+v, want open 100.20 volume 500", bars[1])
	}
	if !bars[0].Minute.Before(bars[1].Minute) {
		t.Error("bars out of order")
	}
}

func TestBarLateTickForUnknownOldMinuteIgnored(t *testing.T) {
	store := NewBarStore(testLoc)

	store.Apply("X", 100, 1000, barTime(10, 6, 0))
	store.Apply("X", 99, 1200, barTime(10, 4, 0))

	if n := store.BarCount("X"); n != 1 {
		t.Errorf("bar count = %d, want 1", n)
	}
}

func TestBarStoreIsolatesInstruments(t *testing.T) {
	store := NewBarStore(testLoc)

	store.Apply("A", 100, 1000, barTime(10, 5, 0))
	store.Apply("B", 200, 9000, barTime(10, 5, 0))

	if store.Bars("A")[0].Close == store.Bars("B")[0].Close {
		t.Error("instrument series leaked into each other")
	}
	if store.Bars("A")[0].Volume != 1000 || store.Bars("B")[0].Volume != 9000 {
		t.Error("volume deltas crossed instruments")
	}
}
