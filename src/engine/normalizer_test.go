package engine

import (
	"testing"

	"orb-scanner/src/models"
)

func testNormalizer() *Normalizer {
	return &Normalizer{IsIndex: func(token string) bool { return token == "26000" }}
}

func TestNormalizeScalesPricesOnce(t *testing.T) {
	n := testNormalizer()

	tick, err := n.Normalize(models.MRawTick{
		Token:             "2885",
		LastTradedPrice:   250075,
		OpenPrice:         249000,
		VolumeTradedToday: 12345,
		BestBidPrice:      250070,
		BestAskPrice:      250080,
		HasDepth:          true,
		EventTime:         barTime(10, 0, 0),
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if tick.Price != 2500.75 || tick.Open != 2490.00 {
		t.Errorf("price/open = %.2f/%.2f, want 2500.75/2490.00", tick.Price, tick.Open)
	}
	if !tick.HasBook || tick.Bid != 2500.70 || tick.Ask != 2500.80 {
		t.Errorf("book = %v %.2f/%.2f", tick.HasBook, tick.Bid, tick.Ask)
	}
	if tick.CumulativeVolume != 12345 {
		t.Errorf("volume = %.0f, want 12345", tick.CumulativeVolume)
	}
}

func TestNormalizeDropsIncompleteTicks(t *testing.T) {
	n := testNormalizer()

	cases := []models.MRawTick{
		{Token: "", LastTradedPrice: 100, OpenPrice: 100, VolumeTradedToday: 10},
		{Token: "2885", LastTradedPrice: 0, OpenPrice: 100, VolumeTradedToday: 10},
		{Token: "2885", LastTradedPrice: 100, OpenPrice: 0, VolumeTradedToday: 10},
		{Token: "2885", LastTradedPrice: 100, OpenPrice: 100, VolumeTradedToday: 0},
	}
	for i, raw := range cases {
		if _, err := n.Normalize(raw); err == nil {
			t.Errorf("case %d: expected drop, got tick", i)
		}
	}
}

func TestNormalizeIndexTickNeedsNoVolume(t *testing.T) {
	n := testNormalizer()

	tick, err := n.Normalize(models.MRawTick{
		Token:           "26000",
		LastTradedPrice: 2450000,
		OpenPrice:       2440000,
		EventTime:       barTime(10, 0, 0),
	})
	if err != nil {
		t.Fatalf("index tick dropped: %v", err)
	}
	if tick.Price != 24500.00 {
		t.Errorf("index price = %.2f, want 24500.00", tick.Price)
	}
}

func TestNormalizeMissingBookDefersFilter(t *testing.T) {
	n := testNormalizer()

	tick, err := n.Normalize(models.MRawTick{
		Token:             "2885",
		LastTradedPrice:   10000,
		OpenPrice:         10000,
		VolumeTradedToday: 10,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if tick.HasBook {
		t.Error("tick without depth should not claim a book")
	}
}
