package engine

import (
	"math"
	"testing"
	"time"

	"orb-scanner/src/analysis"
	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

func newTestLogger() *logger.Logger {
	return logger.NewLogger("error", "")
}

type stubScorer struct{ score int }

func (s stubScorer) Confirmation(bars []models.MBar, bias models.Bias) analysis.ScoreResult {
	return analysis.ScoreResult{Score: s.score, Reason: "stub"}
}

func (s stubScorer) RecentRows(bars []models.MBar, n int) []models.MIndicatorRow { return nil }

// -----------------------------------------------------------------------------

func newTestEngine(t *testing.T, scorer ConfirmationScorer) *ScannerEngine {
	t.Helper()

	cfg := models.MScannerConfig{
		Timezone:           "Asia/Kolkata",
		OpeningRangeStart:  "09:15",
		OpeningRangeEnd:    "09:30",
		SpreadThresholdPct: 0.5,
		SyntheticBandPct:   0.2,
		MinBarsForScore:    30,
		TopN:               20,
	}

	queue := NewTickQueue(128)
	bars := NewBarStore(testLoc)
	ranges, err := NewRangeTracker(testLoc, cfg.OpeningRangeStart, cfg.OpeningRangeEnd,
		cfg.SyntheticBandPct, nil, nil)
	if err != nil {
		t.Fatalf("NewRangeTracker: %v", err)
	}
	book := NewSignalBook(cfg.TopN)

	watchlist := map[string]models.MInstrument{
		"2885":  {Symbol: "RELIANCE-EQ", Bias: models.BiasBullish},
		"11536": {Symbol: "TCS-EQ", Bias: models.BiasBearish},
	}
	indexNames := map[string]string{"26000": "NIFTY 50"}

	return NewScannerEngine(cfg, testLoc, queue, bars, ranges, book, scorer,
		NewMetrics(), watchlist, indexNames, newTestLogger())
}

func equityTick(token string, pricePaise int64, volume int64, at time.Time) models.MRawTick {
	return models.MRawTick{
		Token:             token,
		LastTradedPrice:   pricePaise,
		OpenPrice:         10000,
		VolumeTradedToday: volume,
		EventTime:         at,
	}
}

// -----------------------------------------------------------------------------

func TestBreakoutScoreIsBasePlusConfirmation(t *testing.T) {
	e := newTestEngine(t, stubScorer{score: 100})

	// Window ticks seed and widen the range to 101.50 / 100.00.
	e.ProcessRaw(equityTick("2885", 10000, 1000, barTime(9, 16, 0)))
	e.ProcessRaw(equityTick("2885", 10150, 2000, barTime(9, 20, 0)))

	// Post-window tick above the range high breaks out.
	e.ProcessRaw(equityTick("2885", 10200, 3000, barTime(9, 31, 0)))

	got, ok := e.book.Get("2885")
	if !ok {
		t.Fatal("expected a signal after the breakout")
	}
	if got.Score != 200 {
		t.Errorf("score = %d, want 200 (100 breakout + 100 confirmation)", got.Score)
	}
	if got.Price != 102.00 || got.Bias != models.BiasBullish || got.Symbol != "RELIANCE-EQ" {
		t.Errorf("signal = %+v", got)
	}
}

func TestInWindowTicksNeverSignal(t *testing.T) {
	e := newTestEngine(t, stubScorer{score: 100})

	// Even a price above the collected high must not signal inside the window.
	e.ProcessRaw(equityTick("2885", 10000, 1000, barTime(9, 16, 0)))
	e.ProcessRaw(equityTick("2885", 10500, 2000, barTime(9, 25, 0)))

	if _, ok := e.book.Get("2885"); ok {
		t.Fatal("no signal may be emitted while the window is still collecting")
	}
}

func TestWideSpreadClearsExistingSignal(t *testing.T) {
	e := newTestEngine(t, stubScorer{score: 100})

	e.ProcessRaw(equityTick("2885", 10000, 1000, barTime(9, 16, 0)))
	e.ProcessRaw(equityTick("2885", 10150, 2000, barTime(9, 20, 0)))
	e.ProcessRaw(equityTick("2885", 10200, 3000, barTime(9, 31, 0)))
	if _, ok := e.book.Get("2885"); !ok {
		t.Fatal("setup: breakout signal missing")
	}

	// Qualifying breakout price, but the book is 1.2% wide.
	wide := equityTick("2885", 10200, 4000, barTime(9, 32, 0))
	wide.BestBidPrice = 10140
	wide.BestAskPrice = 10263
	wide.HasDepth = true
	e.ProcessRaw(wide)

	if _, ok := e.book.Get("2885"); ok {
		t.Fatal("wide spread must clear the standing signal")
	}
	if n := e.metrics.SignalsCleared.Load(); n != 1 {
		t.Errorf("SignalsCleared = %d, want 1", n)
	}

	// A later tight-spread breakout tick re-qualifies the instrument.
	tight := equityTick("2885", 10210, 5000, barTime(9, 33, 0))
	tight.BestBidPrice = 10205
	tight.BestAskPrice = 10215
	tight.HasDepth = true
	e.ProcessRaw(tight)

	if _, ok := e.book.Get("2885"); !ok {
		t.Fatal("signal should return on the next acceptable tick")
	}
}

func TestNonBreakoutClearsSignal(t *testing.T) {
	e := newTestEngine(t, stubScorer{score: 100})

	e.ProcessRaw(equityTick("2885", 10000, 1000, barTime(9, 16, 0)))
	e.ProcessRaw(equityTick("2885", 10150, 2000, barTime(9, 20, 0)))
	e.ProcessRaw(equityTick("2885", 10200, 3000, barTime(9, 31, 0)))

	// Price falls back inside the range.
	e.ProcessRaw(equityTick("2885", 10100, 4000, barTime(9, 33, 0)))
	if _, ok := e.book.Get("2885"); ok {
		t.Fatal("price back inside the range must clear the signal")
	}
}

func TestFewBarsMeansConfirmationZero(t *testing.T) {
	// Real scorer with the 30-bar floor; the session below builds only 3 bars.
	e := newTestEngine(t, analysis.NewScorer(30))

	e.ProcessRaw(equityTick("2885", 10000, 1000, barTime(9, 16, 0)))
	e.ProcessRaw(equityTick("2885", 10150, 2000, barTime(9, 20, 0)))
	e.ProcessRaw(equityTick("2885", 10200, 3000, barTime(9, 31, 0)))

	got, ok := e.book.Get("2885")
	if !ok {
		t.Fatal("breakout should still signal with zero confirmation")
	}
	if got.Score != 100 {
		t.Errorf("score = %d, want exactly 100 with insufficient history", got.Score)
	}
}

func TestBearishBreakoutBelowRangeLow(t *testing.T) {
	e := newTestEngine(t, stubScorer{score: 40})

	e.ProcessRaw(equityTick("11536", 10000, 1000, barTime(9, 16, 0)))
	e.ProcessRaw(equityTick("11536", 9950, 2000, barTime(9, 20, 0)))

	// Above the low: no breakout for a bearish bias.
	e.ProcessRaw(equityTick("11536", 9980, 3000, barTime(9, 31, 0)))
	if _, ok := e.book.Get("11536"); ok {
		t.Fatal("bearish instrument must not signal above the range low")
	}

	e.ProcessRaw(equityTick("11536", 9900, 4000, barTime(9, 32, 0)))
	got, ok := e.book.Get("11536")
	if !ok {
		t.Fatal("expected bearish breakout signal")
	}
	if got.Score != 140 || got.Bias != models.BiasBearish {
		t.Errorf("signal = %+v, want score 140 bearish", got)
	}
}

func TestIndexTicksBypassPipeline(t *testing.T) {
	e := newTestEngine(t, stubScorer{score: 0})

	e.ProcessRaw(models.MRawTick{
		Token:           "26000",
		LastTradedPrice: 2475000,
		OpenPrice:       2450000,
		EventTime:       barTime(9, 20, 0), // inside the window, irrelevant for indices
	})

	_, _, indices := e.book.Snapshot()
	if len(indices) != 1 {
		t.Fatalf("indices = %d, want 1", len(indices))
	}
	idx := indices[0]
	if idx.Name != "NIFTY 50" || idx.LTP != 24750.00 {
		t.Errorf("index state = %+v", idx)
	}
	if idx.Change != 250.00 {
		t.Errorf("change = %.2f, want 250.00", idx.Change)
	}
	if pct := idx.PercentChange; pct < 1.02 || pct > 1.03 {
		t.Errorf("percent change = %.4f, want ~1.0204", pct)
	}
}

func TestUntrackedAndMalformedTicks(t *testing.T) {
	e := newTestEngine(t, stubScorer{score: 0})

	e.ProcessRaw(equityTick("99999", 10000, 1000, barTime(9, 40, 0)))
	if e.bars.BarCount("99999") != 0 {
		t.Error("untracked instrument must not accumulate bars")
	}

	e.ProcessRaw(models.MRawTick{Token: "2885", EventTime: barTime(9, 40, 0)})
	if n := e.metrics.TicksRejected.Load(); n != 1 {
		t.Errorf("TicksRejected = %d, want 1", n)
	}
}

func TestSessionRolloverResetsState(t *testing.T) {
	e := newTestEngine(t, stubScorer{score: 100})

	e.ProcessRaw(equityTick("2885", 10000, 1000, barTime(9, 16, 0)))
	e.ProcessRaw(equityTick("2885", 10150, 2000, barTime(9, 20, 0)))
	e.ProcessRaw(equityTick("2885", 10200, 3000, barTime(9, 31, 0)))
	if _, ok := e.book.Get("2885"); !ok {
		t.Fatal("setup: breakout signal missing")
	}

	nextDay := barTime(9, 16, 0).AddDate(0, 0, 1)
	e.ProcessRaw(equityTick("2885", 10050, 500, nextDay))

	if _, ok := e.book.Get("2885"); ok {
		t.Error("signals must not survive a session rollover")
	}
	if n := e.bars.BarCount("2885"); n != 1 {
		t.Errorf("bar count after rollover = %d, want 1", n)
	}
}

func TestDetailInsufficientData(t *testing.T) {
	e := newTestEngine(t, stubScorer{score: 0})

	e.ProcessRaw(equityTick("2885", 10000, 1000, barTime(9, 40, 0)))
	if _, err := e.Detail("2885"); err != ErrInsufficientData {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}

	e.ProcessRaw(equityTick("2885", 10010, 2000, barTime(9, 41, 0)))
	detail, err := e.Detail("2885")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if detail.BarCount != 2 || detail.Symbol != "RELIANCE-EQ" {
		t.Errorf("detail = %+v", detail)
	}
}

func TestDetailCarriesLastTwoIndicatorRows(t *testing.T) {
	e := newTestEngine(t, analysis.NewScorer(30))

	// Enough bars for MACD signal warm-up plus a few fully valid rows.
	start := barTime(9, 40, 0)
	for i := 0; i < 40; i++ {
		price := int64(10000 + 10*i)
		e.ProcessRaw(equityTick("2885", price, int64(1000*(i+1)), start.Add(time.Duration(i)*time.Minute)))
	}

	detail, err := e.Detail("2885")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if len(detail.Indicators) != 2 {
		t.Fatalf("indicator rows = %d, want the last two", len(detail.Indicators))
	}
	prev, last := detail.Indicators[0], detail.Indicators[1]
	if !prev.Minute.Before(last.Minute) {
		t.Errorf("rows out of order: %v then %v", prev.Minute, last.Minute)
	}
	if last.Close != 103.90 {
		t.Errorf("last close = %v, want 103.90", last.Close)
	}
	for i, row := range detail.Indicators {
		if math.IsNaN(row.RSI) || math.IsNaN(row.MACD) || math.IsNaN(row.MACDSignal) {
			t.Errorf("row %d carries a warm-up value: %+v", i, row)
		}
	}
}
