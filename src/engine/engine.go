package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"orb-scanner/src/analysis"
	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// ScannerEngine drains the tick queue on a single goroutine and owns every
// piece of pipeline state. One bad instrument can lose its own signal, never
// anyone else's; nothing thrown here escapes the consumer loop.
// ----------------------------------------------------------------------------------

const breakoutBaseScore = 100

// ErrInsufficientData is returned by Detail when an instrument has too little
// bar history for a meaningful diagnostic view.
var ErrInsufficientData = errors.New("insufficient data")

// ConfirmationScorer is the indicator stage; tests substitute a fixed one.
type ConfirmationScorer interface {
	Confirmation(bars []models.MBar, bias models.Bias) analysis.ScoreResult
	RecentRows(bars []models.MBar, n int) []models.MIndicatorRow
}

type ScannerEngine struct {
	cfg models.MScannerConfig
	log *logger.Logger
	loc *time.Location

	queue      *TickQueue
	normalizer *Normalizer
	bars       *BarStore
	ranges     *RangeTracker
	book       *SignalBook
	scorer     ConfirmationScorer
	metrics    *Metrics

	universe   map[string]models.MInstrument // token -> watchlist entry
	indexNames map[string]string             // token -> display name

	sessionDate string
}

func NewScannerEngine(cfg models.MScannerConfig, loc *time.Location, queue *TickQueue,
	bars *BarStore, ranges *RangeTracker, book *SignalBook, scorer ConfirmationScorer,
	metrics *Metrics, universe map[string]models.MInstrument, indexNames map[string]string,
	log *logger.Logger) *ScannerEngine {

	e := &ScannerEngine{
		cfg:        cfg,
		log:        log,
		loc:        loc,
		queue:      queue,
		bars:       bars,
		ranges:     ranges,
		book:       book,
		scorer:     scorer,
		metrics:    metrics,
		universe:   universe,
		indexNames: indexNames,
	}
	e.normalizer = &Normalizer{IsIndex: func(token string) bool {
		_, ok := indexNames[token]
		return ok
	}}
	return e
}

// -----------------------------------------------------------------------------

// Run consumes ticks until the context ends. In-flight range reconstructions
// are allowed to finish on shutdown.
func (e *ScannerEngine) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	e.log.Info("scanner engine started (window %s-%s %s)",
		e.cfg.OpeningRangeStart, e.cfg.OpeningRangeEnd, e.cfg.Timezone)

	for {
		select {
		case <-ctx.Done():
			e.ranges.WaitForFetches()
			e.log.Info("scanner engine stopped")
			return
		case raw := <-e.queue.C():
			e.ProcessRaw(raw)
		}
	}
}

// -----------------------------------------------------------------------------

// ProcessRaw runs one tick through the full pipeline. Exported so the replay
// harness can drive the engine without a live feed.
func (e *ScannerEngine) ProcessRaw(raw models.MRawTick) {
	tick, err := e.normalizer.Normalize(raw)
	if err != nil {
		e.metrics.TicksRejected.Add(1)
		return
	}

	e.rolloverIfNewSession(tick.EventTime)

	if name, isIndex := e.indexNames[tick.Token]; isIndex {
		e.applyIndexTick(name, tick)
		return
	}

	inst, tracked := e.universe[tick.Token]
	if !tracked {
		return
	}

	// Liquidity gate. A wide spread clears any standing signal and skips the
	// rest of the pipeline for this tick; the next tight-spread tick
	// re-evaluates from scratch.
	if tick.HasBook {
		if spread := SpreadPercent(tick.Bid, tick.Ask, tick.Price); spread > e.cfg.SpreadThresholdPct {
			if e.book.Clear(tick.Token) {
				e.metrics.SignalsCleared.Add(1)
				e.log.Debug("cleared signal for %s, spread %.2f%%", inst.Symbol, spread)
			}
			return
		}
	}

	newBar, anomaly := e.bars.Apply(tick.Token, tick.Price, tick.CumulativeVolume, tick.EventTime)
	if newBar {
		e.metrics.BarsBuilt.Add(1)
	}
	if anomaly {
		e.metrics.VolumeAnomalies.Add(1)
		e.log.Warning("cumulative volume went backwards for %s, delta clamped", inst.Symbol)
	}

	status := e.ranges.Observe(tick.Token, tick.Price, tick.Open, tick.EventTime)
	if status.JustClosed {
		e.metrics.RangesClosed.Add(1)
	}
	if status.InWindow || !status.Ready {
		return
	}

	e.evaluateBreakout(inst, tick, status)
}

// -----------------------------------------------------------------------------

func (e *ScannerEngine) evaluateBreakout(inst models.MInstrument, tick models.MTick, status RangeStatus) {
	breakout := false
	switch inst.Bias {
	case models.BiasBullish:
		breakout = tick.Price > status.High
	case models.BiasBearish:
		breakout = tick.Price < status.Low
	}

	if !breakout {
		if e.book.Clear(tick.Token) {
			e.metrics.SignalsCleared.Add(1)
		}
		return
	}

	result := e.scorer.Confirmation(e.bars.Bars(tick.Token), inst.Bias)
	e.book.Set(models.MSignal{
		Token:  tick.Token,
		Symbol: inst.Symbol,
		Bias:   inst.Bias,
		Score:  breakoutBaseScore + result.Score,
		Price:  tick.Price,
		At:     tick.EventTime,
	})
	e.metrics.SignalsEmitted.Add(1)
}

func (e *ScannerEngine) applyIndexTick(name string, tick models.MTick) {
	change := tick.Price - tick.Open
	pct := 0.0
	if tick.Open != 0 {
		pct = change / tick.Open * 100.0
	}
	e.book.SetIndex(models.MIndexState{
		Token:         tick.Token,
		Name:          name,
		LTP:           tick.Price,
		Change:        change,
		PercentChange: pct,
	})
}

// rolloverIfNewSession wipes intraday state when the event date changes.
// Aggregation state is intentionally not durable across sessions.
func (e *ScannerEngine) rolloverIfNewSession(eventTime time.Time) {
	date := eventTime.In(e.loc).Format("2006-01-02")
	if date == e.sessionDate {
		return
	}
	if e.sessionDate != "" {
		e.log.Info("session rollover %s -> %s, resetting intraday state", e.sessionDate, date)
		e.bars.Reset()
		e.ranges.Reset()
		e.book.Reset()
	}
	e.sessionDate = date
}

// -----------------------------------------------------------------------------

// Detail builds the per-instrument diagnostic view. Fewer than two bars is
// reported as ErrInsufficientData rather than a partial answer.
func (e *ScannerEngine) Detail(token string) (models.MInstrumentDetail, error) {
	inst, tracked := e.universe[token]
	if !tracked {
		return models.MInstrumentDetail{}, errors.New("unknown instrument")
	}

	bars := e.bars.Bars(token)
	if len(bars) < 2 {
		return models.MInstrumentDetail{}, ErrInsufficientData
	}

	detail := models.MInstrumentDetail{
		Token:    token,
		Symbol:   inst.Symbol,
		Bias:     inst.Bias,
		BarCount: len(bars),
	}
	if r, ok := e.ranges.Get(token); ok {
		detail.RangeHigh = r.High
		detail.RangeLow = r.Low
		detail.RangeClosed = r.Ready()
		detail.Synthetic = r.Synthetic
	}
	if sig, ok := e.book.Get(token); ok {
		detail.Signal = &sig
	}
	detail.Indicators = e.scorer.RecentRows(bars, 2)
	return detail, nil
}

// Metrics snapshots the pipeline counters.
func (e *ScannerEngine) MetricsSnapshot() models.MPipelineMetrics {
	return e.metrics.Snapshot(e.queue.Received(), e.queue.Dropped())
}

// Book exposes the signal book for the broadcaster.
func (e *ScannerEngine) Book() *SignalBook {
	return e.book
}
