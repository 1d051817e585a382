package engine

import (
	"context"
	"sync"
	"time"

	"orb-scanner/src/interfaces"
	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// Broadcaster decouples publishing from tick arrival: every cadence period it
// snapshots the signal book, fans the update out to websocket clients and
// persists the signals. A slow database write delays the next publish but
// never blocks the consumer loop.
// ----------------------------------------------------------------------------------

type Broadcaster struct {
	engine    *ScannerEngine
	exchanger interfaces.IDataExchanger
	db        interfaces.IDatabase
	interval  time.Duration
	log       *logger.Logger
}

func NewBroadcaster(engine *ScannerEngine, exchanger interfaces.IDataExchanger,
	db interfaces.IDatabase, interval time.Duration, log *logger.Logger) *Broadcaster {
	return &Broadcaster{
		engine:    engine,
		exchanger: exchanger,
		db:        db,
		interval:  interval,
		log:       log,
	}
}

func (b *Broadcaster) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.log.Info("broadcaster started, cadence %s", b.interval)
	for {
		select {
		case <-ctx.Done():
			b.log.Info("broadcaster stopped")
			return
		case <-ticker.C:
			b.publishOnce()
		}
	}
}

func (b *Broadcaster) publishOnce() {
	bullish, bearish, indices := b.engine.Book().Snapshot()

	update := models.MWatchlistUpdate{
		Type:    "watchlist_update",
		At:      time.Now(),
		Bullish: bullish,
		Bearish: bearish,
		Indices: indices,
	}
	b.exchanger.Broadcast(update)
	b.engine.metrics.Broadcasts.Add(1)

	if b.db == nil {
		return
	}
	signals := make([]models.MSignal, 0, len(bullish)+len(bearish))
	signals = append(signals, bullish...)
	signals = append(signals, bearish...)
	if len(signals) == 0 {
		return
	}
	if err := b.db.SaveSignals(signals); err != nil {
		b.log.Error("persist signals: %v", err)
	}
}
