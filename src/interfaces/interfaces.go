package interfaces

import (
	"context"
	"sync"

	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// Component contracts. Main wires concrete implementations; everything else
// depends on these so tests can swap in fakes.
// ----------------------------------------------------------------------------------

// TickSink receives raw ticks from a feed. Offer never blocks; it reports
// whether the tick was accepted.
type TickSink interface {
	Offer(tick models.MRawTick) bool
}

// ITickSource is a live market data feed.
type ITickSource interface {
	Name() string
	Start(ctx context.Context, sink TickSink, wg *sync.WaitGroup) error
	Stop()
}

// IHistoryProvider fetches historical candles for range reconstruction.
type IHistoryProvider interface {
	FetchMinuteBars(ctx context.Context, token string, from, to string) ([]models.MHistoricalBar, error)
	FetchDailyBars(ctx context.Context, token string, from, to string) ([]models.MHistoricalBar, error)
}

// IDatabase persists emitted signals.
type IDatabase interface {
	Initialize() error
	SaveSignals(signals []models.MSignal) error
	CleanupOldData(retentionDays int) error
	Close() error
}

// IDataExchanger pushes snapshots to connected clients.
type IDataExchanger interface {
	Broadcast(update models.MWatchlistUpdate)
	ClientCount() int
}

// INetworkManager performs HTTP calls with retry and timeout policy applied.
type INetworkManager interface {
	Get(ctx context.Context, url string) ([]byte, error)
	PostJSON(ctx context.Context, url string, body interface{}, headers map[string]string) ([]byte, error)
}

// TokenProvider supplies authenticated headers for broker API calls.
type TokenProvider interface {
	AuthHeaders() map[string]string
}
