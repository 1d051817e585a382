package engine

import (
	"sort"
	"sync"

	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// SignalBook holds the current best-known signal per instrument plus the
// tracked index states. The pipeline consumer writes, the broadcaster and
// HTTP handlers read copies.
// ----------------------------------------------------------------------------------

type SignalBook struct {
	mu      sync.RWMutex
	signals map[string]models.MSignal
	indices map[string]models.MIndexState
	topN    int
}

func NewSignalBook(topN int) *SignalBook {
	return &SignalBook{
		signals: make(map[string]models.MSignal),
		indices: make(map[string]models.MIndexState),
		topN:    topN,
	}
}

func (b *SignalBook) Set(sig models.MSignal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signals[sig.Token] = sig
}

// Clear removes the instrument's signal, reporting whether one existed.
func (b *SignalBook) Clear(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, existed := b.signals[token]
	delete(b.signals, token)
	return existed
}

func (b *SignalBook) Get(token string) (models.MSignal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sig, ok := b.signals[token]
	return sig, ok
}

func (b *SignalBook) SetIndex(state models.MIndexState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.indices[state.Token] = state
}

// -----------------------------------------------------------------------------

// Snapshot returns the ranked signal lists, score descending, truncated to
// topN per side, plus the index states sorted by name.
func (b *SignalBook) Snapshot() (bullish, bearish []models.MSignal, indices []models.MIndexState) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sig := range b.signals {
		switch sig.Bias {
		case models.BiasBullish:
			bullish = append(bullish, sig)
		case models.BiasBearish:
			bearish = append(bearish, sig)
		}
	}
	rankSignals(bullish)
	rankSignals(bearish)
	if b.topN > 0 {
		if len(bullish) > b.topN {
			bullish = bullish[:b.topN]
		}
		if len(bearish) > b.topN {
			bearish = bearish[:b.topN]
		}
	}

	for _, st := range b.indices {
		indices = append(indices, st)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i].Name < indices[j].Name })
	return bullish, bearish, indices
}

// rankSignals orders by score descending, symbol as the tiebreak so snapshots
// are stable.
func rankSignals(sigs []models.MSignal) {
	sort.Slice(sigs, func(i, j int) bool {
		if sigs[i].Score != sigs[j].Score {
			return sigs[i].Score > sigs[j].Score
		}
		return sigs[i].Symbol < sigs[j].Symbol
	})
}

// Reset drops all signals and index states. Called on session-date change.
func (b *SignalBook) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signals = make(map[string]models.MSignal)
	b.indices = make(map[string]models.MIndexState)
}
