package engine

import (
	"errors"

	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// Tick normalization. Scaled integer prices become floats here and nowhere
// else downstream.
// ----------------------------------------------------------------------------------

var errIncompleteTick = errors.New("tick missing required field")

const priceScale = 100.0

// Normalizer validates raw ticks and converts them to canonical form.
// Index ticks only need a price and the day's open; equity ticks also need a
// cumulative volume.
type Normalizer struct {
	IsIndex func(token string) bool
}

// Normalize returns the canonical tick or errIncompleteTick. A dropped tick
// is counted by the caller, never partially applied.
func (n *Normalizer) Normalize(raw models.MRawTick) (models.MTick, error) {
	if raw.Token == "" || raw.LastTradedPrice <= 0 || raw.OpenPrice <= 0 {
		return models.MTick{}, errIncompleteTick
	}

	index := n.IsIndex != nil && n.IsIndex(raw.Token)
	if !index && raw.VolumeTradedToday <= 0 {
		return models.MTick{}, errIncompleteTick
	}

	tick := models.MTick{
		Token:            raw.Token,
		Price:            float64(raw.LastTradedPrice) / priceScale,
		Open:             float64(raw.OpenPrice) / priceScale,
		CumulativeVolume: float64(raw.VolumeTradedToday),
		EventTime:        raw.EventTime,
	}
	if raw.HasDepth && raw.BestBidPrice > 0 && raw.BestAskPrice > 0 {
		tick.Bid = float64(raw.BestBidPrice) / priceScale
		tick.Ask = float64(raw.BestAskPrice) / priceScale
		tick.HasBook = true
	}
	return tick, nil
}
