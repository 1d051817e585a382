package analysis

import (
	"math"

	"orb-scanner/src/analysis/core"
	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// Confirmation scoring. A breakout is worth 100 points; the indicators add up
// to 100 more: RSI agreement 40, MACD agreement 40, price vs session VWAP 20.
// ----------------------------------------------------------------------------------

const (
	rsiWeight  = 40
	macdWeight = 40
	vwapWeight = 20

	rsiBullishLevel = 65.0
	rsiBearishLevel = 35.0
)

type ScoreResult struct {
	Score  int
	Reason string
}

type Scorer struct {
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	MinBars    int
}

// NewScorer uses the standard 14 / 12-26-9 parameterisation. minBars is the
// minimum bar history before any confirmation is attempted.
func NewScorer(minBars int) *Scorer {
	return &Scorer{
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		MinBars:    minBars,
	}
}

// -----------------------------------------------------------------------------

// Rows aligns the indicator series over one session's minute bars.
func (s *Scorer) Rows(bars []models.MBar) []models.MIndicatorRow {
	n := len(bars)
	if n == 0 {
		return nil
	}

	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	rsi := core.RSISeries(closes, s.RSIPeriod)
	macd, macdSignal := core.MACDSeries(closes, s.MACDFast, s.MACDSlow, s.MACDSignal)
	vwap := core.VWAPSeries(highs, lows, closes, volumes)

	rows := make([]models.MIndicatorRow, n)
	for i := 0; i < n; i++ {
		rows[i] = models.MIndicatorRow{
			Minute:     bars[i].Minute,
			Close:      closes[i],
			RSI:        rsi[i],
			MACD:       macd[i],
			MACDSignal: macdSignal[i],
			VWAP:       vwap[i],
		}
	}
	return rows
}

// -----------------------------------------------------------------------------

// Confirmation scores the last two complete indicator rows against the bias.
// Not enough history, or fewer than two rows where every indicator has warmed
// up, scores zero rather than guessing.
func (s *Scorer) Confirmation(bars []models.MBar, bias models.Bias) ScoreResult {
	if len(bars) < s.MinBars {
		return ScoreResult{Score: 0, Reason: "insufficient bar history"}
	}

	rows := s.Rows(bars)
	valid := validRows(rows)
	if len(valid) < 2 {
		return ScoreResult{Score: 0, Reason: "indicators not warmed up"}
	}

	prev := valid[len(valid)-2]
	last := valid[len(valid)-1]
	return ScoreResult{Score: scorePair(prev, last, bias), Reason: "scored"}
}

// RecentRows returns up to the last n rows with every indicator warmed up,
// oldest first. Nil while nothing has warmed up yet.
func (s *Scorer) RecentRows(bars []models.MBar, n int) []models.MIndicatorRow {
	valid := validRows(s.Rows(bars))
	if len(valid) == 0 {
		return nil
	}
	if len(valid) > n {
		valid = valid[len(valid)-n:]
	}
	return valid
}

// -----------------------------------------------------------------------------

func validRows(rows []models.MIndicatorRow) []models.MIndicatorRow {
	out := make([]models.MIndicatorRow, 0, len(rows))
	for _, r := range rows {
		if math.IsNaN(r.RSI) || math.IsNaN(r.MACD) || math.IsNaN(r.MACDSignal) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// scorePair awards RSI momentum on the last row, a MACD cross between the
// previous and last rows, and price location against session VWAP.
func scorePair(prev, last models.MIndicatorRow, bias models.Bias) int {
	score := 0
	switch bias {
	case models.BiasBullish:
		if last.RSI > rsiBullishLevel {
			score += rsiWeight
		}
		if prev.MACD < prev.MACDSignal && last.MACD > last.MACDSignal {
			score += macdWeight
		}
		if last.Close > last.VWAP {
			score += vwapWeight
		}
	case models.BiasBearish:
		if last.RSI < rsiBearishLevel {
			score += rsiWeight
		}
		if prev.MACD > prev.MACDSignal && last.MACD < last.MACDSignal {
			score += macdWeight
		}
		if last.Close < last.VWAP {
			score += vwapWeight
		}
	}
	return score
}
