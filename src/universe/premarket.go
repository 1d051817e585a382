package universe

import (
	"context"
	"math"
	"sort"
	"time"

	"orb-scanner/src/analysis/core"
	"orb-scanner/src/interfaces"
	"orb-scanner/src/logger"
	"orb-scanner/src/models"
	"orb-scanner/src/utils"
)

// ----------------------------------------------------------------------------------
// Pre-market watchlist builder. For each scannable instrument it pulls ~60
// sessions of daily candles, keeps only names that actually move (ATR%
// floor), scores each side on daily RSI and MACD posture, and writes the
// strongest names per side with their bias. Runs once before the open as a
// separate binary.
// ----------------------------------------------------------------------------------

const (
	atrPeriod     = 14
	rsiPeriod     = 14
	rsiBullLevel  = 60.0
	rsiBearLevel  = 40.0
	sideScoreRSI  = 50
	sideScoreMACD = 50
	minDailyBars  = 35 // MACD signal warm-up over daily candles
	lookbackDays  = 90 // calendar days, ~60 sessions
	dateLayout    = "2006-01-02"
)

type Builder struct {
	History  interfaces.IHistoryProvider
	Calendar *utils.TradingCalendar
	Logger   *logger.Logger

	// MinATRPct filters out names too quiet to break anything; TopPerSide
	// caps each bias list so the feed subscription stays small.
	MinATRPct  float64
	TopPerSide int
}

type candidate struct {
	token  string
	symbol string
	bias   models.Bias
	score  int
	atrPct float64
}

// -----------------------------------------------------------------------------

// Build evaluates every instrument and returns the token -> {symbol, bias}
// map. Fetch failures get one retry pass before being given up on.
func (b *Builder) Build(ctx context.Context, instruments []MInstrumentRecord, asOf time.Time) map[string]models.MInstrument {
	prevDay := b.Calendar.PreviousTradingDay(asOf)
	from := prevDay.AddDate(0, 0, -lookbackDays).Format(dateLayout) + " 09:15"
	to := prevDay.Format(dateLayout) + " 15:30"

	var candidates []candidate
	var failed []MInstrumentRecord

	for _, rec := range instruments {
		if ctx.Err() != nil {
			b.Logger.Warning("pre-market build cancelled after %d candidates", len(candidates))
			return b.assemble(candidates)
		}
		c, err := b.evaluate(ctx, rec, from, to)
		if err != nil {
			failed = append(failed, rec)
			continue
		}
		if c != nil {
			candidates = append(candidates, *c)
		}
	}

	// Second pass over transient failures only.
	if len(failed) > 0 {
		b.Logger.Info("pre-market: retrying %d failed instruments", len(failed))
		for _, rec := range failed {
			if ctx.Err() != nil {
				break
			}
			c, err := b.evaluate(ctx, rec, from, to)
			if err != nil {
				b.Logger.Debug("pre-market: giving up on %s: %v", rec.Symbol, err)
				continue
			}
			if c != nil {
				candidates = append(candidates, *c)
			}
		}
	}

	return b.assemble(candidates)
}

// -----------------------------------------------------------------------------

// evaluate returns nil, nil when the instrument is healthy but does not
// qualify (too quiet, indicators disagree).
func (b *Builder) evaluate(ctx context.Context, rec MInstrumentRecord, from, to string) (*candidate, error) {
	bars, err := b.History.FetchDailyBars(ctx, rec.Token, from, to)
	if err != nil {
		return nil, err
	}
	if len(bars) < minDailyBars {
		return nil, nil
	}

	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, bar := range bars {
		highs[i] = bar.High
		lows[i] = bar.Low
		closes[i] = bar.Close
	}
	last := n - 1
	if closes[last] <= 0 {
		return nil, nil
	}

	atr := core.ATRSeries(highs, lows, closes, atrPeriod)[last]
	if math.IsNaN(atr) {
		return nil, nil
	}
	atrPct := atr / closes[last] * 100.0
	if atrPct < b.MinATRPct {
		return nil, nil
	}

	rsi := core.RSISeries(closes, rsiPeriod)[last]
	macd, signal := core.MACDSeries(closes, 12, 26, 9)
	if math.IsNaN(rsi) || math.IsNaN(macd[last]) || math.IsNaN(signal[last]) {
		return nil, nil
	}

	bull, bear := 0, 0
	if rsi > rsiBullLevel {
		bull += sideScoreRSI
	}
	if rsi < rsiBearLevel {
		bear += sideScoreRSI
	}
	if macd[last] > signal[last] {
		bull += sideScoreMACD
	} else if macd[last] < signal[last] {
		bear += sideScoreMACD
	}

	if bull == bear {
		return nil, nil
	}
	c := &candidate{token: rec.Token, symbol: rec.Symbol, atrPct: atrPct}
	if bull > bear {
		c.bias = models.BiasBullish
		c.score = bull
	} else {
		c.bias = models.BiasBearish
		c.score = bear
	}
	return c, nil
}

// -----------------------------------------------------------------------------

func (b *Builder) assemble(candidates []candidate) map[string]models.MInstrument {
	var bulls, bears []candidate
	for _, c := range candidates {
		if c.bias == models.BiasBullish {
			bulls = append(bulls, c)
		} else {
			bears = append(bears, c)
		}
	}

	rank := func(side []candidate) []candidate {
		sort.Slice(side, func(i, j int) bool {
			if side[i].score != side[j].score {
				return side[i].score > side[j].score
			}
			return side[i].atrPct > side[j].atrPct
		})
		if b.TopPerSide > 0 && len(side) > b.TopPerSide {
			side = side[:b.TopPerSide]
		}
		return side
	}
	bulls = rank(bulls)
	bears = rank(bears)

	wl := make(map[string]models.MInstrument, len(bulls)+len(bears))
	for _, c := range append(bulls, bears...) {
		wl[c.token] = models.MInstrument{Symbol: c.symbol, Bias: c.bias}
	}
	b.Logger.Info("pre-market build selected %d bullish, %d bearish", len(bulls), len(bears))
	return wl
}
