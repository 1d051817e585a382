package core

import "math"

// -----------------------------------------------------------------------------

// RSISeries computes the Wilder-smoothed relative strength index over closes.
// The first `period` entries are NaN while the average gain/loss warms up.
func RSISeries(closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || n <= period {
		return out
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		gain := 0.0
		loss := 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// -----------------------------------------------------------------------------

// EMASeries computes an exponential moving average seeded with the simple
// average of the first `period` values. Entries before the seed are NaN.
func EMASeries(values []float64, period int) []float64 {
	n := len(values)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || n < period {
		return out
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	out[period-1] = ema

	k := 2.0 / float64(period+1)
	for i := period; i < n; i++ {
		ema = (values[i]-ema)*k + ema
		out[i] = ema
	}
	return out
}

// -----------------------------------------------------------------------------

// MACDSeries computes the MACD line and its signal line. Entries without
// enough history are NaN.
func MACDSeries(closes []float64, fast, slow, signal int) (macd []float64, signalLine []float64) {
	n := len(closes)
	macd = make([]float64, n)
	signalLine = make([]float64, n)
	for i := range macd {
		macd[i] = math.NaN()
		signalLine[i] = math.NaN()
	}
	if n == 0 || fast <= 0 || slow <= fast {
		return macd, signalLine
	}

	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)
	for i := 0; i < n; i++ {
		if !math.IsNaN(fastEMA[i]) && !math.IsNaN(slowEMA[i]) {
			macd[i] = fastEMA[i] - slowEMA[i]
		}
	}

	// Signal is an EMA over the valid MACD values only.
	firstValid := -1
	for i := 0; i < n; i++ {
		if !math.IsNaN(macd[i]) {
			firstValid = i
			break
		}
	}
	if firstValid < 0 || n-firstValid < signal {
		return macd, signalLine
	}
	sigOverValid := EMASeries(macd[firstValid:], signal)
	for i, v := range sigOverValid {
		signalLine[firstValid+i] = v
	}
	return macd, signalLine
}

// -----------------------------------------------------------------------------

// VWAPSeries computes the running session volume-weighted average price from
// typical prices (H+L+C)/3. Runs from the start of the slice; the caller
// passes one session's bars. Zero cumulative volume yields the typical price.
func VWAPSeries(highs, lows, closes, volumes []float64) []float64 {
	n := len(closes)
	out := make([]float64, n)
	cumPV := 0.0
	cumV := 0.0
	for i := 0; i < n; i++ {
		typical := (highs[i] + lows[i] + closes[i]) / 3.0
		cumPV += typical * volumes[i]
		cumV += volumes[i]
		if cumV > 0 {
			out[i] = cumPV / cumV
		} else {
			out[i] = typical
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// ATRSeries computes the Wilder-smoothed average true range. Entries before
// the warm-up are NaN.
func ATRSeries(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || n <= period {
		return out
	}

	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	atr := sum / float64(period)
	out[period] = atr
	for i := period + 1; i < n; i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = atr
	}
	return out
}
