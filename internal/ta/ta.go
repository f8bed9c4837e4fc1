package ta

import (
	"math"

	"ai-scalper/internal/types"
)

// RSI computes Wilder's smoothed RSI over the full price series.
// Fewer than period+1 prices returns the neutral 50 rather than an error.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50
	}
	gain, loss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	for i := period + 1; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		g, l := 0.0, 0.0
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ATR averages the true range of the last period bars. Fewer than period
// bars returns 0.
func ATR(bars []types.Bar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}
	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		b := bars[i]
		tr := b.High - b.Low
		if i > 0 {
			pc := bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(b.High-pc), math.Abs(b.Low-pc)))
		}
		sum += tr
	}
	return sum / float64(period)
}

// EMA returns the exponential moving average series, seeded at the first
// data point with smoothing k = 2/(period+1).
func EMA(data []float64, period int) []float64 {
	if len(data) == 0 || period <= 0 {
		return nil
	}
	k := 2.0 / float64(period+1)
	out := make([]float64, len(data))
	out[0] = data[0]
	for i := 1; i < len(data); i++ {
		out[i] = data[i]*k + out[i-1]*(1-k)
	}
	return out
}

// MACD computes the MACD line (EMA short minus EMA long), its signal line,
// and the histogram. Insufficient history yields the zero triple silently.
func MACD(prices []float64, short, long, signal int) types.MACDResult {
	if len(prices) < long {
		return types.MACDResult{}
	}
	emaShort := EMA(prices, short)
	emaLong := EMA(prices, long)
	// MACD line is meaningful only once the long EMA has seen long points.
	macdLine := make([]float64, 0, len(prices)-long+1)
	for i := long - 1; i < len(prices); i++ {
		macdLine = append(macdLine, emaShort[i]-emaLong[i])
	}
	if len(macdLine) < signal {
		return types.MACDResult{}
	}
	signalLine := EMA(macdLine, signal)
	m := macdLine[len(macdLine)-1]
	s := signalLine[len(signalLine)-1]
	return types.MACDResult{MACD: m, Signal: s, Histogram: m - s}
}
