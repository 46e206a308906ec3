// Package enrich annotates price series with technical indicators.
//
// The batch entry point is Enrich, a pure function over an ordered series.
// Incremental SMA/RSI types exist for streaming callers and are kept
// behaviorally interchangeable with the batch path.
package enrich

import "chartfeed/internal/model"

const (
	// SMAPeriod is the trailing window for the simple moving average.
	SMAPeriod = 20
	// RSIPeriod is the Wilder RSI lookback.
	RSIPeriod = 14
)

// Enrich returns a new series of the same length and order, with each point
// annotated with SMA(20) and Wilder RSI(14) computed over the series prefix.
// It never fails: an empty input yields an empty output, NaN values propagate
// into the affected indicator windows, and the input is never mutated.
func Enrich(points []model.PricePoint) []model.EnrichedPoint {
	out := make([]model.EnrichedPoint, len(points))

	var gainSum, lossSum float64 // accumulation phase
	var avgGain, avgLoss float64 // Wilder smoothing state

	for i, p := range points {
		out[i] = model.EnrichedPoint{PricePoint: p}

		if i >= SMAPeriod-1 {
			sum := 0.0
			for j := i - SMAPeriod + 1; j <= i; j++ {
				sum += points[j].Value
			}
			sma := sum / SMAPeriod
			out[i].SMA = &sma
		}

		if i == 0 {
			continue // no prior point to diff against
		}
		delta := points[i].Value - points[i-1].Value
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		if i <= RSIPeriod {
			gainSum += gain
			lossSum += loss
			if i == RSIPeriod {
				avgGain = gainSum / RSIPeriod
				avgLoss = lossSum / RSIPeriod
				rsi := rsiValue(avgGain, avgLoss)
				out[i].RSI = &rsi
			}
			continue
		}

		avgGain = (avgGain*(RSIPeriod-1) + gain) / RSIPeriod
		avgLoss = (avgLoss*(RSIPeriod-1) + loss) / RSIPeriod
		rsi := rsiValue(avgGain, avgLoss)
		out[i].RSI = &rsi
	}
	return out
}

// rsiValue applies the rs=100 convention when avgLoss is zero, so a purely
// rising (or flat) series lands just below 100 (=100-100/101) rather than at
// the textbook limit. Charts rendered from this feed rely on that constant.
func rsiValue(avgGain, avgLoss float64) float64 {
	rs := 100.0
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100.0 - 100.0/(1.0+rs)
}
