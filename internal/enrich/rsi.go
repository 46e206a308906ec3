package enrich

// RSI is an incremental Wilder-smoothed Relative Strength Index.
// Update is O(1) per value — no history scans.
//
// It shares the rs=100 zero-loss convention with the batch path, so both
// produce identical values for the same series.
type RSI struct {
	period    int
	count     int
	prevValue float64
	avgGain   float64
	avgLoss   float64
	current   float64
}

// NewRSI creates an incremental RSI with the given period (typically 14).
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Update feeds the next value in the series.
func (r *RSI) Update(value float64) {
	r.count++

	if r.count == 1 {
		// First value — just record it, no delta yet
		r.prevValue = value
		return
	}

	delta := value - r.prevValue
	r.prevValue = value

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	if r.count <= r.period+1 {
		// Accumulation phase: build initial averages
		r.avgGain += gain
		r.avgLoss += loss
		if r.count == r.period+1 {
			r.avgGain /= float64(r.period)
			r.avgLoss /= float64(r.period)
			r.current = rsiValue(r.avgGain, r.avgLoss)
		}
		return
	}

	// Wilder's smoothing: avg = (prevAvg*(period-1) + new) / period
	p := float64(r.period)
	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	r.current = rsiValue(r.avgGain, r.avgLoss)
}

// Value returns the current RSI. Returns 0 until Ready.
func (r *RSI) Value() float64 { return r.current }

// Ready reports whether the lookback has been seeded (period+1 values seen).
func (r *RSI) Ready() bool { return r.count > r.period }

// Reset clears the state for reuse.
func (r *RSI) Reset() {
	r.count = 0
	r.prevValue = 0
	r.avgGain = 0
	r.avgLoss = 0
	r.current = 0
}
