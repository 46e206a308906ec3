package enrich

// SMA is an incremental simple moving average over a rolling window.
// Uses a preallocated circular buffer for a zero-allocation hot path.
// Update is O(1) per value.
type SMA struct {
	period  int
	buf     []float64
	idx     int
	count   int
	sum     float64
	current float64
}

// NewSMA creates an incremental SMA with the given period.
func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		buf:    make([]float64, period),
	}
}

// Update feeds the next value in the series.
func (s *SMA) Update(value float64) {
	if s.count >= s.period {
		// Subtract the oldest value being overwritten
		s.sum -= s.buf[s.idx]
	}
	s.buf[s.idx] = value
	s.sum += value
	s.idx = (s.idx + 1) % s.period
	s.count++

	if s.count >= s.period {
		s.current = s.sum / float64(s.period)
	}
}

// Value returns the current average. Returns 0 until Ready.
func (s *SMA) Value() float64 { return s.current }

// Ready reports whether a full window has been accumulated.
func (s *SMA) Ready() bool { return s.count >= s.period }

// Reset clears the state for reuse.
func (s *SMA) Reset() {
	s.idx = 0
	s.count = 0
	s.sum = 0
	s.current = 0
	for i := range s.buf {
		s.buf[i] = 0
	}
}
