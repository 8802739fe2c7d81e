package indicator

// smma is a Wilder smoothed moving average over scalar inputs.
// First value is the simple mean of the first period inputs, then
// SMMA = (prev*(period-1) + x) / period.
type smma struct {
	period  int
	count   int
	sum     float64
	current float64
}

func newSMMA(period int) *smma {
	return &smma{period: period}
}

func (s *smma) update(x float64) {
	s.count++

	if s.count <= s.period {
		// Accumulate for initial SMA seed
		s.sum += x
		if s.count == s.period {
			s.current = s.sum / float64(s.period)
		}
		return
	}

	s.current = (s.current*float64(s.period-1) + x) / float64(s.period)
}

func (s *smma) ready() bool { return s.count >= s.period }

func (s *smma) reset() {
	s.count = 0
	s.sum = 0
	s.current = 0
}
