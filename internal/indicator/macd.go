package indicator

import "github.com/sharavanan171081/AI-Stock-App/internal/model"

// MACD tracks EMA(fast) - EMA(slow) and an EMA(signal) of that line.
// The MACD line is defined once the slow EMA is ready; the signal line
// starts on the first defined MACD value and needs signal more of them.
type MACD struct {
	fast, slow *EMA
	signal     *ewm
	sigPeriod  int
	macd       float64
}

// NewMACD creates a MACD indicator, typically NewMACD(12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:      NewEMA(fast),
		slow:      NewEMA(slow),
		signal:    newEWM(2.0/float64(signal+1), signal),
		sigPeriod: signal,
	}
}

func (m *MACD) Name() string { return "MACD" }

func (m *MACD) Update(p model.PricePoint) {
	m.fast.Update(p)
	m.slow.Update(p)
	if !m.slow.Ready() {
		return
	}
	m.macd = m.fast.e.current - m.slow.e.current
	m.signal.update(m.macd)
}

// Value returns the MACD line.
func (m *MACD) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.macd
}

func (m *MACD) Ready() bool { return m.slow.Ready() }

// Signal returns the signal line. Returns 0 until SignalReady.
func (m *MACD) Signal() float64 {
	if !m.signal.ready() {
		return 0
	}
	return m.signal.current
}

func (m *MACD) SignalReady() bool { return m.signal.ready() }

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.reset()
	m.macd = 0
}
