// Package indicators provides streaming indicators fed one value per
// bar. All of them are deterministic and allocation-light so they can
// sit inside a strategy's step path.
package indicators

import (
	"fmt"
	"math"
)

// Indicator is the common shape: feed values with Update, read Value
// once Ready reports true.
type Indicator interface {
	Name() string
	Warmup() int
	Reset()
	Update(v float64)
	Ready() bool
	Value() float64
}

// SimpleMA is a streaming simple moving average.
type SimpleMA struct {
	period int
	values []float64
}

func NewMA(period int) *SimpleMA {
	return &SimpleMA{
		period: period,
		values: make([]float64, 0, period),
	}
}

func (m *SimpleMA) Name() string { return fmt.Sprintf("MA(%d)", m.period) }
func (m *SimpleMA) Warmup() int  { return m.period }

func (m *SimpleMA) Reset() {
	m.values = m.values[:0]
}

func (m *SimpleMA) Update(v float64) {
	m.values = append(m.values, v)
	if len(m.values) > m.period {
		m.values = m.values[1:]
	}
}

func (m *SimpleMA) Ready() bool {
	return len(m.values) >= m.period
}

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	sum := 0.0
	for _, v := range m.values {
		sum += v
	}
	return sum / float64(len(m.values))
}

// ExponentialMA is a streaming exponential moving average, seeded with
// an SMA over the warmup period.
type ExponentialMA struct {
	period     int
	multiplier float64
	ema        float64
	count      int
	warmupSum  float64
}

func NewEMA(period int) *ExponentialMA {
	return &ExponentialMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *ExponentialMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *ExponentialMA) Warmup() int  { return e.period }

func (e *ExponentialMA) Reset() {
	e.ema = 0
	e.count = 0
	e.warmupSum = 0
}

func (e *ExponentialMA) Update(v float64) {
	if e.count < e.period {
		e.warmupSum += v
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum / float64(e.period)
		}
		return
	}
	e.ema = (v-e.ema)*e.multiplier + e.ema
}

func (e *ExponentialMA) Ready() bool {
	return e.count >= e.period
}

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}

// RollingStats keeps a window of values and exposes mean, sample
// standard deviation and z-score of the latest value.
type RollingStats struct {
	period int
	values []float64
}

func NewRollingStats(period int) *RollingStats {
	return &RollingStats{
		period: period,
		values: make([]float64, 0, period),
	}
}

func (r *RollingStats) Name() string { return fmt.Sprintf("Rolling(%d)", r.period) }
func (r *RollingStats) Warmup() int  { return r.period }

func (r *RollingStats) Reset() {
	r.values = r.values[:0]
}

func (r *RollingStats) Update(v float64) {
	r.values = append(r.values, v)
	if len(r.values) > r.period {
		r.values = r.values[1:]
	}
}

func (r *RollingStats) Ready() bool {
	return len(r.values) >= r.period
}

func (r *RollingStats) Mean() float64 {
	if len(r.values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range r.values {
		sum += v
	}
	return sum / float64(len(r.values))
}

// StdDev is the sample standard deviation (n-1 denominator) of the
// window. Zero until at least two values are present.
func (r *RollingStats) StdDev() float64 {
	n := len(r.values)
	if n < 2 {
		return 0
	}
	mean := r.Mean()
	var ss float64
	for _, v := range r.values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// ZScore of the most recent value against the window; 0 when the
// window's deviation is zero.
func (r *RollingStats) ZScore() float64 {
	if !r.Ready() {
		return 0
	}
	sd := r.StdDev()
	if sd == 0 {
		return 0
	}
	return (r.values[len(r.values)-1] - r.Mean()) / sd
}

// Value implements Indicator, reporting the window mean.
func (r *RollingStats) Value() float64 { return r.Mean() }
