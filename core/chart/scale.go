package chart

import (
	"math"
	"strconv"

	"github.com/aclements/go-moremath/scale"
)

// LinearScale maps a numeric domain onto a pixel range.
type LinearScale struct {
	s      scale.Linear
	r0, r1 float64
}

// NewLinearScale builds a scale for [lo, hi] → [r0, r1]. A NaN domain (no data)
// becomes [0, 1]; a zero-width domain is widened by one unit on each side.
func NewLinearScale(lo, hi, r0, r1 float64) *LinearScale {
	switch {
	case math.IsNaN(lo) || math.IsNaN(hi):
		lo, hi = 0, 1
	case lo == hi:
		lo, hi = lo-1, hi+1
	case lo > hi:
		lo, hi = hi, lo
	}
	return &LinearScale{s: scale.Linear{Min: lo, Max: hi}, r0: r0, r1: r1}
}

// Nice widens the domain outward to tick boundaries.
func (l *LinearScale) Nice() *LinearScale {
	l.s.Nice(scale.TickOptions{Max: tickCount})
	return l
}

// Map converts a domain value to a pixel position.
func (l *LinearScale) Map(v float64) float64 {
	return l.r0 + l.s.Map(v)*(l.r1-l.r0)
}

// Domain returns the (possibly niced) domain.
func (l *LinearScale) Domain() (lo, hi float64) {
	return l.s.Min, l.s.Max
}

// Range returns the pixel range.
func (l *LinearScale) Range() (r0, r1 float64) {
	return l.r0, l.r1
}

// Ticks returns at most tickCount major tick values inside the domain.
func (l *LinearScale) Ticks() []float64 {
	major, _ := l.s.Ticks(scale.TickOptions{Max: tickCount})
	return major
}

// tickLabels formats ticks with just enough decimals for their spacing.
func tickLabels(ticks []float64) []string {
	decimals := 0
	if len(ticks) > 1 {
		step := math.Abs(ticks[1] - ticks[0])
		if step > 0 && step < 1 {
			decimals = int(math.Ceil(-math.Log10(step) - 1e-9))
		}
	}
	labels := make([]string, len(ticks))
	for i, t := range ticks {
		if math.Abs(t) < 1e-12 {
			t = 0
		}
		labels[i] = strconv.FormatFloat(t, 'f', decimals, 64)
	}
	return labels
}

// BandScale splits a pixel range into equal bands, one per domain entry,
// laid out like d3.scaleBand with align 0.5.
type BandScale struct {
	domain    []string
	start     float64
	step      float64
	bandwidth float64
}

// NewBandScale lays out len(domain) bands over [r0, r1].
func NewBandScale(domain []string, r0, r1, paddingInner, paddingOuter float64) *BandScale {
	n := float64(len(domain))
	step := (r1 - r0) / math.Max(1, n-paddingInner+paddingOuter*2)
	start := r0 + (r1-r0-step*(n-paddingInner))*0.5
	return &BandScale{
		domain:    domain,
		start:     start,
		step:      step,
		bandwidth: step * (1 - paddingInner),
	}
}

// Pos returns the left edge of band i.
func (b *BandScale) Pos(i int) float64 {
	return b.start + b.step*float64(i)
}

// Bandwidth returns the width of every band.
func (b *BandScale) Bandwidth() float64 {
	return b.bandwidth
}

// Domain returns the band labels in order.
func (b *BandScale) Domain() []string {
	return b.domain
}
