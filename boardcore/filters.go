package boardcore

import "math"

// PT1Filter is a first-order (single-pole) lowpass filter, used for the
// D-term lowpass and the loop-overshoot EMA (spec §4.5, §5).
type PT1Filter struct {
	state    float64
	k        float64
	initDone bool
}

// NewPT1Filter builds a PT1 filter with cutoff frequency hz sampled at
// sampleHz.
func NewPT1Filter(hz, sampleHz float64) PT1Filter {
	rc := 1 / (2 * math.Pi * hz)
	dt := 1 / sampleHz
	return PT1Filter{k: dt / (rc + dt)}
}

// Apply runs one step of the filter and returns the filtered value.
func (f *PT1Filter) Apply(x float64) float64 {
	if !f.initDone {
		f.state = x
		f.initDone = true
		return f.state
	}
	f.state = f.state + f.k*(x-f.state)
	return f.state
}

// Reset clears the filter's internal state so the next Apply call seeds it.
func (f *PT1Filter) Reset() {
	f.initDone = false
	f.state = 0
}

// Value returns the filter's current output without stepping it.
func (f *PT1Filter) Value() float64 {
	return f.state
}

// BiquadKind selects a lowpass or highpass biquad response.
type BiquadKind int

const (
	BiquadLowpass BiquadKind = iota
	BiquadHighpass
)

// Biquad is a standard second-order IIR (Direct Form I) biquad filter, used
// for the motor-current prefilter feeding the Adaptive Torque Response
// shaper (spec §4.4 ATR, C1 "reusable second-order lowpass/highpass ...
// filters"). Coefficients are the textbook RBJ cookbook transforms; no pack
// example ships a DSP library small enough to justify depending on one for
// a pair of difference equations (see DESIGN.md's standard-library
// justifications).
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

// NewBiquad builds a biquad of the given kind with corner frequency hz,
// Q factor q, sampled at sampleHz.
func NewBiquad(kind BiquadKind, hz, q, sampleHz float64) Biquad {
	w0 := 2 * math.Pi * hz / sampleHz
	cosw0 := math.Cos(w0)
	sinw0 := math.Sin(w0)
	alpha := sinw0 / (2 * q)

	var b0, b1, b2, a0, a1, a2 float64
	switch kind {
	case BiquadHighpass:
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	default: // BiquadLowpass
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	}

	return Biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

// Apply runs one step of the filter and returns the filtered value.
func (f *Biquad) Apply(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// Value returns the filter's most recent output without stepping it.
func (f *Biquad) Value() float64 {
	return f.y1
}
