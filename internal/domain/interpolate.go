package domain

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Interpolator evaluates a reference stream at arbitrary timestamps by
// piecewise-linear interpolation. Outside the sampled range the first and
// last segments are extended linearly; callers decide how much of that is
// acceptable (see CheckExtrapolation).
type Interpolator struct {
	origin int64
	end    int64
	xs     []float64
	ys     []float64
	fit    interp.PiecewiseLinear
}

// NewInterpolator fits an interpolator over (times, values). times must be
// strictly increasing nanosecond timestamps.
func NewInterpolator(times []int64, values []float64) (*Interpolator, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("interpolator: %d times but %d values", len(times), len(values))
	}
	if len(times) < 2 {
		return nil, fmt.Errorf("interpolator: %d point(s): %w", len(times), ErrDegenerateReference)
	}

	// interp.PiecewiseLinear panics on non-increasing abscissae.
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("interpolator: times not strictly increasing at index %d: %w", i, ErrDegenerateReference)
		}
	}

	// Seconds relative to the first sample keep sub-microsecond precision in
	// a float64; absolute epoch nanoseconds would not.
	origin := times[0]
	xs := make([]float64, len(times))
	for i, t := range times {
		xs[i] = float64(t-origin) / 1e9
	}
	ys := make([]float64, len(values))
	copy(ys, values)

	in := &Interpolator{origin: origin, end: times[len(times)-1], xs: xs, ys: ys}
	if err := in.fit.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("interpolator: %w", err)
	}
	return in, nil
}

// Domain returns the first and last timestamps of the reference stream.
func (in *Interpolator) Domain() (start, end int64) {
	return in.origin, in.end
}

// At evaluates the interpolator at timestamp t.
func (in *Interpolator) At(t int64) float64 {
	x := float64(t-in.origin) / 1e9
	n := len(in.xs)
	switch {
	case x < in.xs[0]:
		return extend(in.xs[0], in.ys[0], in.xs[1], in.ys[1], x)
	case x > in.xs[n-1]:
		return extend(in.xs[n-2], in.ys[n-2], in.xs[n-1], in.ys[n-1], x)
	}
	return in.fit.Predict(x)
}

// Evaluate returns the interpolated value at every timestamp in ts.
func (in *Interpolator) Evaluate(ts []int64) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = in.At(t)
	}
	return out
}

// extend evaluates the line through (x0, y0) and (x1, y1) at x.
func extend(x0, y0, x1, y1, x float64) float64 {
	return y0 + (y1-y0)/(x1-x0)*(x-x0)
}
